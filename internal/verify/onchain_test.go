package verify

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certverify/internal/chain"
	"certverify/internal/credential"
	"certverify/pkg/hashutil"
)

type fakeChainReader struct {
	records  []chain.OnChainCredential
	err      error
	wallet   string
	kindCode int64
}

func (f *fakeChainReader) GetCredentials(ctx context.Context, wallet string, kindCode int64) ([]chain.OnChainCredential, error) {
	f.wallet = wallet
	f.kindCode = kindCode
	return f.records, f.err
}

func anchoredTestCredential(t *testing.T) (*credential.Credential, string) {
	t.Helper()

	// Whitespace differs from the canonical form on purpose: anchoring hashed
	// the compacted serialization, not the pretty-printed one.
	raw := []byte(`{
		"issuer": "did:web:issuer.example.com",
		"type": "MSPOCredential",
		"credentialSubject": {"licenseNo": "MSPO-1234"}
	}`)
	cred, err := credential.Parse(raw)
	require.NoError(t, err)

	canonical, err := cred.CanonicalJSON()
	require.NoError(t, err)
	return cred, hashutil.SumHex(canonical)
}

func TestOnChainVerifyAnchored(t *testing.T) {
	cred, digest := anchoredTestCredential(t)
	reader := &fakeChainReader{records: []chain.OnChainCredential{
		{EncryptedCredential: "deadbeef", IssuedAt: big.NewInt(1700000000)},
		{EncryptedCredential: digest, IssuedAt: big.NewInt(1700000100)},
	}}

	passed, err := NewOnChainVerifier(reader).Verify(context.Background(), "0xabc", credential.TypeMSPO, cred)

	require.NoError(t, err)
	assert.True(t, passed)
	assert.Equal(t, "0xabc", reader.wallet)
	assert.Equal(t, credential.TypeMSPO.KindCode(), reader.kindCode)
}

func TestOnChainVerifyNotAnchored(t *testing.T) {
	cred, _ := anchoredTestCredential(t)
	reader := &fakeChainReader{records: []chain.OnChainCredential{
		{EncryptedCredential: "deadbeef", IssuedAt: big.NewInt(1700000000)},
	}}

	passed, err := NewOnChainVerifier(reader).Verify(context.Background(), "0xabc", credential.TypeMSPO, cred)

	require.NoError(t, err)
	assert.False(t, passed)
}

func TestOnChainVerifyEmptyRecords(t *testing.T) {
	cred, _ := anchoredTestCredential(t)
	reader := &fakeChainReader{}

	passed, err := NewOnChainVerifier(reader).Verify(context.Background(), "0xabc", credential.TypeMSPO, cred)

	require.NoError(t, err)
	assert.False(t, passed)
}

func TestOnChainVerifyRegistryError(t *testing.T) {
	cred, _ := anchoredTestCredential(t)
	reader := &fakeChainReader{err: errors.New("rpc node unreachable")}

	passed, err := NewOnChainVerifier(reader).Verify(context.Background(), "0xabc", credential.TypeMSPO, cred)

	require.Error(t, err)
	assert.False(t, passed)
}

func TestOnChainVerifierNilReaderPanics(t *testing.T) {
	assert.Panics(t, func() { NewOnChainVerifier(nil) })
}
