package verify

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	diddoc "github.com/hyperledger/aries-framework-go/component/models/did"
	vdrspi "github.com/hyperledger/aries-framework-go/spi/vdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certverify/internal/credential"
	dErrors "certverify/pkg/domain-errors"
)

// staticResolver serves a fixed DID document, standing in for a did:web host.
type staticResolver struct {
	doc *diddoc.Doc
}

func (r staticResolver) Resolve(_ string, _ ...vdrspi.DIDMethodOption) (*diddoc.DocResolution, error) {
	return &diddoc.DocResolution{DIDDocument: r.doc}, nil
}

// signedCredential builds an ed25519-signed JWT-VC plus the matching issued
// credential document: the vc claim content wrapped with a JwtProof2020 proof.
func signedCredential(t *testing.T) (*diddoc.Doc, *credential.Credential) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	const issuer = "did:web:issuer.example.com"
	keyID := issuer + "#key-1"

	vm := diddoc.NewVerificationMethodFromBytes(keyID, "Ed25519VerificationKey2018", issuer, pub)
	doc := &diddoc.Doc{
		Context:            []string{"https://w3id.org/did/v1"},
		ID:                 issuer,
		VerificationMethod: []diddoc.VerificationMethod{*vm},
		AssertionMethod:    []diddoc.Verification{*diddoc.NewReferencedVerification(vm, diddoc.AssertionMethod)},
	}

	content := map[string]any{
		"@context":     []any{"https://www.w3.org/2018/credentials/v1"},
		"id":           "https://certs.example.com/credentials/42",
		"type":         []any{"VerifiableCredential"},
		"issuer":       issuer,
		"issuanceDate": "2024-01-01T00:00:00Z",
		"credentialSubject": map[string]any{
			"id":        "did:example:holder",
			"licenseNo": "MSPO-1234",
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodEdDSA, jwtlib.MapClaims{
		"iss": issuer,
		"vc":  content,
	})
	token.Header["kid"] = keyID
	signed, err := token.SignedString(priv)
	require.NoError(t, err)

	issued := map[string]any{}
	for k, v := range content {
		issued[k] = v
	}
	issued["proof"] = map[string]any{"type": "JwtProof2020", "jwt": signed}

	raw, err := json.Marshal(issued)
	require.NoError(t, err)
	cred, err := credential.Parse(raw)
	require.NoError(t, err)

	return doc, cred
}

func signedTestJWT(t *testing.T, issuer string) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"iss": issuer,
		"vc":  map[string]any{"type": "VerifiableCredential"},
	})
	raw, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return raw
}

func proofCredential(t *testing.T, jwt string) *credential.Credential {
	t.Helper()
	doc := map[string]any{
		"issuer": "did:web:issuer.example.com",
		"proof":  map[string]any{"type": "JwtProof2020", "jwt": jwt},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	cred, err := credential.Parse(raw)
	require.NoError(t, err)
	return cred
}

func TestJWTVerifyValidSignedCredential(t *testing.T) {
	doc, cred := signedCredential(t)

	passed, err := NewJWTVerifier(WithResolver(staticResolver{doc: doc})).
		Verify(context.Background(), cred)

	require.NoError(t, err)
	assert.True(t, passed)
}

func TestJWTVerifyTamperedContentFailsMatch(t *testing.T) {
	doc, cred := signedCredential(t)

	// Same valid signature, different issued document: the proof verifies but
	// the payload comparison must fail.
	issued, err := cred.Content()
	require.NoError(t, err)
	issued["credentialSubject"].(map[string]any)["licenseNo"] = "MSPO-9999"
	raw, err := json.Marshal(issued)
	require.NoError(t, err)
	tampered, err := credential.Parse(raw)
	require.NoError(t, err)

	passed, err := NewJWTVerifier(WithResolver(staticResolver{doc: doc})).
		Verify(context.Background(), tampered)

	require.NoError(t, err)
	assert.False(t, passed)
}

func TestJWTVerifyMissingProof(t *testing.T) {
	cred, err := credential.Parse([]byte(`{"issuer": "did:web:issuer.example.com"}`))
	require.NoError(t, err)

	passed, err := NewJWTVerifier().Verify(context.Background(), cred)

	require.Error(t, err)
	assert.False(t, passed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestJWTVerifyMalformedToken(t *testing.T) {
	cred := proofCredential(t, "not-a-jwt")

	passed, err := NewJWTVerifier().Verify(context.Background(), cred)

	require.Error(t, err)
	assert.False(t, passed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestJWTVerifyRejectsNonWebDIDIssuer(t *testing.T) {
	cred := proofCredential(t, signedTestJWT(t, "did:key:z6MkpTHR8VNs"))

	passed, err := NewJWTVerifier().Verify(context.Background(), cred)

	require.Error(t, err)
	assert.False(t, passed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestJWTVerifyRejectsMissingIssuer(t *testing.T) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{})
	raw, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	cred := proofCredential(t, raw)

	passed, err := NewJWTVerifier().Verify(context.Background(), cred)

	require.Error(t, err)
	assert.False(t, passed)
}

func TestJWTVerifyHungDIDHostBounded(t *testing.T) {
	// The DID host never answers; the handler returns once the client gives
	// up, so server shutdown does not block.
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := srv.Client()
	client.Timeout = 200 * time.Millisecond

	issuer := "did:web:" + url.QueryEscape(strings.TrimPrefix(srv.URL, "https://"))
	cred := proofCredential(t, signedTestJWT(t, issuer))

	start := time.Now()
	passed, err := NewJWTVerifier(WithJWTHTTPClient(client)).
		Verify(context.Background(), cred)

	require.Error(t, err)
	assert.False(t, passed)
	assert.Less(t, time.Since(start), 3*time.Second, "resolution must be bounded by the client timeout")
}

func TestIssuerDIDExtraction(t *testing.T) {
	issuer, err := issuerDID(signedTestJWT(t, "did:web:certs.example.com"))
	require.NoError(t, err)
	assert.Equal(t, "did:web:certs.example.com", issuer)
}

func TestRecoveredCredentialClaimMissing(t *testing.T) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{"iss": "did:web:x"})
	raw, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)

	_, err = recoveredCredentialClaim(raw)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}
