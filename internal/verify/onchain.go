package verify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"certverify/internal/chain"
	"certverify/internal/credential"
	dErrors "certverify/pkg/domain-errors"
	"certverify/pkg/hashutil"
)

// ChainReader reads anchored credential records for a wallet.
type ChainReader interface {
	GetCredentials(ctx context.Context, wallet string, kindCode int64) ([]chain.OnChainCredential, error)
}

// OnChainVerifier checks whether the SHA-256 digest of a credential's
// canonical JSON is anchored in the wallet's on-chain records.
type OnChainVerifier struct {
	registry ChainReader
	logger   *slog.Logger
}

func NewOnChainVerifier(registry ChainReader, opts ...OnChainOption) *OnChainVerifier {
	if registry == nil {
		panic("verify: nil chain reader")
	}
	v := &OnChainVerifier{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type OnChainOption func(*OnChainVerifier)

func WithOnChainLogger(logger *slog.Logger) OnChainOption {
	return func(v *OnChainVerifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// Verify hashes the credential exactly as fetched (whitespace stripped, key
// order intact) and reports whether any record for the wallet carries the
// same digest.
func (v *OnChainVerifier) Verify(ctx context.Context, wallet string, typ credential.Type, cred *credential.Credential) (bool, error) {
	canonical, err := cred.CanonicalJSON()
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "canonicalize credential")
	}
	digest := hashutil.SumHex(canonical)

	records, err := v.registry.GetCredentials(ctx, wallet, typ.KindCode())
	if err != nil {
		return false, fmt.Errorf("read credential registry: %w", err)
	}

	anchored := lo.ContainsBy(records, func(r chain.OnChainCredential) bool {
		return r.EncryptedCredential == digest
	})

	v.logger.DebugContext(ctx, "on-chain anchoring checked",
		"wallet", wallet,
		"credential_type", typ,
		"records", len(records),
		"anchored", anchored,
	)

	return anchored, nil
}
