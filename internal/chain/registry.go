// Package chain reads anchored credential hashes from the on-chain credential
// registry contract. All access is read-only; this service never writes to the
// chain.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	dErrors "certverify/pkg/domain-errors"
)

// registryABI covers the single read method this service consumes.
const registryABI = `[{"inputs":[{"internalType":"address","name":"walletAddress","type":"address"},{"internalType":"uint256","name":"credentialType","type":"uint256"}],"name":"getCredentials","outputs":[{"components":[{"internalType":"string","name":"encryptedCredential","type":"string"},{"internalType":"uint256","name":"issuedAt","type":"uint256"}],"internalType":"struct CredentialRegistry.CredentialRecord[]","name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"}]`

// OnChainCredential is one anchored hash entry for a wallet. The
// EncryptedCredential field carries the SHA-256 hex digest recorded at
// issuance time.
type OnChainCredential struct {
	EncryptedCredential string
	IssuedAt            *big.Int
}

// caller is the subset of bind.BoundContract the registry uses; narrowed for
// tests.
type caller interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
}

// Registry is a read-only client for the credential registry contract.
type Registry struct {
	contract caller
	client   *ethclient.Client
}

// Dial connects to the RPC endpoint and binds the registry contract at the
// given address.
func Dial(ctx context.Context, rpcURL, contractAddress string) (*Registry, error) {
	if rpcURL == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "chain rpc url is required")
	}
	if !common.IsHexAddress(contractAddress) {
		return nil, dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("invalid registry contract address %q", contractAddress))
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "dial chain rpc")
	}

	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "parse registry abi")
	}

	return &Registry{
		contract: bind.NewBoundContract(common.HexToAddress(contractAddress), parsed, client, nil, nil),
		client:   client,
	}, nil
}

// Ping checks RPC connectivity, for readiness probes.
func (r *Registry) Ping() error {
	if r.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := r.client.ChainID(ctx)
	return err
}

// Close releases the underlying RPC connection.
func (r *Registry) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

// GetCredentials returns the anchored hash entries for a wallet and credential
// kind, in contract order. RPC errors propagate to the caller; calls are not
// retried.
func (r *Registry) GetCredentials(ctx context.Context, wallet string, kindCode int64) ([]OnChainCredential, error) {
	var out []interface{}
	err := r.contract.Call(
		&bind.CallOpts{Context: ctx},
		&out,
		"getCredentials",
		common.HexToAddress(wallet),
		big.NewInt(kindCode),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "getCredentials call failed")
	}
	if len(out) == 0 {
		return nil, nil
	}

	records := *abi.ConvertType(out[0], new([]OnChainCredential)).(*[]OnChainCredential)
	return records, nil
}
