// Package hashutil provides the SHA-256 digests used for credential anchoring.
// Hashes are hex-encoded to match the format stored by the on-chain registry.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// SumHex returns the SHA-256 hex digest of data.
func SumHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileSumHex returns the SHA-256 hex digest of the file at path, streaming its
// contents so large downloads are not buffered in memory.
func FileSumHex(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
