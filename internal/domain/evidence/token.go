package evidence

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewAccessToken returns a 64-character hex token from 32 random bytes.
// Tokens are opaque and not derivable from record IDs or filenames; the
// database's unique index is the collision guarantee.
func NewAccessToken() (string, error) {
	return randomHex(32)
}

// NewEncryptionKey returns the opaque per-record secret. It is stored with
// the record and never exposed in any serialization.
func NewEncryptionKey() (string, error) {
	return randomHex(32)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
