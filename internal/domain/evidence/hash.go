package evidence

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes computes the content digest of a byte buffer: a 64-character
// hexadecimal SHA-256. Identical bytes always yield identical output, which
// is what makes it usable both for duplicate detection and as a tamper
// evidence value for stored files.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
