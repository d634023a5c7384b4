// Package checksum derives content revisions used for compare-and-swap writes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Revision returns the revision token of a slot payload. An absent or empty
// slot has the empty revision, so "create if missing" is a swap against "".
func Revision(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return Sum(data)
}
