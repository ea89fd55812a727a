// Package hashutil implements the single canonical identity function
// for markdown content. Any other hashing use — e.g. the DOM
// stabilizer's in-browser djb2 signature — must not alias this
// function.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// Content returns the lowercase hex SHA-256 digest of the NFC
// normalization of s.
func Content(s string) string {
	normalized := norm.NFC.String(s)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// NFC exposes the normalization step on its own, since the markdown
// converter and the checksum both need it applied the same way.
func NFC(s string) string {
	return norm.NFC.String(s)
}
