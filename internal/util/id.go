// Package util holds random identifier helpers.
package util

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex returns n random bytes hex-encoded (2n characters).
func RandomHex(n int) string {
	bytes := make([]byte, n)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// NewID returns an opaque 128-bit token, optionally prefixed as "prefix_<hex>".
// Used for refresh tokens, OAuth state and access-token ids.
func NewID(prefix string) string {
	id := RandomHex(16)
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
