// Package digest derives the registry key for a certificate document.
// The key is the SHA-256 digest of the raw document bytes, so two
// byte-identical documents always map to the same key and any change to
// the content maps to an unrelated one.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeySize is the length of a registry key in bytes.
const KeySize = sha256.Size

// Key is the canonical content hash identifying a certificate record.
type Key [KeySize]byte

// Sum computes the registry key for the given document bytes.
func Sum(data []byte) Key {
	return Key(sha256.Sum256(data))
}

// Hex renders the key as a 0x-prefixed 64-character hex string.
func (k Key) Hex() string {
	return "0x" + hex.EncodeToString(k[:])
}

// IsZero reports whether the key is all zero bytes. The zero key is never
// a valid registry key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return k.Hex()
}

// ParseKey parses a hex-encoded key, with or without the 0x prefix.
// The input must be exactly 64 hex characters after the optional prefix.
func ParseKey(s string) (Key, error) {
	var k Key

	h := strings.TrimPrefix(s, "0x")
	if len(h) != KeySize*2 {
		return k, fmt.Errorf("key must be %d hex characters, got %d", KeySize*2, len(h))
	}

	b, err := hex.DecodeString(h)
	if err != nil {
		return k, fmt.Errorf("key is not valid hex: %w", err)
	}

	copy(k[:], b)
	return k, nil
}
