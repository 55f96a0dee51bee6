// Package domain defines the core types for field-level encryption: keys,
// envelopes, the crypto error taxonomy, and audit entries.
package domain

import (
	"encoding/hex"
)

const (
	// KeySize is the required key length in raw bytes (256 bits).
	KeySize = 32

	// KeyHexLength is the required length of the external hex representation.
	KeyHexLength = 64
)

// Key holds validated 32-byte key material for field-level encryption.
// Immutable once parsed; the raw bytes are never included in errors or logs.
type Key struct {
	bytes []byte
}

// ParseKey validates a candidate key string and returns the decoded key material.
//
// The candidate must be present, exactly 64 characters long, and consist only
// of hexadecimal digits (case-insensitive). Violations return a
// KeyValidationError with reason ReasonKeyMissing, ReasonKeyInvalidLength, or
// ReasonKeyInvalidFormat respectively.
func ParseKey(raw string) (Key, error) {
	if raw == "" {
		return Key{}, NewKeyValidationError(ReasonKeyMissing)
	}

	if len(raw) != KeyHexLength {
		return Key{}, NewKeyValidationError(ReasonKeyInvalidLength)
	}

	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return Key{}, NewKeyValidationError(ReasonKeyInvalidFormat)
	}

	return Key{bytes: decoded}, nil
}

// Bytes returns the raw 32-byte key material.
func (k Key) Bytes() []byte {
	return k.bytes
}

// IsZero reports whether the key holds no material.
func (k Key) IsZero() bool {
	return len(k.bytes) == 0
}

// Destroy overwrites the key material with zeros.
func (k Key) Destroy() {
	Zero(k.bytes)
}
