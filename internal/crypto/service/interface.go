// Package service implements the field-level encryption engine: an
// AES-256-GCM cipher over the "enc:" envelope format, deterministic search
// hashing, key rotation, and pluggable audit logging.
package service

import (
	cryptoDomain "github.com/allisson/ledger/internal/crypto/domain"
)

// FieldCipher is the contract the surrounding application uses to protect
// individual field values. All operations are safe for concurrent use.
type FieldCipher interface {
	// Encrypt encrypts a plaintext field value and returns its envelope.
	// Two encryptions of the same value never produce the same envelope.
	Encrypt(plaintext, fieldName, modelName string) (string, error)

	// Decrypt recovers the plaintext from an envelope produced by Encrypt.
	Decrypt(value, fieldName, modelName string) (string, error)

	// IsEncrypted reports whether a stored value looks like an envelope.
	// Format heuristic only; the authentication tag is not verified.
	IsEncrypted(value string) bool

	// RotateKey decrypts the envelope under oldKey and re-encrypts the
	// recovered plaintext under newKey. Both keys are validated
	// independently before any cryptographic work happens.
	RotateKey(oldKey, newKey, value, fieldName, modelName string) (string, error)

	// SearchHash derives a deterministic, non-reversible lookup token for a
	// plaintext value, enabling equality search over encrypted fields.
	SearchHash(value string) (string, error)
}

// AuditLogger receives structured, non-sensitive records of cryptographic
// operations. Implementations must never block or fail the operation being
// audited.
type AuditLogger interface {
	Log(entry cryptoDomain.AuditEntry)
}
