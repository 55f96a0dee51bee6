package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// KeyValidationReason is the machine-readable reason a key was rejected.
type KeyValidationReason string

const (
	// ReasonKeyMissing indicates no key was supplied.
	ReasonKeyMissing KeyValidationReason = "MISSING"

	// ReasonKeyInvalidLength indicates the key is not exactly 64 characters.
	ReasonKeyInvalidLength KeyValidationReason = "INVALID_LENGTH"

	// ReasonKeyInvalidFormat indicates the key contains non-hexadecimal characters.
	ReasonKeyInvalidFormat KeyValidationReason = "INVALID_FORMAT"
)

// DecryptionReason is the machine-readable reason a decryption failed.
type DecryptionReason string

const (
	// ReasonFormatInvalid indicates the stored value is not a well-formed
	// envelope (bad base64 or decoded body shorter than IV plus tag).
	ReasonFormatInvalid DecryptionReason = "FORMAT_INVALID"

	// ReasonAuthTagMismatch indicates authentication failed: the IV, tag, or
	// ciphertext was altered, or the wrong key was used. GCM cannot
	// distinguish these cases, so they share a single reason.
	ReasonAuthTagMismatch DecryptionReason = "AUTH_TAG_MISMATCH"

	// ReasonKeyInvalid indicates the decryption key itself was unusable.
	ReasonKeyInvalid DecryptionReason = "KEY_INVALID"
)

// NewCorrelationID generates an opaque token that links an error instance to
// its audit-log entry without revealing any data.
func NewCorrelationID() string {
	return uuid.NewString()
}

// KeyValidationError indicates a candidate encryption key failed validation.
// Fatal at service construction: the enclosing service must not start.
type KeyValidationError struct {
	Reason        KeyValidationReason
	CorrelationID string
}

// NewKeyValidationError creates a KeyValidationError with a fresh correlation id.
func NewKeyValidationError(reason KeyValidationReason) *KeyValidationError {
	return &KeyValidationError{
		Reason:        reason,
		CorrelationID: NewCorrelationID(),
	}
}

// Error implements the error interface. The message never contains key material.
func (e *KeyValidationError) Error() string {
	return fmt.Sprintf("key validation failed (reason=%s, correlation_id=%s)", e.Reason, e.CorrelationID)
}

// EncryptionError indicates an encryption operation failed internally.
// The message never contains the plaintext being encrypted.
type EncryptionError struct {
	Operation     Operation
	FieldName     string
	CorrelationID string
}

// NewEncryptionError creates an EncryptionError with a fresh correlation id.
func NewEncryptionError(op Operation, fieldName string) *EncryptionError {
	return &EncryptionError{
		Operation:     op,
		FieldName:     fieldName,
		CorrelationID: NewCorrelationID(),
	}
}

// Error implements the error interface.
func (e *EncryptionError) Error() string {
	if e.FieldName != "" {
		return fmt.Sprintf(
			"encryption failed (operation=%s, field=%s, correlation_id=%s)",
			e.Operation, e.FieldName, e.CorrelationID,
		)
	}
	return fmt.Sprintf("encryption failed (operation=%s, correlation_id=%s)", e.Operation, e.CorrelationID)
}

// DecryptionError indicates a decryption operation failed.
// The message never contains ciphertext or recovered plaintext.
type DecryptionError struct {
	Reason        DecryptionReason
	FieldName     string
	CorrelationID string
}

// NewDecryptionError creates a DecryptionError with a fresh correlation id.
func NewDecryptionError(reason DecryptionReason, fieldName string) *DecryptionError {
	return &DecryptionError{
		Reason:        reason,
		FieldName:     fieldName,
		CorrelationID: NewCorrelationID(),
	}
}

// Error implements the error interface.
func (e *DecryptionError) Error() string {
	if e.FieldName != "" {
		return fmt.Sprintf(
			"decryption failed (reason=%s, field=%s, correlation_id=%s)",
			e.Reason, e.FieldName, e.CorrelationID,
		)
	}
	return fmt.Sprintf("decryption failed (reason=%s, correlation_id=%s)", e.Reason, e.CorrelationID)
}

// CorrelationIDFromError extracts the correlation id from any crypto error in
// err's tree. Returns an empty string if err carries none.
func CorrelationIDFromError(err error) string {
	var keyErr *KeyValidationError
	if errors.As(err, &keyErr) {
		return keyErr.CorrelationID
	}

	var encErr *EncryptionError
	if errors.As(err, &encErr) {
		return encErr.CorrelationID
	}

	var decErr *DecryptionError
	if errors.As(err, &decErr) {
		return decErr.CorrelationID
	}

	return ""
}

// ErrorType returns a short tag describing the kind of crypto error, suitable
// for audit entries. Returns an empty string for non-crypto errors.
func ErrorType(err error) string {
	var keyErr *KeyValidationError
	if errors.As(err, &keyErr) {
		return "key_validation_error"
	}

	var encErr *EncryptionError
	if errors.As(err, &encErr) {
		return "encryption_error"
	}

	var decErr *DecryptionError
	if errors.As(err, &decErr) {
		return "decryption_error"
	}

	return ""
}
