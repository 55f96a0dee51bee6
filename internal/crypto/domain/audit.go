package domain

import (
	"time"
)

// Operation identifies the kind of cryptographic operation being audited.
type Operation string

const (
	// OperationEncrypt is a field encryption.
	OperationEncrypt Operation = "encrypt"

	// OperationDecrypt is a field decryption.
	OperationDecrypt Operation = "decrypt"

	// OperationKeyRotation is a re-encryption from an old key to a new key.
	OperationKeyRotation Operation = "key_rotation"
)

// AuditEntry is a structured, non-sensitive record of a cryptographic
// operation. It never contains plaintext, ciphertext, or key bytes; the
// correlation id is the only link back to the failing call.
type AuditEntry struct {
	Timestamp     time.Time
	Operation     Operation
	ModelName     string
	FieldName     string
	Success       bool
	CorrelationID string
	ErrorType     string
}

// NewAuditEntry creates a successful audit entry for the given operation.
func NewAuditEntry(op Operation, modelName, fieldName string) AuditEntry {
	return AuditEntry{
		Timestamp: time.Now().UTC(),
		Operation: op,
		ModelName: modelName,
		FieldName: fieldName,
		Success:   true,
	}
}

// NewFailureAuditEntry creates a failed audit entry for the given operation,
// tagged with the error kind and the error's correlation id.
func NewFailureAuditEntry(op Operation, modelName, fieldName string, err error) AuditEntry {
	return AuditEntry{
		Timestamp:     time.Now().UTC(),
		Operation:     op,
		ModelName:     modelName,
		FieldName:     fieldName,
		Success:       false,
		CorrelationID: CorrelationIDFromError(err),
		ErrorType:     ErrorType(err),
	}
}
