package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	cryptoDomain "github.com/allisson/ledger/internal/crypto/domain"
)

// FieldCipherService implements the FieldCipher interface with AES-256-GCM
// under a single validated key.
//
// The service holds no mutable state beyond the immutable key bytes fixed at
// construction, so arbitrarily many goroutines may call it concurrently with
// no coordination. Audit logging is fire-and-forget: a failing audit sink
// never prevents the cryptographic result from being returned.
type FieldCipherService struct {
	key   cryptoDomain.Key
	aead  *AESGCMCipher
	audit AuditLogger
}

// NewFieldCipher validates the raw key and creates a FieldCipherService.
//
// The key must be a 64-character hexadecimal string; violations return a
// KeyValidationError and the enclosing service must not start. Passing a nil
// audit logger installs the no-op sink.
func NewFieldCipher(rawKey string, audit AuditLogger) (*FieldCipherService, error) {
	key, err := cryptoDomain.ParseKey(rawKey)
	if err != nil {
		return nil, err
	}

	aead, err := NewAESGCM(key.Bytes())
	if err != nil {
		return nil, err
	}

	if audit == nil {
		audit = NewNoOpAuditLogger()
	}

	return &FieldCipherService{
		key:   key,
		aead:  aead,
		audit: audit,
	}, nil
}

// Encrypt encrypts a plaintext field value into an envelope string.
//
// A fresh random IV makes every envelope unique even for identical input.
// Errors never carry the plaintext; each carries a fresh correlation id that
// matches the failure audit entry.
func (s *FieldCipherService) Encrypt(plaintext, fieldName, modelName string) (string, error) {
	iv, tag, ciphertext, err := s.aead.Encrypt([]byte(plaintext))
	if err != nil {
		encErr := cryptoDomain.NewEncryptionError(cryptoDomain.OperationEncrypt, fieldName)
		s.audit.Log(cryptoDomain.NewFailureAuditEntry(
			cryptoDomain.OperationEncrypt, modelName, fieldName, encErr,
		))
		return "", encErr
	}

	envelope := cryptoDomain.Envelope{IV: iv, Tag: tag, Ciphertext: ciphertext}
	s.audit.Log(cryptoDomain.NewAuditEntry(cryptoDomain.OperationEncrypt, modelName, fieldName))
	return envelope.Encode(), nil
}

// Decrypt recovers the original plaintext from an envelope string.
//
// Malformed values (bad base64, decoded body shorter than IV plus tag) fail
// with reason FORMAT_INVALID; any authentication failure, whether caused by a
// tampered IV, tag, or ciphertext or by the wrong key, fails with reason
// AUTH_TAG_MISMATCH.
func (s *FieldCipherService) Decrypt(value, fieldName, modelName string) (string, error) {
	envelope, err := cryptoDomain.ParseEnvelope(value)
	if err != nil {
		decErr := cryptoDomain.NewDecryptionError(cryptoDomain.ReasonFormatInvalid, fieldName)
		s.audit.Log(cryptoDomain.NewFailureAuditEntry(
			cryptoDomain.OperationDecrypt, modelName, fieldName, decErr,
		))
		return "", decErr
	}

	plaintext, err := s.aead.Decrypt(envelope.IV, envelope.Tag, envelope.Ciphertext)
	if err != nil {
		decErr := cryptoDomain.NewDecryptionError(cryptoDomain.ReasonAuthTagMismatch, fieldName)
		s.audit.Log(cryptoDomain.NewFailureAuditEntry(
			cryptoDomain.OperationDecrypt, modelName, fieldName, decErr,
		))
		return "", decErr
	}

	s.audit.Log(cryptoDomain.NewAuditEntry(cryptoDomain.OperationDecrypt, modelName, fieldName))
	return string(plaintext), nil
}

// IsEncrypted reports whether a stored value looks like an envelope.
func (s *FieldCipherService) IsEncrypted(value string) bool {
	return cryptoDomain.IsEncrypted(value)
}

// RotateKey re-encrypts an envelope from oldKey to newKey.
//
// Both keys are validated independently so rotation can never proceed with a
// malformed key even if one leg happens to be valid. Decryption failures
// propagate as DecryptionError, re-encryption failures as EncryptionError;
// no state is mutated on failure. The result uses a fresh IV and therefore
// differs from the input even for identical plaintext.
func (s *FieldCipherService) RotateKey(oldKey, newKey, value, fieldName, modelName string) (string, error) {
	oldCipher, err := NewFieldCipher(oldKey, s.audit)
	if err != nil {
		s.audit.Log(cryptoDomain.NewFailureAuditEntry(
			cryptoDomain.OperationKeyRotation, modelName, fieldName, err,
		))
		return "", err
	}

	newCipher, err := NewFieldCipher(newKey, s.audit)
	if err != nil {
		s.audit.Log(cryptoDomain.NewFailureAuditEntry(
			cryptoDomain.OperationKeyRotation, modelName, fieldName, err,
		))
		return "", err
	}

	plaintext, err := oldCipher.Decrypt(value, fieldName, modelName)
	if err != nil {
		s.audit.Log(cryptoDomain.NewFailureAuditEntry(
			cryptoDomain.OperationKeyRotation, modelName, fieldName, err,
		))
		return "", err
	}

	rotated, err := newCipher.Encrypt(plaintext, fieldName, modelName)
	if err != nil {
		s.audit.Log(cryptoDomain.NewFailureAuditEntry(
			cryptoDomain.OperationKeyRotation, modelName, fieldName, err,
		))
		return "", err
	}

	s.audit.Log(cryptoDomain.NewAuditEntry(cryptoDomain.OperationKeyRotation, modelName, fieldName))
	return rotated, nil
}

// SearchHash derives a deterministic lookup token for a plaintext value:
// HMAC-SHA256 of the normalized (lower-cased, trimmed) value under the same
// 32-byte key material, hex-encoded to 64 lowercase characters.
//
// The same normalized input always yields the same token, enabling equality
// lookups on fields whose stored form is otherwise randomized ciphertext.
func (s *FieldCipherService) SearchHash(value string) (string, error) {
	if s.key.IsZero() {
		return "", cryptoDomain.NewKeyValidationError(cryptoDomain.ReasonKeyMissing)
	}

	normalized := strings.ToLower(strings.TrimSpace(value))
	mac := hmac.New(sha256.New, s.key.Bytes())
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
