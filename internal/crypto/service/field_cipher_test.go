package service

import (
	"encoding/base64"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/ledger/internal/crypto/domain"
)

const (
	testKey    = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testKeyAlt = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// recordingAuditLogger captures audit entries for assertions.
type recordingAuditLogger struct {
	mu      sync.Mutex
	entries []cryptoDomain.AuditEntry
}

func (l *recordingAuditLogger) Log(entry cryptoDomain.AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *recordingAuditLogger) all() []cryptoDomain.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]cryptoDomain.AuditEntry{}, l.entries...)
}

func newTestCipher(t *testing.T) *FieldCipherService {
	t.Helper()
	cipher, err := NewFieldCipher(testKey, NewNoOpAuditLogger())
	require.NoError(t, err)
	return cipher
}

func TestNewFieldCipher(t *testing.T) {
	t.Run("accepts valid key", func(t *testing.T) {
		cipher, err := NewFieldCipher(testKey, nil)
		require.NoError(t, err)
		assert.NotNil(t, cipher)
	})

	t.Run("rejects missing key", func(t *testing.T) {
		_, err := NewFieldCipher("", nil)
		var keyErr *cryptoDomain.KeyValidationError
		require.ErrorAs(t, err, &keyErr)
		assert.Equal(t, cryptoDomain.ReasonKeyMissing, keyErr.Reason)
	})

	t.Run("rejects wrong length key", func(t *testing.T) {
		_, err := NewFieldCipher("abcdef", nil)
		var keyErr *cryptoDomain.KeyValidationError
		require.ErrorAs(t, err, &keyErr)
		assert.Equal(t, cryptoDomain.ReasonKeyInvalidLength, keyErr.Reason)
	})

	t.Run("rejects non-hex key", func(t *testing.T) {
		_, err := NewFieldCipher(strings.Repeat("x", 64), nil)
		var keyErr *cryptoDomain.KeyValidationError
		require.ErrorAs(t, err, &keyErr)
		assert.Equal(t, cryptoDomain.ReasonKeyInvalidFormat, keyErr.Reason)
	})
}

func TestFieldCipherService_Encrypt(t *testing.T) {
	cipher := newTestCipher(t)

	t.Run("produces tagged envelope", func(t *testing.T) {
		envelope, err := cipher.Encrypt("sensitive@secret.com", "email", "clients")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(envelope, "enc:"))
		assert.NotContains(t, envelope, "sensitive")
		assert.NotContains(t, envelope, "secret")
	})

	t.Run("is non-deterministic", func(t *testing.T) {
		first, err := cipher.Encrypt("same input", "", "")
		require.NoError(t, err)
		second, err := cipher.Encrypt("same input", "", "")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("envelope body decodes to IV, tag and ciphertext", func(t *testing.T) {
		plaintext := "hello"
		envelope, err := cipher.Encrypt(plaintext, "", "")
		require.NoError(t, err)

		body, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(envelope, "enc:"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(body), cryptoDomain.MinPayloadSize)
		assert.Len(t, body, cryptoDomain.MinPayloadSize+len(plaintext))
	})

	t.Run("logs success audit entry without content", func(t *testing.T) {
		audit := &recordingAuditLogger{}
		auditedCipher, err := NewFieldCipher(testKey, audit)
		require.NoError(t, err)

		_, err = auditedCipher.Encrypt("top secret value", "notes", "clients")
		require.NoError(t, err)

		entries := audit.all()
		require.Len(t, entries, 1)
		assert.Equal(t, cryptoDomain.OperationEncrypt, entries[0].Operation)
		assert.Equal(t, "clients", entries[0].ModelName)
		assert.Equal(t, "notes", entries[0].FieldName)
		assert.True(t, entries[0].Success)
	})
}

func TestFieldCipherService_Decrypt(t *testing.T) {
	cipher := newTestCipher(t)

	t.Run("round-trips all plaintext shapes", func(t *testing.T) {
		plaintexts := []string{
			"sensitive@secret.com",
			"",
			"héllo wörld 漢字 🚀",
			"line1\nline2\ttab\x00null",
			strings.Repeat("long ", 1000),
		}

		for _, plaintext := range plaintexts {
			envelope, err := cipher.Encrypt(plaintext, "", "")
			require.NoError(t, err)

			recovered, err := cipher.Decrypt(envelope, "", "")
			require.NoError(t, err)
			assert.Equal(t, plaintext, recovered)
		}
	})

	t.Run("accepts envelope without prefix", func(t *testing.T) {
		envelope, err := cipher.Encrypt("plain", "", "")
		require.NoError(t, err)

		recovered, err := cipher.Decrypt(strings.TrimPrefix(envelope, "enc:"), "", "")
		require.NoError(t, err)
		assert.Equal(t, "plain", recovered)
	})

	t.Run("invalid base64 fails with FORMAT_INVALID", func(t *testing.T) {
		_, err := cipher.Decrypt("enc:!!!", "email", "clients")
		var decErr *cryptoDomain.DecryptionError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, cryptoDomain.ReasonFormatInvalid, decErr.Reason)
		assert.Equal(t, "email", decErr.FieldName)
	})

	t.Run("short body fails with FORMAT_INVALID", func(t *testing.T) {
		short := "enc:" + base64.StdEncoding.EncodeToString(make([]byte, 27))
		_, err := cipher.Decrypt(short, "", "")
		var decErr *cryptoDomain.DecryptionError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, cryptoDomain.ReasonFormatInvalid, decErr.Reason)
	})

	t.Run("wrong key fails with AUTH_TAG_MISMATCH", func(t *testing.T) {
		envelope, err := cipher.Encrypt("secret", "", "")
		require.NoError(t, err)

		otherCipher, err := NewFieldCipher(testKeyAlt, nil)
		require.NoError(t, err)

		_, err = otherCipher.Decrypt(envelope, "", "")
		var decErr *cryptoDomain.DecryptionError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, cryptoDomain.ReasonAuthTagMismatch, decErr.Reason)
	})

	t.Run("logs failure audit entry with correlation id", func(t *testing.T) {
		audit := &recordingAuditLogger{}
		auditedCipher, err := NewFieldCipher(testKey, audit)
		require.NoError(t, err)

		_, err = auditedCipher.Decrypt("enc:not-valid", "email", "clients")
		require.Error(t, err)

		entries := audit.all()
		require.Len(t, entries, 1)
		assert.False(t, entries[0].Success)
		assert.Equal(t, cryptoDomain.OperationDecrypt, entries[0].Operation)
		assert.Equal(t, "decryption_error", entries[0].ErrorType)
		assert.Equal(t, cryptoDomain.CorrelationIDFromError(err), entries[0].CorrelationID)
	})
}

func TestFieldCipherService_TamperDetection(t *testing.T) {
	cipher := newTestCipher(t)

	envelope, err := cipher.Encrypt("tamper target", "", "")
	require.NoError(t, err)

	body, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(envelope, "enc:"))
	require.NoError(t, err)

	// One bit flipped in each envelope region must fail authentication with
	// the same externally observable reason.
	regions := map[string]int{
		"IV":         0,
		"AuthTag":    cryptoDomain.IVSize,
		"Ciphertext": cryptoDomain.MinPayloadSize,
	}

	for name, offset := range regions {
		t.Run("flipping a bit in "+name, func(t *testing.T) {
			tampered := make([]byte, len(body))
			copy(tampered, body)
			tampered[offset] ^= 0x01

			value := "enc:" + base64.StdEncoding.EncodeToString(tampered)
			_, err := cipher.Decrypt(value, "", "")

			var decErr *cryptoDomain.DecryptionError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, cryptoDomain.ReasonAuthTagMismatch, decErr.Reason)
		})
	}
}

func TestFieldCipherService_IsEncrypted(t *testing.T) {
	cipher := newTestCipher(t)

	envelope, err := cipher.Encrypt("value", "", "")
	require.NoError(t, err)

	assert.True(t, cipher.IsEncrypted(envelope))
	assert.False(t, cipher.IsEncrypted("value"))
	assert.False(t, cipher.IsEncrypted(""))
	assert.False(t, cipher.IsEncrypted("enc:short"))
}

func TestFieldCipherService_RotateKey(t *testing.T) {
	cipher := newTestCipher(t)

	t.Run("rotated envelope decrypts under new key only", func(t *testing.T) {
		envelope, err := cipher.Encrypt("rotate me", "notes", "clients")
		require.NoError(t, err)

		rotated, err := cipher.RotateKey(testKey, testKeyAlt, envelope, "notes", "clients")
		require.NoError(t, err)
		assert.NotEqual(t, envelope, rotated)

		newCipher, err := NewFieldCipher(testKeyAlt, nil)
		require.NoError(t, err)

		recovered, err := newCipher.Decrypt(rotated, "", "")
		require.NoError(t, err)
		assert.Equal(t, "rotate me", recovered)

		_, err = cipher.Decrypt(rotated, "", "")
		var decErr *cryptoDomain.DecryptionError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, cryptoDomain.ReasonAuthTagMismatch, decErr.Reason)
	})

	t.Run("validates old key independently", func(t *testing.T) {
		envelope, err := cipher.Encrypt("x", "", "")
		require.NoError(t, err)

		_, err = cipher.RotateKey("bad", testKeyAlt, envelope, "", "")
		var keyErr *cryptoDomain.KeyValidationError
		require.ErrorAs(t, err, &keyErr)
		assert.Equal(t, cryptoDomain.ReasonKeyInvalidLength, keyErr.Reason)
	})

	t.Run("validates new key independently", func(t *testing.T) {
		envelope, err := cipher.Encrypt("x", "", "")
		require.NoError(t, err)

		_, err = cipher.RotateKey(testKey, "", envelope, "", "")
		var keyErr *cryptoDomain.KeyValidationError
		require.ErrorAs(t, err, &keyErr)
		assert.Equal(t, cryptoDomain.ReasonKeyMissing, keyErr.Reason)
	})

	t.Run("propagates decryption failure for wrong old key", func(t *testing.T) {
		envelope, err := cipher.Encrypt("x", "", "")
		require.NoError(t, err)

		_, err = cipher.RotateKey(testKeyAlt, testKey, envelope, "", "")
		var decErr *cryptoDomain.DecryptionError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, cryptoDomain.ReasonAuthTagMismatch, decErr.Reason)
	})

	t.Run("logs key_rotation audit entry", func(t *testing.T) {
		audit := &recordingAuditLogger{}
		auditedCipher, err := NewFieldCipher(testKey, audit)
		require.NoError(t, err)

		envelope, err := auditedCipher.Encrypt("x", "", "")
		require.NoError(t, err)

		_, err = auditedCipher.RotateKey(testKey, testKeyAlt, envelope, "", "accounts")
		require.NoError(t, err)

		var rotationEntries []cryptoDomain.AuditEntry
		for _, entry := range audit.all() {
			if entry.Operation == cryptoDomain.OperationKeyRotation {
				rotationEntries = append(rotationEntries, entry)
			}
		}
		require.Len(t, rotationEntries, 1)
		assert.True(t, rotationEntries[0].Success)
		assert.Equal(t, "accounts", rotationEntries[0].ModelName)
	})
}

func TestFieldCipherService_SearchHash(t *testing.T) {
	cipher := newTestCipher(t)

	t.Run("is deterministic", func(t *testing.T) {
		first, err := cipher.SearchHash("john@example.com")
		require.NoError(t, err)
		second, err := cipher.SearchHash("john@example.com")
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		base, err := cipher.SearchHash("john@example.com")
		require.NoError(t, err)

		upper, err := cipher.SearchHash("  JOHN@Example.COM  ")
		require.NoError(t, err)

		assert.Equal(t, base, upper)
	})

	t.Run("outputs 64 lowercase hex characters", func(t *testing.T) {
		hash, err := cipher.SearchHash("value")
		require.NoError(t, err)

		assert.Len(t, hash, 64)
		assert.Equal(t, strings.ToLower(hash), hash)
		for _, r := range hash {
			assert.Contains(t, "0123456789abcdef", string(r))
		}
	})

	t.Run("differs across keys", func(t *testing.T) {
		otherCipher, err := NewFieldCipher(testKeyAlt, nil)
		require.NoError(t, err)

		first, err := cipher.SearchHash("value")
		require.NoError(t, err)
		second, err := otherCipher.SearchHash("value")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("differs across inputs", func(t *testing.T) {
		first, err := cipher.SearchHash("a@example.com")
		require.NoError(t, err)
		second, err := cipher.SearchHash("b@example.com")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestFieldCipherService_ConcurrentUse(t *testing.T) {
	cipher := newTestCipher(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			envelope, err := cipher.Encrypt("concurrent value", "email", "clients")
			assert.NoError(t, err)

			recovered, err := cipher.Decrypt(envelope, "email", "clients")
			assert.NoError(t, err)
			assert.Equal(t, "concurrent value", recovered)
		}()
	}
	wg.Wait()
}
