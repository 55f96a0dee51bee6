package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	cryptoDomain "github.com/allisson/ledger/internal/crypto/domain"
)

// AESGCMCipher performs authenticated encryption with AES-256-GCM, exposing
// the IV, authentication tag, and ciphertext as separate parts so they can be
// framed into the envelope format.
//
// The cipher instance is stateless and safe for concurrent use from multiple
// goroutines. Each encryption generates a fresh random 12-byte IV.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
// The key must be exactly 32 bytes (256 bits).
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, errors.New("key must be exactly 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext under a fresh random IV and returns the IV,
// the 16-byte authentication tag, and the ciphertext (same length as the
// plaintext) as separate slices.
func (a *AESGCMCipher) Encrypt(plaintext []byte) (iv, tag, ciphertext []byte, err error) {
	iv = make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	// Seal appends the authentication tag to the ciphertext; split it off so
	// the envelope can store IV ‖ Tag ‖ Ciphertext.
	sealed := a.aead.Seal(nil, iv, plaintext, nil)
	boundary := len(sealed) - a.aead.Overhead()
	return iv, sealed[boundary:], sealed[:boundary], nil
}

// Decrypt verifies and decrypts the given envelope parts. Any mismatch in
// IV, tag, or ciphertext (including a wrong key) fails authentication.
func (a *AESGCMCipher) Decrypt(iv, tag, ciphertext []byte) ([]byte, error) {
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := a.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
