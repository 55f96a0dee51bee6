package domain

import (
	"encoding/base64"
	"errors"
	"strings"
)

const (
	// EnvelopePrefix tags stored values that contain an encrypted envelope.
	EnvelopePrefix = "enc:"

	// IVSize is the AES-GCM initialization vector length in bytes (96 bits).
	IVSize = 12

	// TagSize is the GCM authentication tag length in bytes (128 bits).
	TagSize = 16

	// MinPayloadSize is the smallest valid decoded envelope body:
	// IV plus authentication tag with an empty ciphertext.
	MinPayloadSize = IVSize + TagSize
)

// ErrInvalidEnvelope indicates a stored value is not a well-formed envelope:
// bad base64, or a decoded body shorter than IV plus authentication tag.
var ErrInvalidEnvelope = errors.New("invalid envelope format")

// Envelope is the decoded wire format of an encrypted field value:
// "enc:" + base64(IV ‖ AuthTag ‖ Ciphertext).
type Envelope struct {
	IV         []byte
	Tag        []byte
	Ciphertext []byte
}

// Encode serializes the envelope into its stored string form.
func (e Envelope) Encode() string {
	body := make([]byte, 0, len(e.IV)+len(e.Tag)+len(e.Ciphertext))
	body = append(body, e.IV...)
	body = append(body, e.Tag...)
	body = append(body, e.Ciphertext...)
	return EnvelopePrefix + base64.StdEncoding.EncodeToString(body)
}

// ParseEnvelope decodes a stored value into its envelope parts.
//
// The "enc:" prefix is optional: values produced by this subsystem always
// carry it, but decryption tolerates its absence. Returns ErrInvalidEnvelope
// for malformed base64 or a body shorter than MinPayloadSize.
func ParseEnvelope(value string) (Envelope, error) {
	body, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EnvelopePrefix))
	if err != nil {
		return Envelope{}, ErrInvalidEnvelope
	}

	if len(body) < MinPayloadSize {
		return Envelope{}, ErrInvalidEnvelope
	}

	return Envelope{
		IV:         body[:IVSize],
		Tag:        body[IVSize:MinPayloadSize],
		Ciphertext: body[MinPayloadSize:],
	}, nil
}

// IsEncrypted reports whether a stored value looks like an encrypted envelope:
// it starts with the "enc:" prefix and its body base64-decodes to at least
// IV plus authentication tag.
//
// This is a format heuristic, not a cryptographic check: the authentication
// tag is never verified here. It exists to avoid double-encrypting protected
// values and to let legacy plaintext rows coexist with ciphertext.
func IsEncrypted(value string) bool {
	if !strings.HasPrefix(value, EnvelopePrefix) {
		return false
	}

	body, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EnvelopePrefix))
	if err != nil {
		return false
	}

	return len(body) >= MinPayloadSize
}
