package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// RunGenerateFieldKey generates a cryptographically secure 32-byte field
// encryption key and writes it in environment variable form. The key is
// printed once and never logged; key material is zeroed after encoding.
func RunGenerateFieldKey(w io.Writer) error {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate field encryption key: %w", err)
	}

	encoded := hex.EncodeToString(key)

	fmt.Fprintln(w, "# Field Encryption Key Configuration")
	fmt.Fprintln(w, "# Copy this environment variable to your .env file or secrets manager")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "FIELD_ENCRYPTION_KEY=\"%s\"\n", encoded)

	for i := range key {
		key[i] = 0
	}

	return nil
}
