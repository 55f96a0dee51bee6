package commands

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/allisson/ledger/internal/crypto/service"
)

var fieldKeyPattern = regexp.MustCompile(`FIELD_ENCRYPTION_KEY="([0-9a-f]{64})"`)

func TestRunGenerateFieldKey(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunGenerateFieldKey(&out))

	matches := fieldKeyPattern.FindStringSubmatch(out.String())
	require.Len(t, matches, 2)

	// The generated key is immediately usable by the cipher engine.
	_, err := cryptoService.NewFieldCipher(matches[1], nil)
	require.NoError(t, err)

	// Two runs never produce the same key.
	var second bytes.Buffer
	require.NoError(t, RunGenerateFieldKey(&second))
	assert.NotEqual(t, out.String(), second.String())
}
