package auth

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	gen, err := Generate()
	require.NoError(t, err)

	id, secret, perr := Parse(gen.Plaintext)
	require.NoError(t, perr)
	assert.Equal(t, gen.ID, id)

	_, uerr := uuid.Parse(gen.ID)
	assert.NoError(t, uerr)

	assert.Len(t, secret, 64)
	assert.Equal(t, gen.Hash, HashSecret(secret))
	assert.NotContains(t, gen.Hash, secret, "hash must not embed the secret")
}

func TestGenerate_Unique(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a.Plaintext, b.Plaintext)
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestParse_Malformed(t *testing.T) {
	valid, err := Generate()
	require.NoError(t, err)

	cases := map[string]string{
		"empty":           "",
		"no separator":    strings.ReplaceAll(valid.Plaintext, "|", ""),
		"bad uuid":        "not-a-uuid|" + strings.Repeat("a", 64),
		"short secret":    uuid.New().String() + "|abc123",
		"missing secret":  uuid.New().String() + "|",
		"extra separator": valid.Plaintext + "|tail",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(input)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestVerifySecret(t *testing.T) {
	gen, err := Generate()
	require.NoError(t, err)

	_, secret, perr := Parse(gen.Plaintext)
	require.NoError(t, perr)

	assert.True(t, VerifySecret(gen.Hash, secret))
	assert.False(t, VerifySecret(gen.Hash, strings.Repeat("0", 64)))
	assert.False(t, VerifySecret(gen.Hash, ""))
}
