package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	got, err := Normalize("  Alice.Smith@ACME.com ")
	require.NoError(t, err)
	assert.Equal(t, "alice.smith@acme.com", got)

	for _, in := range []string{
		"",
		"not-an-email",
		"Alice <alice@acme.com>",
		"alice@",
		strings.Repeat("a", MaxLen) + "@acme.com",
	} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrInvalid, in)
	}
}

func TestSplit(t *testing.T) {
	local, domain, ok := Split("a@b@c.com")
	assert.True(t, ok)
	assert.Equal(t, "a@b", local)
	assert.Equal(t, "c.com", domain)

	_, _, ok = Split("nope")
	assert.False(t, ok)
}
