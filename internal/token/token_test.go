package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tok, err := New()
	require.NoError(t, err)
	assert.Len(t, tok, length)
	for _, r := range tok {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := New()
		require.NoError(t, err)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}
