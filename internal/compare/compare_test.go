package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_KeepNew(t *testing.T) {
	out, err := Resolve("https://cdn/a.png", "https://cdn/b.png", KeepNew)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn/b.png", out.CommittedURL)
	assert.True(t, out.InvalidateSketch, "stale sketch must be re-derived")
	assert.Equal(t, "https://cdn/a.png", out.DiscardedURL)
}

func TestResolve_RevertOld(t *testing.T) {
	out, err := Resolve("https://cdn/a.png", "https://cdn/b.png", RevertOld)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn/a.png", out.CommittedURL, "committed artifact untouched")
	assert.False(t, out.InvalidateSketch)
	assert.Equal(t, "https://cdn/b.png", out.DiscardedURL)
}

func TestResolve_UnknownDecision(t *testing.T) {
	_, err := Resolve("a", "b", Decision("merge"))
	assert.ErrorIs(t, err, ErrUnknownDecision)
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("keep_new")
	require.NoError(t, err)
	assert.Equal(t, KeepNew, d)

	_, err = ParseDecision("keep")
	assert.ErrorIs(t, err, ErrUnknownDecision)
}
