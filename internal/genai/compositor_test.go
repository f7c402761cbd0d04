package genai

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFetch(t *testing.T) fetchFunc {
	t.Helper()
	return func(_ context.Context, url string) ([]byte, string, error) {
		return []byte("img:" + url), "image/png", nil
	}
}

func TestBuild_PartOrdering(t *testing.T) {
	c := &Compositor{fetch: stubFetch(t)}

	parts, err := c.Build(context.Background(), Request{
		Instruction: "Mila rides the fox through the forest",
		Characters: []CharacterRef{
			{Name: "Mila", ImageURL: "https://cdn/mila.png", IsMain: true},
			{Name: "Fox", ImageURL: "https://cdn/fox.png", Role: "companion"},
		},
		AnchorURL: "https://cdn/page3.png",
		StyleRefs: []string{"https://cdn/palette.png"},
	})
	require.NoError(t, err)

	// label+image per character, label+image anchor, label+image style ref,
	// instruction last.
	require.Len(t, parts, 9)

	assert.Contains(t, parts[0].Text, "Mila")
	assert.Contains(t, parts[0].Text, "main character")
	assert.Contains(t, parts[0].Text, "governs the entire scene")
	assert.True(t, parts[1].IsImage())

	assert.Contains(t, parts[2].Text, "Fox")
	assert.Contains(t, parts[2].Text, "companion")
	assert.NotContains(t, parts[2].Text, "governs the entire scene")
	assert.True(t, parts[3].IsImage())

	assert.Contains(t, parts[4].Text, "Continuity reference")
	assert.True(t, parts[5].IsImage())

	assert.Contains(t, parts[6].Text, "style reference")
	assert.True(t, parts[7].IsImage())

	assert.Equal(t, "Mila rides the fox through the forest", parts[8].Text)
	assert.False(t, parts[8].IsImage())
}

func TestBuild_AnchorAlwaysAfterCharactersBeforeInstruction(t *testing.T) {
	c := &Compositor{fetch: stubFetch(t)}

	parts, err := c.Build(context.Background(), Request{
		Instruction: "a quiet morning",
		Characters: []CharacterRef{
			{Name: "Fox", ImageURL: "https://cdn/fox.png"},
			{Name: "Mila", ImageURL: "https://cdn/mila.png", IsMain: true},
		},
		AnchorURL: "https://cdn/prev.png",
	})
	require.NoError(t, err)

	anchorIdx, instructionIdx := -1, -1
	lastCharIdx := -1
	for i, p := range parts {
		switch {
		case p.Text == "a quiet morning":
			instructionIdx = i
		case p.Text != "" && p.Text[:4] == "Char":
			lastCharIdx = i
		case p.Text != "" && p.Text[:4] == "Cont":
			anchorIdx = i
		}
	}

	require.NotEqual(t, -1, anchorIdx)
	assert.Greater(t, anchorIdx, lastCharIdx, "anchor comes after all character pairs")
	assert.Greater(t, instructionIdx, anchorIdx, "instruction comes last")
	assert.Equal(t, len(parts)-1, instructionIdx)
}

func TestBuild_SceneRecreationLabel(t *testing.T) {
	c := &Compositor{fetch: stubFetch(t)}

	parts, err := c.Build(context.Background(), Request{
		Instruction:       "add falling snow",
		AnchorURL:         "https://cdn/prev.png",
		AnchorAsSceneBase: true,
	})
	require.NoError(t, err)

	require.Len(t, parts, 3)
	assert.Contains(t, parts[0].Text, "Scene base")
	assert.Contains(t, parts[0].Text, "edit this environment in place")
}

func TestBuild_Validation(t *testing.T) {
	c := &Compositor{fetch: stubFetch(t)}

	_, err := c.Build(context.Background(), Request{Instruction: "   "})
	assert.Error(t, err)

	_, err = c.Build(context.Background(), Request{
		Instruction: "x",
		Characters:  []CharacterRef{{Name: "Mila"}},
	})
	assert.Error(t, err)
}

func TestBuild_FetchFailurePropagates(t *testing.T) {
	c := &Compositor{fetch: func(_ context.Context, url string) ([]byte, string, error) {
		return nil, "", fmt.Errorf("boom")
	}}

	_, err := c.Build(context.Background(), Request{
		Instruction: "x",
		Characters:  []CharacterRef{{Name: "Mila", ImageURL: "https://cdn/mila.png"}},
	})
	assert.ErrorContains(t, err, "boom")
}
