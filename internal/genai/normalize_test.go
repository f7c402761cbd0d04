package genai

import (
	"bytes"
	"image"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, image.Transparent.C), imaging.PNG))
	return buf.Bytes()
}

func TestNormalize_ResizesOversized(t *testing.T) {
	data := encodePNG(t, 3000, 2000)

	out, mime := Normalize(data, "image/png", DefaultTier)
	assert.Equal(t, "image/jpeg", mime)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), DefaultTier.MaxDim)
	assert.LessOrEqual(t, img.Bounds().Dy(), DefaultTier.MaxDim)
}

func TestNormalize_AnchorTierKeepsMoreResolution(t *testing.T) {
	data := encodePNG(t, 3000, 3000)

	out, _ := Normalize(data, "image/png", AnchorTier)
	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, AnchorTier.MaxDim, img.Bounds().Dx())
}

func TestNormalize_SmallImageNotUpscaled(t *testing.T) {
	data := encodePNG(t, 200, 100)

	out, _ := Normalize(data, "image/png", DefaultTier)
	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestNormalize_UndecodableFallsBackToOriginal(t *testing.T) {
	data := []byte("not an image")

	out, mime := Normalize(data, "application/octet-stream", DefaultTier)
	assert.Equal(t, data, out)
	assert.Equal(t, "application/octet-stream", mime)
}
