package genai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Tier bounds the size and quality an input image is re-encoded at before it
// goes into a request. The anchor image rides the higher tier because each
// new page may chain off the previous page's output, and quality loss would
// compound across the chain.
type Tier struct {
	MaxDim  int
	Quality int
}

var (
	AnchorTier  = Tier{MaxDim: 1536, Quality: 90}
	DefaultTier = Tier{MaxDim: 1024, Quality: 80}
)

var fetchClient = &http.Client{Timeout: 60 * time.Second}

// FetchImage downloads an image and returns its bytes and content type.
func FetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := fetchClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}

	return data, http.DetectContentType(data), nil
}

// Normalize resizes and re-encodes an input image within the tier's bounds
// to keep the request payload inside provider limits. A decode or encode
// failure falls back to the original bytes rather than failing the request.
func Normalize(data []byte, mime string, tier Tier) ([]byte, string) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data, mime
	}

	bounds := img.Bounds()
	if bounds.Dx() > tier.MaxDim || bounds.Dy() > tier.MaxDim {
		img = imaging.Fit(img, tier.MaxDim, tier.MaxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(tier.Quality)); err != nil {
		return data, mime
	}
	return buf.Bytes(), "image/jpeg"
}
