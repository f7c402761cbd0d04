package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// sketchInstruction carries the fidelity constraint for sketch derivation:
// the sketch must be a structural reproduction, not a reinterpretation.
const sketchInstruction = "Convert this illustration into a monochrome hand-drawn pencil line sketch. " +
	"Reproduce the structure exactly: every figure, object and background element stays where it is. " +
	"Invent nothing, omit nothing. No color, no shading fills; clean line art only."

type Client struct {
	baseURL     string
	apiKey      string
	model       string
	sketchModel string
	httpClient  *http.Client

	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func NewClient(baseURL, apiKey, model, sketchModel string) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		sketchModel: sketchModel,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		maxAttempts: 4,
		baseDelay:   1 * time.Second,
		maxDelay:    8 * time.Second,
	}
}

// APIError is a structured provider error.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider error (http %d, %s): %s", e.StatusCode, e.Status, e.Message)
}

// IsTransient reports whether the error is a classified-transient provider
// failure (overload, unavailable, rate limit). Only these are retried;
// everything else propagates immediately.
func IsTransient(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == http.StatusServiceUnavailable {
		return true
	}
	switch apiErr.Status {
	case "RESOURCE_EXHAUSTED", "UNAVAILABLE":
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "overloaded")
}

// Generate composites the ordered parts into one multimodal request and
// returns the generated image, retrying transient failures with exponential
// backoff.
func (c *Client) Generate(ctx context.Context, parts []Part, aspectRatio string) (*Image, error) {
	var img *Image
	err := c.retryWithBackoff(ctx, func() error {
		var err error
		img, err = c.generateOnce(ctx, c.model, parts, aspectRatio)
		return err
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// DeriveSketch converts a freshly generated colored image into a monochrome
// line sketch with its own retry policy. A failure here never rolls back the
// colored image; the caller records it on the sketch artifact.
func (c *Client) DeriveSketch(ctx context.Context, colored []byte, mime string) (*Image, error) {
	parts := []Part{
		ImagePart(colored, mime),
		TextPart(sketchInstruction),
	}

	var img *Image
	err := c.retryWithBackoff(ctx, func() error {
		var err error
		img, err = c.generateOnce(ctx, c.sketchModel, parts, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// retryWithBackoff retries fn with exponential backoff for transient
// failures only, bounded by attempt count and max delay.
func (c *Client) retryWithBackoff(ctx context.Context, fn func() error) error {
	delay := c.baseDelay
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("failed after %d attempts: %w", c.maxAttempts, lastErr)
}

type wirePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []struct {
		Parts []wirePart `json:"parts"`
	} `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []wirePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) generateOnce(ctx context.Context, model string, parts []Part, aspectRatio string) (*Image, error) {
	var req generateRequest
	req.Contents = make([]struct {
		Parts []wirePart `json:"parts"`
	}, 1)
	for _, p := range parts {
		if p.IsImage() {
			req.Contents[0].Parts = append(req.Contents[0].Parts, wirePart{
				InlineData: &inlineData{
					MIMEType: p.MIME,
					Data:     base64.StdEncoding.EncodeToString(p.Data),
				},
			})
			continue
		}
		req.Contents[0].Parts = append(req.Contents[0].Parts, wirePart{Text: p.Text})
	}
	req.GenerationConfig = &generationConfig{
		ResponseModalities: []string{"IMAGE"},
	}
	if aspectRatio != "" {
		req.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: aspectRatio}
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Status:     errResp.Error.Status,
				Message:    errResp.Error.Message,
			}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, cand := range result.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode image data: %w", err)
			}
			return &Image{Data: data, MIME: part.InlineData.MIMEType}, nil
		}
	}

	return nil, fmt.Errorf("no image in response")
}
