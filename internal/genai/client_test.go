package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	c := NewClient(url, "test-key", "img-model", "sketch-model")
	c.baseDelay = time.Millisecond
	c.maxDelay = 2 * time.Millisecond
	return c
}

func imageResponse(data []byte) []byte {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{
					"inline_data": map[string]any{
						"mime_type": "image/png",
						"data":      base64.StdEncoding.EncodeToString(data),
					},
				}},
			},
		}},
	})
	return b
}

func TestGenerate(t *testing.T) {
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/img-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write(imageResponse([]byte("png-bytes")))
	}))
	defer server.Close()

	img, err := testClient(server.URL).Generate(context.Background(),
		[]Part{TextPart("a fox"), ImagePart([]byte{1, 2}, "image/jpeg")}, "3:4")
	require.NoError(t, err)

	assert.Equal(t, []byte("png-bytes"), img.Data)
	assert.Equal(t, "image/png", img.MIME)

	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 2)
	assert.Equal(t, "a fox", gotBody.Contents[0].Parts[0].Text)
	require.NotNil(t, gotBody.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "3:4", gotBody.GenerationConfig.ImageConfig.AspectRatio)
}

func TestGenerate_RetriesTransient(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`)
			return
		}
		w.Write(imageResponse([]byte("ok")))
	}))
	defer server.Close()

	img, err := testClient(server.URL).Generate(context.Background(), []Part{TextPart("x")}, "")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []byte("ok"), img.Data)
}

func TestGenerate_PermanentFailsImmediately(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"invalid argument","status":"INVALID_ARGUMENT"}}`)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), []Part{TextPart("x")}, "")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "permanent errors must not be retried")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestGenerate_TransientExhausted(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.Generate(context.Background(), []Part{TextPart("x")}, "")
	require.Error(t, err)
	assert.Equal(t, c.maxAttempts, calls)
	assert.Contains(t, err.Error(), "failed after")
}

func TestDeriveSketch_UsesSketchModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/sketch-model:generateContent", r.URL.Path)

		var body generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents[0].Parts, 2)
		assert.NotNil(t, body.Contents[0].Parts[0].InlineData, "source image first")
		assert.Contains(t, body.Contents[0].Parts[1].Text, "Invent nothing, omit nothing")

		w.Write(imageResponse([]byte("sketch")))
	}))
	defer server.Close()

	img, err := testClient(server.URL).DeriveSketch(context.Background(), []byte("colored"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, []byte("sketch"), img.Data)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&APIError{StatusCode: 429}))
	assert.True(t, IsTransient(&APIError{StatusCode: 503}))
	assert.True(t, IsTransient(&APIError{StatusCode: 500, Status: "UNAVAILABLE"}))
	assert.True(t, IsTransient(&APIError{StatusCode: 500, Message: "The model is overloaded, try later"}))
	assert.False(t, IsTransient(&APIError{StatusCode: 400, Status: "INVALID_ARGUMENT"}))
	assert.False(t, IsTransient(fmt.Errorf("plain error")))
}
