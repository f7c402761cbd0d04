package supabase

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishProjectEvent_PostsBroadcast(t *testing.T) {
	var gotPath, gotKey, gotAuth string
	var gotBody broadcastRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := &RealtimeClient{
		baseURL:    srv.URL,
		apiKey:     "publishable-key",
		httpClient: srv.Client(),
	}

	projectID := uuid.New()
	err := client.PublishProjectEvent(projectID, "generation_started",
		GenerationStartedPayload(projectID, 3))
	require.NoError(t, err)

	assert.Equal(t, "/realtime/v1/api/broadcast", gotPath)
	assert.Equal(t, "publishable-key", gotKey)
	assert.Equal(t, "Bearer publishable-key", gotAuth)
	require.Len(t, gotBody.Messages, 1)
	msg := gotBody.Messages[0]
	assert.Equal(t, "project:"+projectID.String(), msg.Topic)
	assert.Equal(t, "generation_started", msg.Event)
	assert.Equal(t, projectID.String(), msg.Payload["project_id"])
	assert.Equal(t, float64(3), msg.Payload["item_count"])
}

func TestPublishEvent_RejectedStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := &RealtimeClient{
		baseURL:    srv.URL,
		apiKey:     "publishable-key",
		httpClient: srv.Client(),
	}

	err := client.PublishEvent("project:x", "batch_completed", map[string]interface{}{})
	assert.ErrorContains(t, err, "401")
}
