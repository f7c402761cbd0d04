package supabase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RealtimeClient publishes project events the admin UI subscribes to over
// Supabase Realtime. Row updates trigger Realtime on their own; explicit
// events go out through the broadcast REST endpoint.
type RealtimeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRealtimeClient(client *Client) *RealtimeClient {
	return &RealtimeClient{
		baseURL:    strings.TrimRight(client.Config.SupabaseURL, "/"),
		apiKey:     client.Config.SupabasePublishableKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type broadcastMessage struct {
	Topic   string                 `json:"topic"`
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

type broadcastRequest struct {
	Messages []broadcastMessage `json:"messages"`
}

// PublishEvent posts one broadcast message to the Realtime endpoint, so
// subscribers on the channel receive it without waiting for a row change.
func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	body, err := json.Marshal(broadcastRequest{
		Messages: []broadcastMessage{{Topic: channel, Event: event, Payload: payload}},
	})
	if err != nil {
		return fmt.Errorf("failed to encode broadcast message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, r.baseURL+"/realtime/v1/api/broadcast", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("broadcast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("broadcast rejected with status %d", resp.StatusCode)
	}
	return nil
}

func (r *RealtimeClient) PublishProjectEvent(projectID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("project:%s", projectID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads

func GenerationStartedPayload(projectID uuid.UUID, itemCount int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"status":     "generating",
		"item_count": itemCount,
	}
}

func ItemGeneratedPayload(projectID, targetID uuid.UUID, targetKind string, success bool) map[string]interface{} {
	return map[string]interface{}{
		"project_id":  projectID.String(),
		"target_id":   targetID.String(),
		"target_kind": targetKind,
		"success":     success,
	}
}

func BatchCompletedPayload(projectID uuid.UUID, succeeded, failed int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"succeeded":  succeeded,
		"failed":     failed,
	}
}

func SentForReviewPayload(projectID uuid.UUID, mode string, sendCount int) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"mode":       mode,
		"send_count": sendCount,
	}
}
