// Package notify dispatches customer email intents through a Supabase edge
// function. Delivery is fire-and-forget: a failed notification is logged and
// never blocks the state transition that triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Template kinds for the three send-to-customer variants.
const (
	TemplateInitialReview = "review_initial"
	TemplateFirstBatch    = "review_first_batch"
	TemplateRevisionRound = "review_revision_round"
)

type Notification struct {
	TemplateKind string                 `json:"template"`
	Recipient    string                 `json:"recipient"`
	Variables    map[string]interface{} `json:"variables"`
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// EdgeNotifier posts notifications to an HTTP endpoint (a Supabase edge
// function in production).
type EdgeNotifier struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewEdgeNotifier(endpoint, apiKey string) *EdgeNotifier {
	return &EdgeNotifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (e *EdgeNotifier) Send(ctx context.Context, n Notification) error {
	if e.endpoint == "" {
		return fmt.Errorf("notify endpoint not configured")
	}

	jsonData, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to send notification: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}

// Dispatch sends fire-and-forget: the error is logged, never returned.
func Dispatch(ctx context.Context, n Notifier, notification Notification) {
	if err := n.Send(ctx, notification); err != nil {
		log.Printf("notification %s to %s failed: %v", notification.TemplateKind, notification.Recipient, err)
	}
}

// Payload builders for the staged review notifications.

func InitialReviewPayload(recipient, authorName, title, reviewURL string) Notification {
	return Notification{
		TemplateKind: TemplateInitialReview,
		Recipient:    recipient,
		Variables: map[string]interface{}{
			"author_name": authorName,
			"title":       title,
			"review_url":  reviewURL,
		},
	}
}

func FirstBatchReadyPayload(recipient, authorName, title, reviewURL string) Notification {
	return Notification{
		TemplateKind: TemplateFirstBatch,
		Recipient:    recipient,
		Variables: map[string]interface{}{
			"author_name": authorName,
			"title":       title,
			"review_url":  reviewURL,
		},
	}
}

func RevisionRoundPayload(recipient, authorName, title, reviewURL string, round int) Notification {
	return Notification{
		TemplateKind: TemplateRevisionRound,
		Recipient:    recipient,
		Variables: map[string]interface{}{
			"author_name": authorName,
			"title":       title,
			"review_url":  reviewURL,
			"round":       round,
		},
	}
}
