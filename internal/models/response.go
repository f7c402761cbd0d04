package models

import "time"

type ProjectResponse struct {
	ID                    string              `json:"project_id"`
	Title                 string              `json:"title"`
	AuthorName            string              `json:"author_name,omitempty"`
	AuthorEmail           string              `json:"author_email,omitempty"`
	Status                string              `json:"status"`
	CharacterSendCount    int                 `json:"character_send_count"`
	IllustrationSendCount int                 `json:"illustration_send_count"`
	ErrorMessage          string              `json:"error_message,omitempty"`
	Characters            []CharacterResponse `json:"characters,omitempty"`
	Pages                 []PageResponse      `json:"pages,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type ProjectSummary struct {
	ID        string    `json:"project_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PageResponse struct {
	ID                 string        `json:"page_id"`
	PageNumber         int           `json:"page_number"`
	StoryText          string        `json:"story_text"`
	SceneDescription   string        `json:"scene_description"`
	Colored            Artifact      `json:"colored"`
	Sketch             Artifact      `json:"sketch"`
	CustomerColoredURL string        `json:"customer_colored_url,omitempty"`
	CustomerSketchURL  string        `json:"customer_sketch_url,omitempty"`
	FeedbackNotes      string        `json:"feedback_notes,omitempty"`
	IsResolved         bool          `json:"is_resolved"`
	AdminReply         string        `json:"admin_reply,omitempty"`
	AdminReplyType     string        `json:"admin_reply_type,omitempty"`
	Version            int           `json:"version"`
	History            *HistoryView  `json:"history,omitempty"`
	Thread             []ThreadEntry `json:"thread,omitempty"`
}

type CharacterResponse struct {
	ID                 string       `json:"character_id"`
	Name               string       `json:"name"`
	Description        string       `json:"description,omitempty"`
	IsMain             bool         `json:"is_main"`
	ReferencePhotoURL  string       `json:"reference_photo_url,omitempty"`
	Colored            Artifact     `json:"colored"`
	Sketch             Artifact     `json:"sketch"`
	CustomerColoredURL string       `json:"customer_colored_url,omitempty"`
	CustomerSketchURL  string       `json:"customer_sketch_url,omitempty"`
	FeedbackNotes      string       `json:"feedback_notes,omitempty"`
	IsResolved         bool         `json:"is_resolved"`
	AdminReply         string       `json:"admin_reply,omitempty"`
	AdminReplyType     string       `json:"admin_reply_type,omitempty"`
	Version            int          `json:"version"`
	History            *HistoryView `json:"history,omitempty"`
}

// HistoryView groups resolved feedback by revision round: current-round
// entries render inline, older rounds collapse behind a toggle.
type HistoryView struct {
	Current        []HistoryEntry `json:"current"`
	Previous       []RoundGroup   `json:"previous,omitempty"`
	PreviousRounds int            `json:"previous_rounds"`
}

type RoundGroup struct {
	Round   int            `json:"round"`
	Entries []HistoryEntry `json:"entries"`
}

type HistoryEntry struct {
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"`
	RevisionRound int       `json:"revision_round"`
}

type ThreadEntry struct {
	Type      string    `json:"type"` // "admin" or "customer"
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type BatchItemResult struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

type BatchResult struct {
	Items     []BatchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Status    string            `json:"status"`
}

type GenerateResponse struct {
	TargetID     string              `json:"target_id"`
	Colored      Artifact            `json:"colored"`
	Sketch       Artifact            `json:"sketch"`
	ComparisonID string              `json:"comparison_id,omitempty"`
	Comparison   *ComparisonResponse `json:"comparison,omitempty"`
}

type ComparisonResponse struct {
	ID         string `json:"comparison_id"`
	TargetKind string `json:"target_kind"`
	TargetID   string `json:"target_id"`
	OldURL     string `json:"old_url"`
	NewURL     string `json:"new_url"`
}

type SendResponse struct {
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
	Variant   string `json:"variant"`
	SendCount int    `json:"send_count"`
	Round     int    `json:"round,omitempty"`
}

type StatusResponse struct {
	ProjectID string    `json:"project_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TokenResponse struct {
	ProjectID   string `json:"project_id"`
	ReviewToken string `json:"review_token"`
	ReviewURL   string `json:"review_url"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
