package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Page struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	// 1-based, unique within the project.
	PageNumber       int
	StoryText        string
	SceneDescription string

	// Captured once, the first time the page is sent for review. Never
	// overwritten after.
	OriginalStoryText        sql.NullString
	OriginalSceneDescription sql.NullString

	Colored Artifact
	Sketch  Artifact

	// Copies the customer sees, refreshed at send time.
	CustomerColoredURL sql.NullString
	CustomerSketchURL  sql.NullString

	FeedbackNotes   sql.NullString
	IsResolved      bool
	AdminReply      sql.NullString
	AdminReplyType  sql.NullString
	FeedbackHistory []byte // jsonb
	Thread          []byte // jsonb
	FeedbackVersion int

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Character struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Name        string
	Description string
	IsMain      bool

	ReferencePhotoURL sql.NullString

	Colored Artifact
	Sketch  Artifact

	CustomerColoredURL sql.NullString
	CustomerSketchURL  sql.NullString

	FeedbackNotes   sql.NullString
	IsResolved      bool
	AdminReply      sql.NullString
	AdminReplyType  sql.NullString
	FeedbackHistory []byte // jsonb
	FeedbackVersion int

	CreatedAt time.Time
	UpdatedAt time.Time
}
