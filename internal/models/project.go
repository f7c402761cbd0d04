package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	Title                 string
	AuthorName            string
	AuthorEmail           string
	Status                string
	ReviewToken           sql.NullString
	CharacterSendCount    int
	IllustrationSendCount int
	ErrorMessage          sql.NullString
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RevisionRound is one customer-review cycle. A row is inserted atomically
// with the send transaction that opens the cycle; history entries reference
// its number rather than re-reading the mutable send counter.
type RevisionRound struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Mode      string // "character" or "illustration"
	Number    int
	CreatedAt time.Time
}

// PendingComparison holds a freshly regenerated image next to the committed
// one until an operator decides keep_new or revert_old. At most one exists
// per target.
type PendingComparison struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	TargetKind string // "page" or "character"
	TargetID   uuid.UUID
	OldURL     string
	NewURL     string
	CreatedAt  time.Time
}
