package services

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storybook-backend/internal/models"
	"storybook-backend/internal/revision"
)

func TestFeedbackUpdateRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fb := revision.Feedback{
		Notes:          "make the hat red",
		AdminReply:     "will do",
		AdminReplyType: revision.ReplyTypeReply,
		History: []revision.Entry{
			{Note: "older request", CreatedAt: now, RevisionRound: 1},
		},
		Thread: []revision.ThreadEntry{
			{Type: revision.ActorAdmin, Text: "will do", CreatedAt: now},
		},
	}

	update, err := feedbackUpdate(fb, true)
	require.NoError(t, err)

	assert.Equal(t, "make the hat red", update.Notes.String)
	assert.True(t, update.Notes.Valid)
	assert.Equal(t, "reply", update.AdminReplyType.String)

	page := &models.Page{
		FeedbackNotes:   update.Notes,
		IsResolved:      update.IsResolved,
		AdminReply:      update.AdminReply,
		AdminReplyType:  update.AdminReplyType,
		FeedbackHistory: update.History,
		Thread:          update.Thread,
	}
	decoded, err := pageLedger(page)
	require.NoError(t, err)
	assert.Equal(t, fb, decoded)
}

func TestFeedbackUpdateEmptyLedgerMarshalsArrays(t *testing.T) {
	update, err := feedbackUpdate(revision.Feedback{}, true)
	require.NoError(t, err)

	assert.Equal(t, "[]", string(update.History))
	assert.Equal(t, "[]", string(update.Thread))
	assert.False(t, update.Notes.Valid)
	assert.False(t, update.AdminReply.Valid)
}

func TestFeedbackUpdateCharacterHasNoThread(t *testing.T) {
	update, err := feedbackUpdate(revision.Feedback{Notes: "n"}, false)
	require.NoError(t, err)
	assert.Nil(t, update.Thread)
}

func TestPresentPageGroupsHistoryByRound(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	history, err := json.Marshal([]revision.Entry{
		{Note: "round one request", CreatedAt: now, RevisionRound: 1},
		{Note: "round two request", CreatedAt: now, RevisionRound: 2},
		{Note: "current request", CreatedAt: now, RevisionRound: 3},
	})
	require.NoError(t, err)

	page := &models.Page{
		PageNumber:      4,
		StoryText:       "Once upon a time",
		Colored:         models.ReadyArtifact("https://example.com/p4.png"),
		Sketch:          models.PendingArtifact(),
		FeedbackHistory: history,
		FeedbackVersion: 7,
	}

	resp, err := PresentPage(page, 3)
	require.NoError(t, err)

	require.NotNil(t, resp.History)
	require.Len(t, resp.History.Current, 1)
	assert.Equal(t, "current request", resp.History.Current[0].Note)
	require.Len(t, resp.History.Previous, 2)
	// Newest previous round first.
	assert.Equal(t, 2, resp.History.Previous[0].Round)
	assert.Equal(t, 1, resp.History.Previous[1].Round)
	assert.Equal(t, 2, resp.History.PreviousRounds)
	assert.Equal(t, 7, resp.Version)
}

func TestPresentPageOmitsEmptyHistory(t *testing.T) {
	page := &models.Page{
		Colored: models.PendingArtifact(),
		Sketch:  models.PendingArtifact(),
	}
	resp, err := PresentPage(page, 0)
	require.NoError(t, err)
	assert.Nil(t, resp.History)
}

func TestCustomerArtifact(t *testing.T) {
	assert.Equal(t, models.ArtifactPending, customerArtifact("").State)

	a := customerArtifact("https://example.com/x.png")
	assert.True(t, a.IsReady())
}

func TestPresentCharacterDecodesLedger(t *testing.T) {
	character := &models.Character{
		Name:           "Milo",
		IsMain:         true,
		Colored:        models.ReadyArtifact("https://example.com/milo.png"),
		Sketch:         models.FailedArtifact("provider overloaded"),
		FeedbackNotes:  sql.NullString{String: "bigger ears", Valid: true},
		AdminReply:     sql.NullString{String: "on it", Valid: true},
		AdminReplyType: sql.NullString{String: "reply", Valid: true},
	}

	resp, err := PresentCharacter(character, 1)
	require.NoError(t, err)
	assert.Equal(t, "bigger ears", resp.FeedbackNotes)
	assert.Equal(t, "on it", resp.AdminReply)
	assert.Equal(t, "reply", resp.AdminReplyType)
	assert.Equal(t, models.ArtifactFailed, resp.Sketch.State)
	assert.Equal(t, "provider overloaded", resp.Sketch.Error)
}
