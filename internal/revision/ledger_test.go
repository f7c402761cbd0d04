package revision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestSubmit(t *testing.T) {
	var f Feedback

	require.NoError(t, f.Submit("make hair longer"))
	assert.Equal(t, "make hair longer", f.Notes)
	assert.False(t, f.IsResolved)

	// Open note implies no concurrent second request.
	assert.ErrorIs(t, f.Submit("also change the hat"), ErrOpenFeedbackExists)
	assert.ErrorIs(t, f.Submit(""), ErrEmptyNote)
}

func TestResolve_MovesNoteVerbatimIntoHistory(t *testing.T) {
	var f Feedback
	require.NoError(t, f.Submit("make hair longer"))

	require.NoError(t, f.Resolve(2, now))

	assert.Empty(t, f.Notes)
	assert.True(t, f.IsResolved)
	require.Len(t, f.History, 1)
	assert.Equal(t, "make hair longer", f.History[0].Note)
	assert.Equal(t, 2, f.History[0].RevisionRound)
	assert.Equal(t, now, f.History[0].CreatedAt)
}

func TestResolve_NoOpenFeedback(t *testing.T) {
	var f Feedback
	assert.ErrorIs(t, f.Resolve(1, now), ErrNoOpenFeedback)
}

func TestInvariant_OpenNoteNeverResolved(t *testing.T) {
	var f Feedback
	require.NoError(t, f.Submit("first"))
	require.NoError(t, f.Resolve(1, now))
	require.NoError(t, f.Submit("second"))

	assert.False(t, f.IsResolved)
	assert.NotEmpty(t, f.Notes)
}

func TestReply_LeavesNoteOpen(t *testing.T) {
	var f Feedback
	require.NoError(t, f.Submit("the dog looks wrong"))

	require.NoError(t, f.Reply("it matches the reference photo, see page 2", now))

	assert.Equal(t, "the dog looks wrong", f.Notes)
	assert.False(t, f.IsResolved)
	assert.Equal(t, ReplyTypeReply, f.AdminReplyType)
	require.Len(t, f.Thread, 1)
	assert.Equal(t, ActorAdmin, f.Thread[0].Type)
}

func TestReply_RequiresOpenNote(t *testing.T) {
	var f Feedback
	assert.ErrorIs(t, f.Reply("hello", now), ErrNoOpenFeedback)
}

func TestAccept_ResolvesWithRound(t *testing.T) {
	var f Feedback
	require.NoError(t, f.Submit("the dog looks wrong"))

	// Accept is only available once a reply stands.
	assert.ErrorIs(t, f.Accept(1, now), ErrNoAdminReply)

	require.NoError(t, f.Reply("it matches the reference", now))
	require.NoError(t, f.Accept(1, now))

	assert.True(t, f.IsResolved)
	assert.Empty(t, f.AdminReply)
	require.Len(t, f.History, 1)
	assert.Equal(t, 1, f.History[0].RevisionRound)
}

func TestFollowUp_ClearsStandingReply(t *testing.T) {
	var f Feedback
	require.NoError(t, f.Submit("the dog looks wrong"))
	require.NoError(t, f.Reply("it matches the reference", now))

	require.NoError(t, f.FollowUp("I mean the ears specifically", now))

	assert.Empty(t, f.AdminReply, "admin must respond again")
	require.Len(t, f.Thread, 2)
	assert.Equal(t, ActorCustomer, f.Thread[1].Type)

	// A second follow-up without a fresh reply is rejected.
	assert.ErrorIs(t, f.FollowUp("and the tail", now), ErrNoAdminReply)
}

func TestEditLastThreadEntry(t *testing.T) {
	var f Feedback
	require.NoError(t, f.Submit("the dog looks wrong"))
	require.NoError(t, f.Reply("it matches the reference", now))
	require.NoError(t, f.FollowUp("I mean the ears", now))

	// Customer's entry is last and no reply has superseded it.
	require.NoError(t, f.EditLastThreadEntry(ActorCustomer, "I mean the ears and tail"))
	assert.Equal(t, "I mean the ears and tail", f.Thread[1].Text)

	// Admin cannot rewrite the customer's entry.
	assert.ErrorIs(t, f.EditLastThreadEntry(ActorAdmin, "nope"), ErrThreadLocked)

	// Once the admin replies again, the customer entry is locked.
	require.NoError(t, f.Reply("ears adjusted", now))
	assert.ErrorIs(t, f.EditLastThreadEntry(ActorCustomer, "too late"), ErrThreadLocked)

	// The admin's own reply is now the last entry and still editable.
	require.NoError(t, f.EditLastThreadEntry(ActorAdmin, "ears and tail adjusted"))
}

func TestEditLastThreadEntry_SyncsStandingReply(t *testing.T) {
	var f Feedback
	require.NoError(t, f.Submit("the dog looks wrong"))
	require.NoError(t, f.Reply("it matches the reference", now))

	require.NoError(t, f.EditLastThreadEntry(ActorAdmin, "it matches page two"))

	// The standing reply and its thread entry read the same text, so an
	// Accept acts on the edited wording.
	assert.Equal(t, "it matches page two", f.Thread[len(f.Thread)-1].Text)
	assert.Equal(t, "it matches page two", f.AdminReply)
	require.NoError(t, f.Accept(1, now))
}

func TestComment_OnlyAfterResolution(t *testing.T) {
	var f Feedback
	require.NoError(t, f.Submit("note"))

	assert.ErrorIs(t, f.Comment("fyi"), ErrNotResolved)

	require.NoError(t, f.Resolve(1, now))
	require.NoError(t, f.Comment("regenerated with the new palette"))
	assert.Equal(t, ReplyTypeComment, f.AdminReplyType)
	assert.True(t, f.IsResolved, "comment never re-opens the request")

	require.NoError(t, f.EditComment("regenerated twice"))
	assert.Equal(t, "regenerated twice", f.AdminReply)

	require.NoError(t, f.RemoveComment())
	assert.Empty(t, f.AdminReply)
	assert.ErrorIs(t, f.EditComment("gone"), ErrNoComment)
}

func TestGroupHistory(t *testing.T) {
	history := []Entry{
		{Note: "r1 a", RevisionRound: 1},
		{Note: "r1 b", RevisionRound: 1},
		{Note: "r2 a", RevisionRound: 2},
		{Note: "r3 a", RevisionRound: 3},
		{Note: "r3 b", RevisionRound: 3},
	}

	view := GroupHistory(history, 3)

	require.Len(t, view.Current, 2)
	assert.Equal(t, "r3 a", view.Current[0].Note)

	require.Len(t, view.Previous, 2)
	assert.Equal(t, 2, view.Previous[0].Round, "previous rounds newest first")
	assert.Equal(t, 1, view.Previous[1].Round)
	assert.Len(t, view.Previous[1].Entries, 2)
}

func TestGroupHistory_Empty(t *testing.T) {
	view := GroupHistory(nil, 1)
	assert.Empty(t, view.Current)
	assert.Empty(t, view.Previous)
}
