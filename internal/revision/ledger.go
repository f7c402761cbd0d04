// Package revision holds the per-page/per-character feedback ledger: the
// open customer request, the admin reply, the conversation thread, and a
// round-indexed history of resolved items. All operations are pure data
// transforms; persistence and locking live with the caller.
package revision

import (
	"errors"
	"time"
)

type ReplyType string

const (
	ReplyTypeReply   ReplyType = "reply"
	ReplyTypeComment ReplyType = "comment"
)

const (
	ActorAdmin    = "admin"
	ActorCustomer = "customer"
)

var (
	ErrEmptyNote          = errors.New("feedback note is empty")
	ErrOpenFeedbackExists = errors.New("open feedback already exists")
	ErrNoOpenFeedback     = errors.New("no open feedback")
	ErrNoAdminReply       = errors.New("no standing admin reply")
	ErrNotResolved        = errors.New("feedback is not resolved")
	ErrNoComment          = errors.New("no comment attached")
	ErrThreadLocked       = errors.New("thread entry is no longer editable")
)

// Entry is one resolved feedback item, stamped with the revision round that
// was current when it was resolved.
type Entry struct {
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"`
	RevisionRound int       `json:"revision_round"`
}

type ThreadEntry struct {
	Type      string    `json:"type"` // ActorAdmin or ActorCustomer
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Feedback is the ledger state for one revision target.
//
// Invariant: Notes != "" implies IsResolved == false. Resolving moves the
// note verbatim into History and clears it.
type Feedback struct {
	Notes          string
	IsResolved     bool
	AdminReply     string
	AdminReplyType ReplyType
	History        []Entry
	Thread         []ThreadEntry
}

// Submit records a new customer request. Rejected while another request is
// still open.
func (f *Feedback) Submit(note string) error {
	if note == "" {
		return ErrEmptyNote
	}
	if f.Notes != "" {
		return ErrOpenFeedbackExists
	}
	f.Notes = note
	f.IsResolved = false
	return nil
}

// Resolve closes the open request, moving the note verbatim into history
// under the given round. The standing admin reply is consumed with it.
func (f *Feedback) Resolve(round int, now time.Time) error {
	if f.Notes == "" {
		return ErrNoOpenFeedback
	}
	f.History = append(f.History, Entry{
		Note:          f.Notes,
		CreatedAt:     now,
		RevisionRound: round,
	})
	f.Notes = ""
	f.IsResolved = true
	f.AdminReply = ""
	f.AdminReplyType = ""
	return nil
}

// Reply attaches an admin answer to the open request without resolving it.
// The customer is then constrained to Accept or FollowUp.
func (f *Feedback) Reply(text string, now time.Time) error {
	if text == "" {
		return ErrEmptyNote
	}
	if f.Notes == "" {
		return ErrNoOpenFeedback
	}
	f.AdminReply = text
	f.AdminReplyType = ReplyTypeReply
	f.Thread = append(f.Thread, ThreadEntry{Type: ActorAdmin, Text: text, CreatedAt: now})
	return nil
}

// Accept is the customer's terminal response to an admin reply. It resolves
// the open request under the given round.
func (f *Feedback) Accept(round int, now time.Time) error {
	if f.AdminReply == "" || f.AdminReplyType != ReplyTypeReply {
		return ErrNoAdminReply
	}
	return f.Resolve(round, now)
}

// FollowUp appends the customer's counter-response to the thread and clears
// the standing admin reply, so the admin must respond again.
func (f *Feedback) FollowUp(text string, now time.Time) error {
	if text == "" {
		return ErrEmptyNote
	}
	if f.AdminReply == "" || f.AdminReplyType != ReplyTypeReply {
		return ErrNoAdminReply
	}
	f.Thread = append(f.Thread, ThreadEntry{Type: ActorCustomer, Text: text, CreatedAt: now})
	f.AdminReply = ""
	f.AdminReplyType = ""
	return nil
}

// EditLastThreadEntry rewrites the most recent thread entry. Only its author
// may edit it, and only while no later entry has superseded it. Customer
// edits are additionally locked out once a fresh admin reply stands, since
// the admin has already acted on the text.
func (f *Feedback) EditLastThreadEntry(actor, text string) error {
	if text == "" {
		return ErrEmptyNote
	}
	if len(f.Thread) == 0 {
		return ErrThreadLocked
	}
	last := &f.Thread[len(f.Thread)-1]
	if last.Type != actor {
		return ErrThreadLocked
	}
	if actor == ActorCustomer && f.AdminReply != "" {
		return ErrThreadLocked
	}
	last.Text = text
	// A standing reply and its thread entry are two copies of the same
	// text; an admin edit must keep them in sync, or the customer would
	// accept against a reply that no longer reads what the thread shows.
	if actor == ActorAdmin && f.AdminReplyType == ReplyTypeReply && f.AdminReply != "" {
		f.AdminReply = text
	}
	return nil
}

// Comment attaches an informational admin note after resolution. It reuses
// the reply slot with its own type so the UI can distinguish it; it never
// re-opens the request.
func (f *Feedback) Comment(text string) error {
	if text == "" {
		return ErrEmptyNote
	}
	if f.Notes != "" || !f.IsResolved {
		return ErrNotResolved
	}
	f.AdminReply = text
	f.AdminReplyType = ReplyTypeComment
	return nil
}

func (f *Feedback) EditComment(text string) error {
	if text == "" {
		return ErrEmptyNote
	}
	if f.AdminReplyType != ReplyTypeComment {
		return ErrNoComment
	}
	f.AdminReply = text
	return nil
}

func (f *Feedback) RemoveComment() error {
	if f.AdminReplyType != ReplyTypeComment {
		return ErrNoComment
	}
	f.AdminReply = ""
	f.AdminReplyType = ""
	return nil
}
