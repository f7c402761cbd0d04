// Package compare implements the short-lived keep/revert step between a
// regeneration and its commit: the new image is held next to the old one
// until an operator decides, so a regeneration never overwrites in place.
package compare

import "errors"

type Decision string

const (
	KeepNew   Decision = "keep_new"
	RevertOld Decision = "revert_old"
)

var ErrUnknownDecision = errors.New("unknown comparison decision")

func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case KeepNew, RevertOld:
		return Decision(s), nil
	}
	return "", ErrUnknownDecision
}

// Outcome describes what the caller must persist after a decision.
type Outcome struct {
	// CommittedURL is the colored artifact URL after the decision.
	CommittedURL string
	// InvalidateSketch is set when the committed image changed, making the
	// previously derived sketch stale.
	InvalidateSketch bool
	// DiscardedURL is the blob the caller should delete, if any.
	DiscardedURL string
}

// Resolve applies the operator's decision to the pending pair. keep_new
// commits the new URL and invalidates the derived sketch; revert_old
// discards the new artifact and leaves the committed URL untouched. There is
// no third outcome.
func Resolve(oldURL, newURL string, d Decision) (Outcome, error) {
	switch d {
	case KeepNew:
		return Outcome{CommittedURL: newURL, InvalidateSketch: true, DiscardedURL: oldURL}, nil
	case RevertOld:
		return Outcome{CommittedURL: oldURL, DiscardedURL: newURL}, nil
	}
	return Outcome{}, ErrUnknownDecision
}
