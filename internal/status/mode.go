package status

// ReviewMode is the two-variant review target: the character round-trip that
// precedes approval, and the illustration round-trip that follows it. Each
// mode owns its review/revision statuses and its send counter, instead of a
// shared code path branching on status-string membership.
type ReviewMode string

const (
	ModeCharacter    ReviewMode = "character"
	ModeIllustration ReviewMode = "illustration"
)

func (m ReviewMode) Valid() bool {
	return m == ModeCharacter || m == ModeIllustration
}

// ReviewStatus is the status entered by a successful send in this mode.
func (m ReviewMode) ReviewStatus() Status {
	if m == ModeIllustration {
		return IllustrationReview
	}
	return CharacterReview
}

// RevisionStatus is the status entered when the customer submits feedback in
// this mode.
func (m ReviewMode) RevisionStatus() Status {
	if m == ModeIllustration {
		return IllustrationRevisionNeeded
	}
	return CharacterRevisionNeeded
}

// sendable lists the statuses an explicit "send to customer" may leave from,
// per mode. CharacterGeneration is deliberately absent: bulk generation and
// resend are mutually exclusive.
var sendable = map[ReviewMode][]Status{
	ModeCharacter: {
		Draft,
		CharacterGenerationComplete,
		CharacterReview,
		CharacterRevisionNeeded,
		CharactersRegenerated,
	},
	ModeIllustration: {
		CharactersApproved,
		IllustrationReview,
		IllustrationRevisionNeeded,
	},
}

// CanSend guards the send-to-customer action from the given status.
func (m ReviewMode) CanSend(from Status) error {
	if from == CharacterGeneration {
		return ErrGenerationInProgress
	}
	for _, s := range sendable[m] {
		if s == from {
			return nil
		}
	}
	return ErrInvalidTransition
}

// ModeForStatus maps a review or revision status back to its mode.
func ModeForStatus(s Status) (ReviewMode, bool) {
	switch s {
	case CharacterReview, CharacterRevisionNeeded, CharactersRegenerated:
		return ModeCharacter, true
	case IllustrationReview, IllustrationRevisionNeeded:
		return ModeIllustration, true
	}
	return "", false
}
