package status

import "errors"

// Status is the project-level lifecycle state. Page and character lifecycles
// derive from it through the ReviewMode the status belongs to.
type Status string

const (
	Draft                       Status = "draft"
	CharacterGeneration         Status = "character_generation"
	CharacterGenerationComplete Status = "character_generation_complete"
	CharacterReview             Status = "character_review"
	CharacterRevisionNeeded     Status = "character_revision_needed"
	CharactersRegenerated       Status = "characters_regenerated"
	CharactersApproved          Status = "characters_approved"
	IllustrationReview          Status = "illustration_review"
	IllustrationRevisionNeeded  Status = "illustration_revision_needed"
	Completed                   Status = "completed"
)

var (
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrGenerationInProgress  = errors.New("character generation in progress")
	ErrMainCharacterNotReady = errors.New("main character has no generated image")
	ErrMissingAuthorContact  = errors.New("author contact is required before sending to customer")
)

// transitions is the full enumerable set. This is deliberately not a generic
// workflow engine: the domain has exactly these edges.
var transitions = map[Status][]Status{
	Draft:                       {CharacterGeneration, CharacterReview},
	CharacterGeneration:         {CharacterGenerationComplete, Draft, CharacterRevisionNeeded, CharactersRegenerated},
	CharacterGenerationComplete: {CharacterReview, CharacterGeneration},
	CharacterReview:             {CharacterRevisionNeeded, CharactersApproved, CharacterReview},
	CharacterRevisionNeeded:     {CharacterReview, CharactersRegenerated, CharacterGeneration},
	CharactersRegenerated:       {CharacterReview, CharacterGeneration},
	CharactersApproved:          {IllustrationReview},
	IllustrationReview:          {IllustrationRevisionNeeded, Completed, IllustrationReview},
	IllustrationRevisionNeeded:  {IllustrationReview},
	Completed:                   {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the edge from → to exists in the domain.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates the edge and returns the new status. It never mutates
// anything itself; callers flip persisted state inside their own transaction
// so a write failure leaves the original status untouched.
func Transition(from, to Status) (Status, error) {
	if !from.Valid() || !to.Valid() {
		return from, ErrInvalidStatus
	}
	if !CanTransition(from, to) {
		return from, ErrInvalidTransition
	}
	return to, nil
}

// Terminal reports whether no further transitions exist.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}
