package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition_HappyPath(t *testing.T) {
	path := []Status{
		Draft,
		CharacterGeneration,
		CharacterGenerationComplete,
		CharacterReview,
		CharacterRevisionNeeded,
		CharacterReview,
		CharactersApproved,
		IllustrationReview,
		IllustrationRevisionNeeded,
		IllustrationReview,
		Completed,
	}

	for i := 0; i < len(path)-1; i++ {
		got, err := Transition(path[i], path[i+1])
		assert.NoError(t, err, "%s -> %s", path[i], path[i+1])
		assert.Equal(t, path[i+1], got)
	}
}

func TestTransition_Rejected(t *testing.T) {
	cases := []struct {
		from, to Status
	}{
		{Draft, CharactersApproved},
		{Draft, Completed},
		{CharacterReview, IllustrationReview},
		{Completed, Draft},
		{Completed, IllustrationReview},
		{IllustrationReview, CharacterReview},
	}

	for _, tc := range cases {
		got, err := Transition(tc.from, tc.to)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.from, got, "failed transition must leave status unchanged")
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	_, err := Transition(Status("archived"), Draft)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCompleted_Terminal(t *testing.T) {
	assert.True(t, Completed.Terminal())
	assert.False(t, IllustrationReview.Terminal())
}

func TestMode_CanSend(t *testing.T) {
	assert.NoError(t, ModeCharacter.CanSend(Draft))
	assert.NoError(t, ModeCharacter.CanSend(CharacterGenerationComplete))
	assert.NoError(t, ModeCharacter.CanSend(CharacterRevisionNeeded))
	assert.NoError(t, ModeIllustration.CanSend(CharactersApproved))
	assert.NoError(t, ModeIllustration.CanSend(IllustrationRevisionNeeded))

	// Bulk generation and resend are mutually exclusive.
	assert.ErrorIs(t, ModeCharacter.CanSend(CharacterGeneration), ErrGenerationInProgress)
	assert.ErrorIs(t, ModeIllustration.CanSend(CharacterGeneration), ErrGenerationInProgress)

	assert.ErrorIs(t, ModeIllustration.CanSend(Draft), ErrInvalidTransition)
	assert.ErrorIs(t, ModeCharacter.CanSend(Completed), ErrInvalidTransition)
}

func TestModeForStatus(t *testing.T) {
	m, ok := ModeForStatus(CharacterRevisionNeeded)
	assert.True(t, ok)
	assert.Equal(t, ModeCharacter, m)

	m, ok = ModeForStatus(IllustrationReview)
	assert.True(t, ok)
	assert.Equal(t, ModeIllustration, m)

	_, ok = ModeForStatus(Draft)
	assert.False(t, ok)
}
