package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storybook-backend/internal/revision"
	"storybook-backend/internal/staging"
	"storybook-backend/internal/status"
)

// A resend from a revision status resolves open feedback under the counter
// being closed, then the staging decision opens the next one. The history
// entry must carry the pre-increment counter and match the announced round.
func TestResendStampsPreIncrementRound(t *testing.T) {
	sendCount := 2

	fb := revision.Feedback{}
	require.NoError(t, fb.Submit("the dog should be brown"))
	require.NoError(t, fb.Resolve(sendCount, time.Now().UTC()))

	decision := staging.Decide(sendCount, true)

	assert.Equal(t, staging.VariantRevisionRound, decision.Variant)
	assert.Equal(t, sendCount+1, decision.NewCount)
	require.Len(t, fb.History, 1)
	assert.Equal(t, decision.Round, fb.History[0].RevisionRound)
}

func TestFirstSendWithImageryOpensRoundOne(t *testing.T) {
	decision := staging.Decide(0, true)

	assert.Equal(t, staging.VariantFirstReady, decision.Variant)
	assert.Equal(t, 1, decision.NewCount)
}

// No imagery yet: the send is a text-only preview and the counter must not
// move, so no revision round is opened.
func TestTextOnlySendLeavesCounterUntouched(t *testing.T) {
	decision := staging.Decide(0, false)

	assert.Equal(t, staging.VariantInitial, decision.Variant)
	assert.Equal(t, 0, decision.NewCount)
}

func TestRevisionFlip(t *testing.T) {
	tests := []struct {
		name     string
		current  status.Status
		mode     status.ReviewMode
		want     status.Status
		wantFlip bool
	}{
		{"character feedback in review flips", status.CharacterReview, status.ModeCharacter, status.CharacterRevisionNeeded, true},
		{"illustration feedback in review flips", status.IllustrationReview, status.ModeIllustration, status.IllustrationRevisionNeeded, true},
		{"already in revision stays", status.CharacterRevisionNeeded, status.ModeCharacter, status.CharacterRevisionNeeded, false},
		{"no edge from draft", status.Draft, status.ModeIllustration, status.Draft, false},
		{"completed is terminal", status.Completed, status.ModeIllustration, status.Completed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, flipped := revisionFlip(tt.current, tt.mode)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFlip, flipped)
		})
	}
}
