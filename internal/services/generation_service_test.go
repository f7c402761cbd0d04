package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"storybook-backend/internal/models"
	"storybook-backend/internal/status"
)

func TestBatchAnchor(t *testing.T) {
	main := models.Character{IsMain: true, Colored: models.ReadyArtifact("https://cdn.example.com/main.webp")}
	secondary := models.Character{Colored: models.ReadyArtifact("https://cdn.example.com/sidekick.webp")}

	tests := []struct {
		name       string
		characters []models.Character
		want       string
		wantErr    error
	}{
		{
			name:       "main committed",
			characters: []models.Character{main, secondary},
			want:       "https://cdn.example.com/main.webp",
		},
		{
			name:       "main still pending",
			characters: []models.Character{{IsMain: true, Colored: models.PendingArtifact()}, secondary},
			wantErr:    status.ErrMainCharacterNotReady,
		},
		{
			name:       "main failed",
			characters: []models.Character{{IsMain: true, Colored: models.FailedArtifact("boom")}},
			wantErr:    status.ErrMainCharacterNotReady,
		},
		{
			// A committed secondary never stands in for the main.
			name:       "only a secondary committed",
			characters: []models.Character{secondary},
			wantErr:    status.ErrMainCharacterNotReady,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := batchAnchor(tt.characters)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, url)
		})
	}
}

func TestBatchFinalStatus(t *testing.T) {
	tests := []struct {
		name   string
		prior  status.Status
		failed int
		want   status.Status
	}{
		{"clean batch advances", status.CharacterGenerationComplete, 0, status.CharacterGenerationComplete},
		{"clean batch from draft advances", status.Draft, 0, status.CharacterGenerationComplete},
		{"one failure restores prior", status.Draft, 1, status.Draft},
		{"failures restore a revision status", status.CharacterRevisionNeeded, 3, status.CharacterRevisionNeeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, batchFinalStatus(tt.prior, tt.failed))
		})
	}
}
