package supabase

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"storybook-backend/internal/models"
)

// InsertRevisionRoundTx records a new review cycle atomically with the send
// transaction that opens it.
func (d *DatabaseClient) InsertRevisionRoundTx(tx *sql.Tx, projectID uuid.UUID, mode string, number int) (*models.RevisionRound, error) {
	var r models.RevisionRound
	err := tx.QueryRow(`
		INSERT INTO revision_rounds (id, project_id, mode, number)
		VALUES ($1, $2, $3, $4)
		RETURNING id, project_id, mode, number, created_at
	`, uuid.New(), projectID, mode, number).Scan(
		&r.ID, &r.ProjectID, &r.Mode, &r.Number, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert revision round: %w", err)
	}
	return &r, nil
}

func (d *DatabaseClient) ListRevisionRounds(projectID uuid.UUID, mode string) ([]models.RevisionRound, error) {
	rows, err := d.db.Query(`
		SELECT id, project_id, mode, number, created_at
		FROM revision_rounds
		WHERE project_id = $1 AND mode = $2
		ORDER BY number ASC
	`, projectID, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to list revision rounds: %w", err)
	}
	defer rows.Close()

	var rounds []models.RevisionRound
	for rows.Next() {
		var r models.RevisionRound
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Mode, &r.Number, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision round: %w", err)
		}
		rounds = append(rounds, r)
	}
	return rounds, nil
}
