package supabase

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storybook-backend/internal/models"
)

// CreateComparison holds a freshly regenerated image next to the committed
// one. The unique index on (target_kind, target_id) enforces one in flight
// per target.
func (d *DatabaseClient) CreateComparison(projectID uuid.UUID, targetKind string, targetID uuid.UUID, oldURL, newURL string) (*models.PendingComparison, error) {
	var c models.PendingComparison
	err := d.db.QueryRow(`
		INSERT INTO pending_comparisons (id, project_id, target_kind, target_id, old_url, new_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, project_id, target_kind, target_id, old_url, new_url, created_at
	`, uuid.New(), projectID, targetKind, targetID, oldURL, newURL).Scan(
		&c.ID, &c.ProjectID, &c.TargetKind, &c.TargetID, &c.OldURL, &c.NewURL, &c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrComparisonExists
		}
		return nil, fmt.Errorf("failed to create comparison: %w", err)
	}
	return &c, nil
}

func (d *DatabaseClient) GetComparison(comparisonID uuid.UUID) (*models.PendingComparison, error) {
	var c models.PendingComparison
	err := d.db.QueryRow(`
		SELECT id, project_id, target_kind, target_id, old_url, new_url, created_at
		FROM pending_comparisons
		WHERE id = $1
	`, comparisonID).Scan(
		&c.ID, &c.ProjectID, &c.TargetKind, &c.TargetID, &c.OldURL, &c.NewURL, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}
	return &c, nil
}

func (d *DatabaseClient) DeleteComparison(comparisonID uuid.UUID) error {
	res, err := d.db.Exec(`
		DELETE FROM pending_comparisons
		WHERE id = $1
	`, comparisonID)
	if err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
