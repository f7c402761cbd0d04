package supabase

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storybook-backend/internal/models"
)

const projectColumns = `id, user_id, title, author_name, author_email, status, review_token,
	character_send_count, illustration_send_count, error_message, created_at, updated_at`

func scanProject(row *sql.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &p.AuthorName, &p.AuthorEmail, &p.Status, &p.ReviewToken,
		&p.CharacterSendCount, &p.IllustrationSendCount, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	return &p, nil
}

func (d *DatabaseClient) CreateProjectTx(tx *sql.Tx, userID uuid.UUID, title, authorName, authorEmail, status string) (*models.Project, error) {
	row := tx.QueryRow(`
		INSERT INTO projects (id, user_id, title, author_name, author_email, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+projectColumns+`
	`, uuid.New(), userID, title, authorName, authorEmail, status)

	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

func (d *DatabaseClient) GetProject(projectID, userID uuid.UUID) (*models.Project, error) {
	return scanProject(d.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID))
}

func (d *DatabaseClient) GetProjectByID(projectID uuid.UUID) (*models.Project, error) {
	return scanProject(d.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
	`, projectID))
}

// GetProjectForUpdateTx locks the project row for the duration of a
// transition transaction.
func (d *DatabaseClient) GetProjectForUpdateTx(tx *sql.Tx, projectID uuid.UUID) (*models.Project, error) {
	return scanProject(tx.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
		FOR UPDATE
	`, projectID))
}

func (d *DatabaseClient) GetProjectByReviewToken(token string) (*models.Project, error) {
	return scanProject(d.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE review_token = $1
	`, token))
}

func (d *DatabaseClient) ListProjects(userID uuid.UUID) ([]models.Project, error) {
	rows, err := d.db.Query(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Title, &p.AuthorName, &p.AuthorEmail, &p.Status, &p.ReviewToken,
			&p.CharacterSendCount, &p.IllustrationSendCount, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, nil
}

func (d *DatabaseClient) updateProjectStatus(q execer, projectID uuid.UUID, status string) error {
	res, err := q.Exec(`
		UPDATE projects
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, projectID)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) UpdateProjectStatus(projectID uuid.UUID, status string) error {
	return d.updateProjectStatus(d.db, projectID, status)
}

func (d *DatabaseClient) UpdateProjectStatusTx(tx *sql.Tx, projectID uuid.UUID, status string) error {
	return d.updateProjectStatus(tx, projectID, status)
}

func (d *DatabaseClient) UpdateProjectError(projectID uuid.UUID, errorMsg string) error {
	_, err := d.db.Exec(`
		UPDATE projects
		SET error_message = $1, updated_at = NOW()
		WHERE id = $2
	`, errorMsg, projectID)
	return err
}

func (d *DatabaseClient) SetReviewTokenTx(tx *sql.Tx, projectID uuid.UUID, token string) error {
	_, err := tx.Exec(`
		UPDATE projects
		SET review_token = $1, updated_at = NOW()
		WHERE id = $2
	`, token, projectID)
	if err != nil {
		return fmt.Errorf("failed to set review token: %w", err)
	}
	return nil
}

// SetReviewToken rotates the token outside a transition, invalidating every
// previously issued customer URL.
func (d *DatabaseClient) SetReviewToken(projectID uuid.UUID, token string) error {
	res, err := d.db.Exec(`
		UPDATE projects
		SET review_token = $1, updated_at = NOW()
		WHERE id = $2
	`, token, projectID)
	if err != nil {
		return fmt.Errorf("failed to rotate review token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSendCountTx bumps the per-mode send counter inside the send
// transaction.
func (d *DatabaseClient) UpdateSendCountTx(tx *sql.Tx, projectID uuid.UUID, mode string, count int) error {
	column := "character_send_count"
	if mode == "illustration" {
		column = "illustration_send_count"
	}
	_, err := tx.Exec(`
		UPDATE projects
		SET `+column+` = $1, updated_at = NOW()
		WHERE id = $2
	`, count, projectID)
	if err != nil {
		return fmt.Errorf("failed to update send count: %w", err)
	}
	return nil
}

func (d *DatabaseClient) DeleteProject(projectID, userID uuid.UUID) error {
	res, err := d.db.Exec(`
		DELETE FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
