package supabase

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storybook-backend/internal/models"
)

const characterColumns = `id, project_id, name, description, is_main, reference_photo_url,
	colored_url, colored_state, colored_error,
	sketch_url, sketch_state, sketch_error,
	customer_colored_url, customer_sketch_url,
	feedback_notes, is_resolved, admin_reply, admin_reply_type,
	feedback_history, feedback_version,
	created_at, updated_at`

func scanCharacter(row pageScanner) (*models.Character, error) {
	var c models.Character
	err := row.Scan(
		&c.ID, &c.ProjectID, &c.Name, &c.Description, &c.IsMain, &c.ReferencePhotoURL,
		&c.Colored.URL, &c.Colored.State, &c.Colored.Error,
		&c.Sketch.URL, &c.Sketch.State, &c.Sketch.Error,
		&c.CustomerColoredURL, &c.CustomerSketchURL,
		&c.FeedbackNotes, &c.IsResolved, &c.AdminReply, &c.AdminReplyType,
		&c.FeedbackHistory, &c.FeedbackVersion,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan character: %w", err)
	}
	return &c, nil
}

func (d *DatabaseClient) CreateCharacterTx(tx *sql.Tx, projectID uuid.UUID, name, description string, isMain bool) (*models.Character, error) {
	row := tx.QueryRow(`
		INSERT INTO characters (id, project_id, name, description, is_main)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+characterColumns+`
	`, uuid.New(), projectID, name, description, isMain)

	c, err := scanCharacter(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}
	return c, nil
}

func (d *DatabaseClient) GetCharacter(characterID uuid.UUID) (*models.Character, error) {
	return scanCharacter(d.db.QueryRow(`
		SELECT `+characterColumns+`
		FROM characters
		WHERE id = $1
	`, characterID))
}

func (d *DatabaseClient) GetCharacterForUpdateTx(tx *sql.Tx, characterID uuid.UUID) (*models.Character, error) {
	return scanCharacter(tx.QueryRow(`
		SELECT `+characterColumns+`
		FROM characters
		WHERE id = $1
		FOR UPDATE
	`, characterID))
}

func (d *DatabaseClient) GetMainCharacter(projectID uuid.UUID) (*models.Character, error) {
	return scanCharacter(d.db.QueryRow(`
		SELECT `+characterColumns+`
		FROM characters
		WHERE project_id = $1 AND is_main = TRUE
	`, projectID))
}

func (d *DatabaseClient) listCharacters(q execer, query string, args ...interface{}) ([]models.Character, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var characters []models.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, *c)
	}
	return characters, nil
}

// ListCharacters returns the project's characters, main character first.
func (d *DatabaseClient) ListCharacters(projectID uuid.UUID) ([]models.Character, error) {
	return d.listCharacters(d.db, `
		SELECT `+characterColumns+`
		FROM characters
		WHERE project_id = $1
		ORDER BY is_main DESC, created_at ASC
	`, projectID)
}

func (d *DatabaseClient) ListCharactersForUpdateTx(tx *sql.Tx, projectID uuid.UUID) ([]models.Character, error) {
	return d.listCharacters(tx, `
		SELECT `+characterColumns+`
		FROM characters
		WHERE project_id = $1
		ORDER BY is_main DESC, created_at ASC
		FOR UPDATE
	`, projectID)
}

// ListPageCharacters returns the characters linked to a page, main first.
func (d *DatabaseClient) ListPageCharacters(pageID uuid.UUID) ([]models.Character, error) {
	return d.listCharacters(d.db, `
		SELECT `+qualifiedCharacterColumns+`
		FROM characters c
		JOIN page_characters pc ON pc.character_id = c.id
		WHERE pc.page_id = $1
		ORDER BY c.is_main DESC, c.created_at ASC
	`, pageID)
}

const qualifiedCharacterColumns = `c.id, c.project_id, c.name, c.description, c.is_main, c.reference_photo_url,
	c.colored_url, c.colored_state, c.colored_error,
	c.sketch_url, c.sketch_state, c.sketch_error,
	c.customer_colored_url, c.customer_sketch_url,
	c.feedback_notes, c.is_resolved, c.admin_reply, c.admin_reply_type,
	c.feedback_history, c.feedback_version,
	c.created_at, c.updated_at`

func (d *DatabaseClient) LinkCharacterPageTx(tx *sql.Tx, characterID, pageID uuid.UUID) error {
	_, err := tx.Exec(`
		INSERT INTO page_characters (page_id, character_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, pageID, characterID)
	if err != nil {
		return fmt.Errorf("failed to link character to page: %w", err)
	}
	return nil
}

func (d *DatabaseClient) SetCharacterReferencePhoto(characterID uuid.UUID, url string) error {
	res, err := d.db.Exec(`
		UPDATE characters
		SET reference_photo_url = $1, updated_at = NOW()
		WHERE id = $2
	`, url, characterID)
	if err != nil {
		return fmt.Errorf("failed to set reference photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) SetCharacterColored(characterID uuid.UUID, a models.Artifact) error {
	return d.setArtifact("characters", "colored", characterID, a)
}

func (d *DatabaseClient) SetCharacterSketch(characterID uuid.UUID, a models.Artifact) error {
	return d.setArtifact("characters", "sketch", characterID, a)
}

func (d *DatabaseClient) UpdateCharacterFeedback(characterID uuid.UUID, fb FeedbackUpdate, expectedVersion int) error {
	return d.updateCharacterFeedback(d.db, characterID, fb, expectedVersion)
}

func (d *DatabaseClient) UpdateCharacterFeedbackTx(tx *sql.Tx, characterID uuid.UUID, fb FeedbackUpdate, expectedVersion int) error {
	return d.updateCharacterFeedback(tx, characterID, fb, expectedVersion)
}

func (d *DatabaseClient) updateCharacterFeedback(q execer, characterID uuid.UUID, fb FeedbackUpdate, expectedVersion int) error {
	res, err := q.Exec(`
		UPDATE characters
		SET feedback_notes = $1, is_resolved = $2, admin_reply = $3, admin_reply_type = $4,
			feedback_history = $5,
			feedback_version = feedback_version + 1, updated_at = NOW()
		WHERE id = $6 AND feedback_version = $7
	`, fb.Notes, fb.IsResolved, fb.AdminReply, fb.AdminReplyType,
		fb.History, characterID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update character feedback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleVersion
	}
	return nil
}

func (d *DatabaseClient) RefreshCharacterCustomerCopiesTx(tx *sql.Tx, projectID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE characters
		SET customer_colored_url = colored_url,
			customer_sketch_url = CASE WHEN sketch_state = 'ready' THEN sketch_url ELSE customer_sketch_url END,
			updated_at = NOW()
		WHERE project_id = $1 AND colored_state = 'ready'
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to refresh character customer copies: %w", err)
	}
	return nil
}

// DeleteCharacter removes the character and its page links (the join table
// cascades), leaving the pages themselves intact.
func (d *DatabaseClient) DeleteCharacter(characterID uuid.UUID) error {
	res, err := d.db.Exec(`
		DELETE FROM characters
		WHERE id = $1
	`, characterID)
	if err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
