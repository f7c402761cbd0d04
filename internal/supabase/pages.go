package supabase

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storybook-backend/internal/models"
)

const pageColumns = `id, project_id, page_number, story_text, scene_description,
	original_story_text, original_scene_description,
	colored_url, colored_state, colored_error,
	sketch_url, sketch_state, sketch_error,
	customer_colored_url, customer_sketch_url,
	feedback_notes, is_resolved, admin_reply, admin_reply_type,
	feedback_history, conversation_thread, feedback_version,
	created_at, updated_at`

// FeedbackUpdate carries the serialized ledger state written back after a
// revision operation. Thread is nil for characters.
type FeedbackUpdate struct {
	Notes          sql.NullString
	IsResolved     bool
	AdminReply     sql.NullString
	AdminReplyType sql.NullString
	History        []byte
	Thread         []byte
}

type pageScanner interface {
	Scan(dest ...interface{}) error
}

func scanPage(row pageScanner) (*models.Page, error) {
	var p models.Page
	err := row.Scan(
		&p.ID, &p.ProjectID, &p.PageNumber, &p.StoryText, &p.SceneDescription,
		&p.OriginalStoryText, &p.OriginalSceneDescription,
		&p.Colored.URL, &p.Colored.State, &p.Colored.Error,
		&p.Sketch.URL, &p.Sketch.State, &p.Sketch.Error,
		&p.CustomerColoredURL, &p.CustomerSketchURL,
		&p.FeedbackNotes, &p.IsResolved, &p.AdminReply, &p.AdminReplyType,
		&p.FeedbackHistory, &p.Thread, &p.FeedbackVersion,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan page: %w", err)
	}
	return &p, nil
}

func (d *DatabaseClient) CreatePageTx(tx *sql.Tx, projectID uuid.UUID, pageNumber int, storyText, sceneDescription string) (*models.Page, error) {
	row := tx.QueryRow(`
		INSERT INTO pages (id, project_id, page_number, story_text, scene_description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+pageColumns+`
	`, uuid.New(), projectID, pageNumber, storyText, sceneDescription)

	p, err := scanPage(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return p, nil
}

func (d *DatabaseClient) GetPage(pageID uuid.UUID) (*models.Page, error) {
	return scanPage(d.db.QueryRow(`
		SELECT `+pageColumns+`
		FROM pages
		WHERE id = $1
	`, pageID))
}

func (d *DatabaseClient) GetPageForUpdateTx(tx *sql.Tx, pageID uuid.UUID) (*models.Page, error) {
	return scanPage(tx.QueryRow(`
		SELECT `+pageColumns+`
		FROM pages
		WHERE id = $1
		FOR UPDATE
	`, pageID))
}

func (d *DatabaseClient) GetPageByNumber(projectID uuid.UUID, pageNumber int) (*models.Page, error) {
	return scanPage(d.db.QueryRow(`
		SELECT `+pageColumns+`
		FROM pages
		WHERE project_id = $1 AND page_number = $2
	`, projectID, pageNumber))
}

func (d *DatabaseClient) listPages(q execer, query string, args ...interface{}) ([]models.Page, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, nil
}

func (d *DatabaseClient) ListPages(projectID uuid.UUID) ([]models.Page, error) {
	return d.listPages(d.db, `
		SELECT `+pageColumns+`
		FROM pages
		WHERE project_id = $1
		ORDER BY page_number ASC
	`, projectID)
}

func (d *DatabaseClient) ListPagesForUpdateTx(tx *sql.Tx, projectID uuid.UUID) ([]models.Page, error) {
	return d.listPages(tx, `
		SELECT `+pageColumns+`
		FROM pages
		WHERE project_id = $1
		ORDER BY page_number ASC
		FOR UPDATE
	`, projectID)
}

func (d *DatabaseClient) SetPageColored(pageID uuid.UUID, a models.Artifact) error {
	return d.setArtifact("pages", "colored", pageID, a)
}

func (d *DatabaseClient) SetPageSketch(pageID uuid.UUID, a models.Artifact) error {
	return d.setArtifact("pages", "sketch", pageID, a)
}

func (d *DatabaseClient) setArtifact(table, kind string, id uuid.UUID, a models.Artifact) error {
	res, err := d.db.Exec(`
		UPDATE `+table+`
		SET `+kind+`_url = $1, `+kind+`_state = $2, `+kind+`_error = $3, updated_at = NOW()
		WHERE id = $4
	`, a.URL, string(a.State), a.Error, id)
	if err != nil {
		return fmt.Errorf("failed to update %s artifact: %w", kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePageFeedback persists the ledger state with an optimistic version
// check: a concurrent mutation since the caller read the row surfaces as
// ErrStaleVersion instead of a silent overwrite.
func (d *DatabaseClient) UpdatePageFeedback(pageID uuid.UUID, fb FeedbackUpdate, expectedVersion int) error {
	return d.updatePageFeedback(d.db, pageID, fb, expectedVersion)
}

func (d *DatabaseClient) UpdatePageFeedbackTx(tx *sql.Tx, pageID uuid.UUID, fb FeedbackUpdate, expectedVersion int) error {
	return d.updatePageFeedback(tx, pageID, fb, expectedVersion)
}

func (d *DatabaseClient) updatePageFeedback(q execer, pageID uuid.UUID, fb FeedbackUpdate, expectedVersion int) error {
	res, err := q.Exec(`
		UPDATE pages
		SET feedback_notes = $1, is_resolved = $2, admin_reply = $3, admin_reply_type = $4,
			feedback_history = $5, conversation_thread = $6,
			feedback_version = feedback_version + 1, updated_at = NOW()
		WHERE id = $7 AND feedback_version = $8
	`, fb.Notes, fb.IsResolved, fb.AdminReply, fb.AdminReplyType,
		fb.History, fb.Thread, pageID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update page feedback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleVersion
	}
	return nil
}

// SnapshotPageOriginalsTx captures original_* once, the first time the page
// goes out for review. Already-set snapshots are never overwritten.
func (d *DatabaseClient) SnapshotPageOriginalsTx(tx *sql.Tx, projectID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE pages
		SET original_story_text = story_text,
			original_scene_description = scene_description,
			updated_at = NOW()
		WHERE project_id = $1 AND original_story_text IS NULL
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to snapshot page originals: %w", err)
	}
	return nil
}

// RefreshPageCustomerCopiesTx points the customer-facing URLs at the current
// internal artifacts for every page with a committed image.
func (d *DatabaseClient) RefreshPageCustomerCopiesTx(tx *sql.Tx, projectID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE pages
		SET customer_colored_url = colored_url,
			customer_sketch_url = CASE WHEN sketch_state = 'ready' THEN sketch_url ELSE customer_sketch_url END,
			updated_at = NOW()
		WHERE project_id = $1 AND colored_state = 'ready'
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to refresh page customer copies: %w", err)
	}
	return nil
}
