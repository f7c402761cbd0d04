package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"storybook-backend/internal/models"
	"storybook-backend/internal/notify"
	"storybook-backend/internal/revision"
	"storybook-backend/internal/staging"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
	"storybook-backend/internal/token"
)

// ReviewService owns the customer-facing review cycle: the send transaction
// that opens a round, the feedback protocol on pages and characters, and the
// review token lifecycle.
type ReviewService struct {
	dbClient       *supabase.DatabaseClient
	notifier       notify.Notifier
	realtimeClient *supabase.RealtimeClient
	reviewBaseURL  string
}

func NewReviewService(dbClient *supabase.DatabaseClient, notifier notify.Notifier, realtimeClient *supabase.RealtimeClient, reviewBaseURL string) *ReviewService {
	return &ReviewService{
		dbClient:       dbClient,
		notifier:       notifier,
		realtimeClient: realtimeClient,
		reviewBaseURL:  reviewBaseURL,
	}
}

func (s *ReviewService) reviewURL(reviewToken string) string {
	return fmt.Sprintf("%s/%s", s.reviewBaseURL, reviewToken)
}

// SendToCustomer stages the project for customer review in one transaction:
// status guard, token mint, round bookkeeping, resolution of open feedback
// on imagery-bearing targets, snapshot and refresh of the customer-facing
// copies, counter bump, status flip. The notification goes out only after
// commit and never blocks the caller.
func (s *ReviewService) SendToCustomer(ctx context.Context, projectID uuid.UUID, mode status.ReviewMode) (*models.SendResponse, error) {
	tx, err := s.dbClient.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	project, err := s.dbClient.GetProjectForUpdateTx(tx, projectID)
	if err != nil {
		return nil, err
	}

	current := status.Status(project.Status)
	if err := mode.CanSend(current); err != nil {
		return nil, err
	}
	if project.AuthorEmail == "" {
		return nil, status.ErrMissingAuthorContact
	}

	reviewToken := project.ReviewToken.String
	if reviewToken == "" {
		reviewToken, err = token.New()
		if err != nil {
			return nil, err
		}
		if err := s.dbClient.SetReviewTokenTx(tx, projectID, reviewToken); err != nil {
			return nil, err
		}
	}

	sendCount := project.CharacterSendCount
	if mode == status.ModeIllustration {
		sendCount = project.IllustrationSendCount
	}

	hasImagery := false
	if mode == status.ModeCharacter {
		characters, err := s.dbClient.ListCharactersForUpdateTx(tx, projectID)
		if err != nil {
			return nil, err
		}
		for _, c := range characters {
			if c.Colored.IsReady() {
				hasImagery = true
				break
			}
		}
		if hasImagery {
			if err := s.resolveOpenCharacterFeedbackTx(tx, characters, sendCount); err != nil {
				return nil, err
			}
		}
	} else {
		pages, err := s.dbClient.ListPagesForUpdateTx(tx, projectID)
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			if p.Colored.IsReady() {
				hasImagery = true
				break
			}
		}
		if hasImagery {
			if err := s.resolveOpenPageFeedbackTx(tx, pages, sendCount); err != nil {
				return nil, err
			}
		}
	}

	decision := staging.Decide(sendCount, hasImagery)

	if decision.NewCount != sendCount {
		if _, err := s.dbClient.InsertRevisionRoundTx(tx, projectID, string(mode), decision.NewCount); err != nil {
			return nil, err
		}
		if err := s.dbClient.UpdateSendCountTx(tx, projectID, string(mode), decision.NewCount); err != nil {
			return nil, err
		}
	}

	if mode == status.ModeIllustration {
		if err := s.dbClient.SnapshotPageOriginalsTx(tx, projectID); err != nil {
			return nil, err
		}
		if err := s.dbClient.RefreshPageCustomerCopiesTx(tx, projectID); err != nil {
			return nil, err
		}
	} else {
		if err := s.dbClient.RefreshCharacterCustomerCopiesTx(tx, projectID); err != nil {
			return nil, err
		}
	}

	next, err := status.Transition(current, mode.ReviewStatus())
	if err != nil {
		return nil, err
	}
	if err := s.dbClient.UpdateProjectStatusTx(tx, projectID, string(next)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit send transaction: %w", err)
	}

	s.dispatchSendNotification(project, reviewToken, decision)
	_ = s.realtimeClient.PublishProjectEvent(projectID, "sent_for_review",
		supabase.SentForReviewPayload(projectID, string(mode), decision.NewCount))

	return &models.SendResponse{
		ProjectID: projectID.String(),
		Status:    string(next),
		Variant:   string(decision.Variant),
		SendCount: decision.NewCount,
		Round:     decision.Round,
	}, nil
}

func (s *ReviewService) dispatchSendNotification(project *models.Project, reviewToken string, decision staging.Decision) {
	url := s.reviewURL(reviewToken)
	var n notify.Notification
	switch decision.Variant {
	case staging.VariantFirstReady:
		n = notify.FirstBatchReadyPayload(project.AuthorEmail, project.AuthorName, project.Title, url)
	case staging.VariantRevisionRound:
		n = notify.RevisionRoundPayload(project.AuthorEmail, project.AuthorName, project.Title, url, decision.Round)
	default:
		n = notify.InitialReviewPayload(project.AuthorEmail, project.AuthorName, project.Title, url)
	}
	go notify.Dispatch(context.Background(), s.notifier, n)
}

// resolveOpenPageFeedbackTx closes every open request on an imagery-bearing
// page, stamping the pre-increment counter: the round being closed, not the
// one being opened.
func (s *ReviewService) resolveOpenPageFeedbackTx(tx *sql.Tx, pages []models.Page, round int) error {
	now := time.Now().UTC()
	for i := range pages {
		p := &pages[i]
		if !p.Colored.IsReady() || !p.FeedbackNotes.Valid || p.FeedbackNotes.String == "" {
			continue
		}
		fb, err := pageLedger(p)
		if err != nil {
			return err
		}
		if err := fb.Resolve(round, now); err != nil {
			return err
		}
		update, err := feedbackUpdate(fb, true)
		if err != nil {
			return err
		}
		if err := s.dbClient.UpdatePageFeedbackTx(tx, p.ID, update, p.FeedbackVersion); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReviewService) resolveOpenCharacterFeedbackTx(tx *sql.Tx, characters []models.Character, round int) error {
	now := time.Now().UTC()
	for i := range characters {
		c := &characters[i]
		if !c.Colored.IsReady() || !c.FeedbackNotes.Valid || c.FeedbackNotes.String == "" {
			continue
		}
		fb, err := characterLedger(c)
		if err != nil {
			return err
		}
		if err := fb.Resolve(round, now); err != nil {
			return err
		}
		update, err := feedbackUpdate(fb, false)
		if err != nil {
			return err
		}
		if err := s.dbClient.UpdateCharacterFeedbackTx(tx, c.ID, update, c.FeedbackVersion); err != nil {
			return err
		}
	}
	return nil
}

// RotateToken mints a fresh review token, invalidating every previously
// issued customer URL.
func (s *ReviewService) RotateToken(projectID, userID uuid.UUID) (*models.TokenResponse, error) {
	if _, err := s.dbClient.GetProject(projectID, userID); err != nil {
		return nil, err
	}
	t, err := token.New()
	if err != nil {
		return nil, err
	}
	if err := s.dbClient.SetReviewToken(projectID, t); err != nil {
		return nil, err
	}
	return &models.TokenResponse{
		ProjectID:   projectID.String(),
		ReviewToken: t,
		ReviewURL:   s.reviewURL(t),
	}, nil
}

// ProjectByToken resolves the customer's review token.
func (s *ReviewService) ProjectByToken(reviewToken string) (*models.Project, error) {
	return s.dbClient.GetProjectByReviewToken(reviewToken)
}

// --- customer operations (authenticated by review token) ---

// SubmitPageFeedback records a new customer request on a page and moves the
// project into illustration revision. The feedback write and the status flip
// commit together: a submitted request is never left on a project still
// marked as in review.
func (s *ReviewService) SubmitPageFeedback(reviewToken string, pageID uuid.UUID, note string, expectedVersion int) (*models.Page, error) {
	project, err := s.dbClient.GetProjectByReviewToken(reviewToken)
	if err != nil {
		return nil, err
	}

	tx, err := s.dbClient.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := s.dbClient.GetProjectForUpdateTx(tx, project.ID)
	if err != nil {
		return nil, err
	}
	page, err := s.dbClient.GetPageForUpdateTx(tx, pageID)
	if err != nil {
		return nil, err
	}
	if page.ProjectID != project.ID {
		return nil, supabase.ErrNotFound
	}

	fb, err := pageLedger(page)
	if err != nil {
		return nil, err
	}
	if err := fb.Submit(note); err != nil {
		return nil, err
	}
	update, err := feedbackUpdate(fb, true)
	if err != nil {
		return nil, err
	}
	if err := s.dbClient.UpdatePageFeedbackTx(tx, pageID, update, expectedVersion); err != nil {
		return nil, err
	}

	if target, ok := revisionFlip(status.Status(locked.Status), status.ModeIllustration); ok {
		if err := s.dbClient.UpdateProjectStatusTx(tx, project.ID, string(target)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit feedback transaction: %w", err)
	}
	return s.dbClient.GetPage(pageID)
}

func (s *ReviewService) SubmitCharacterFeedback(reviewToken string, characterID uuid.UUID, note string, expectedVersion int) (*models.Character, error) {
	project, err := s.dbClient.GetProjectByReviewToken(reviewToken)
	if err != nil {
		return nil, err
	}

	tx, err := s.dbClient.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := s.dbClient.GetProjectForUpdateTx(tx, project.ID)
	if err != nil {
		return nil, err
	}
	character, err := s.dbClient.GetCharacterForUpdateTx(tx, characterID)
	if err != nil {
		return nil, err
	}
	if character.ProjectID != project.ID {
		return nil, supabase.ErrNotFound
	}

	fb, err := characterLedger(character)
	if err != nil {
		return nil, err
	}
	if err := fb.Submit(note); err != nil {
		return nil, err
	}
	update, err := feedbackUpdate(fb, false)
	if err != nil {
		return nil, err
	}
	if err := s.dbClient.UpdateCharacterFeedbackTx(tx, characterID, update, expectedVersion); err != nil {
		return nil, err
	}

	if target, ok := revisionFlip(status.Status(locked.Status), status.ModeCharacter); ok {
		if err := s.dbClient.UpdateProjectStatusTx(tx, project.ID, string(target)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit feedback transaction: %w", err)
	}
	return s.dbClient.GetCharacter(characterID)
}

// AcceptPageReply is the customer's terminal answer to an admin reply; it
// resolves the open request under the current illustration round.
func (s *ReviewService) AcceptPageReply(reviewToken string, pageID uuid.UUID, expectedVersion int) (*models.Page, error) {
	project, err := s.dbClient.GetProjectByReviewToken(reviewToken)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.mutatePageLedger(project.ID, pageID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.Accept(project.IllustrationSendCount, now)
	})
}

func (s *ReviewService) AcceptCharacterReply(reviewToken string, characterID uuid.UUID, expectedVersion int) (*models.Character, error) {
	project, err := s.dbClient.GetProjectByReviewToken(reviewToken)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.mutateCharacterLedger(project.ID, characterID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.Accept(project.CharacterSendCount, now)
	})
}

// FollowUpPage pushes back on a standing admin reply. The thread records the
// exchange; the admin must reply again before the customer can accept.
func (s *ReviewService) FollowUpPage(reviewToken string, pageID uuid.UUID, text string, expectedVersion int) (*models.Page, error) {
	project, err := s.dbClient.GetProjectByReviewToken(reviewToken)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.mutatePageLedger(project.ID, pageID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.FollowUp(text, now)
	})
}

// EditPageThreadEntry rewrites the customer's latest thread entry, allowed
// only while the admin has not replied on top of it.
func (s *ReviewService) EditPageThreadEntry(reviewToken string, pageID uuid.UUID, text string, expectedVersion int) (*models.Page, error) {
	project, err := s.dbClient.GetProjectByReviewToken(reviewToken)
	if err != nil {
		return nil, err
	}
	return s.mutatePageLedger(project.ID, pageID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.EditLastThreadEntry(revision.ActorCustomer, text)
	})
}

// revisionFlip reports the revision status a new feedback submission should
// move the project to. A project already in revision, or in a status with no
// edge into revision, stays where it is.
func revisionFlip(current status.Status, mode status.ReviewMode) (status.Status, bool) {
	target := mode.RevisionStatus()
	if current == target || !status.CanTransition(current, target) {
		return current, false
	}
	return target, true
}

// --- admin operations ---

// ResolvePageFeedback manually closes the open request, stamping the current
// illustration round.
func (s *ReviewService) ResolvePageFeedback(pageID uuid.UUID, expectedVersion int) (*models.Page, error) {
	page, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	project, err := s.dbClient.GetProjectByID(page.ProjectID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.mutatePageLedger(project.ID, pageID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.Resolve(project.IllustrationSendCount, now)
	})
}

func (s *ReviewService) ResolveCharacterFeedback(characterID uuid.UUID, expectedVersion int) (*models.Character, error) {
	character, err := s.dbClient.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}
	project, err := s.dbClient.GetProjectByID(character.ProjectID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.mutateCharacterLedger(project.ID, characterID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.Resolve(project.CharacterSendCount, now)
	})
}

func (s *ReviewService) ReplyToPage(pageID uuid.UUID, text string, expectedVersion int) (*models.Page, error) {
	page, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.mutatePageLedger(page.ProjectID, pageID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.Reply(text, now)
	})
}

func (s *ReviewService) ReplyToCharacter(characterID uuid.UUID, text string, expectedVersion int) (*models.Character, error) {
	character, err := s.dbClient.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.mutateCharacterLedger(character.ProjectID, characterID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.Reply(text, now)
	})
}

// EditAdminThreadEntry rewrites the admin's latest thread entry.
func (s *ReviewService) EditAdminThreadEntry(pageID uuid.UUID, text string, expectedVersion int) (*models.Page, error) {
	page, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return s.mutatePageLedger(page.ProjectID, pageID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.EditLastThreadEntry(revision.ActorAdmin, text)
	})
}

func (s *ReviewService) CommentOnPage(pageID uuid.UUID, text string, expectedVersion int) (*models.Page, error) {
	page, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return s.mutatePageLedger(page.ProjectID, pageID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.Comment(text)
	})
}

func (s *ReviewService) EditPageComment(pageID uuid.UUID, text string, expectedVersion int) (*models.Page, error) {
	page, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return s.mutatePageLedger(page.ProjectID, pageID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.EditComment(text)
	})
}

func (s *ReviewService) RemovePageComment(pageID uuid.UUID, expectedVersion int) (*models.Page, error) {
	page, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return s.mutatePageLedger(page.ProjectID, pageID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.RemoveComment()
	})
}

func (s *ReviewService) CommentOnCharacter(characterID uuid.UUID, text string, expectedVersion int) (*models.Character, error) {
	character, err := s.dbClient.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}
	return s.mutateCharacterLedger(character.ProjectID, characterID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.Comment(text)
	})
}

func (s *ReviewService) EditCharacterComment(characterID uuid.UUID, text string, expectedVersion int) (*models.Character, error) {
	character, err := s.dbClient.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}
	return s.mutateCharacterLedger(character.ProjectID, characterID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.EditComment(text)
	})
}

func (s *ReviewService) RemoveCharacterComment(characterID uuid.UUID, expectedVersion int) (*models.Character, error) {
	character, err := s.dbClient.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}
	return s.mutateCharacterLedger(character.ProjectID, characterID, expectedVersion, func(fb *revision.Feedback) error {
		return fb.RemoveComment()
	})
}

// --- ledger plumbing ---

// mutatePageLedger runs a pure ledger operation against the page's current
// state and persists it with the optimistic version check. projectID guards
// against a token or operator reaching across projects.
func (s *ReviewService) mutatePageLedger(projectID, pageID uuid.UUID, expectedVersion int, op func(*revision.Feedback) error) (*models.Page, error) {
	page, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	if page.ProjectID != projectID {
		return nil, supabase.ErrNotFound
	}

	fb, err := pageLedger(page)
	if err != nil {
		return nil, err
	}
	if err := op(&fb); err != nil {
		return nil, err
	}
	update, err := feedbackUpdate(fb, true)
	if err != nil {
		return nil, err
	}
	if err := s.dbClient.UpdatePageFeedback(pageID, update, expectedVersion); err != nil {
		return nil, err
	}
	return s.dbClient.GetPage(pageID)
}

func (s *ReviewService) mutateCharacterLedger(projectID, characterID uuid.UUID, expectedVersion int, op func(*revision.Feedback) error) (*models.Character, error) {
	character, err := s.dbClient.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}
	if character.ProjectID != projectID {
		return nil, supabase.ErrNotFound
	}

	fb, err := characterLedger(character)
	if err != nil {
		return nil, err
	}
	if err := op(&fb); err != nil {
		return nil, err
	}
	update, err := feedbackUpdate(fb, false)
	if err != nil {
		return nil, err
	}
	if err := s.dbClient.UpdateCharacterFeedback(characterID, update, expectedVersion); err != nil {
		return nil, err
	}
	return s.dbClient.GetCharacter(characterID)
}

func pageLedger(p *models.Page) (revision.Feedback, error) {
	fb := revision.Feedback{
		Notes:          p.FeedbackNotes.String,
		IsResolved:     p.IsResolved,
		AdminReply:     p.AdminReply.String,
		AdminReplyType: revision.ReplyType(p.AdminReplyType.String),
	}
	if len(p.FeedbackHistory) > 0 {
		if err := json.Unmarshal(p.FeedbackHistory, &fb.History); err != nil {
			return fb, fmt.Errorf("failed to decode feedback history: %w", err)
		}
	}
	if len(p.Thread) > 0 {
		if err := json.Unmarshal(p.Thread, &fb.Thread); err != nil {
			return fb, fmt.Errorf("failed to decode conversation thread: %w", err)
		}
	}
	return fb, nil
}

func characterLedger(c *models.Character) (revision.Feedback, error) {
	fb := revision.Feedback{
		Notes:          c.FeedbackNotes.String,
		IsResolved:     c.IsResolved,
		AdminReply:     c.AdminReply.String,
		AdminReplyType: revision.ReplyType(c.AdminReplyType.String),
	}
	if len(c.FeedbackHistory) > 0 {
		if err := json.Unmarshal(c.FeedbackHistory, &fb.History); err != nil {
			return fb, fmt.Errorf("failed to decode feedback history: %w", err)
		}
	}
	return fb, nil
}

// feedbackUpdate serializes the ledger back into row form. History and
// thread marshal to "[]" rather than null so the jsonb columns stay arrays.
func feedbackUpdate(fb revision.Feedback, withThread bool) (supabase.FeedbackUpdate, error) {
	history := fb.History
	if history == nil {
		history = []revision.Entry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return supabase.FeedbackUpdate{}, fmt.Errorf("failed to encode feedback history: %w", err)
	}

	update := supabase.FeedbackUpdate{
		Notes:          nullString(fb.Notes),
		IsResolved:     fb.IsResolved,
		AdminReply:     nullString(fb.AdminReply),
		AdminReplyType: nullString(string(fb.AdminReplyType)),
		History:        historyJSON,
	}

	if withThread {
		thread := fb.Thread
		if thread == nil {
			thread = []revision.ThreadEntry{}
		}
		threadJSON, err := json.Marshal(thread)
		if err != nil {
			return supabase.FeedbackUpdate{}, fmt.Errorf("failed to encode conversation thread: %w", err)
		}
		update.Thread = threadJSON
	}

	return update, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
