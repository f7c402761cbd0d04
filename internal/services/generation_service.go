package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"storybook-backend/internal/compare"
	"storybook-backend/internal/genai"
	"storybook-backend/internal/models"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
)

const defaultAspectRatio = "3:4"

// GenerationService drives every image-producing operation: the character
// batch, single regenerations, page illustrations, sketch derivation and
// the comparison decision that commits or discards a regeneration.
type GenerationService struct {
	dbClient       *supabase.DatabaseClient
	storageClient  *supabase.StorageClient
	genClient      *genai.Client
	realtimeClient *supabase.RealtimeClient
	compositor     *genai.Compositor
}

func NewGenerationService(
	dbClient *supabase.DatabaseClient,
	storageClient *supabase.StorageClient,
	genClient *genai.Client,
	realtimeClient *supabase.RealtimeClient,
) *GenerationService {
	return &GenerationService{
		dbClient:       dbClient,
		storageClient:  storageClient,
		genClient:      genClient,
		realtimeClient: realtimeClient,
		compositor:     genai.NewCompositor(),
	}
}

// GenerateCharacters runs the full character batch for a project. The batch
// only starts once the main character has a committed image, because every
// secondary character is anchored on it. Item failures are isolated; the
// project status advances to character_generation_complete only when every
// item succeeded, otherwise it is restored to what it was before the batch.
func (s *GenerationService) GenerateCharacters(ctx context.Context, projectID uuid.UUID) (*models.BatchResult, error) {
	project, err := s.dbClient.GetProjectByID(projectID)
	if err != nil {
		return nil, err
	}

	prior := status.Status(project.Status)
	if prior == status.CharacterGeneration {
		return nil, status.ErrGenerationInProgress
	}
	if _, err := status.Transition(prior, status.CharacterGeneration); err != nil {
		return nil, err
	}

	characters, err := s.dbClient.ListCharacters(projectID)
	if err != nil {
		return nil, err
	}
	if len(characters) == 0 {
		return nil, fmt.Errorf("project has no characters")
	}

	// Every secondary is anchored on the main character's committed image,
	// so the batch refuses to start without one. The main is bootstrapped
	// through the single-regeneration endpoint.
	anchorURL, err := batchAnchor(characters)
	if err != nil {
		return nil, err
	}

	// Main first. ListCharacters orders is_main DESC, but don't rely on it.
	ordered := make([]models.Character, 0, len(characters))
	for _, c := range characters {
		if c.IsMain {
			ordered = append(ordered, c)
		}
	}
	for _, c := range characters {
		if !c.IsMain {
			ordered = append(ordered, c)
		}
	}

	if err := s.dbClient.UpdateProjectStatus(projectID, string(status.CharacterGeneration)); err != nil {
		return nil, err
	}
	_ = s.realtimeClient.PublishProjectEvent(projectID, "generation_started",
		supabase.GenerationStartedPayload(projectID, len(ordered)))

	result := &models.BatchResult{Items: make([]models.BatchItemResult, 0, len(ordered))}

	for _, character := range ordered {
		// Cooperative cancellation between items. An in-flight call always
		// runs to completion.
		if err := ctx.Err(); err != nil {
			result.Items = append(result.Items, models.BatchItemResult{
				CharacterID: character.ID.String(),
				Name:        character.Name,
				Error:       "cancelled before start",
			})
			result.Failed++
			continue
		}

		var err error
		if character.Colored.IsReady() {
			// A committed image is never overwritten in place: the batch
			// parks the regeneration in a pending comparison.
			var newURL string
			newURL, err = s.generateUncommitted(ctx, project.ID, character, anchorURL)
			if err == nil {
				_, err = s.dbClient.CreateComparison(project.ID, "character", character.ID, character.Colored.URL, newURL)
			}
		} else {
			_, err = s.generateCharacterImage(ctx, project.ID, character, anchorURL)
		}
		if err != nil {
			s.recordCharacterFailure(&character, err)
			result.Items = append(result.Items, models.BatchItemResult{
				CharacterID: character.ID.String(),
				Name:        character.Name,
				Error:       err.Error(),
			})
			result.Failed++
			continue
		}

		result.Items = append(result.Items, models.BatchItemResult{
			CharacterID: character.ID.String(),
			Name:        character.Name,
			Success:     true,
		})
		result.Succeeded++
		_ = s.realtimeClient.PublishProjectEvent(projectID, "item_generated",
			supabase.ItemGeneratedPayload(projectID, character.ID, "character", true))
	}

	final := batchFinalStatus(prior, result.Failed)
	errorMsg := ""
	if result.Failed > 0 {
		errorMsg = fmt.Sprintf("%d of %d character generations failed", result.Failed, len(ordered))
	}
	if err := s.dbClient.UpdateProjectError(projectID, errorMsg); err != nil {
		log.Printf("Failed to record batch error for project %s: %v", projectID, err)
	}
	if err := s.dbClient.UpdateProjectStatus(projectID, string(final)); err != nil {
		return nil, err
	}
	result.Status = string(final)
	_ = s.realtimeClient.PublishProjectEvent(projectID, "batch_completed",
		supabase.BatchCompletedPayload(projectID, result.Succeeded, result.Failed))

	return result, nil
}

// batchAnchor returns the main character's committed image URL, or
// status.ErrMainCharacterNotReady when no main character has one yet.
func batchAnchor(characters []models.Character) (string, error) {
	for _, c := range characters {
		if c.IsMain && c.Colored.IsReady() {
			return c.Colored.URL, nil
		}
	}
	return "", status.ErrMainCharacterNotReady
}

// batchFinalStatus decides where a finished batch leaves the project: it
// advances only when every item succeeded, otherwise the status the project
// held before the batch is restored.
func batchFinalStatus(prior status.Status, failed int) status.Status {
	if failed == 0 {
		return status.CharacterGenerationComplete
	}
	return prior
}

// characterRequest assembles the compositor input for one character. The
// main character's committed image anchors every secondary's style.
func characterRequest(character models.Character, mainAnchorURL string) genai.Request {
	req := genai.Request{
		Instruction: characterInstruction(character),
		AspectRatio: defaultAspectRatio,
	}
	if !character.IsMain {
		req.Characters = append(req.Characters, genai.CharacterRef{
			Name:     "main character",
			ImageURL: mainAnchorURL,
			IsMain:   true,
		})
	}
	if character.ReferencePhotoURL.Valid && character.ReferencePhotoURL.String != "" {
		req.Characters = append(req.Characters, genai.CharacterRef{
			Name:     character.Name,
			ImageURL: character.ReferencePhotoURL.String,
			Role:     "reference photo of this character",
		})
	}
	return req
}

// generateCharacterImage produces, uploads and persists a colored portrait
// plus its derived sketch. Returns the committed colored URL.
func (s *GenerationService) generateCharacterImage(ctx context.Context, projectID uuid.UUID, character models.Character, mainAnchorURL string) (string, error) {
	req := characterRequest(character, mainAnchorURL)
	parts, err := s.compositor.Build(ctx, req)
	if err != nil {
		return "", err
	}

	img, err := s.genClient.Generate(ctx, parts, req.AspectRatio)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("characters/%s_colored_%d%s", character.ID, time.Now().Unix(), extForMIME(img.MIME))
	_, url, err := s.storageClient.UploadArtwork(projectID, filename, img.Data, img.MIME)
	if err != nil {
		return "", err
	}
	if err := s.dbClient.SetCharacterColored(character.ID, models.ReadyArtifact(url)); err != nil {
		return "", err
	}

	s.deriveCharacterSketch(ctx, projectID, character.ID, img)
	return url, nil
}

func (s *GenerationService) recordCharacterFailure(character *models.Character, cause error) {
	// A committed image survives a failed regeneration attempt.
	if character.Colored.IsReady() {
		return
	}
	if err := s.dbClient.SetCharacterColored(character.ID, models.FailedArtifact(cause.Error())); err != nil {
		log.Printf("Failed to record generation failure for character %s: %v", character.ID, err)
	}
}

// RegenerateCharacter re-runs a single character. When a committed image
// already exists the new one is parked in a pending comparison instead of
// overwriting it.
func (s *GenerationService) RegenerateCharacter(ctx context.Context, characterID uuid.UUID) (*models.GenerateResponse, error) {
	character, err := s.dbClient.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}

	var anchorURL string
	if !character.IsMain {
		main, err := s.dbClient.GetMainCharacter(character.ProjectID)
		if err != nil {
			return nil, err
		}
		if !main.Colored.IsReady() {
			return nil, status.ErrMainCharacterNotReady
		}
		anchorURL = main.Colored.URL
	}

	if character.Colored.IsReady() {
		newURL, err := s.generateUncommitted(ctx, character.ProjectID, *character, anchorURL)
		if err != nil {
			return nil, err
		}
		comparison, err := s.dbClient.CreateComparison(character.ProjectID, "character", character.ID, character.Colored.URL, newURL)
		if err != nil {
			return nil, err
		}
		return &models.GenerateResponse{
			TargetID:     character.ID.String(),
			Colored:      character.Colored,
			Sketch:       character.Sketch,
			ComparisonID: comparison.ID.String(),
			Comparison:   comparisonResponse(comparison),
		}, nil
	}

	if _, err := s.generateCharacterImage(ctx, character.ProjectID, *character, anchorURL); err != nil {
		s.recordCharacterFailure(character, err)
		return nil, err
	}

	updated, err := s.dbClient.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}
	return &models.GenerateResponse{
		TargetID: updated.ID.String(),
		Colored:  updated.Colored,
		Sketch:   updated.Sketch,
	}, nil
}

// generateUncommitted produces and uploads a character image without
// touching the committed artifact row.
func (s *GenerationService) generateUncommitted(ctx context.Context, projectID uuid.UUID, character models.Character, anchorURL string) (string, error) {
	req := characterRequest(character, anchorURL)
	parts, err := s.compositor.Build(ctx, req)
	if err != nil {
		return "", err
	}
	img, err := s.genClient.Generate(ctx, parts, req.AspectRatio)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("characters/%s_candidate_%d%s", character.ID, time.Now().Unix(), extForMIME(img.MIME))
	_, url, err := s.storageClient.UploadArtwork(projectID, filename, img.Data, img.MIME)
	if err != nil {
		return "", err
	}
	return url, nil
}

// GeneratePage produces one page illustration. The previous page's committed
// colored image is reused as a continuity anchor when present; with
// SceneRecreation set the anchor becomes a scene base edited in place. When
// the page already has a committed image the result goes into a pending
// comparison.
func (s *GenerationService) GeneratePage(ctx context.Context, pageID uuid.UUID, opts models.GeneratePageRequest) (*models.GenerateResponse, error) {
	page, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}

	pageCharacters, err := s.dbClient.ListPageCharacters(pageID)
	if err != nil {
		return nil, err
	}

	req := genai.Request{
		Instruction:       pageInstruction(page),
		AnchorAsSceneBase: opts.SceneRecreation,
		StyleRefs:         opts.StyleRefs,
		AspectRatio:       opts.AspectRatio,
	}
	if req.AspectRatio == "" {
		req.AspectRatio = defaultAspectRatio
	}
	for _, c := range pageCharacters {
		if !c.Colored.IsReady() {
			continue
		}
		req.Characters = append(req.Characters, genai.CharacterRef{
			Name:     c.Name,
			ImageURL: c.Colored.URL,
			Role:     c.Description,
			IsMain:   c.IsMain,
		})
	}

	if page.PageNumber > 1 {
		previous, err := s.dbClient.GetPageByNumber(page.ProjectID, page.PageNumber-1)
		if err == nil && previous.Colored.IsReady() {
			req.AnchorURL = previous.Colored.URL
		} else if err != nil && !errors.Is(err, supabase.ErrNotFound) {
			return nil, err
		}
	}

	parts, err := s.compositor.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	img, err := s.genClient.Generate(ctx, parts, req.AspectRatio)
	if err != nil {
		if !page.Colored.IsReady() {
			if setErr := s.dbClient.SetPageColored(pageID, models.FailedArtifact(err.Error())); setErr != nil {
				log.Printf("Failed to record generation failure for page %s: %v", pageID, setErr)
			}
		}
		return nil, err
	}

	if page.Colored.IsReady() {
		filename := fmt.Sprintf("pages/%s_candidate_%d%s", page.ID, time.Now().Unix(), extForMIME(img.MIME))
		_, newURL, err := s.storageClient.UploadArtwork(page.ProjectID, filename, img.Data, img.MIME)
		if err != nil {
			return nil, err
		}
		comparison, err := s.dbClient.CreateComparison(page.ProjectID, "page", page.ID, page.Colored.URL, newURL)
		if err != nil {
			return nil, err
		}
		return &models.GenerateResponse{
			TargetID:     page.ID.String(),
			Colored:      page.Colored,
			Sketch:       page.Sketch,
			ComparisonID: comparison.ID.String(),
			Comparison:   comparisonResponse(comparison),
		}, nil
	}

	filename := fmt.Sprintf("pages/%s_colored_%d%s", page.ID, time.Now().Unix(), extForMIME(img.MIME))
	_, url, err := s.storageClient.UploadArtwork(page.ProjectID, filename, img.Data, img.MIME)
	if err != nil {
		return nil, err
	}
	if err := s.dbClient.SetPageColored(pageID, models.ReadyArtifact(url)); err != nil {
		return nil, err
	}

	s.derivePageSketch(ctx, page.ProjectID, pageID, img)

	updated, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return &models.GenerateResponse{
		TargetID: updated.ID.String(),
		Colored:  updated.Colored,
		Sketch:   updated.Sketch,
	}, nil
}

// RetryPageSketch re-derives the sketch from the committed colored image.
func (s *GenerationService) RetryPageSketch(ctx context.Context, pageID uuid.UUID) (*models.GenerateResponse, error) {
	page, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	if !page.Colored.IsReady() {
		return nil, fmt.Errorf("page has no committed colored image")
	}

	img, err := s.fetchCommitted(ctx, page.Colored.URL)
	if err != nil {
		return nil, err
	}
	s.derivePageSketch(ctx, page.ProjectID, pageID, img)

	updated, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return &models.GenerateResponse{
		TargetID: updated.ID.String(),
		Colored:  updated.Colored,
		Sketch:   updated.Sketch,
	}, nil
}

// ResolveComparison applies the operator's keep_new/revert_old decision.
// keep_new commits the new image and re-derives the sketch; revert_old
// discards the candidate, removing its blob best-effort.
func (s *GenerationService) ResolveComparison(ctx context.Context, comparisonID uuid.UUID, decision compare.Decision) (*models.GenerateResponse, error) {
	comparison, err := s.dbClient.GetComparison(comparisonID)
	if err != nil {
		return nil, err
	}

	outcome, err := compare.Resolve(comparison.OldURL, comparison.NewURL, decision)
	if err != nil {
		return nil, err
	}

	if outcome.DiscardedURL != "" {
		if path, ok := s.storageClient.StoragePath(outcome.DiscardedURL); ok {
			if err := s.storageClient.DeleteFile(path); err != nil {
				log.Printf("Failed to delete discarded candidate %s: %v", path, err)
			}
		}
	}

	if outcome.CommittedURL != "" {
		switch comparison.TargetKind {
		case "page":
			if err := s.dbClient.SetPageColored(comparison.TargetID, models.ReadyArtifact(outcome.CommittedURL)); err != nil {
				return nil, err
			}
			if outcome.InvalidateSketch {
				if err := s.dbClient.SetPageSketch(comparison.TargetID, models.PendingArtifact()); err != nil {
					return nil, err
				}
			}
		case "character":
			if err := s.dbClient.SetCharacterColored(comparison.TargetID, models.ReadyArtifact(outcome.CommittedURL)); err != nil {
				return nil, err
			}
			if outcome.InvalidateSketch {
				if err := s.dbClient.SetCharacterSketch(comparison.TargetID, models.PendingArtifact()); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("unknown comparison target kind %q", comparison.TargetKind)
		}
	}

	if err := s.dbClient.DeleteComparison(comparisonID); err != nil {
		return nil, err
	}

	if outcome.CommittedURL != "" && outcome.InvalidateSketch {
		if img, err := s.fetchCommitted(ctx, outcome.CommittedURL); err == nil {
			if comparison.TargetKind == "page" {
				s.derivePageSketch(ctx, comparison.ProjectID, comparison.TargetID, img)
			} else {
				s.deriveCharacterSketch(ctx, comparison.ProjectID, comparison.TargetID, img)
			}
		} else {
			log.Printf("Failed to fetch committed image for sketch re-derivation: %v", err)
		}
	}

	resp := &models.GenerateResponse{TargetID: comparison.TargetID.String()}
	if comparison.TargetKind == "page" {
		page, err := s.dbClient.GetPage(comparison.TargetID)
		if err != nil {
			return nil, err
		}
		resp.Colored, resp.Sketch = page.Colored, page.Sketch
	} else {
		character, err := s.dbClient.GetCharacter(comparison.TargetID)
		if err != nil {
			return nil, err
		}
		resp.Colored, resp.Sketch = character.Colored, character.Sketch
	}
	return resp, nil
}

// fetchCommitted loads a committed image, straight from the bucket when the
// URL is ours, over HTTP otherwise.
func (s *GenerationService) fetchCommitted(ctx context.Context, url string) (*genai.Image, error) {
	if path, ok := s.storageClient.StoragePath(url); ok {
		data, err := s.storageClient.DownloadFile(path)
		if err == nil {
			return &genai.Image{Data: data, MIME: http.DetectContentType(data)}, nil
		}
		log.Printf("Bucket download for %s failed, falling back to HTTP fetch: %v", path, err)
	}
	data, mime, err := genai.FetchImage(ctx, url)
	if err != nil {
		return nil, err
	}
	return &genai.Image{Data: data, MIME: mime}, nil
}

// derivePageSketch runs the sketch call with its own retry budget. A sketch
// failure never rolls back the colored result.
func (s *GenerationService) derivePageSketch(ctx context.Context, projectID, pageID uuid.UUID, colored *genai.Image) {
	sketch, err := s.genClient.DeriveSketch(ctx, colored.Data, colored.MIME)
	if err != nil {
		if setErr := s.dbClient.SetPageSketch(pageID, models.FailedArtifact(err.Error())); setErr != nil {
			log.Printf("Failed to record sketch failure for page %s: %v", pageID, setErr)
		}
		return
	}

	filename := fmt.Sprintf("pages/%s_sketch_%d%s", pageID, time.Now().Unix(), extForMIME(sketch.MIME))
	_, url, err := s.storageClient.UploadArtwork(projectID, filename, sketch.Data, sketch.MIME)
	if err != nil {
		if setErr := s.dbClient.SetPageSketch(pageID, models.FailedArtifact(err.Error())); setErr != nil {
			log.Printf("Failed to record sketch failure for page %s: %v", pageID, setErr)
		}
		return
	}
	if err := s.dbClient.SetPageSketch(pageID, models.ReadyArtifact(url)); err != nil {
		log.Printf("Failed to persist sketch for page %s: %v", pageID, err)
	}
}

func (s *GenerationService) deriveCharacterSketch(ctx context.Context, projectID, characterID uuid.UUID, colored *genai.Image) {
	sketch, err := s.genClient.DeriveSketch(ctx, colored.Data, colored.MIME)
	if err != nil {
		if setErr := s.dbClient.SetCharacterSketch(characterID, models.FailedArtifact(err.Error())); setErr != nil {
			log.Printf("Failed to record sketch failure for character %s: %v", characterID, setErr)
		}
		return
	}

	filename := fmt.Sprintf("characters/%s_sketch_%d%s", characterID, time.Now().Unix(), extForMIME(sketch.MIME))
	_, url, err := s.storageClient.UploadArtwork(projectID, filename, sketch.Data, sketch.MIME)
	if err != nil {
		if setErr := s.dbClient.SetCharacterSketch(characterID, models.FailedArtifact(err.Error())); setErr != nil {
			log.Printf("Failed to record sketch failure for character %s: %v", characterID, setErr)
		}
		return
	}
	if err := s.dbClient.SetCharacterSketch(characterID, models.ReadyArtifact(url)); err != nil {
		log.Printf("Failed to persist sketch for character %s: %v", characterID, err)
	}
}

func characterInstruction(character models.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a full-body storybook illustration of the character %q.", character.Name)
	if character.Description != "" {
		fmt.Fprintf(&b, " %s.", strings.TrimRight(character.Description, "."))
	}
	if character.IsMain {
		b.WriteString(" This is the main character of the book; render it in a warm, consistent children's picture-book style suitable for reuse across every page.")
	} else {
		b.WriteString(" Match the art style of the main character exactly.")
	}
	b.WriteString(" Plain background, character centered.")
	return b.String()
}

func pageInstruction(page *models.Page) string {
	scene := strings.TrimSpace(page.SceneDescription)
	if scene == "" {
		scene = strings.TrimSpace(page.StoryText)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Illustrate page %d of the picture book. Scene: %s", page.PageNumber, scene)
	if text := strings.TrimSpace(page.StoryText); text != "" && text != scene {
		fmt.Fprintf(&b, "\nStory text for this page: %s", text)
	}
	b.WriteString("\nEvery listed character must appear exactly as shown in their reference image.")
	return b.String()
}

func extForMIME(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func comparisonResponse(c *models.PendingComparison) *models.ComparisonResponse {
	return &models.ComparisonResponse{
		ID:         c.ID.String(),
		TargetKind: c.TargetKind,
		TargetID:   c.TargetID.String(),
		OldURL:     c.OldURL,
		NewURL:     c.NewURL,
	}
}
