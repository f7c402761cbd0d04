package services

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"storybook-backend/internal/models"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
)

// ProjectService covers intake and project-level CRUD.
type ProjectService struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
}

func NewProjectService(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient) *ProjectService {
	return &ProjectService{
		dbClient:      dbClient,
		storageClient: storageClient,
	}
}

// CreateProject runs the full intake in one transaction: the project, its
// pages, its characters and the character-page appearance links.
func (s *ProjectService) CreateProject(userID uuid.UUID, req models.CreateProjectRequest) (*models.ProjectResponse, error) {
	mainCount := 0
	for _, c := range req.Characters {
		if c.IsMain {
			mainCount++
		}
	}
	if mainCount > 1 {
		return nil, fmt.Errorf("at most one character may be marked main")
	}

	tx, err := s.dbClient.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	project, err := s.dbClient.CreateProjectTx(tx, userID, req.Title, req.AuthorName, req.AuthorEmail, string(status.Draft))
	if err != nil {
		return nil, err
	}

	pagesByNumber := make(map[int]uuid.UUID, len(req.Pages))
	for _, p := range req.Pages {
		page, err := s.dbClient.CreatePageTx(tx, project.ID, p.PageNumber, p.StoryText, p.SceneDescription)
		if err != nil {
			return nil, err
		}
		pagesByNumber[p.PageNumber] = page.ID
	}

	for _, c := range req.Characters {
		character, err := s.dbClient.CreateCharacterTx(tx, project.ID, c.Name, c.Description, c.IsMain)
		if err != nil {
			return nil, err
		}
		for _, pageNumber := range c.PageNumbers {
			pageID, ok := pagesByNumber[pageNumber]
			if !ok {
				return nil, fmt.Errorf("character %q references unknown page %d", c.Name, pageNumber)
			}
			if err := s.dbClient.LinkCharacterPageTx(tx, character.ID, pageID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit project intake: %w", err)
	}

	return s.GetProject(project.ID, userID)
}

// GetProject assembles the full admin view: project, characters and pages
// with round-grouped feedback history.
func (s *ProjectService) GetProject(projectID, userID uuid.UUID) (*models.ProjectResponse, error) {
	project, err := s.dbClient.GetProject(projectID, userID)
	if err != nil {
		return nil, err
	}
	return s.assembleProject(project)
}

func (s *ProjectService) assembleProject(project *models.Project) (*models.ProjectResponse, error) {
	characters, err := s.dbClient.ListCharacters(project.ID)
	if err != nil {
		return nil, err
	}
	pages, err := s.dbClient.ListPages(project.ID)
	if err != nil {
		return nil, err
	}

	resp := projectResponse(project)
	for i := range characters {
		cr, err := characterResponse(&characters[i], project.CharacterSendCount)
		if err != nil {
			return nil, err
		}
		resp.Characters = append(resp.Characters, *cr)
	}
	for i := range pages {
		pr, err := pageResponse(&pages[i], project.IllustrationSendCount)
		if err != nil {
			return nil, err
		}
		resp.Pages = append(resp.Pages, *pr)
	}
	return resp, nil
}

// CustomerView assembles the review page for a token holder. Artifact URLs
// are the customer-facing copies frozen at send time, not the internal ones
// the operator may still be iterating on.
func (s *ProjectService) CustomerView(reviewToken string) (*models.ProjectResponse, error) {
	project, err := s.dbClient.GetProjectByReviewToken(reviewToken)
	if err != nil {
		return nil, err
	}

	resp, err := s.assembleProject(project)
	if err != nil {
		return nil, err
	}

	for i := range resp.Characters {
		c := &resp.Characters[i]
		c.Colored = customerArtifact(c.CustomerColoredURL)
		c.Sketch = customerArtifact(c.CustomerSketchURL)
	}
	for i := range resp.Pages {
		p := &resp.Pages[i]
		p.Colored = customerArtifact(p.CustomerColoredURL)
		p.Sketch = customerArtifact(p.CustomerSketchURL)
	}
	return resp, nil
}

func (s *ProjectService) ListProjects(userID uuid.UUID) (*models.ProjectListResponse, error) {
	projects, err := s.dbClient.ListProjects(userID)
	if err != nil {
		return nil, err
	}
	resp := &models.ProjectListResponse{Projects: make([]models.ProjectSummary, 0, len(projects))}
	for _, p := range projects {
		resp.Projects = append(resp.Projects, models.ProjectSummary{
			ID:        p.ID.String(),
			Title:     p.Title,
			Status:    p.Status,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return resp, nil
}

// DeleteProject removes the project row (pages, characters, rounds and
// comparisons cascade) and then clears the storage prefix best-effort.
func (s *ProjectService) DeleteProject(projectID, userID uuid.UUID) error {
	if err := s.dbClient.DeleteProject(projectID, userID); err != nil {
		return err
	}
	if err := s.storageClient.DeleteProjectFiles(projectID); err != nil {
		log.Printf("Failed to delete storage files for project %s: %v", projectID, err)
	}
	return nil
}

func (s *ProjectService) GetStatus(projectID, userID uuid.UUID) (*models.StatusResponse, error) {
	project, err := s.dbClient.GetProject(projectID, userID)
	if err != nil {
		return nil, err
	}
	return &models.StatusResponse{
		ProjectID: project.ID.String(),
		Status:    project.Status,
		UpdatedAt: project.UpdatedAt,
	}, nil
}

// DeleteCharacter removes a character and its page links.
func (s *ProjectService) DeleteCharacter(characterID uuid.UUID, userID uuid.UUID) error {
	character, err := s.dbClient.GetCharacter(characterID)
	if err != nil {
		return err
	}
	if _, err := s.dbClient.GetProject(character.ProjectID, userID); err != nil {
		return err
	}
	return s.dbClient.DeleteCharacter(characterID)
}

// PageHistory returns the round-grouped feedback history for one page.
func (s *ProjectService) PageHistory(pageID, userID uuid.UUID) (*models.PageResponse, error) {
	page, err := s.dbClient.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	project, err := s.dbClient.GetProject(page.ProjectID, userID)
	if err != nil {
		return nil, err
	}
	return pageResponse(page, project.IllustrationSendCount)
}

func customerArtifact(url string) models.Artifact {
	if url == "" {
		return models.PendingArtifact()
	}
	return models.ReadyArtifact(url)
}
