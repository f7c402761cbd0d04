package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
)

type ProjectsHandler struct {
	projectService *services.ProjectService
	reviewService  *services.ReviewService
}

func NewProjectsHandler(projectService *services.ProjectService, reviewService *services.ReviewService) *ProjectsHandler {
	return &ProjectsHandler{
		projectService: projectService,
		reviewService:  reviewService,
	}
}

// CreateProject godoc
// @Summary     Create a project
// @Description Creates a book project with its pages, characters and character-page appearances in one call.
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateProjectRequest true "Project intake"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	resp, err := h.projectService.CreateProject(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListProjects godoc
// @Summary     List projects
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProjectListResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /projects [get]
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	resp, err := h.projectService.ListProjects(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProject godoc
// @Summary     Get a project
// @Description Returns the project with its characters and pages, including round-grouped feedback history.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [get]
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}

	resp, err := h.projectService.GetProject(projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteProject godoc
// @Summary     Delete a project
// @Description Removes the project, its pages/characters and its stored artwork.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} map[string]string
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [delete]
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(projectID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetStatus godoc
// @Summary     Get project status
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.StatusResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/status [get]
func (h *ProjectsHandler) GetStatus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}

	resp, err := h.projectService.GetStatus(projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RotateToken godoc
// @Summary     Rotate the review token
// @Description Mints a fresh review token, invalidating every previously issued customer URL.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.TokenResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/review-token/rotate [post]
func (h *ProjectsHandler) RotateToken(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}

	resp, err := h.reviewService.RotateToken(projectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PageHistory godoc
// @Summary     Get page feedback history
// @Description Returns the page with its feedback history grouped by revision round.
// @Tags        pages
// @Produce     json
// @Security    Bearer
// @Param       page_id path string true "Page ID (UUID)"
// @Success     200 {object} models.PageResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /pages/{page_id}/history [get]
func (h *ProjectsHandler) PageHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}

	resp, err := h.projectService.PageHistory(pageID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteCharacter godoc
// @Summary     Delete a character
// @Tags        characters
// @Produce     json
// @Security    Bearer
// @Param       character_id path string true "Character ID (UUID)"
// @Success     200 {object} map[string]string
// @Failure     404 {object} models.ErrorResponse
// @Router      /characters/{character_id} [delete]
func (h *ProjectsHandler) DeleteCharacter(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	characterID, ok := pathUUID(c, "character_id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteCharacter(characterID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
