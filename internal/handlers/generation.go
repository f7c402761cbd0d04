package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"storybook-backend/internal/compare"
	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
	"storybook-backend/internal/supabase"
)

type GenerationHandler struct {
	generationService *services.GenerationService
	dbClient          *supabase.DatabaseClient
}

func NewGenerationHandler(generationService *services.GenerationService, dbClient *supabase.DatabaseClient) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		dbClient:          dbClient,
	}
}

// GenerateCharacters godoc
// @Summary     Generate all character images
// @Description Runs the character batch: the main character first, then every secondary anchored on its image. Item failures are isolated; the response reports per-item results. Status advances only when every item succeeded.
// @Tags        generation
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.BatchResult
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/characters/generate [post]
func (h *GenerationHandler) GenerateCharacters(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	if _, err := h.dbClient.GetProject(projectID, userID); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.generationService.GenerateCharacters(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RegenerateCharacter godoc
// @Summary     Regenerate one character image
// @Description Re-runs a single character. When a committed image already exists the new one goes into a pending comparison instead of overwriting it.
// @Tags        generation
// @Produce     json
// @Security    Bearer
// @Param       character_id path string true "Character ID (UUID)"
// @Success     200 {object} models.GenerateResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /characters/{character_id}/generate [post]
func (h *GenerationHandler) RegenerateCharacter(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	characterID, ok := pathUUID(c, "character_id")
	if !ok {
		return
	}
	character, err := h.dbClient.GetCharacter(characterID)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.dbClient.GetProject(character.ProjectID, userID); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.generationService.RegenerateCharacter(c.Request.Context(), characterID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GeneratePage godoc
// @Summary     Generate a page illustration
// @Description Generates the colored illustration (and derived sketch) for one page, anchored on the previous page's committed image when present.
// @Tags        generation
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.GeneratePageRequest false "Generation options"
// @Success     200 {object} models.GenerateResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /pages/{page_id}/generate [post]
func (h *GenerationHandler) GeneratePage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	page, err := h.dbClient.GetPage(pageID)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.dbClient.GetProject(page.ProjectID, userID); err != nil {
		respondError(c, err)
		return
	}

	var req models.GeneratePageRequest
	// Body is optional; defaults apply when absent.
	_ = c.ShouldBindJSON(&req)

	resp, err := h.generationService.GeneratePage(c.Request.Context(), pageID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RetrySketch godoc
// @Summary     Retry sketch derivation
// @Description Re-derives the sketch from the page's committed colored image without re-running the colored generation.
// @Tags        generation
// @Produce     json
// @Security    Bearer
// @Param       page_id path string true "Page ID (UUID)"
// @Success     200 {object} models.GenerateResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /pages/{page_id}/sketch/retry [post]
func (h *GenerationHandler) RetrySketch(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	page, err := h.dbClient.GetPage(pageID)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.dbClient.GetProject(page.ProjectID, userID); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.generationService.RetryPageSketch(c.Request.Context(), pageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResolveComparison godoc
// @Summary     Resolve a pending comparison
// @Description Applies the keep_new/revert_old decision for a regenerated image. keep_new commits the new image and re-derives the sketch; revert_old discards the candidate.
// @Tags        generation
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       comparison_id path string true "Comparison ID (UUID)"
// @Param       request body models.ComparisonDecisionRequest true "Decision"
// @Success     200 {object} models.GenerateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /comparisons/{comparison_id}/resolve [post]
func (h *GenerationHandler) ResolveComparison(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	comparisonID, ok := pathUUID(c, "comparison_id")
	if !ok {
		return
	}

	var req models.ComparisonDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}
	decision, err := compare.ParseDecision(req.Decision)
	if err != nil {
		respondError(c, err)
		return
	}

	comparison, err := h.dbClient.GetComparison(comparisonID)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.dbClient.GetProject(comparison.ProjectID, userID); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.generationService.ResolveComparison(c.Request.Context(), comparisonID, decision)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
