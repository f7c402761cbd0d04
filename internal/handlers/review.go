package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
)

// ReviewHandler exposes the admin side of the review cycle: sending to the
// customer and working the feedback ledger.
type ReviewHandler struct {
	reviewService *services.ReviewService
	dbClient      *supabase.DatabaseClient
}

func NewReviewHandler(reviewService *services.ReviewService, dbClient *supabase.DatabaseClient) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		dbClient:      dbClient,
	}
}

// SendToCustomer godoc
// @Summary     Send the project to the customer
// @Description Stages the project for customer review: resolves open feedback on imagery-bearing targets, opens a new revision round when imagery exists, refreshes the customer-facing copies and notifies the author.
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       request body models.SendRequest true "Review mode: character or illustration"
// @Success     200 {object} models.SendResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/send [post]
func (h *ReviewHandler) SendToCustomer(c *gin.Context) {
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

	var req models.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}
	mode := status.ReviewMode(req.Mode)
	if !mode.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid review mode", Message: req.Mode})
		return
	}

	resp, err := h.reviewService.SendToCustomer(c.Request.Context(), projectID, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ownedPageProject verifies the page belongs to a project of the caller and
// returns the project for round context.
func (h *ReviewHandler) ownedPageProject(c *gin.Context, pageID, userID uuid.UUID) (*models.Project, bool) {
	page, err := h.dbClient.GetPage(pageID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	project, err := h.dbClient.GetProject(page.ProjectID, userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return project, true
}

func (h *ReviewHandler) ownedCharacterProject(c *gin.Context, characterID, userID uuid.UUID) (*models.Project, bool) {
	character, err := h.dbClient.GetCharacter(characterID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	project, err := h.dbClient.GetProject(character.ProjectID, userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return project, true
}

func respondPage(c *gin.Context, page *models.Page, currentRound int) {
	resp, err := services.PresentPage(page, currentRound)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func respondCharacter(c *gin.Context, character *models.Character, currentRound int) {
	resp, err := services.PresentCharacter(character, currentRound)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResolvePageFeedback godoc
// @Summary     Resolve page feedback
// @Description Manually closes the open customer request on a page, stamping the current illustration round.
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.VersionedRequest true "Expected feedback version"
// @Success     200 {object} models.PageResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /pages/{page_id}/resolve [post]
func (h *ReviewHandler) ResolvePageFeedback(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	project, ok := h.ownedPageProject(c, pageID, userID)
	if !ok {
		return
	}

	var req models.VersionedRequest
	_ = c.ShouldBindJSON(&req)

	page, err := h.reviewService.ResolvePageFeedback(pageID, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, project.IllustrationSendCount)
}

// ReplyToPage godoc
// @Summary     Reply to page feedback
// @Description Attaches an admin answer to the open request without resolving it. The customer may then accept or follow up.
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.ReplyRequest true "Reply text and expected version"
// @Success     200 {object} models.PageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /pages/{page_id}/reply [post]
func (h *ReviewHandler) ReplyToPage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	project, ok := h.ownedPageProject(c, pageID, userID)
	if !ok {
		return
	}

	var req models.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	page, err := h.reviewService.ReplyToPage(pageID, req.Text, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, project.IllustrationSendCount)
}

// EditAdminThreadEntry godoc
// @Summary     Edit the admin's latest thread entry
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.EditThreadEntryRequest true "New text and expected version"
// @Success     200 {object} models.PageResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /pages/{page_id}/thread/last [put]
func (h *ReviewHandler) EditAdminThreadEntry(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	project, ok := h.ownedPageProject(c, pageID, userID)
	if !ok {
		return
	}

	var req models.EditThreadEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	page, err := h.reviewService.EditAdminThreadEntry(pageID, req.Text, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, project.IllustrationSendCount)
}

// CommentOnPage godoc
// @Summary     Comment on resolved page feedback
// @Description Attaches an informational note after resolution. Comments never re-open the request.
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.CommentRequest true "Comment text and expected version"
// @Success     200 {object} models.PageResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /pages/{page_id}/comments [post]
func (h *ReviewHandler) CommentOnPage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	project, ok := h.ownedPageProject(c, pageID, userID)
	if !ok {
		return
	}

	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	page, err := h.reviewService.CommentOnPage(pageID, req.Text, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, project.IllustrationSendCount)
}

// EditPageComment godoc
// @Summary     Edit a page comment
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.CommentRequest true "New text and expected version"
// @Success     200 {object} models.PageResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /pages/{page_id}/comments [put]
func (h *ReviewHandler) EditPageComment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	project, ok := h.ownedPageProject(c, pageID, userID)
	if !ok {
		return
	}

	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	page, err := h.reviewService.EditPageComment(pageID, req.Text, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, project.IllustrationSendCount)
}

// RemovePageComment godoc
// @Summary     Remove a page comment
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.VersionedRequest true "Expected feedback version"
// @Success     200 {object} models.PageResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /pages/{page_id}/comments [delete]
func (h *ReviewHandler) RemovePageComment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	project, ok := h.ownedPageProject(c, pageID, userID)
	if !ok {
		return
	}

	var req models.VersionedRequest
	_ = c.ShouldBindJSON(&req)

	page, err := h.reviewService.RemovePageComment(pageID, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, project.IllustrationSendCount)
}

// ResolveCharacterFeedback godoc
// @Summary     Resolve character feedback
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       character_id path string true "Character ID (UUID)"
// @Param       request body models.VersionedRequest true "Expected feedback version"
// @Success     200 {object} models.CharacterResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /characters/{character_id}/resolve [post]
func (h *ReviewHandler) ResolveCharacterFeedback(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	characterID, ok := pathUUID(c, "character_id")
	if !ok {
		return
	}
	project, ok := h.ownedCharacterProject(c, characterID, userID)
	if !ok {
		return
	}

	var req models.VersionedRequest
	_ = c.ShouldBindJSON(&req)

	character, err := h.reviewService.ResolveCharacterFeedback(characterID, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCharacter(c, character, project.CharacterSendCount)
}

// ReplyToCharacter godoc
// @Summary     Reply to character feedback
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       character_id path string true "Character ID (UUID)"
// @Param       request body models.ReplyRequest true "Reply text and expected version"
// @Success     200 {object} models.CharacterResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /characters/{character_id}/reply [post]
func (h *ReviewHandler) ReplyToCharacter(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	characterID, ok := pathUUID(c, "character_id")
	if !ok {
		return
	}
	project, ok := h.ownedCharacterProject(c, characterID, userID)
	if !ok {
		return
	}

	var req models.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	character, err := h.reviewService.ReplyToCharacter(characterID, req.Text, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCharacter(c, character, project.CharacterSendCount)
}

// CommentOnCharacter godoc
// @Summary     Comment on resolved character feedback
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       character_id path string true "Character ID (UUID)"
// @Param       request body models.CommentRequest true "Comment text and expected version"
// @Success     200 {object} models.CharacterResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /characters/{character_id}/comments [post]
func (h *ReviewHandler) CommentOnCharacter(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	characterID, ok := pathUUID(c, "character_id")
	if !ok {
		return
	}
	project, ok := h.ownedCharacterProject(c, characterID, userID)
	if !ok {
		return
	}

	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	character, err := h.reviewService.CommentOnCharacter(characterID, req.Text, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCharacter(c, character, project.CharacterSendCount)
}

// EditCharacterComment godoc
// @Summary     Edit a character comment
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       character_id path string true "Character ID (UUID)"
// @Param       request body models.CommentRequest true "New text and expected version"
// @Success     200 {object} models.CharacterResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /characters/{character_id}/comments [put]
func (h *ReviewHandler) EditCharacterComment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	characterID, ok := pathUUID(c, "character_id")
	if !ok {
		return
	}
	project, ok := h.ownedCharacterProject(c, characterID, userID)
	if !ok {
		return
	}

	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	character, err := h.reviewService.EditCharacterComment(characterID, req.Text, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCharacter(c, character, project.CharacterSendCount)
}

// RemoveCharacterComment godoc
// @Summary     Remove a character comment
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       character_id path string true "Character ID (UUID)"
// @Param       request body models.VersionedRequest true "Expected feedback version"
// @Success     200 {object} models.CharacterResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /characters/{character_id}/comments [delete]
func (h *ReviewHandler) RemoveCharacterComment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	characterID, ok := pathUUID(c, "character_id")
	if !ok {
		return
	}
	project, ok := h.ownedCharacterProject(c, characterID, userID)
	if !ok {
		return
	}

	var req models.VersionedRequest
	_ = c.ShouldBindJSON(&req)

	character, err := h.reviewService.RemoveCharacterComment(characterID, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCharacter(c, character, project.CharacterSendCount)
}
