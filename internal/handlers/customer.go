package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
)

// CustomerHandler serves the token-authenticated review surface. There is no
// JWT here: possession of the review token is the credential.
type CustomerHandler struct {
	projectService *services.ProjectService
	reviewService  *services.ReviewService
}

func NewCustomerHandler(projectService *services.ProjectService, reviewService *services.ReviewService) *CustomerHandler {
	return &CustomerHandler{
		projectService: projectService,
		reviewService:  reviewService,
	}
}

// GetReview godoc
// @Summary     Customer review page
// @Description Returns the project as the customer sees it: the customer-facing artifact copies frozen at send time.
// @Tags        customer
// @Produce     json
// @Param       token path string true "Review token"
// @Success     200 {object} models.ProjectResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /review/{token} [get]
func (h *CustomerHandler) GetReview(c *gin.Context) {
	resp, err := h.projectService.CustomerView(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// customerRound returns the per-mode round context for presenting the
// mutated target.
func (h *CustomerHandler) customerRound(c *gin.Context, illustration bool) (int, bool) {
	project, err := h.reviewService.ProjectByToken(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	if illustration {
		return project.IllustrationSendCount, true
	}
	return project.CharacterSendCount, true
}

// SubmitPageFeedback godoc
// @Summary     Submit page feedback
// @Description Records a customer revision request on a page. Rejected while another request on the page is still open.
// @Tags        customer
// @Accept      json
// @Produce     json
// @Param       token path string true "Review token"
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.FeedbackRequest true "Note and expected version"
// @Success     200 {object} models.PageResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /review/{token}/pages/{page_id}/feedback [post]
func (h *CustomerHandler) SubmitPageFeedback(c *gin.Context) {
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	page, err := h.reviewService.SubmitPageFeedback(c.Param("token"), pageID, req.Note, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	round, ok := h.customerRound(c, true)
	if !ok {
		return
	}
	respondPage(c, page, round)
}

// AcceptPageReply godoc
// @Summary     Accept an admin reply on a page
// @Description The customer's terminal answer to an admin reply; resolves the open request.
// @Tags        customer
// @Accept      json
// @Produce     json
// @Param       token path string true "Review token"
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.VersionedRequest true "Expected feedback version"
// @Success     200 {object} models.PageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /review/{token}/pages/{page_id}/accept [post]
func (h *CustomerHandler) AcceptPageReply(c *gin.Context) {
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	var req models.VersionedRequest
	_ = c.ShouldBindJSON(&req)

	page, err := h.reviewService.AcceptPageReply(c.Param("token"), pageID, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	round, ok := h.customerRound(c, true)
	if !ok {
		return
	}
	respondPage(c, page, round)
}

// FollowUpPage godoc
// @Summary     Follow up on an admin reply
// @Description Pushes back on a standing admin reply; the admin must reply again before the customer can accept.
// @Tags        customer
// @Accept      json
// @Produce     json
// @Param       token path string true "Review token"
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.FollowUpRequest true "Text and expected version"
// @Success     200 {object} models.PageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /review/{token}/pages/{page_id}/follow-up [post]
func (h *CustomerHandler) FollowUpPage(c *gin.Context) {
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	var req models.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	page, err := h.reviewService.FollowUpPage(c.Param("token"), pageID, req.Text, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	round, ok := h.customerRound(c, true)
	if !ok {
		return
	}
	respondPage(c, page, round)
}

// EditPageThreadEntry godoc
// @Summary     Edit the customer's latest thread entry
// @Description Allowed only while the admin has not replied on top of it.
// @Tags        customer
// @Accept      json
// @Produce     json
// @Param       token path string true "Review token"
// @Param       page_id path string true "Page ID (UUID)"
// @Param       request body models.EditThreadEntryRequest true "New text and expected version"
// @Success     200 {object} models.PageResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /review/{token}/pages/{page_id}/thread/last [put]
func (h *CustomerHandler) EditPageThreadEntry(c *gin.Context) {
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	var req models.EditThreadEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	page, err := h.reviewService.EditPageThreadEntry(c.Param("token"), pageID, req.Text, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	round, ok := h.customerRound(c, true)
	if !ok {
		return
	}
	respondPage(c, page, round)
}

// SubmitCharacterFeedback godoc
// @Summary     Submit character feedback
// @Tags        customer
// @Accept      json
// @Produce     json
// @Param       token path string true "Review token"
// @Param       character_id path string true "Character ID (UUID)"
// @Param       request body models.FeedbackRequest true "Note and expected version"
// @Success     200 {object} models.CharacterResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /review/{token}/characters/{character_id}/feedback [post]
func (h *CustomerHandler) SubmitCharacterFeedback(c *gin.Context) {
	characterID, ok := pathUUID(c, "character_id")
	if !ok {
		return
	}
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	character, err := h.reviewService.SubmitCharacterFeedback(c.Param("token"), characterID, req.Note, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	round, ok := h.customerRound(c, false)
	if !ok {
		return
	}
	respondCharacter(c, character, round)
}

// AcceptCharacterReply godoc
// @Summary     Accept an admin reply on a character
// @Tags        customer
// @Accept      json
// @Produce     json
// @Param       token path string true "Review token"
// @Param       character_id path string true "Character ID (UUID)"
// @Param       request body models.VersionedRequest true "Expected feedback version"
// @Success     200 {object} models.CharacterResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /review/{token}/characters/{character_id}/accept [post]
func (h *CustomerHandler) AcceptCharacterReply(c *gin.Context) {
	characterID, ok := pathUUID(c, "character_id")
	if !ok {
		return
	}
	var req models.VersionedRequest
	_ = c.ShouldBindJSON(&req)

	character, err := h.reviewService.AcceptCharacterReply(c.Param("token"), characterID, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	round, ok := h.customerRound(c, false)
	if !ok {
		return
	}
	respondCharacter(c, character, round)
}
