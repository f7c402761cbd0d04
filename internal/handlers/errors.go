package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"storybook-backend/internal/compare"
	"storybook-backend/internal/genai"
	"storybook-backend/internal/middleware"
	"storybook-backend/internal/models"
	"storybook-backend/internal/revision"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
)

// respondError maps domain errors onto the HTTP taxonomy: validation 400,
// not-found 404, conflicts 409, provider failures 502, everything else 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, supabase.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found", Message: err.Error()})

	case errors.Is(err, supabase.ErrStaleVersion),
		errors.Is(err, supabase.ErrComparisonExists),
		errors.Is(err, status.ErrInvalidTransition),
		errors.Is(err, status.ErrGenerationInProgress),
		errors.Is(err, revision.ErrOpenFeedbackExists),
		errors.Is(err, revision.ErrThreadLocked):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "conflict", Message: err.Error()})

	case errors.Is(err, status.ErrInvalidStatus),
		errors.Is(err, status.ErrMainCharacterNotReady),
		errors.Is(err, status.ErrMissingAuthorContact),
		errors.Is(err, revision.ErrEmptyNote),
		errors.Is(err, revision.ErrNoOpenFeedback),
		errors.Is(err, revision.ErrNoAdminReply),
		errors.Is(err, revision.ErrNotResolved),
		errors.Is(err, revision.ErrNoComment),
		errors.Is(err, compare.ErrUnknownDecision):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})

	default:
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "generation provider error", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error", Message: err.Error()})
	}
}

// requireUserID pulls the authenticated user out of the gin context. Returns
// false after writing the error response.
func requireUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a :param path segment as a UUID. Returns false after
// writing the error response.
func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}
