package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"storybook-backend/internal/models"
	"storybook-backend/internal/supabase"
)

const maxReferencePhotoBytes = 20 << 20

type UploadHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
}

func NewUploadHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient) *UploadHandler {
	return &UploadHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
	}
}

// UploadReferencePhoto godoc
// @Summary     Upload a character reference photo
// @Description Stores a reference photo for a character. The photo is composited into the character's generation request, not shown to the customer.
// @Tags        characters
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       character_id path string true "Character ID (UUID)"
// @Param       photo formData file true "Reference photo (JPEG, PNG or WebP)"
// @Success     200 {object} models.CharacterResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /characters/{character_id}/reference-photo [post]
func (h *UploadHandler) UploadReferencePhoto(c *gin.Context) {
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
	project, err := h.dbClient.GetProject(character.ProjectID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing photo file", Message: err.Error()})
		return
	}
	if fileHeader.Size > maxReferencePhotoBytes {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "photo too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to open photo", Message: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read photo", Message: err.Error()})
		return
	}

	contentType := http.DetectContentType(data)
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "unsupported image type", Message: contentType})
		return
	}

	filename := fmt.Sprintf("references/%s_%d", characterID, time.Now().Unix())
	_, url, err := h.storageClient.UploadArtwork(character.ProjectID, filename, data, contentType)
	if err != nil {
		respondError(c, err)
		return
	}
	// Re-uploads land on the same path; the busted URL keeps a cached CDN
	// copy from being served.
	url = supabase.CacheBustURL(url)
	if err := h.dbClient.SetCharacterReferencePhoto(characterID, url); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.dbClient.GetCharacter(characterID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCharacter(c, updated, project.CharacterSendCount)
}
