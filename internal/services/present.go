package services

import (
	"storybook-backend/internal/models"
	"storybook-backend/internal/revision"
)

// Converters from row models to API responses.

// PresentPage builds the API view of a page against the given current round.
func PresentPage(p *models.Page, currentRound int) (*models.PageResponse, error) {
	return pageResponse(p, currentRound)
}

func PresentCharacter(c *models.Character, currentRound int) (*models.CharacterResponse, error) {
	return characterResponse(c, currentRound)
}

func projectResponse(p *models.Project) *models.ProjectResponse {
	return &models.ProjectResponse{
		ID:                    p.ID.String(),
		Title:                 p.Title,
		AuthorName:            p.AuthorName,
		AuthorEmail:           p.AuthorEmail,
		Status:                p.Status,
		CharacterSendCount:    p.CharacterSendCount,
		IllustrationSendCount: p.IllustrationSendCount,
		ErrorMessage:          p.ErrorMessage.String,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func pageResponse(p *models.Page, currentRound int) (*models.PageResponse, error) {
	fb, err := pageLedger(p)
	if err != nil {
		return nil, err
	}

	resp := &models.PageResponse{
		ID:                 p.ID.String(),
		PageNumber:         p.PageNumber,
		StoryText:          p.StoryText,
		SceneDescription:   p.SceneDescription,
		Colored:            p.Colored,
		Sketch:             p.Sketch,
		CustomerColoredURL: p.CustomerColoredURL.String,
		CustomerSketchURL:  p.CustomerSketchURL.String,
		FeedbackNotes:      fb.Notes,
		IsResolved:         fb.IsResolved,
		AdminReply:         fb.AdminReply,
		AdminReplyType:     string(fb.AdminReplyType),
		Version:            p.FeedbackVersion,
		History:            historyView(fb.History, currentRound),
	}
	for _, entry := range fb.Thread {
		resp.Thread = append(resp.Thread, models.ThreadEntry{
			Type:      entry.Type,
			Text:      entry.Text,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp, nil
}

func characterResponse(c *models.Character, currentRound int) (*models.CharacterResponse, error) {
	fb, err := characterLedger(c)
	if err != nil {
		return nil, err
	}

	return &models.CharacterResponse{
		ID:                 c.ID.String(),
		Name:               c.Name,
		Description:        c.Description,
		IsMain:             c.IsMain,
		ReferencePhotoURL:  c.ReferencePhotoURL.String,
		Colored:            c.Colored,
		Sketch:             c.Sketch,
		CustomerColoredURL: c.CustomerColoredURL.String,
		CustomerSketchURL:  c.CustomerSketchURL.String,
		FeedbackNotes:      fb.Notes,
		IsResolved:         fb.IsResolved,
		AdminReply:         fb.AdminReply,
		AdminReplyType:     string(fb.AdminReplyType),
		Version:            c.FeedbackVersion,
		History:            historyView(fb.History, currentRound),
	}, nil
}

// historyView returns nil when there is nothing resolved yet, so the field
// is omitted from the response.
func historyView(history []revision.Entry, currentRound int) *models.HistoryView {
	if len(history) == 0 {
		return nil
	}
	grouped := revision.GroupHistory(history, currentRound)

	view := &models.HistoryView{
		Current:        historyEntries(grouped.Current),
		PreviousRounds: len(grouped.Previous),
	}
	for _, group := range grouped.Previous {
		view.Previous = append(view.Previous, models.RoundGroup{
			Round:   group.Round,
			Entries: historyEntries(group.Entries),
		})
	}
	return view
}

func historyEntries(entries []revision.Entry) []models.HistoryEntry {
	out := make([]models.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.HistoryEntry{
			Note:          e.Note,
			CreatedAt:     e.CreatedAt,
			RevisionRound: e.RevisionRound,
		})
	}
	return out
}
