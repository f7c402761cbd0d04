package models

type CreateProjectRequest struct {
	Title       string                   `json:"title" binding:"required"`
	AuthorName  string                   `json:"author_name"`
	AuthorEmail string                   `json:"author_email"`
	Characters  []CreateCharacterRequest `json:"characters"`
	Pages       []CreatePageRequest      `json:"pages"`
}

type CreateCharacterRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsMain      bool   `json:"is_main"`
	// 1-based page numbers this character appears on.
	PageNumbers []int `json:"page_numbers"`
}

type CreatePageRequest struct {
	PageNumber       int    `json:"page_number" binding:"required"`
	StoryText        string `json:"story_text"`
	SceneDescription string `json:"scene_description"`
}

type SendRequest struct {
	// "character" or "illustration"
	Mode string `json:"mode" binding:"required"`
}

type GeneratePageRequest struct {
	// Edit the previous page's environment in place instead of synthesizing
	// a new scene.
	SceneRecreation bool   `json:"scene_recreation"`
	AspectRatio     string `json:"aspect_ratio,omitempty" example:"3:4"`
	// Extra style reference image URLs.
	StyleRefs []string `json:"style_refs,omitempty"`
}

type FeedbackRequest struct {
	Note    string `json:"note" binding:"required"`
	Version int    `json:"version"`
}

type ReplyRequest struct {
	Text    string `json:"text" binding:"required"`
	Version int    `json:"version"`
}

type CommentRequest struct {
	Text    string `json:"text" binding:"required"`
	Version int    `json:"version"`
}

type VersionedRequest struct {
	Version int `json:"version"`
}

type FollowUpRequest struct {
	Text    string `json:"text" binding:"required"`
	Version int    `json:"version"`
}

type EditThreadEntryRequest struct {
	Text    string `json:"text" binding:"required"`
	Version int    `json:"version"`
}

type ComparisonDecisionRequest struct {
	// "keep_new" or "revert_old"
	Decision string `json:"decision" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
