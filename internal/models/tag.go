package models

// Tag represents a tag. UserID is empty once the creator has been deleted
// while other users still referenced the tag.
type Tag struct {
	ID            string `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	UserID        string `json:"user_id,omitempty" db:"user_id"`
	QuestionCount int    `json:"question_count"`
}

// TagInput is the payload for creating or renaming a tag
type TagInput struct {
	Name string `json:"name" validate:"required"`
}

// Tag name limits
const (
	MaxTagNameLength   = 10
	MaxTagsPerQuestion = 5
)
