package models

import (
	"time"
)

// ParentType identifies what a comment is attached to
type ParentType string

const (
	ParentQuestion ParentType = "question"
	ParentAnswer   ParentType = "answer"
)

// Comment represents a comment on a question or an answer
type Comment struct {
	ID         string     `json:"id" db:"id"`
	ParentType ParentType `json:"parent_type"`
	ParentID   string     `json:"parent_id"`
	Text       string     `json:"text" db:"text"`
	Votes      int        `json:"votes" db:"votes"`
	CommentBy  string     `json:"comment_by" db:"comment_by"`
	UserID     string     `json:"user_id" db:"user_id"`
	CreatedAt  time.Time  `json:"comment_date_time" db:"created_at"`
}

// CommentInput is the payload for posting a comment
type CommentInput struct {
	Text string `json:"text" validate:"required,max=140"`
}
