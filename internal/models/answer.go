package models

import (
	"time"
)

// Answer represents an answer to a question
type Answer struct {
	ID         string    `json:"id" db:"id"`
	QuestionID string    `json:"question_id" db:"question_id"`
	Text       string    `json:"text" db:"text"`
	CommentIDs []string  `json:"comments"`
	Votes      int       `json:"votes" db:"votes"`
	AnsBy      string    `json:"ans_by" db:"ans_by"`
	UserID     string    `json:"user_id" db:"user_id"`
	AnsweredAt time.Time `json:"ans_date_time" db:"answered_at"`
}

// AnswerInput is the payload for posting or editing an answer
type AnswerInput struct {
	Text string `json:"text" validate:"required,hyperlinks"`
}
