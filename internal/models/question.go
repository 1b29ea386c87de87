package models

import (
	"time"
)

// Question represents a question and its derived child lists
type Question struct {
	ID             string     `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Summary        string     `json:"summary" db:"summary"`
	Text           string     `json:"text" db:"text"`
	Tags           []Tag      `json:"tags"`
	AnswerIDs      []string   `json:"answers"`
	CommentIDs     []string   `json:"comments"`
	Views          int        `json:"views" db:"views"`
	Votes          int        `json:"votes" db:"votes"`
	AskedBy        string     `json:"asked_by" db:"asked_by"`
	UserID         string     `json:"user_id" db:"user_id"`
	AskedAt        time.Time  `json:"ask_date_time" db:"asked_at"`
	LastAnsweredAt *time.Time `json:"last_answered_at,omitempty"`
}

// TagIDs returns the ids of the question's tags in order
func (q *Question) TagIDs() []string {
	ids := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// QuestionInput is the payload for creating or editing a question
type QuestionInput struct {
	Title   string   `json:"title" validate:"required,max=50"`
	Summary string   `json:"summary" validate:"required,max=140"`
	Text    string   `json:"text" validate:"required,hyperlinks"`
	Tags    []string `json:"tags" validate:"min=1"`
}

// QuestionOrder selects how question listings are sorted
type QuestionOrder string

const (
	OrderNewest     QuestionOrder = "newest"
	OrderActive     QuestionOrder = "active"
	OrderUnanswered QuestionOrder = "unanswered"
)

// ValidQuestionOrders lists accepted listing orders
var ValidQuestionOrders = map[QuestionOrder]bool{
	OrderNewest:     true,
	OrderActive:     true,
	OrderUnanswered: true,
}

// VoteInput is the payload for voting on a question or answer
type VoteInput struct {
	Delta int `json:"delta"`
}
