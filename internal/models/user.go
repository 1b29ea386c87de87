package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Reputation   int       `json:"reputation" db:"reputation"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	RegisteredAt time.Time `json:"registration_date" db:"registered_at"`
}

// UserProfile is a user together with the ids of everything they own.
// The lists are derived from the owning foreign keys, oldest first.
type UserProfile struct {
	User
	QuestionsAsked []string `json:"questions_asked"`
	AnswersPosted  []string `json:"answers_posted"`
	TagsCreated    []string `json:"tags_created"`
	CommentsPosted []string `json:"comments_posted"`
}

// RegisterInput is the payload for creating an account
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// LoginInput is the payload for authenticating
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ReputationChange is the admin payload for adjusting a user's reputation
type ReputationChange struct {
	Change int `json:"change"`
}

// AdminEmailDomain is the mail domain used for bootstrapped admin accounts
const AdminEmailDomain = "fakeso.com"

// AdminInitialReputation is the reputation granted to bootstrapped admins
const AdminInitialReputation = 1000
