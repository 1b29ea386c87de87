package repository

import (
	"context"
	"database/sql"

	"github.com/qa-forum-api/internal/database"
	"github.com/qa-forum-api/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	AdjustReputation(ctx context.Context, id string, delta int) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.User) error) error
}

// QuestionRepository defines the interface for question data operations.
// Returned questions carry their tags and derived answer/comment ids.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	Update(ctx context.Context, question *models.Question) error
	SetTags(ctx context.Context, questionID string, tagIDs []string) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	List(ctx context.Context) ([]*models.Question, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Question, error)
	ListAnsweredBy(ctx context.Context, userID string) ([]*models.Question, error)
	AddVotes(ctx context.Context, id string, delta int) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Question) error) error
}

// AnswerRepository defines the interface for answer data operations
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	Update(ctx context.Context, answer *models.Answer) error
	GetByID(ctx context.Context, id string) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID string) ([]*models.Answer, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Answer, error)
	AddVotes(ctx context.Context, id string, delta int) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByParent(ctx context.Context, parentType models.ParentType, parentID string) ([]*models.Comment, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Comment, error)
	Upvote(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteByParent(ctx context.Context, parentType models.ParentType, parentID string) (int, error)
	Count(ctx context.Context) (int, error)
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, id string) (*models.Tag, error)
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Tag, error)
	Rename(ctx context.Context, id, name string) error
	UsedByOthers(ctx context.Context, tagID, creatorID string) (bool, error)
	Unlink(ctx context.Context, id string) (int, error)
	ClearCreator(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Tag) error) error
}

// Transactor runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	User     UserRepository
	Question QuestionRepository
	Answer   AnswerRepository
	Comment  CommentRepository
	Tag      TagRepository
	Tx       Transactor
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	repos := bind(db.DB)
	repos.Tx = &sqlTransactor{db: db}
	return repos
}

func bind(q querier) *Repositories {
	return &Repositories{
		User:     &userRepo{db: q},
		Question: &questionRepo{db: q},
		Answer:   &answerRepo{db: q},
		Comment:  &commentRepo{db: q},
		Tag:      &tagRepo{db: q},
	}
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db.DB}
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *database.DB) QuestionRepository {
	return &questionRepo{db: db.DB}
}

// NewAnswerRepo creates a new answer repository
func NewAnswerRepo(db *database.DB) AnswerRepository {
	return &answerRepo{db: db.DB}
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db.DB}
}

// NewTagRepo creates a new tag repository
func NewTagRepo(db *database.DB) TagRepository {
	return &tagRepo{db: db.DB}
}

// sqlTransactor runs units of work in READ COMMITTED transactions
type sqlTransactor struct {
	db *database.DB
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(repos *Repositories) error) error {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return Classify(err)
	}
	defer tx.Rollback()

	repos := bind(tx)
	repos.Tx = joinedTx{repos: repos}

	if err := fn(repos); err != nil {
		return err
	}
	return Classify(tx.Commit())
}

// joinedTx reuses the enclosing transaction for nested units of work
type joinedTx struct {
	repos *Repositories
}

func (j joinedTx) WithinTx(_ context.Context, fn func(repos *Repositories) error) error {
	return fn(j.repos)
}

// eachRow runs query and hands every row to scan, closing the rows before returning
// so that follow-up statements can reuse the same transaction connection.
func eachRow(ctx context.Context, db querier, query string, args []any, scan func(rows *sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return Classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return Classify(err)
		}
	}
	return Classify(rows.Err())
}
