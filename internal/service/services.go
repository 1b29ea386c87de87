package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/qa-forum-api/internal/auth"
	"github.com/qa-forum-api/internal/config"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/policy"
	"github.com/qa-forum-api/internal/repository"
	"github.com/qa-forum-api/internal/validation"
	"github.com/rs/zerolog"
)

// QuestionService defines question operations
type QuestionService interface {
	Create(ctx context.Context, userID string, in models.QuestionInput) (*models.Question, error)
	Edit(ctx context.Context, questionID string, in models.QuestionInput) (*models.Question, error)
	Delete(ctx context.Context, questionID string) error
	Get(ctx context.Context, questionID string) (*models.Question, error)
	List(ctx context.Context, order models.QuestionOrder) ([]*models.Question, error)
	Search(ctx context.Context, query string) ([]*models.Question, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Question, error)
	ListAnsweredBy(ctx context.Context, userID string) ([]*models.Question, error)
	Vote(ctx context.Context, voterID, questionID string, delta int) (*models.Question, error)
	IncrementViews(ctx context.Context, questionID string) (*models.Question, error)
}

// AnswerService defines answer operations
type AnswerService interface {
	Post(ctx context.Context, userID, questionID, text string) (*models.Question, error)
	Edit(ctx context.Context, answerID, text string) (*models.Answer, error)
	Delete(ctx context.Context, answerID string) error
	Get(ctx context.Context, answerID string) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID string) ([]*models.Answer, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Answer, error)
	Vote(ctx context.Context, voterID, answerID string, delta int) (*models.Answer, error)
}

// CommentService defines comment operations
type CommentService interface {
	Post(ctx context.Context, parentType models.ParentType, parentID, userID, text string) (*models.Comment, error)
	Upvote(ctx context.Context, commentID string) (*models.Comment, error)
	Get(ctx context.Context, commentID string) (*models.Comment, error)
	ListByParent(ctx context.Context, parentType models.ParentType, parentID string) ([]*models.Comment, error)
}

// TagService defines tag operations
type TagService interface {
	Create(ctx context.Context, userID, name string) (*models.Tag, error)
	Rename(ctx context.Context, tagID, name string) (*models.Tag, error)
	Delete(ctx context.Context, tagID string) error
	Get(ctx context.Context, tagID string) (*models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Tag, error)
}

// UserService defines account operations
type UserService interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, in models.LoginInput) (string, *models.User, error)
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	List(ctx context.Context) ([]*models.User, error)
	AdjustReputation(ctx context.Context, userID string, change int) (*models.User, error)
	Delete(ctx context.Context, userID string) error
	CreateAdmin(ctx context.Context, username, password string) (*models.User, error)
}

// ExportService defines streaming export operations
type ExportService interface {
	StreamUsers(ctx context.Context, w http.ResponseWriter, format string) error
	StreamQuestions(ctx context.Context, w http.ResponseWriter, format string) error
	StreamTags(ctx context.Context, w http.ResponseWriter, format string) error
	GetCount(ctx context.Context, resource string) (int, error)
}

// ImportService defines bulk import operations
type ImportService interface {
	ImportQuestions(ctx context.Context, userID string, r io.Reader) (*models.ImportReport, error)
}

// Services holds all service interfaces
type Services struct {
	Question QuestionService
	Answer   AnswerService
	Comment  CommentService
	Tag      TagService
	User     UserService
	Export   ExportService
	Import   ImportService
	Tokens   *auth.TokenIssuer
}

// deps is shared by every service implementation
type deps struct {
	run       *runner
	repos     *repository.Repositories
	policy    policy.Policy
	validator *validation.Validator
	log       zerolog.Logger
	now       func() time.Time
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	return newServices(repos, cfg, log, func() time.Time { return time.Now().UTC() })
}

func newServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger, now func() time.Time) *Services {
	d := &deps{
		run:       newRunner(repos.Tx, cfg.Store, log),
		repos:     repos,
		policy:    policy.New(cfg.Policy.AllowSelfVote),
		validator: validation.NewValidator(),
		log:       log,
		now:       now,
	}
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	questions := newQuestionService(d)

	return &Services{
		Question: questions,
		Answer:   newAnswerService(d),
		Comment:  newCommentService(d),
		Tag:      newTagService(d),
		User:     newUserService(d, tokens, cfg.Auth.BcryptCost),
		Export:   newExportService(repos, log),
		Import:   newImportService(questions, d),
		Tokens:   tokens,
	}
}
