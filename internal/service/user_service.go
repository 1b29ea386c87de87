package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/auth"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/repository"
	"github.com/qa-forum-api/internal/validation"
	"github.com/rs/zerolog"
)

// userService is the concrete implementation of UserService
type userService struct {
	*deps
	tokens     *auth.TokenIssuer
	bcryptCost int
	log        zerolog.Logger
}

func newUserService(d *deps, tokens *auth.TokenIssuer, bcryptCost int) *userService {
	return &userService{
		deps:       d,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		log:        d.log.With().Str("service", "user").Logger(),
	}
}

// Register creates a regular account with zero reputation
func (s *userService) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if err := validation.ValidateRegistration(&in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		RegisteredAt: s.now(),
	}
	if err := s.insertUnique(ctx, "user.register", user); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// CreateAdmin bootstraps an administrator account
func (s *userService) CreateAdmin(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.Validation("username", "cannot be empty")
	}
	if password == "" {
		return nil, apperrors.Validation("password", "cannot be empty")
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.ToLower(username) + "@" + models.AdminEmailDomain,
		PasswordHash: hash,
		Reputation:   models.AdminInitialReputation,
		IsAdmin:      true,
		RegisteredAt: s.now(),
	}
	err = s.run.run(ctx, "user.create_admin", func(ctx context.Context, repos *repository.Repositories) error {
		existing, err := repos.User.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.Conflict("user " + username + " already exists")
		}
		return createUser(ctx, repos, user)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("username", username).Msg("Admin created")
	return user, nil
}

func (s *userService) insertUnique(ctx context.Context, op string, user *models.User) error {
	return s.run.run(ctx, op, func(ctx context.Context, repos *repository.Repositories) error {
		return createUser(ctx, repos, user)
	})
}

// createUser inserts user, reporting a taken email as Conflict
func createUser(ctx context.Context, repos *repository.Repositories, user *models.User) error {
	existing, err := repos.User.GetByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.Conflict("email is already registered")
	}
	if err := repos.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("email is already registered")
		}
		return err
	}
	return nil
}

// Authenticate checks credentials and issues a bearer token
func (s *userService) Authenticate(ctx context.Context, in models.LoginInput) (string, *models.User, error) {
	if err := s.validator.Struct(in); err != nil {
		return "", nil, err
	}
	user, err := s.repos.User.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", nil, normalize(err)
	}
	if user == nil {
		return "", nil, apperrors.NotFound("user with email", in.Email)
	}
	if err := auth.CheckPassword(user.PasswordHash, in.Password); err != nil {
		return "", nil, apperrors.Forbidden("invalid credentials")
	}
	token, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return "", nil, apperrors.Internal("failed to issue token", err)
	}
	return token, user, nil
}

// Get returns the user with the ids of everything they own
func (s *userService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile *models.UserProfile
	err := s.run.run(ctx, "user.get", func(ctx context.Context, repos *repository.Repositories) error {
		user, err := repos.User.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NotFound("user", userID)
		}
		p := &models.UserProfile{
			User:           *user,
			QuestionsAsked: []string{},
			AnswersPosted:  []string{},
			TagsCreated:    []string{},
			CommentsPosted: []string{},
		}

		questions, err := repos.Question.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, q := range questions {
			p.QuestionsAsked = append(p.QuestionsAsked, q.ID)
		}
		answers, err := repos.Answer.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, a := range answers {
			p.AnswersPosted = append(p.AnswersPosted, a.ID)
		}
		tags, err := repos.Tag.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, t := range tags {
			p.TagsCreated = append(p.TagsCreated, t.ID)
		}
		comments, err := repos.Comment.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, c := range comments {
			p.CommentsPosted = append(p.CommentsPosted, c.ID)
		}

		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repos.User.List(ctx)
	if err != nil {
		return nil, normalize(err)
	}
	return users, nil
}

// AdjustReputation moves a user's reputation by change. Reputation is not clamped.
func (s *userService) AdjustReputation(ctx context.Context, userID string, change int) (*models.User, error) {
	var adjusted *models.User
	err := s.run.run(ctx, "user.adjust_reputation", func(ctx context.Context, repos *repository.Repositories) error {
		if err := repos.User.AdjustReputation(ctx, userID, change); err != nil {
			if apperrors.KindOf(normalize(err)) == apperrors.KindNotFound {
				return apperrors.NotFound("user", userID)
			}
			return err
		}
		var err error
		adjusted, err = repos.User.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Int("change", change).Msg("Reputation adjusted")
	return adjusted, nil
}

// Delete removes the user and everything they own
func (s *userService) Delete(ctx context.Context, userID string) error {
	var counts cascadeCounts
	err := s.run.run(ctx, "user.delete", func(ctx context.Context, repos *repository.Repositories) error {
		counts = cascadeCounts{}
		user, err := repos.User.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NotFound("user", userID)
		}
		return deleteUserTree(ctx, repos, userID, &counts)
	})
	if err != nil {
		return err
	}
	counts.record("user", s.log, userID)
	return nil
}
