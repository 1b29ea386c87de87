package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/config"
	"github.com/qa-forum-api/internal/mocks"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	ctx   context.Context
	store *mocks.MockStore
	repos *repository.Repositories
	svc   *Services
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost},
		Store: config.StoreConfig{
			OpTimeout:       time.Second,
			MaxRetries:      3,
			RetryInitial:    time.Millisecond,
			RetryMaxBackoff: 5 * time.Millisecond,
		},
		Policy: config.PolicyConfig{AllowSelfVote: true},
	}
}

// newFixture wires services over an in-memory store with a clock that
// advances one minute per reading, so creation order is strictly increasing
func newFixture(t *testing.T, opts ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	store := mocks.NewMockStore()
	repos := store.Repositories()
	return &fixture{
		ctx:   context.Background(),
		store: store,
		repos: repos,
		svc:   newServices(repos, cfg, zerolog.Nop(), now),
	}
}

func (f *fixture) user(t *testing.T, name string, reputation int) *models.User {
	t.Helper()
	return f.insertUser(t, name, reputation, false)
}

func (f *fixture) admin(t *testing.T, name string) *models.User {
	t.Helper()
	return f.insertUser(t, name, 0, true)
}

func (f *fixture) insertUser(t *testing.T, name string, reputation int, isAdmin bool) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.New().String(),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Reputation:   reputation,
		IsAdmin:      isAdmin,
		RegisteredAt: time.Now().UTC(),
	}
	require.NoError(t, f.repos.User.Create(f.ctx, u))
	return u
}

func (f *fixture) ask(t *testing.T, owner *models.User, title string, tags ...string) *models.Question {
	t.Helper()
	q, err := f.svc.Question.Create(f.ctx, owner.ID, models.QuestionInput{
		Title:   title,
		Summary: "summary of " + title,
		Text:    "text of " + title,
		Tags:    tags,
	})
	require.NoError(t, err)
	return q
}

func (f *fixture) reputation(t *testing.T, userID string) int {
	t.Helper()
	u, err := f.repos.User.GetByID(f.ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u.Reputation
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperrors.KindOf(err), "error: %v", err)
}

func tagNames(q *models.Question) []string {
	names := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		names = append(names, t.Name)
	}
	return names
}

func questionIDs(qs []*models.Question) []string {
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids
}
