package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qa-forum-api/internal/api"
	"github.com/qa-forum-api/internal/config"
	"github.com/qa-forum-api/internal/mocks"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/ratelimit"
	"github.com/qa-forum-api/internal/repository"
	"github.com/qa-forum-api/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   *gin.Engine
	repos    *repository.Repositories
	services *service.Services
}

func setupTestRouter(t *testing.T, opts ...api.RouterOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, BcryptCost: 4},
		Store: config.StoreConfig{
			OpTimeout:    time.Second,
			MaxRetries:   1,
			RetryInitial: time.Millisecond,
		},
		Policy:  config.PolicyConfig{AllowSelfVote: true},
		Tracing: config.TracingConfig{ServiceName: "qa-api-test"},
	}

	repos := mocks.NewMockStore().Repositories()
	services := service.NewServices(repos, cfg, zerolog.Nop())
	return &testServer{
		router:   api.NewRouter(services, cfg, zerolog.Nop(), opts...),
		repos:    repos,
		services: services,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers a user, grants them reputation and returns their id and token
func (s *testServer) signup(t *testing.T, name string, reputation int) (string, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/auth/register", "", models.RegisterInput{
		Username: name, Email: name + "@example.com", Password: "pw-" + strings.Repeat("x", 6),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))

	if reputation != 0 {
		require.NoError(t, s.repos.User.AdjustReputation(context.Background(), user.ID, reputation))
	}

	w = s.do(t, http.MethodPost, "/v1/auth/login", "", models.LoginInput{
		Email: name + "@example.com", Password: "pw-xxxxxx",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	return user.ID, login.Token
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.services.User.CreateAdmin(context.Background(), "root", "rootpw")
	require.NoError(t, err)
	token, _, err := s.services.User.Authenticate(context.Background(), models.LoginInput{
		Email: "root@fakeso.com", Password: "rootpw",
	})
	require.NoError(t, err)
	return token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func questionInput(tags ...string) models.QuestionInput {
	return models.QuestionInput{Title: "How do I test?", Summary: "testing", Text: "see [docs](https://go.dev)", Tags: tags}
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestRouter(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "qa-api", response["service"])
}

type failingCheck struct{}

func (failingCheck) HealthCheck(context.Context) error { return errors.New("database down") }

func TestHealthEndpoint_Unhealthy(t *testing.T) {
	s := setupTestRouter(t, api.WithHealthCheck(failingCheck{}))
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type fixedPool struct{}

func (fixedPool) Stats() sql.DBStats { return sql.DBStats{OpenConnections: 3, InUse: 1, Idle: 2} }

func TestStatsIncludesPool(t *testing.T) {
	s := setupTestRouter(t, api.WithPoolStats(fixedPool{}))
	w := s.do(t, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		Pool map[string]int `json:"pool"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Pool["open_connections"])
	assert.Equal(t, 1, stats.Pool["in_use"])
}

func TestStatsAndMetricsEndpoints(t *testing.T) {
	s := setupTestRouter(t)
	s.signup(t, "alice", 0)

	w := s.do(t, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Database map[string]int `json:"database"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Database["users"])
	assert.Equal(t, 0, stats.Database["questions"])

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "qa_store_ops_total")
}

func TestAuthRequired(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(t, http.MethodPost, "/v1/questions", "", questionInput("go"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/v1/questions", "not-a-token", questionInput("go"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := setupTestRouter(t)
	s.signup(t, "alice", 0)

	w := s.do(t, http.MethodPost, "/v1/auth/login", "", models.LoginInput{Email: "alice@example.com", Password: "nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/v1/auth/register", "", models.RegisterInput{
		Username: "alice2", Email: "ALICE@example.com", Password: "pw-zzzzzz",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decodeError(t, w)["error"])
}

func TestQuestionLifecycle(t *testing.T) {
	s := setupTestRouter(t)
	ownerID, owner := s.signup(t, "owner", 100)
	_, voter := s.signup(t, "voter", 50)

	w := s.do(t, http.MethodPost, "/v1/questions", owner, questionInput("Go", "testing"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var q models.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, ownerID, q.UserID)
	assert.Equal(t, "owner", q.AskedBy)

	w = s.do(t, http.MethodPost, "/v1/questions/"+q.ID+"/votes", voter, models.VoteInput{Delta: 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/v1/users/"+ownerID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile models.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, 105, profile.Reputation)
	assert.Equal(t, []string{q.ID}, profile.QuestionsAsked)
	assert.Len(t, profile.TagsCreated, 2)

	w = s.do(t, http.MethodPost, "/v1/questions/"+q.ID+"/answers", voter, models.AnswerInput{Text: "use go test"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/v1/questions/search?q=%5Bgo%5D", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []models.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, q.ID, found[0].ID)

	w = s.do(t, http.MethodGet, "/v1/questions?sort=unanswered", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = s.do(t, http.MethodGet, "/v1/questions/"+q.ID+"/tags", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"go"`)

	w = s.do(t, http.MethodDelete, "/v1/questions/"+q.ID, voter, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "only the owner may delete")

	w = s.do(t, http.MethodDelete, "/v1/questions/"+q.ID, owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/v1/questions/"+q.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w)["error"])
}

func TestCreateQuestion_ErrorMapping(t *testing.T) {
	s := setupTestRouter(t)
	_, low := s.signup(t, "low", 10)

	w := s.do(t, http.MethodPost, "/v1/questions", low, questionInput("newtag"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeError(t, w)["error"])

	in := questionInput("go")
	in.Title = strings.Repeat("t", 51)
	w = s.do(t, http.MethodPost, "/v1/questions", low, in)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "validation", body["error"])
	assert.Equal(t, "title", body["field"])

	w = s.do(t, http.MethodGet, "/v1/questions?sort=hot", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentsAndVotesAreGated(t *testing.T) {
	s := setupTestRouter(t)
	_, owner := s.signup(t, "owner", 100)
	_, low := s.signup(t, "low", 49)

	w := s.do(t, http.MethodPost, "/v1/questions", owner, questionInput("go"))
	require.Equal(t, http.StatusCreated, w.Code)
	var q models.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))

	w = s.do(t, http.MethodPost, "/v1/questions/"+q.ID+"/comments", low, models.CommentInput{Text: "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodPost, "/v1/questions/"+q.ID+"/votes", low, models.VoteInput{Delta: -1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/v1/questions/"+q.ID+"/comments", owner, models.CommentInput{Text: "hi"})
	require.Equal(t, http.StatusCreated, w.Code)
	var c models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))

	w = s.do(t, http.MethodPost, "/v1/comments/"+c.ID+"/upvote", low, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/v1/questions/"+q.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"votes":1`)
}

func TestTagEndpoints(t *testing.T) {
	s := setupTestRouter(t)
	_, creator := s.signup(t, "creator", 100)
	_, other := s.signup(t, "other", 0)

	w := s.do(t, http.MethodPost, "/v1/tags", creator, models.TagInput{Name: "Shared"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tag models.Tag
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tag))
	assert.Equal(t, "shared", tag.Name)

	w = s.do(t, http.MethodPost, "/v1/questions", other, questionInput("shared"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPatch, "/v1/tags/"+tag.ID, other, models.TagInput{Name: "x"})
	assert.Equal(t, http.StatusForbidden, w.Code, "only the creator may rename")

	w = s.do(t, http.MethodDelete, "/v1/tags/"+tag.ID, creator, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "tag in use by others")

	w = s.do(t, http.MethodGet, "/v1/tags", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"question_count":1`)
}

func TestUserDeleteAndReputation(t *testing.T) {
	s := setupTestRouter(t)
	aliceID, alice := s.signup(t, "alice", 0)
	bobID, bob := s.signup(t, "bob", 0)
	admin := s.adminToken(t)

	w := s.do(t, http.MethodDelete, "/v1/users/"+aliceID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPatch, "/v1/users/"+bobID+"/reputation", bob, models.ReputationChange{Change: 100})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPatch, "/v1/users/"+bobID+"/reputation", admin, models.ReputationChange{Change: 100})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reputation":100`)

	w = s.do(t, http.MethodDelete, "/v1/users/"+aliceID, alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, "/v1/users/"+bobID, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/v1/users/"+aliceID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	s := setupTestRouter(t)
	_, user := s.signup(t, "alice", 0)
	admin := s.adminToken(t)

	w := s.do(t, http.MethodGet, "/v1/exports?resource=users&format=csv", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/v1/exports?resource=users&format=csv", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.NotContains(t, w.Body.String(), "$2a$")
	assert.Equal(t, 3, strings.Count(w.Body.String(), "\n"))

	w = s.do(t, http.MethodGet, "/v1/exports?resource=questions&format=csv", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodGet, "/v1/exports?resource=articles", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := setupTestRouter(t, api.WithRateLimiter(ratelimit.NewLocalLimiter(2, time.Minute)))

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodGet, "/v1/tags", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := s.do(t, http.MethodGet, "/v1/tags", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, "operational endpoints are not limited")
}

func TestCORSHeaders(t *testing.T) {
	s := setupTestRouter(t)
	w := s.do(t, http.MethodOptions, "/v1/questions", "", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestImportQuestions(t *testing.T) {
	s := setupTestRouter(t)
	_, owner := s.signup(t, "owner", 100)

	body := `{"title":"One","summary":"s","text":"t","tags":["go"]}
{"title":"Two","summary":"s","text":"t","tags":[]}
`
	req := httptest.NewRequest(http.MethodPost, "/v1/imports/questions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-ndjson")
	req.Header.Set("Authorization", "Bearer "+owner)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var report models.ImportReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 2, report.TotalRecords)
	assert.Equal(t, 1, report.Successful)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 2, report.Errors[0].Line)

	w = s.do(t, http.MethodGet, "/v1/questions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"One"`)
}
