package service

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportUsers(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"ann", "ben", "cat"} {
		f.user(t, name, 7)
	}

	t.Run("ndjson", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, f.svc.Export.StreamUsers(f.ctx, rec, "ndjson"))
		assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

		scanner := bufio.NewScanner(rec.Body)
		lines := 0
		for scanner.Scan() {
			var u map[string]any
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &u))
			assert.NotContains(t, u, "password_hash")
			assert.NotContains(t, u, "PasswordHash")
			lines++
		}
		assert.Equal(t, 3, lines)
	})

	t.Run("json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, f.svc.Export.StreamUsers(f.ctx, rec, "json"))
		var users []models.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
		assert.Len(t, users, 3)
	})

	t.Run("csv", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, f.svc.Export.StreamUsers(f.ctx, rec, "csv"))
		records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"id", "username", "email", "reputation", "is_admin", "registration_date"}, records[0])
		assert.Equal(t, "ann", records[1][1])
		assert.Equal(t, "7", records[1][3])
	})

	t.Run("unsupported format", func(t *testing.T) {
		err := f.svc.Export.StreamUsers(f.ctx, httptest.NewRecorder(), "xml")
		assertKind(t, err, apperrors.KindValidation)
	})
}

func TestExportQuestionsAndTags(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "u", 100)
	f.ask(t, u, "One", "go")
	f.ask(t, u, "Two", "go", "sql")

	rec := httptest.NewRecorder()
	require.NoError(t, f.svc.Export.StreamQuestions(f.ctx, rec, "json"))
	var questions []models.Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &questions))
	require.Len(t, questions, 2)

	err := f.svc.Export.StreamQuestions(f.ctx, httptest.NewRecorder(), "csv")
	assertKind(t, err, apperrors.KindValidation)

	rec = httptest.NewRecorder()
	require.NoError(t, f.svc.Export.StreamTags(f.ctx, rec, "csv"))
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "name", "user_id", "question_count"}, records[0])
	assert.Equal(t, "go", records[1][1])
	assert.Equal(t, "2", records[1][3])
}

func TestExportCounts(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "u", 100)
	f.ask(t, u, "One", "go")

	for resource, want := range map[string]int{"users": 1, "questions": 1, "answers": 0, "comments": 0, "tags": 1} {
		n, err := f.svc.Export.GetCount(f.ctx, resource)
		require.NoError(t, err)
		assert.Equal(t, want, n, resource)
	}
	_, err := f.svc.Export.GetCount(f.ctx, "articles")
	assertKind(t, err, apperrors.KindValidation)
}
