package service

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/qa-forum-api/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportQuestions_ReportsRejectedLines(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", 10)
	seeder := f.user(t, "seeder", 100)
	f.ask(t, seeder, "Seed", "go")

	input := strings.Join([]string{
		`{"title":"One","summary":"s","text":"t","tags":["go"]}`,
		``,
		`{"title":`,
		`{"title":"Two","summary":"s","text":"t","tags":["brandnew"]}`,
		`{"title":"Three","summary":"s","text":"t","tags":[]}`,
		`{"title":"Four","summary":"s","text":"see [x](https://go.dev)","tags":["GO"]}`,
	}, "\n")

	report, err := f.svc.Import.ImportQuestions(f.ctx, alice.ID, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "questions", report.Resource)
	assert.Equal(t, 5, report.TotalRecords)
	assert.Equal(t, 2, report.Successful)
	assert.Equal(t, 3, report.Failed)
	assert.Len(t, report.CreatedIDs, 2)

	require.Len(t, report.Errors, 3)
	assert.Equal(t, 3, report.Errors[0].Line)
	assert.Equal(t, "json", report.Errors[0].Field)
	assert.Equal(t, 4, report.Errors[1].Line)
	assert.Equal(t, string(apperrors.KindForbidden), report.Errors[1].Kind)
	assert.Equal(t, 5, report.Errors[2].Line)
	assert.Equal(t, "tags", report.Errors[2].Field)

	tags, err := f.svc.Tag.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1, "the gated line created no tag")

	mine, err := f.svc.Question.ListByUser(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestImportQuestions_UnknownUser(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Import.ImportQuestions(f.ctx, "ghost",
		strings.NewReader(`{"title":"One","summary":"s","text":"t","tags":["go"]}`))
	assertKind(t, err, apperrors.KindNotFound)
	assert.Equal(t, 0, report.Successful)
}

func TestImportQuestions_TruncatesErrors(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", 100)

	input := strings.Repeat("not json\n", maxReportedErrors+5)
	report, err := f.svc.Import.ImportQuestions(f.ctx, alice.ID, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, maxReportedErrors+5, report.Failed)
	assert.Len(t, report.Errors, maxReportedErrors)
	assert.True(t, report.Truncated)
}

func TestImportQuestions_OversizedLineKeepsPartialReport(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", 100)

	input := `{"title":"One","summary":"s","text":"t","tags":["go"]}` + "\n" +
		strings.Repeat("x", maxImportLineBytes+1) + "\n" +
		`{"title":"Never","summary":"s","text":"t","tags":["go"]}` + "\n"

	report, err := f.svc.Import.ImportQuestions(f.ctx, alice.ID, strings.NewReader(input))
	require.NoError(t, err)

	assert.True(t, report.Incomplete)
	assert.Equal(t, 1, report.Successful)
	assert.Len(t, report.CreatedIDs, 1)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 2, report.Errors[0].Line)
	assert.Equal(t, "body", report.Errors[0].Field)

	mine, err := f.svc.Question.ListByUser(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1, "the line before the unreadable one stays committed")
}

type stallingReader struct{ delay time.Duration }

func (r stallingReader) Read([]byte) (int, error) {
	time.Sleep(r.delay)
	return 0, errors.New("connection reset by peer")
}

func TestImportQuestions_ReadFailureIsTimed(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", 100)

	input := io.MultiReader(
		strings.NewReader(`{"title":"One","summary":"s","text":"t","tags":["go"]}`+"\n"),
		stallingReader{delay: 20 * time.Millisecond},
	)
	report, err := f.svc.Import.ImportQuestions(f.ctx, alice.ID, input)
	require.NoError(t, err)

	assert.True(t, report.Incomplete)
	assert.Equal(t, 1, report.Successful)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Message, "connection reset")
	assert.GreaterOrEqual(t, report.DurationMs, int64(20))
}
