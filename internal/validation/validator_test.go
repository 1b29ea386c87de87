package validation

import (
	"strings"
	"testing"

	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuestion() models.QuestionInput {
	return models.QuestionInput{
		Title:   "How do hooks work?",
		Summary: "Short summary",
		Text:    "See [docs](https://react.dev/reference) for details",
		Tags:    []string{"react"},
	}
}

func TestStruct_QuestionInput(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		mutate    func(in *models.QuestionInput)
		wantField string
	}{
		{name: "valid", mutate: func(in *models.QuestionInput) {}},
		{name: "title at limit", mutate: func(in *models.QuestionInput) { in.Title = strings.Repeat("t", 50) }},
		{name: "title too long", mutate: func(in *models.QuestionInput) { in.Title = strings.Repeat("t", 51) }, wantField: "title"},
		{name: "summary too long", mutate: func(in *models.QuestionInput) { in.Summary = strings.Repeat("s", 141) }, wantField: "summary"},
		{name: "empty text", mutate: func(in *models.QuestionInput) { in.Text = "" }, wantField: "text"},
		{name: "bad hyperlink", mutate: func(in *models.QuestionInput) { in.Text = "see [docs](ftp://x)" }, wantField: "text"},
		{name: "no tags", mutate: func(in *models.QuestionInput) { in.Tags = nil }, wantField: "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validQuestion()
			tt.mutate(&in)
			err := v.Struct(&in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.KindValidation, appErr.Kind)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestStruct_CommentLength(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Struct(&models.CommentInput{Text: strings.Repeat("c", 140)}))
	err := v.Struct(&models.CommentInput{Text: strings.Repeat("c", 141)})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	// the limit counts characters, not bytes
	assert.NoError(t, v.Struct(&models.CommentInput{Text: strings.Repeat("é", 140)}))
}

func TestValidHyperlinks(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"no links at all", true},
		{"[site](http://example.com)", true},
		{"two [a](https://a.io) and [b](http://b.io/x?y=1)", true},
		{"[](https://example.com)", false},
		{"[label]()", false},
		{"[label](example.com)", false},
		{"[label](https://exa mple.com)", false},
		{"[label](https://ok.com) then [bad](mailto:x@y.z)", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidHyperlinks(tt.text))
		})
	}
}

func TestNormalizeTagName(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "React", want: "react"},
		{raw: "  Go  ", want: "go"},
		{raw: "abcdefghij", want: "abcdefghij"},
		{raw: "abcdefghijk", wantErr: true},
		{raw: "two words", wantErr: true},
		{raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeTagName(tt.raw)
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTagNames(t *testing.T) {
	t.Run("dedupes case-insensitively preserving order", func(t *testing.T) {
		got, err := NormalizeTagNames([]string{"X", "y", "x", "Y", "z"})
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, got)
	})

	t.Run("limit applies after dedupe", func(t *testing.T) {
		got, err := NormalizeTagNames([]string{"a", "b", "c", "d", "e", "A"})
		require.NoError(t, err)
		assert.Len(t, got, 5)
	})

	t.Run("more than five distinct tags", func(t *testing.T) {
		_, err := NormalizeTagNames([]string{"a", "b", "c", "d", "e", "f"})
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	})
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name      string
		in        models.RegisterInput
		wantField string
	}{
		{name: "valid", in: models.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "s3cret!"}},
		{name: "bad email", in: models.RegisterInput{Username: "alice", Email: "alice.example.com", Password: "s3cret!"}, wantField: "email"},
		{name: "password has username", in: models.RegisterInput{Username: "bob", Email: "x@example.com", Password: "myBobpass"}, wantField: "password"},
		{name: "password has email local part", in: models.RegisterInput{Username: "bob", Email: "builder@example.com", Password: "builder123"}, wantField: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(&tt.in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}
