package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/repository"
	"github.com/rs/zerolog"
)

const exportFlushEvery = 100

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

func unsupportedFormat(format string) error {
	return apperrors.Validation("format", "unsupported format: "+format)
}

// StreamUsers streams users in the specified format. Password hashes are never written.
func (s *exportService) StreamUsers(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting users export")

	var count int
	var err error
	switch format {
	case "ndjson":
		count, err = streamNDJSON(ctx, w, "users", s.repos.User.StreamAll)
	case "json":
		count, err = streamJSON(ctx, w, "users", s.repos.User.StreamAll)
	case "csv":
		count, err = streamCSV(ctx, w, "users",
			[]string{"id", "username", "email", "reputation", "is_admin", "registration_date"},
			s.repos.User.StreamAll,
			func(u *models.User) []string {
				return []string{
					u.ID,
					u.Username,
					u.Email,
					strconv.Itoa(u.Reputation),
					strconv.FormatBool(u.IsAdmin),
					u.RegisteredAt.UTC().Format(time.RFC3339),
				}
			})
	default:
		return unsupportedFormat(format)
	}

	s.log.Info().Int("count", count).Msg("Users export completed")
	return normalize(err)
}

// StreamQuestions streams questions with their tags and derived child ids
func (s *exportService) StreamQuestions(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting questions export")

	var count int
	var err error
	switch format {
	case "ndjson":
		count, err = streamNDJSON(ctx, w, "questions", s.repos.Question.StreamAll)
	case "json":
		count, err = streamJSON(ctx, w, "questions", s.repos.Question.StreamAll)
	default:
		return unsupportedFormat(format)
	}

	s.log.Info().Int("count", count).Msg("Questions export completed")
	return normalize(err)
}

// StreamTags streams tags with their question counts
func (s *exportService) StreamTags(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting tags export")

	var count int
	var err error
	switch format {
	case "ndjson":
		count, err = streamNDJSON(ctx, w, "tags", s.repos.Tag.StreamAll)
	case "json":
		count, err = streamJSON(ctx, w, "tags", s.repos.Tag.StreamAll)
	case "csv":
		count, err = streamCSV(ctx, w, "tags",
			[]string{"id", "name", "user_id", "question_count"},
			s.repos.Tag.StreamAll,
			func(t *models.Tag) []string {
				return []string{t.ID, t.Name, t.UserID, strconv.Itoa(t.QuestionCount)}
			})
	default:
		return unsupportedFormat(format)
	}

	s.log.Info().Int("count", count).Msg("Tags export completed")
	return normalize(err)
}

// GetCount returns count for a resource
func (s *exportService) GetCount(ctx context.Context, resource string) (int, error) {
	var n int
	var err error
	switch resource {
	case "users":
		n, err = s.repos.User.Count(ctx)
	case "questions":
		n, err = s.repos.Question.Count(ctx)
	case "answers":
		n, err = s.repos.Answer.Count(ctx)
	case "comments":
		n, err = s.repos.Comment.Count(ctx)
	case "tags":
		n, err = s.repos.Tag.Count(ctx)
	default:
		return 0, apperrors.Validation("resource", "unknown resource: "+resource)
	}
	return n, normalize(err)
}

func streamNDJSON[T any](ctx context.Context, w http.ResponseWriter, name string, stream func(context.Context, func(*T) error) error) (int, error) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename="+name+".ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	err := stream(ctx, func(item *T) error {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++

		// Flush every 100 records for streaming
		if count%exportFlushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func streamJSON[T any](ctx context.Context, w http.ResponseWriter, name string, stream func(context.Context, func(*T) error) error) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+name+".json")

	flusher, _ := w.(http.Flusher)
	count := 0

	if _, err := w.Write([]byte("[")); err != nil {
		return 0, err
	}
	err := stream(ctx, func(item *T) error {
		if count > 0 {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++
		if count%exportFlushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	w.Write([]byte("]"))
	return count, err
}

func streamCSV[T any](ctx context.Context, w http.ResponseWriter, name string, header []string, stream func(context.Context, func(*T) error) error, record func(*T) []string) (int, error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+name+".csv")

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return 0, err
	}
	count := 0
	err := stream(ctx, func(item *T) error {
		if err := writer.Write(record(item)); err != nil {
			return err
		}
		count++
		if count%exportFlushEvery == 0 {
			writer.Flush()
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		return nil
	})
	return count, err
}
