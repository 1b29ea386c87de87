package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/rs/zerolog"
)

const (
	// maxReportedErrors caps the per-line errors kept in a report
	maxReportedErrors = 1000
	// importCancelCheckEvery is how many lines pass between context checks
	importCancelCheckEvery = 1000
	maxImportLineBytes     = 1024 * 1024
)

// importService is the concrete implementation of ImportService
type importService struct {
	questions QuestionService
	log       zerolog.Logger
	now       func() time.Time
}

// newImportService creates a new ImportService
func newImportService(questions QuestionService, d *deps) *importService {
	return &importService{
		questions: questions,
		log:       d.log.With().Str("service", "import").Logger(),
		now:       d.now,
	}
}

// ImportQuestions reads one QuestionInput per NDJSON line and asks each as userID.
// Every line is its own unit of work: a rejected line never undoes an earlier one,
// and input that becomes unreadable ends the import with Incomplete set.
func (s *importService) ImportQuestions(ctx context.Context, userID string, r io.Reader) (*models.ImportReport, error) {
	startTime := time.Now()
	report := &models.ImportReport{
		Resource:   "questions",
		CreatedIDs: []string{},
		StartedAt:  s.now(),
	}

	defer func() { report.DurationMs = time.Since(startTime).Milliseconds() }()

	s.log.Info().Str("user_id", userID).Msg("Starting question import")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLineBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		report.TotalRecords++

		if lineNum%importCancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				report.Incomplete = true
				return report, apperrors.Transient(err)
			}
		}

		var in models.QuestionInput
		if err := json.Unmarshal([]byte(line), &in); err != nil {
			s.reject(report, lineNum, apperrors.Validation("json", fmt.Sprintf("invalid JSON: %v", err)))
			continue
		}

		question, err := s.questions.Create(ctx, userID, in)
		if err != nil {
			// An unknown importer fails every line, so stop at the first one
			if apperrors.Is(err, apperrors.KindNotFound) && report.Successful == 0 {
				return report, err
			}
			s.reject(report, lineNum, err)
			continue
		}
		report.Successful++
		report.CreatedIDs = append(report.CreatedIDs, question.ID)
	}
	// Lines before an unreadable one are already committed; the report says where it stopped
	if err := scanner.Err(); err != nil {
		report.Incomplete = true
		s.reject(report, lineNum+1, apperrors.Validation("body", fmt.Sprintf("input unreadable from here on: %v", err)))
		s.log.Warn().Err(err).Int("line", lineNum+1).Msg("Question import stopped early")
	}

	s.log.Info().
		Str("user_id", userID).
		Int("total", report.TotalRecords).
		Int("successful", report.Successful).
		Int("failed", report.Failed).
		Bool("incomplete", report.Incomplete).
		Dur("elapsed", time.Since(startTime)).
		Msg("Question import completed")

	return report, nil
}

func (s *importService) reject(report *models.ImportReport, line int, err error) {
	report.Failed++
	if len(report.Errors) >= maxReportedErrors {
		report.Truncated = true
		return
	}

	lineErr := models.LineError{Line: line, Kind: string(apperrors.KindOf(err)), Message: err.Error()}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		lineErr.Field = appErr.Field
		lineErr.Message = appErr.Message
	}
	report.Errors = append(report.Errors, lineErr)
}
