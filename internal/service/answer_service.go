package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/repository"
	"github.com/rs/zerolog"
)

// answerService is the concrete implementation of AnswerService
type answerService struct {
	*deps
	log zerolog.Logger
}

func newAnswerService(d *deps) *answerService {
	return &answerService{
		deps: d,
		log:  d.log.With().Str("service", "answer").Logger(),
	}
}

// Post adds an answer to the question and returns the refreshed question
func (s *answerService) Post(ctx context.Context, userID, questionID, text string) (*models.Question, error) {
	if err := s.validator.Struct(models.AnswerInput{Text: text}); err != nil {
		return nil, err
	}

	var question *models.Question
	err := s.run.run(ctx, "answer.post", func(ctx context.Context, repos *repository.Repositories) error {
		user, err := repos.User.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NotFound("user", userID)
		}
		q, err := repos.Question.GetByID(ctx, questionID)
		if err != nil {
			return err
		}
		if q == nil {
			return apperrors.NotFound("question", questionID)
		}

		a := &models.Answer{
			ID:         uuid.New().String(),
			QuestionID: questionID,
			Text:       text,
			AnsBy:      user.Username,
			UserID:     user.ID,
			AnsweredAt: s.now(),
		}
		if err := repos.Answer.Create(ctx, a); err != nil {
			return err
		}
		s.log.Info().Str("answer_id", a.ID).Str("question_id", questionID).Msg("Answer posted")

		question, err = repos.Question.GetByID(ctx, questionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// Edit replaces the answer text
func (s *answerService) Edit(ctx context.Context, answerID, text string) (*models.Answer, error) {
	if err := s.validator.Struct(models.AnswerInput{Text: text}); err != nil {
		return nil, err
	}

	var updated *models.Answer
	err := s.run.run(ctx, "answer.edit", func(ctx context.Context, repos *repository.Repositories) error {
		a, err := repos.Answer.GetByID(ctx, answerID)
		if err != nil {
			return err
		}
		if a == nil {
			return apperrors.NotFound("answer", answerID)
		}
		a.Text = text
		if err := repos.Answer.Update(ctx, a); err != nil {
			return err
		}
		updated, err = repos.Answer.GetByID(ctx, answerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the answer and its comments
func (s *answerService) Delete(ctx context.Context, answerID string) error {
	var counts cascadeCounts
	err := s.run.run(ctx, "answer.delete", func(ctx context.Context, repos *repository.Repositories) error {
		counts = cascadeCounts{}
		a, err := repos.Answer.GetByID(ctx, answerID)
		if err != nil {
			return err
		}
		if a == nil {
			return apperrors.NotFound("answer", answerID)
		}
		owner, err := repos.User.GetByID(ctx, a.UserID)
		if err != nil {
			return err
		}
		if owner == nil {
			return apperrors.NotFound("owner of answer", answerID)
		}
		q, err := repos.Question.GetByID(ctx, a.QuestionID)
		if err != nil {
			return err
		}
		if q == nil {
			return apperrors.NotFound("question", a.QuestionID)
		}
		return deleteAnswerTree(ctx, repos, answerID, &counts)
	})
	if err != nil {
		return err
	}
	counts.record("answer", s.log, answerID)
	return nil
}

func (s *answerService) Get(ctx context.Context, answerID string) (*models.Answer, error) {
	a, err := s.repos.Answer.GetByID(ctx, answerID)
	if err != nil {
		return nil, normalize(err)
	}
	if a == nil {
		return nil, apperrors.NotFound("answer", answerID)
	}
	return a, nil
}

// ListByQuestion returns the question's answers oldest first
func (s *answerService) ListByQuestion(ctx context.Context, questionID string) ([]*models.Answer, error) {
	q, err := s.repos.Question.GetByID(ctx, questionID)
	if err != nil {
		return nil, normalize(err)
	}
	if q == nil {
		return nil, apperrors.NotFound("question", questionID)
	}
	answers, err := s.repos.Answer.ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, normalize(err)
	}
	return answers, nil
}

func (s *answerService) ListByUser(ctx context.Context, userID string) ([]*models.Answer, error) {
	answers, err := s.repos.Answer.ListByUser(ctx, userID)
	if err != nil {
		return nil, normalize(err)
	}
	return answers, nil
}

// Vote applies a vote to the answer and the matching reputation change to its owner
func (s *answerService) Vote(ctx context.Context, voterID, answerID string, delta int) (*models.Answer, error) {
	var voted *models.Answer
	err := s.run.run(ctx, "answer.vote", func(ctx context.Context, repos *repository.Repositories) error {
		a, err := repos.Answer.GetByID(ctx, answerID)
		if err != nil {
			return err
		}
		if a == nil {
			return apperrors.NotFound("answer", answerID)
		}
		if err := applyVote(ctx, repos, s.deps, voterID, a.UserID, delta); err != nil {
			return err
		}
		if err := repos.Answer.AddVotes(ctx, answerID, delta); err != nil {
			return err
		}
		voted, err = repos.Answer.GetByID(ctx, answerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	votesTotal.WithLabelValues("answer", direction(delta)).Inc()
	return voted, nil
}
