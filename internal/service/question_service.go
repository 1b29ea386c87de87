package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/repository"
	"github.com/qa-forum-api/internal/search"
	"github.com/qa-forum-api/internal/validation"
	"github.com/rs/zerolog"
)

// questionService is the concrete implementation of QuestionService
type questionService struct {
	*deps
	log zerolog.Logger
}

func newQuestionService(d *deps) *questionService {
	return &questionService{
		deps: d,
		log:  d.log.With().Str("service", "question").Logger(),
	}
}

// Create validates the input, resolves tags and inserts the question as one unit of work
func (s *questionService) Create(ctx context.Context, userID string, in models.QuestionInput) (*models.Question, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	names, err := validation.NormalizeTagNames(in.Tags)
	if err != nil {
		return nil, err
	}

	var created *models.Question
	err = s.run.run(ctx, "question.create", func(ctx context.Context, repos *repository.Repositories) error {
		user, err := repos.User.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NotFound("user", userID)
		}

		tags, newTags, err := resolveTags(ctx, repos, s.policy, user, names)
		if err != nil {
			return err
		}

		q := &models.Question{
			ID:      uuid.New().String(),
			Title:   in.Title,
			Summary: in.Summary,
			Text:    in.Text,
			Tags:    tags,
			AskedBy: user.Username,
			UserID:  user.ID,
			AskedAt: s.now(),
		}
		if err := repos.Question.Create(ctx, q); err != nil {
			return err
		}

		created, err = repos.Question.GetByID(ctx, q.ID)
		if err != nil {
			return err
		}
		s.log.Info().Str("question_id", q.ID).Str("user_id", userID).Int("new_tags", newTags).Msg("Question created")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Edit replaces the question's content and tags. New tags are created on
// behalf of the question's owner and require the owner's privilege.
func (s *questionService) Edit(ctx context.Context, questionID string, in models.QuestionInput) (*models.Question, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	names, err := validation.NormalizeTagNames(in.Tags)
	if err != nil {
		return nil, err
	}

	var updated *models.Question
	err = s.run.run(ctx, "question.edit", func(ctx context.Context, repos *repository.Repositories) error {
		q, err := repos.Question.GetByID(ctx, questionID)
		if err != nil {
			return err
		}
		if q == nil {
			return apperrors.NotFound("question", questionID)
		}
		owner, err := repos.User.GetByID(ctx, q.UserID)
		if err != nil {
			return err
		}
		if owner == nil {
			return apperrors.NotFound("owner of question", questionID)
		}

		tags, _, err := resolveTags(ctx, repos, s.policy, owner, names)
		if err != nil {
			return err
		}

		q.Title = in.Title
		q.Summary = in.Summary
		q.Text = in.Text
		q.Tags = tags
		if err := repos.Question.Update(ctx, q); err != nil {
			return err
		}
		if err := repos.Question.SetTags(ctx, q.ID, q.TagIDs()); err != nil {
			return err
		}

		updated, err = repos.Question.GetByID(ctx, q.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the question with its answers and every comment underneath
func (s *questionService) Delete(ctx context.Context, questionID string) error {
	var counts cascadeCounts
	err := s.run.run(ctx, "question.delete", func(ctx context.Context, repos *repository.Repositories) error {
		counts = cascadeCounts{}
		q, err := repos.Question.GetByID(ctx, questionID)
		if err != nil {
			return err
		}
		if q == nil {
			return apperrors.NotFound("question", questionID)
		}
		owner, err := repos.User.GetByID(ctx, q.UserID)
		if err != nil {
			return err
		}
		if owner == nil {
			return apperrors.NotFound("owner of question", questionID)
		}
		return deleteQuestionTree(ctx, repos, questionID, &counts)
	})
	if err != nil {
		return err
	}
	counts.record("question", s.log, questionID)
	return nil
}

func (s *questionService) Get(ctx context.Context, questionID string) (*models.Question, error) {
	q, err := s.repos.Question.GetByID(ctx, questionID)
	if err != nil {
		return nil, normalize(err)
	}
	if q == nil {
		return nil, apperrors.NotFound("question", questionID)
	}
	return q, nil
}

// List returns every question arranged by the requested order
func (s *questionService) List(ctx context.Context, order models.QuestionOrder) ([]*models.Question, error) {
	if order == "" {
		order = models.OrderNewest
	}
	if !models.ValidQuestionOrders[order] {
		return nil, apperrors.Validation("sort", "unknown order "+string(order))
	}
	questions, err := s.repos.Question.List(ctx)
	if err != nil {
		return nil, normalize(err)
	}
	return search.Order(questions, order), nil
}

// Search returns questions matching any [tag] or word in query, newest first
func (s *questionService) Search(ctx context.Context, query string) ([]*models.Question, error) {
	if search.Parse(query).Empty() {
		return []*models.Question{}, nil
	}
	questions, err := s.repos.Question.List(ctx)
	if err != nil {
		return nil, normalize(err)
	}
	return search.Filter(query, questions), nil
}

func (s *questionService) ListByUser(ctx context.Context, userID string) ([]*models.Question, error) {
	questions, err := s.repos.Question.ListByUser(ctx, userID)
	if err != nil {
		return nil, normalize(err)
	}
	return questions, nil
}

func (s *questionService) ListAnsweredBy(ctx context.Context, userID string) ([]*models.Question, error) {
	questions, err := s.repos.Question.ListAnsweredBy(ctx, userID)
	if err != nil {
		return nil, normalize(err)
	}
	return questions, nil
}

// Vote applies a vote to the question and the matching reputation change to its owner
func (s *questionService) Vote(ctx context.Context, voterID, questionID string, delta int) (*models.Question, error) {
	var voted *models.Question
	err := s.run.run(ctx, "question.vote", func(ctx context.Context, repos *repository.Repositories) error {
		q, err := repos.Question.GetByID(ctx, questionID)
		if err != nil {
			return err
		}
		if q == nil {
			return apperrors.NotFound("question", questionID)
		}
		if err := applyVote(ctx, repos, s.deps, voterID, q.UserID, delta); err != nil {
			return err
		}
		if err := repos.Question.AddVotes(ctx, questionID, delta); err != nil {
			return err
		}
		voted, err = repos.Question.GetByID(ctx, questionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	votesTotal.WithLabelValues("question", direction(delta)).Inc()
	return voted, nil
}

// IncrementViews bumps the view counter by one
func (s *questionService) IncrementViews(ctx context.Context, questionID string) (*models.Question, error) {
	var viewed *models.Question
	err := s.run.run(ctx, "question.view", func(ctx context.Context, repos *repository.Repositories) error {
		if err := repos.Question.IncrementViews(ctx, questionID); err != nil {
			if apperrors.KindOf(normalize(err)) == apperrors.KindNotFound {
				return apperrors.NotFound("question", questionID)
			}
			return err
		}
		var err error
		viewed, err = repos.Question.GetByID(ctx, questionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return viewed, nil
}

// applyVote checks the voter against the policy and moves the owner's reputation
func applyVote(ctx context.Context, repos *repository.Repositories, d *deps, voterID, ownerID string, delta int) error {
	voter, err := repos.User.GetByID(ctx, voterID)
	if err != nil {
		return err
	}
	if voter == nil {
		return apperrors.NotFound("user", voterID)
	}
	effect, err := d.policy.CheckVote(voter, ownerID, delta)
	if err != nil {
		return err
	}
	if err := repos.User.AdjustReputation(ctx, ownerID, effect.ReputationDelta); err != nil {
		if apperrors.KindOf(normalize(err)) == apperrors.KindNotFound {
			return apperrors.NotFound("owner", ownerID)
		}
		return err
	}
	return nil
}
