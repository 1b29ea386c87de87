package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/repository"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	*deps
	log zerolog.Logger
}

func newCommentService(d *deps) *commentService {
	return &commentService{
		deps: d,
		log:  d.log.With().Str("service", "comment").Logger(),
	}
}

func validParent(parentType models.ParentType) error {
	if parentType != models.ParentQuestion && parentType != models.ParentAnswer {
		return apperrors.Validation("parent_type", "must be question or answer")
	}
	return nil
}

// parentExists checks the question or answer a comment hangs off
func parentExists(ctx context.Context, repos *repository.Repositories, parentType models.ParentType, parentID string) error {
	var found bool
	switch parentType {
	case models.ParentQuestion:
		q, err := repos.Question.GetByID(ctx, parentID)
		if err != nil {
			return err
		}
		found = q != nil
	case models.ParentAnswer:
		a, err := repos.Answer.GetByID(ctx, parentID)
		if err != nil {
			return err
		}
		found = a != nil
	}
	if !found {
		return apperrors.NotFound(string(parentType), parentID)
	}
	return nil
}

// Post attaches a comment to a question or an answer. Commenting is gated.
func (s *commentService) Post(ctx context.Context, parentType models.ParentType, parentID, userID, text string) (*models.Comment, error) {
	if err := validParent(parentType); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(models.CommentInput{Text: text}); err != nil {
		return nil, err
	}

	var created *models.Comment
	err := s.run.run(ctx, "comment.post", func(ctx context.Context, repos *repository.Repositories) error {
		user, err := repos.User.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NotFound("user", userID)
		}
		if err := s.policy.RequireGated(user, "comment"); err != nil {
			return err
		}
		if err := parentExists(ctx, repos, parentType, parentID); err != nil {
			return err
		}

		c := &models.Comment{
			ID:         uuid.New().String(),
			ParentType: parentType,
			ParentID:   parentID,
			Text:       text,
			CommentBy:  user.Username,
			UserID:     user.ID,
			CreatedAt:  s.now(),
		}
		if err := repos.Comment.Create(ctx, c); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("comment_id", created.ID).Str("parent_type", string(parentType)).Str("parent_id", parentID).Msg("Comment posted")
	return created, nil
}

// Upvote adds one vote to the comment. It is not gated and moves no reputation.
func (s *commentService) Upvote(ctx context.Context, commentID string) (*models.Comment, error) {
	var voted *models.Comment
	err := s.run.run(ctx, "comment.upvote", func(ctx context.Context, repos *repository.Repositories) error {
		if err := repos.Comment.Upvote(ctx, commentID); err != nil {
			if apperrors.KindOf(normalize(err)) == apperrors.KindNotFound {
				return apperrors.NotFound("comment", commentID)
			}
			return err
		}
		var err error
		voted, err = repos.Comment.GetByID(ctx, commentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	votesTotal.WithLabelValues("comment", "up").Inc()
	return voted, nil
}

func (s *commentService) Get(ctx context.Context, commentID string) (*models.Comment, error) {
	c, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, normalize(err)
	}
	if c == nil {
		return nil, apperrors.NotFound("comment", commentID)
	}
	return c, nil
}

// ListByParent returns the comments of a question or answer, oldest first
func (s *commentService) ListByParent(ctx context.Context, parentType models.ParentType, parentID string) ([]*models.Comment, error) {
	if err := validParent(parentType); err != nil {
		return nil, err
	}
	if err := parentExists(ctx, s.repos, parentType, parentID); err != nil {
		return nil, normalize(err)
	}
	comments, err := s.repos.Comment.ListByParent(ctx, parentType, parentID)
	if err != nil {
		return nil, normalize(err)
	}
	return comments, nil
}
