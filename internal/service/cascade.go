package service

import (
	"context"

	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/repository"
	"github.com/rs/zerolog"
)

// cascadeCounts tallies what a cascade delete removed
type cascadeCounts struct {
	Questions    int
	Answers      int
	Comments     int
	Tags         int
	OrphanedTags int
	Users        int
}

func (c *cascadeCounts) record(root string, log zerolog.Logger, id string) {
	for entity, n := range map[string]int{
		"question": c.Questions, "answer": c.Answers, "comment": c.Comments,
		"tag": c.Tags, "user": c.Users,
	} {
		if n > 0 {
			cascadeDeletesTotal.WithLabelValues(root, entity).Add(float64(n))
		}
	}
	log.Info().
		Str("root", root).
		Str("id", id).
		Int("questions", c.Questions).
		Int("answers", c.Answers).
		Int("comments", c.Comments).
		Int("tags", c.Tags).
		Int("orphaned_tags", c.OrphanedTags).
		Msg("Cascade delete completed")
}

// deleteAnswerTree removes an answer and its comments
func deleteAnswerTree(ctx context.Context, repos *repository.Repositories, answerID string, c *cascadeCounts) error {
	n, err := repos.Comment.DeleteByParent(ctx, models.ParentAnswer, answerID)
	if err != nil {
		return err
	}
	c.Comments += n
	if err := repos.Answer.Delete(ctx, answerID); err != nil {
		return err
	}
	c.Answers++
	return nil
}

// deleteQuestionTree removes a question, its answers with their comments,
// its own comments and its tag links
func deleteQuestionTree(ctx context.Context, repos *repository.Repositories, questionID string, c *cascadeCounts) error {
	answers, err := repos.Answer.ListByQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	for _, a := range answers {
		if err := deleteAnswerTree(ctx, repos, a.ID, c); err != nil {
			return err
		}
	}

	n, err := repos.Comment.DeleteByParent(ctx, models.ParentQuestion, questionID)
	if err != nil {
		return err
	}
	c.Comments += n

	if err := repos.Question.Delete(ctx, questionID); err != nil {
		return err
	}
	c.Questions++
	return nil
}

// tagCreator loads the creator of a tag, NotFound when the tag or creator is gone
func tagCreator(ctx context.Context, repos *repository.Repositories, tagID string) (*models.Tag, *models.User, error) {
	tag, err := repos.Tag.GetByID(ctx, tagID)
	if err != nil {
		return nil, nil, err
	}
	if tag == nil {
		return nil, nil, apperrors.NotFound("tag", tagID)
	}
	if tag.UserID == "" {
		return nil, nil, apperrors.NotFound("creator of tag", tagID)
	}
	creator, err := repos.User.GetByID(ctx, tag.UserID)
	if err != nil {
		return nil, nil, err
	}
	if creator == nil {
		return nil, nil, apperrors.NotFound("creator of tag", tagID)
	}
	return tag, creator, nil
}

// requireNotUsedByOthers fails with Forbidden when another user's question references the tag
func requireNotUsedByOthers(ctx context.Context, repos *repository.Repositories, tag *models.Tag, creatorID string) error {
	used, err := repos.Tag.UsedByOthers(ctx, tag.ID, creatorID)
	if err != nil {
		return err
	}
	if used {
		return apperrors.Forbidden("tag " + tag.Name + " is in use by other users")
	}
	return nil
}

// deleteTagUnchecked unlinks a tag from every question and removes it
func deleteTagUnchecked(ctx context.Context, repos *repository.Repositories, tagID string, c *cascadeCounts) error {
	if _, err := repos.Tag.Unlink(ctx, tagID); err != nil {
		return err
	}
	if err := repos.Tag.Delete(ctx, tagID); err != nil {
		return err
	}
	c.Tags++
	return nil
}

// deleteUserTree removes a user and everything they own. Tags still used by
// other users' questions survive without a creator.
func deleteUserTree(ctx context.Context, repos *repository.Repositories, userID string, c *cascadeCounts) error {
	tags, err := repos.Tag.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		used, err := repos.Tag.UsedByOthers(ctx, tag.ID, userID)
		if err != nil {
			return err
		}
		if used {
			if err := repos.Tag.ClearCreator(ctx, tag.ID); err != nil {
				return err
			}
			c.OrphanedTags++
			continue
		}
		if err := deleteTagUnchecked(ctx, repos, tag.ID, c); err != nil {
			return err
		}
	}

	questions, err := repos.Question.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, q := range questions {
		if err := deleteQuestionTree(ctx, repos, q.ID, c); err != nil {
			return err
		}
	}

	answers, err := repos.Answer.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, a := range answers {
		if err := deleteAnswerTree(ctx, repos, a.ID, c); err != nil {
			return err
		}
	}

	comments, err := repos.Comment.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, cm := range comments {
		if err := repos.Comment.Delete(ctx, cm.ID); err != nil {
			return err
		}
		c.Comments++
	}

	if err := repos.User.Delete(ctx, userID); err != nil {
		return err
	}
	c.Users++
	return nil
}
