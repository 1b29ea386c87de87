package service

import (
	"strings"
	"testing"

	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentPost(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", 100)
	q := f.ask(t, owner, "Q", "go")

	t.Run("reputation 49 is rejected", func(t *testing.T) {
		low := f.user(t, "low", 49)
		_, err := f.svc.Comment.Post(f.ctx, models.ParentQuestion, q.ID, low.ID, "hello")
		assertKind(t, err, apperrors.KindForbidden)
	})

	t.Run("reputation 50 comments on a question", func(t *testing.T) {
		mid := f.user(t, "mid", 50)
		c, err := f.svc.Comment.Post(f.ctx, models.ParentQuestion, q.ID, mid.ID, "hello")
		require.NoError(t, err)
		assert.Equal(t, "mid", c.CommentBy)

		got, err := f.svc.Question.Get(f.ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{c.ID}, got.CommentIDs)
	})

	t.Run("admin comments on an answer", func(t *testing.T) {
		refreshed, err := f.svc.Answer.Post(f.ctx, owner.ID, q.ID, "answer")
		require.NoError(t, err)
		root := f.admin(t, "root")

		c, err := f.svc.Comment.Post(f.ctx, models.ParentAnswer, refreshed.AnswerIDs[0], root.ID, "nice")
		require.NoError(t, err)

		comments, err := f.svc.Comment.ListByParent(f.ctx, models.ParentAnswer, refreshed.AnswerIDs[0])
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, c.ID, comments[0].ID)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := f.svc.Comment.Post(f.ctx, models.ParentQuestion, q.ID, owner.ID, strings.Repeat("c", 141))
		assertKind(t, err, apperrors.KindValidation)
		_, err = f.svc.Comment.Post(f.ctx, models.ParentQuestion, q.ID, owner.ID, "")
		assertKind(t, err, apperrors.KindValidation)
		_, err = f.svc.Comment.Post(f.ctx, "article", q.ID, owner.ID, "hi")
		assertKind(t, err, apperrors.KindValidation)
	})

	t.Run("missing parent or user", func(t *testing.T) {
		_, err := f.svc.Comment.Post(f.ctx, models.ParentQuestion, "missing", owner.ID, "hi")
		assertKind(t, err, apperrors.KindNotFound)
		_, err = f.svc.Comment.Post(f.ctx, models.ParentAnswer, "missing", owner.ID, "hi")
		assertKind(t, err, apperrors.KindNotFound)
		_, err = f.svc.Comment.Post(f.ctx, models.ParentQuestion, q.ID, "missing", "hi")
		assertKind(t, err, apperrors.KindNotFound)
	})
}

func TestCommentUpvote(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", 100)
	q := f.ask(t, owner, "Q", "go")
	c, err := f.svc.Comment.Post(f.ctx, models.ParentQuestion, q.ID, owner.ID, "comment")
	require.NoError(t, err)

	up, err := f.svc.Comment.Upvote(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, up.Votes)
	assert.Equal(t, 100, f.reputation(t, owner.ID))

	_, err = f.svc.Comment.Upvote(f.ctx, "missing")
	assertKind(t, err, apperrors.KindNotFound)
}
