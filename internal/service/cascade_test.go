package service

import (
	"testing"

	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type thread struct {
	question        *models.Question
	answerID        string
	questionComment string
	answerComment   string
}

// thread builds a question by asker with one answer by answerer and a
// comment on each, both written by commenter
func (f *fixture) thread(t *testing.T, asker, answerer, commenter *models.User, title string) thread {
	t.Helper()
	q := f.ask(t, asker, title, "go")
	refreshed, err := f.svc.Answer.Post(f.ctx, answerer.ID, q.ID, "answer to "+title)
	require.NoError(t, err)
	aid := refreshed.AnswerIDs[0]

	qc, err := f.svc.Comment.Post(f.ctx, models.ParentQuestion, q.ID, commenter.ID, "on question")
	require.NoError(t, err)
	ac, err := f.svc.Comment.Post(f.ctx, models.ParentAnswer, aid, commenter.ID, "on answer")
	require.NoError(t, err)

	return thread{question: q, answerID: aid, questionComment: qc.ID, answerComment: ac.ID}
}

func TestQuestionDelete_Cascades(t *testing.T) {
	f := newFixture(t)
	asker := f.user(t, "asker", 100)
	answerer := f.user(t, "answerer", 100)
	commenter := f.user(t, "commenter", 100)
	th := f.thread(t, asker, answerer, commenter, "Doomed")
	kept := f.thread(t, asker, answerer, commenter, "Kept")

	require.NoError(t, f.svc.Question.Delete(f.ctx, th.question.ID))

	_, err := f.svc.Question.Get(f.ctx, th.question.ID)
	assertKind(t, err, apperrors.KindNotFound)
	_, err = f.svc.Answer.Get(f.ctx, th.answerID)
	assertKind(t, err, apperrors.KindNotFound)
	_, err = f.svc.Comment.Get(f.ctx, th.questionComment)
	assertKind(t, err, apperrors.KindNotFound)
	_, err = f.svc.Comment.Get(f.ctx, th.answerComment)
	assertKind(t, err, apperrors.KindNotFound)

	askerProfile, err := f.svc.User.Get(f.ctx, asker.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.question.ID}, askerProfile.QuestionsAsked)

	answererProfile, err := f.svc.User.Get(f.ctx, answerer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.answerID}, answererProfile.AnswersPosted)

	commenterProfile, err := f.svc.User.Get(f.ctx, commenter.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.questionComment, kept.answerComment}, commenterProfile.CommentsPosted)

	tag, err := f.repos.Tag.GetByName(f.ctx, "go")
	require.NoError(t, err)
	require.NotNil(t, tag, "tags outlive their questions")
	assert.Equal(t, 1, tag.QuestionCount)

	assertKind(t, f.svc.Question.Delete(f.ctx, th.question.ID), apperrors.KindNotFound)
}

func TestQuestionDelete_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "u", 100)
	th := f.thread(t, u, u, u, "Sticky")
	f.store.FailOn("Question.Delete", assert.AnError, 1)

	assertKind(t, f.svc.Question.Delete(f.ctx, th.question.ID), apperrors.KindInternal)

	got, err := f.svc.Question.Get(f.ctx, th.question.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{th.answerID}, got.AnswerIDs)
	assert.Equal(t, []string{th.questionComment}, got.CommentIDs)
	_, err = f.svc.Comment.Get(f.ctx, th.answerComment)
	require.NoError(t, err)
}

func TestUserDelete_Cascades(t *testing.T) {
	f := newFixture(t)
	doomed := f.user(t, "doomed", 100)
	other := f.user(t, "other", 100)

	// Tags created by doomed: "shared" is used by other, "private" is not
	own := f.ask(t, doomed, "Own question", "shared", "private")
	otherQ := f.ask(t, other, "Other question", "shared")
	sharedID, privateID := own.Tags[0].ID, own.Tags[1].ID

	// doomed's content under other's question and other's content under doomed's question
	refreshed, err := f.svc.Answer.Post(f.ctx, doomed.ID, otherQ.ID, "doomed answers")
	require.NoError(t, err)
	doomedAnswer := refreshed.AnswerIDs[0]
	doomedComment, err := f.svc.Comment.Post(f.ctx, models.ParentQuestion, otherQ.ID, doomed.ID, "doomed comments")
	require.NoError(t, err)
	refreshed, err = f.svc.Answer.Post(f.ctx, other.ID, own.ID, "other answers")
	require.NoError(t, err)
	otherAnswerOnOwn := refreshed.AnswerIDs[0]
	otherCommentOnOwnAnswer, err := f.svc.Comment.Post(f.ctx, models.ParentAnswer, otherAnswerOnOwn, other.ID, "other comments")
	require.NoError(t, err)

	require.NoError(t, f.svc.User.Delete(f.ctx, doomed.ID))

	_, err = f.svc.User.Get(f.ctx, doomed.ID)
	assertKind(t, err, apperrors.KindNotFound)
	_, err = f.svc.Question.Get(f.ctx, own.ID)
	assertKind(t, err, apperrors.KindNotFound)
	_, err = f.svc.Answer.Get(f.ctx, otherAnswerOnOwn)
	assertKind(t, err, apperrors.KindNotFound)
	_, err = f.svc.Comment.Get(f.ctx, otherCommentOnOwnAnswer.ID)
	assertKind(t, err, apperrors.KindNotFound)

	got, err := f.svc.Question.Get(f.ctx, otherQ.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.AnswerIDs, doomedAnswer)
	assert.NotContains(t, got.CommentIDs, doomedComment.ID)
	assert.Equal(t, []string{"shared"}, tagNames(got))

	shared, err := f.svc.Tag.Get(f.ctx, sharedID)
	require.NoError(t, err)
	assert.Empty(t, shared.UserID, "tag in use by others survives without a creator")
	_, err = f.svc.Tag.Get(f.ctx, privateID)
	assertKind(t, err, apperrors.KindNotFound)

	otherProfile, err := f.svc.User.Get(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{otherQ.ID}, otherProfile.QuestionsAsked)
	assert.Empty(t, otherProfile.AnswersPosted)
	assert.Empty(t, otherProfile.CommentsPosted)

	// A tag without a creator can no longer be deleted or renamed
	assertKind(t, f.svc.Tag.Delete(f.ctx, sharedID), apperrors.KindNotFound)
	_, err = f.svc.Tag.Rename(f.ctx, sharedID, "renamed")
	assertKind(t, err, apperrors.KindNotFound)

	assertKind(t, f.svc.User.Delete(f.ctx, doomed.ID), apperrors.KindNotFound)
}
