package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/repository"
)

// ErrForeignKey mirrors a NO ACTION foreign key rejecting a delete
var ErrForeignKey = errors.New("foreign key violation")

type row[T any] struct {
	seq int64
	val T
}

type tagRow struct {
	tag       models.Tag
	createdAt time.Time
}

type storeState struct {
	seq          int64
	users        map[string]row[models.User]
	questions    map[string]row[models.Question]
	answers      map[string]row[models.Answer]
	comments     map[string]row[models.Comment]
	tags         map[string]row[tagRow]
	questionTags map[string][]string
}

func newState() *storeState {
	return &storeState{
		users:        make(map[string]row[models.User]),
		questions:    make(map[string]row[models.Question]),
		answers:      make(map[string]row[models.Answer]),
		comments:     make(map[string]row[models.Comment]),
		tags:         make(map[string]row[tagRow]),
		questionTags: make(map[string][]string),
	}
}

func (s *storeState) clone() *storeState {
	c := &storeState{
		seq:          s.seq,
		users:        make(map[string]row[models.User], len(s.users)),
		questions:    make(map[string]row[models.Question], len(s.questions)),
		answers:      make(map[string]row[models.Answer], len(s.answers)),
		comments:     make(map[string]row[models.Comment], len(s.comments)),
		tags:         make(map[string]row[tagRow], len(s.tags)),
		questionTags: make(map[string][]string, len(s.questionTags)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.questions {
		c.questions[k] = v
	}
	for k, v := range s.answers {
		c.answers[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.questionTags {
		c.questionTags[k] = append([]string(nil), v...)
	}
	return c
}

func (s *storeState) next() int64 {
	s.seq++
	return s.seq
}

// MockStore is an in-memory, transactional implementation of every repository.
// Transactions are serialized and a failed transaction restores the prior state.
type MockStore struct {
	mu    sync.Mutex
	state *storeState

	hookMu sync.Mutex
	// Fail is consulted before every repository call with an op name such as
	// "Question.Create"; a non-nil result is returned from that call.
	Fail  func(op string) error
	calls map[string]int
}

// NewMockStore creates an empty store
func NewMockStore() *MockStore {
	return &MockStore{state: newState(), calls: make(map[string]int)}
}

// Repositories returns repositories backed by the store
func (s *MockStore) Repositories() *repository.Repositories {
	repos := s.bind(false)
	repos.Tx = &mockTransactor{store: s}
	return repos
}

// FailOn makes op fail with err for the next times calls, then succeed again
func (s *MockStore) FailOn(op string, err error, times int) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	remaining := times
	s.Fail = func(name string) error {
		if name != op || remaining == 0 {
			return nil
		}
		remaining--
		return err
	}
}

// Calls reports how many times op was invoked
func (s *MockStore) Calls(op string) int {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	return s.calls[op]
}

func (s *MockStore) hook(op string) error {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.calls[op]++
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

func (s *MockStore) bind(inTx bool) *repository.Repositories {
	b := base{store: s, inTx: inTx}
	return &repository.Repositories{
		User:     &mockUserRepo{b},
		Question: &mockQuestionRepo{b},
		Answer:   &mockAnswerRepo{b},
		Comment:  &mockCommentRepo{b},
		Tag:      &mockTagRepo{b},
	}
}

type mockTransactor struct {
	store *MockStore
}

func (t *mockTransactor) WithinTx(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return repository.Classify(err)
	}
	if err := s.hook("Tx.Begin"); err != nil {
		return err
	}

	snapshot := s.state.clone()
	repos := s.bind(true)
	repos.Tx = joined{repos: repos}

	if err := fn(repos); err != nil {
		s.state = snapshot
		return err
	}
	if err := s.hook("Tx.Commit"); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

type joined struct {
	repos *repository.Repositories
}

func (j joined) WithinTx(_ context.Context, fn func(repos *repository.Repositories) error) error {
	return fn(j.repos)
}

// base locks the store for calls made outside a transaction
type base struct {
	store *MockStore
	inTx  bool
}

func (b base) enter(op string) (*storeState, func(), error) {
	unlock := func() {}
	if !b.inTx {
		b.store.mu.Lock()
		unlock = b.store.mu.Unlock
	}
	if err := b.store.hook(op); err != nil {
		unlock()
		return nil, nil, err
	}
	return b.store.state, unlock, nil
}

func sortedRows[T any](m map[string]row[T], keep func(T) bool) []T {
	rows := make([]row[T], 0, len(m))
	for _, r := range m {
		if keep == nil || keep(r.val) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.val)
	}
	return out
}

// Users

type mockUserRepo struct{ base }

func (r *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	st, done, err := r.enter("User.Create")
	if err != nil {
		return err
	}
	defer done()

	email := strings.ToLower(user.Email)
	for _, u := range st.users {
		if u.val.Email == email {
			return fmt.Errorf("%w: users_email", repository.ErrDuplicate)
		}
	}
	u := *user
	u.Email = email
	st.users[u.ID] = row[models.User]{seq: st.next(), val: u}
	return nil
}

func (r *mockUserRepo) find(op string, match func(models.User) bool) (*models.User, error) {
	st, done, err := r.enter(op)
	if err != nil {
		return nil, err
	}
	defer done()

	for _, u := range sortedRows(st.users, match) {
		u := u
		return &u, nil
	}
	return nil, nil
}

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find("User.GetByID", func(u models.User) bool { return u.ID == id })
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find("User.GetByEmail", func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find("User.GetByUsername", func(u models.User) bool { return u.Username == username })
}

func (r *mockUserRepo) List(ctx context.Context) ([]*models.User, error) {
	st, done, err := r.enter("User.List")
	if err != nil {
		return nil, err
	}
	defer done()
	return ptrs(sortedRows(st.users, nil)), nil
}

func (r *mockUserRepo) AdjustReputation(ctx context.Context, id string, delta int) error {
	st, done, err := r.enter("User.AdjustReputation")
	if err != nil {
		return err
	}
	defer done()

	u, ok := st.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.val.Reputation += delta
	st.users[id] = u
	return nil
}

func (r *mockUserRepo) Delete(ctx context.Context, id string) error {
	st, done, err := r.enter("User.Delete")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, q := range st.questions {
		if q.val.UserID == id {
			return fmt.Errorf("%w: questions_user_id", ErrForeignKey)
		}
	}
	for _, a := range st.answers {
		if a.val.UserID == id {
			return fmt.Errorf("%w: answers_user_id", ErrForeignKey)
		}
	}
	for _, c := range st.comments {
		if c.val.UserID == id {
			return fmt.Errorf("%w: comments_user_id", ErrForeignKey)
		}
	}
	// tags.user_id is ON DELETE SET NULL
	for tid, t := range st.tags {
		if t.val.tag.UserID == id {
			t.val.tag.UserID = ""
			st.tags[tid] = t
		}
	}
	delete(st.users, id)
	return nil
}

func (r *mockUserRepo) Count(ctx context.Context) (int, error) {
	st, done, err := r.enter("User.Count")
	if err != nil {
		return 0, err
	}
	defer done()
	return len(st.users), nil
}

func (r *mockUserRepo) StreamAll(ctx context.Context, callback func(*models.User) error) error {
	users, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := callback(u); err != nil {
			return err
		}
	}
	return nil
}

// Questions

type mockQuestionRepo struct{ base }

func (st *storeState) hydrateQuestion(q models.Question) *models.Question {
	q.Tags = []models.Tag{}
	for _, tid := range st.questionTags[q.ID] {
		t := st.tags[tid].val.tag
		q.Tags = append(q.Tags, models.Tag{ID: t.ID, Name: t.Name, UserID: t.UserID})
	}
	q.AnswerIDs = []string{}
	q.LastAnsweredAt = nil
	for _, a := range sortedRows(st.answers, func(a models.Answer) bool { return a.QuestionID == q.ID }) {
		q.AnswerIDs = append(q.AnswerIDs, a.ID)
		at := a.AnsweredAt
		if q.LastAnsweredAt == nil || at.After(*q.LastAnsweredAt) {
			q.LastAnsweredAt = &at
		}
	}
	q.CommentIDs = []string{}
	for _, c := range sortedRows(st.comments, func(c models.Comment) bool {
		return c.ParentType == models.ParentQuestion && c.ParentID == q.ID
	}) {
		q.CommentIDs = append(q.CommentIDs, c.ID)
	}
	return &q
}

func (r *mockQuestionRepo) list(op string, keep func(models.Question) bool) ([]*models.Question, error) {
	st, done, err := r.enter(op)
	if err != nil {
		return nil, err
	}
	defer done()

	var out []*models.Question
	for _, q := range sortedRows(st.questions, keep) {
		out = append(out, st.hydrateQuestion(q))
	}
	return out, nil
}

func (r *mockQuestionRepo) Create(ctx context.Context, question *models.Question) error {
	st, done, err := r.enter("Question.Create")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.users[question.UserID]; !ok {
		return fmt.Errorf("%w: questions_user_id", ErrForeignKey)
	}
	tagIDs := question.TagIDs()
	for _, tid := range tagIDs {
		if _, ok := st.tags[tid]; !ok {
			return fmt.Errorf("%w: question_tags_tag_id", ErrForeignKey)
		}
	}
	q := *question
	q.Tags, q.AnswerIDs, q.CommentIDs, q.LastAnsweredAt = nil, nil, nil, nil
	st.questions[q.ID] = row[models.Question]{seq: st.next(), val: q}
	st.questionTags[q.ID] = tagIDs
	return nil
}

func (r *mockQuestionRepo) Update(ctx context.Context, question *models.Question) error {
	st, done, err := r.enter("Question.Update")
	if err != nil {
		return err
	}
	defer done()

	q, ok := st.questions[question.ID]
	if !ok {
		return repository.ErrNotFound
	}
	q.val.Title, q.val.Summary, q.val.Text = question.Title, question.Summary, question.Text
	st.questions[question.ID] = q
	return nil
}

func (r *mockQuestionRepo) SetTags(ctx context.Context, questionID string, tagIDs []string) error {
	st, done, err := r.enter("Question.SetTags")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.questions[questionID]; !ok {
		return fmt.Errorf("%w: question_tags_question_id", ErrForeignKey)
	}
	for _, tid := range tagIDs {
		if _, ok := st.tags[tid]; !ok {
			return fmt.Errorf("%w: question_tags_tag_id", ErrForeignKey)
		}
	}
	st.questionTags[questionID] = append([]string(nil), tagIDs...)
	return nil
}

func (r *mockQuestionRepo) GetByID(ctx context.Context, id string) (*models.Question, error) {
	qs, err := r.list("Question.GetByID", func(q models.Question) bool { return q.ID == id })
	if err != nil || len(qs) == 0 {
		return nil, err
	}
	return qs[0], nil
}

func (r *mockQuestionRepo) List(ctx context.Context) ([]*models.Question, error) {
	qs, err := r.list("Question.List", nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].AskedAt.After(qs[j].AskedAt) })
	return qs, nil
}

func (r *mockQuestionRepo) ListByUser(ctx context.Context, userID string) ([]*models.Question, error) {
	return r.list("Question.ListByUser", func(q models.Question) bool { return q.UserID == userID })
}

func (r *mockQuestionRepo) ListAnsweredBy(ctx context.Context, userID string) ([]*models.Question, error) {
	st, done, err := r.enter("Question.ListAnsweredBy")
	if err != nil {
		return nil, err
	}
	answered := make(map[string]bool)
	for _, a := range st.answers {
		if a.val.UserID == userID {
			answered[a.val.QuestionID] = true
		}
	}
	var out []*models.Question
	for _, q := range sortedRows(st.questions, func(q models.Question) bool { return answered[q.ID] }) {
		out = append(out, st.hydrateQuestion(q))
	}
	done()
	sort.SliceStable(out, func(i, j int) bool { return out[i].AskedAt.After(out[j].AskedAt) })
	return out, nil
}

func (r *mockQuestionRepo) mutate(op, id string, fn func(q *models.Question)) error {
	st, done, err := r.enter(op)
	if err != nil {
		return err
	}
	defer done()

	q, ok := st.questions[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&q.val)
	st.questions[id] = q
	return nil
}

func (r *mockQuestionRepo) AddVotes(ctx context.Context, id string, delta int) error {
	return r.mutate("Question.AddVotes", id, func(q *models.Question) { q.Votes += delta })
}

func (r *mockQuestionRepo) IncrementViews(ctx context.Context, id string) error {
	return r.mutate("Question.IncrementViews", id, func(q *models.Question) { q.Views++ })
}

func (r *mockQuestionRepo) Delete(ctx context.Context, id string) error {
	st, done, err := r.enter("Question.Delete")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.questions[id]; !ok {
		return repository.ErrNotFound
	}
	for _, a := range st.answers {
		if a.val.QuestionID == id {
			return fmt.Errorf("%w: answers_question_id", ErrForeignKey)
		}
	}
	for _, c := range st.comments {
		if c.val.ParentType == models.ParentQuestion && c.val.ParentID == id {
			return fmt.Errorf("%w: comments_question_id", ErrForeignKey)
		}
	}
	delete(st.questionTags, id)
	delete(st.questions, id)
	return nil
}

func (r *mockQuestionRepo) Count(ctx context.Context) (int, error) {
	st, done, err := r.enter("Question.Count")
	if err != nil {
		return 0, err
	}
	defer done()
	return len(st.questions), nil
}

func (r *mockQuestionRepo) StreamAll(ctx context.Context, callback func(*models.Question) error) error {
	qs, err := r.list("Question.StreamAll", nil)
	if err != nil {
		return err
	}
	for _, q := range qs {
		if err := callback(q); err != nil {
			return err
		}
	}
	return nil
}

// Answers

type mockAnswerRepo struct{ base }

func (st *storeState) hydrateAnswer(a models.Answer) *models.Answer {
	a.CommentIDs = []string{}
	for _, c := range sortedRows(st.comments, func(c models.Comment) bool {
		return c.ParentType == models.ParentAnswer && c.ParentID == a.ID
	}) {
		a.CommentIDs = append(a.CommentIDs, c.ID)
	}
	return &a
}

func (r *mockAnswerRepo) list(op string, keep func(models.Answer) bool) ([]*models.Answer, error) {
	st, done, err := r.enter(op)
	if err != nil {
		return nil, err
	}
	defer done()

	var out []*models.Answer
	for _, a := range sortedRows(st.answers, keep) {
		out = append(out, st.hydrateAnswer(a))
	}
	return out, nil
}

func (r *mockAnswerRepo) Create(ctx context.Context, answer *models.Answer) error {
	st, done, err := r.enter("Answer.Create")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.questions[answer.QuestionID]; !ok {
		return fmt.Errorf("%w: answers_question_id", ErrForeignKey)
	}
	if _, ok := st.users[answer.UserID]; !ok {
		return fmt.Errorf("%w: answers_user_id", ErrForeignKey)
	}
	a := *answer
	a.CommentIDs = nil
	st.answers[a.ID] = row[models.Answer]{seq: st.next(), val: a}
	return nil
}

func (r *mockAnswerRepo) Update(ctx context.Context, answer *models.Answer) error {
	st, done, err := r.enter("Answer.Update")
	if err != nil {
		return err
	}
	defer done()

	a, ok := st.answers[answer.ID]
	if !ok {
		return repository.ErrNotFound
	}
	a.val.Text = answer.Text
	st.answers[answer.ID] = a
	return nil
}

func (r *mockAnswerRepo) GetByID(ctx context.Context, id string) (*models.Answer, error) {
	as, err := r.list("Answer.GetByID", func(a models.Answer) bool { return a.ID == id })
	if err != nil || len(as) == 0 {
		return nil, err
	}
	return as[0], nil
}

func (r *mockAnswerRepo) ListByQuestion(ctx context.Context, questionID string) ([]*models.Answer, error) {
	return r.list("Answer.ListByQuestion", func(a models.Answer) bool { return a.QuestionID == questionID })
}

func (r *mockAnswerRepo) ListByUser(ctx context.Context, userID string) ([]*models.Answer, error) {
	return r.list("Answer.ListByUser", func(a models.Answer) bool { return a.UserID == userID })
}

func (r *mockAnswerRepo) AddVotes(ctx context.Context, id string, delta int) error {
	st, done, err := r.enter("Answer.AddVotes")
	if err != nil {
		return err
	}
	defer done()

	a, ok := st.answers[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.val.Votes += delta
	st.answers[id] = a
	return nil
}

func (r *mockAnswerRepo) Delete(ctx context.Context, id string) error {
	st, done, err := r.enter("Answer.Delete")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.answers[id]; !ok {
		return repository.ErrNotFound
	}
	for _, c := range st.comments {
		if c.val.ParentType == models.ParentAnswer && c.val.ParentID == id {
			return fmt.Errorf("%w: comments_answer_id", ErrForeignKey)
		}
	}
	delete(st.answers, id)
	return nil
}

func (r *mockAnswerRepo) Count(ctx context.Context) (int, error) {
	st, done, err := r.enter("Answer.Count")
	if err != nil {
		return 0, err
	}
	defer done()
	return len(st.answers), nil
}

// Comments

type mockCommentRepo struct{ base }

func (r *mockCommentRepo) list(op string, keep func(models.Comment) bool) ([]*models.Comment, error) {
	st, done, err := r.enter(op)
	if err != nil {
		return nil, err
	}
	defer done()
	return ptrs(sortedRows(st.comments, keep)), nil
}

func (r *mockCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	st, done, err := r.enter("Comment.Create")
	if err != nil {
		return err
	}
	defer done()

	switch comment.ParentType {
	case models.ParentQuestion:
		if _, ok := st.questions[comment.ParentID]; !ok {
			return fmt.Errorf("%w: comments_question_id", ErrForeignKey)
		}
	case models.ParentAnswer:
		if _, ok := st.answers[comment.ParentID]; !ok {
			return fmt.Errorf("%w: comments_answer_id", ErrForeignKey)
		}
	default:
		return fmt.Errorf("unknown comment parent type %q", comment.ParentType)
	}
	if _, ok := st.users[comment.UserID]; !ok {
		return fmt.Errorf("%w: comments_user_id", ErrForeignKey)
	}
	st.comments[comment.ID] = row[models.Comment]{seq: st.next(), val: *comment}
	return nil
}

func (r *mockCommentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	cs, err := r.list("Comment.GetByID", func(c models.Comment) bool { return c.ID == id })
	if err != nil || len(cs) == 0 {
		return nil, err
	}
	return cs[0], nil
}

func (r *mockCommentRepo) ListByParent(ctx context.Context, parentType models.ParentType, parentID string) ([]*models.Comment, error) {
	return r.list("Comment.ListByParent", func(c models.Comment) bool {
		return c.ParentType == parentType && c.ParentID == parentID
	})
}

func (r *mockCommentRepo) ListByUser(ctx context.Context, userID string) ([]*models.Comment, error) {
	return r.list("Comment.ListByUser", func(c models.Comment) bool { return c.UserID == userID })
}

func (r *mockCommentRepo) Upvote(ctx context.Context, id string) error {
	st, done, err := r.enter("Comment.Upvote")
	if err != nil {
		return err
	}
	defer done()

	c, ok := st.comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.val.Votes++
	st.comments[id] = c
	return nil
}

func (r *mockCommentRepo) Delete(ctx context.Context, id string) error {
	st, done, err := r.enter("Comment.Delete")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(st.comments, id)
	return nil
}

func (r *mockCommentRepo) DeleteByParent(ctx context.Context, parentType models.ParentType, parentID string) (int, error) {
	st, done, err := r.enter("Comment.DeleteByParent")
	if err != nil {
		return 0, err
	}
	defer done()

	n := 0
	for id, c := range st.comments {
		if c.val.ParentType == parentType && c.val.ParentID == parentID {
			delete(st.comments, id)
			n++
		}
	}
	return n, nil
}

func (r *mockCommentRepo) Count(ctx context.Context) (int, error) {
	st, done, err := r.enter("Comment.Count")
	if err != nil {
		return 0, err
	}
	defer done()
	return len(st.comments), nil
}

// Tags

type mockTagRepo struct{ base }

func (st *storeState) tagWithCount(t models.Tag) *models.Tag {
	t.QuestionCount = 0
	for _, tids := range st.questionTags {
		for _, tid := range tids {
			if tid == t.ID {
				t.QuestionCount++
			}
		}
	}
	return &t
}

func (r *mockTagRepo) list(op string, keep func(models.Tag) bool) ([]*models.Tag, error) {
	st, done, err := r.enter(op)
	if err != nil {
		return nil, err
	}
	defer done()

	var out []*models.Tag
	for _, t := range sortedRows(st.tags, func(t tagRow) bool { return keep == nil || keep(t.tag) }) {
		out = append(out, st.tagWithCount(t.tag))
	}
	return out, nil
}

func (r *mockTagRepo) Create(ctx context.Context, tag *models.Tag) error {
	st, done, err := r.enter("Tag.Create")
	if err != nil {
		return err
	}
	defer done()

	for _, t := range st.tags {
		if t.val.tag.Name == tag.Name {
			return fmt.Errorf("%w: tags_name_key", repository.ErrDuplicate)
		}
	}
	if tag.UserID != "" {
		if _, ok := st.users[tag.UserID]; !ok {
			return fmt.Errorf("%w: tags_user_id", ErrForeignKey)
		}
	}
	t := *tag
	t.QuestionCount = 0
	st.tags[t.ID] = row[tagRow]{seq: st.next(), val: tagRow{tag: t, createdAt: time.Now()}}
	return nil
}

func (r *mockTagRepo) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	ts, err := r.list("Tag.GetByID", func(t models.Tag) bool { return t.ID == id })
	if err != nil || len(ts) == 0 {
		return nil, err
	}
	return ts[0], nil
}

func (r *mockTagRepo) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	ts, err := r.list("Tag.GetByName", func(t models.Tag) bool { return t.Name == name })
	if err != nil || len(ts) == 0 {
		return nil, err
	}
	return ts[0], nil
}

func (r *mockTagRepo) List(ctx context.Context) ([]*models.Tag, error) {
	ts, err := r.list("Tag.List", nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name < ts[j].Name })
	return ts, nil
}

func (r *mockTagRepo) ListByUser(ctx context.Context, userID string) ([]*models.Tag, error) {
	return r.list("Tag.ListByUser", func(t models.Tag) bool { return t.UserID == userID })
}

func (r *mockTagRepo) Rename(ctx context.Context, id, name string) error {
	st, done, err := r.enter("Tag.Rename")
	if err != nil {
		return err
	}
	defer done()

	t, ok := st.tags[id]
	if !ok {
		return repository.ErrNotFound
	}
	for oid, other := range st.tags {
		if oid != id && other.val.tag.Name == name {
			return fmt.Errorf("%w: tags_name_key", repository.ErrDuplicate)
		}
	}
	t.val.tag.Name = name
	st.tags[id] = t
	return nil
}

func (r *mockTagRepo) UsedByOthers(ctx context.Context, tagID, creatorID string) (bool, error) {
	st, done, err := r.enter("Tag.UsedByOthers")
	if err != nil {
		return false, err
	}
	defer done()

	for qid, tids := range st.questionTags {
		for _, tid := range tids {
			if tid == tagID && st.questions[qid].val.UserID != creatorID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *mockTagRepo) Unlink(ctx context.Context, id string) (int, error) {
	st, done, err := r.enter("Tag.Unlink")
	if err != nil {
		return 0, err
	}
	defer done()

	n := 0
	for qid, tids := range st.questionTags {
		kept := tids[:0:0]
		for _, tid := range tids {
			if tid == id {
				n++
				continue
			}
			kept = append(kept, tid)
		}
		st.questionTags[qid] = kept
	}
	return n, nil
}

func (r *mockTagRepo) ClearCreator(ctx context.Context, id string) error {
	st, done, err := r.enter("Tag.ClearCreator")
	if err != nil {
		return err
	}
	defer done()

	t, ok := st.tags[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.val.tag.UserID = ""
	st.tags[id] = t
	return nil
}

func (r *mockTagRepo) Delete(ctx context.Context, id string) error {
	st, done, err := r.enter("Tag.Delete")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.tags[id]; !ok {
		return repository.ErrNotFound
	}
	for _, tids := range st.questionTags {
		for _, tid := range tids {
			if tid == id {
				return fmt.Errorf("%w: question_tags_tag_id", ErrForeignKey)
			}
		}
	}
	delete(st.tags, id)
	return nil
}

func (r *mockTagRepo) Count(ctx context.Context) (int, error) {
	st, done, err := r.enter("Tag.Count")
	if err != nil {
		return 0, err
	}
	defer done()
	return len(st.tags), nil
}

func (r *mockTagRepo) StreamAll(ctx context.Context, callback func(*models.Tag) error) error {
	tags, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, t := range tags {
		if err := callback(t); err != nil {
			return err
		}
	}
	return nil
}

func ptrs[T any](vals []T) []*T {
	out := make([]*T, 0, len(vals))
	for i := range vals {
		out = append(out, &vals[i])
	}
	return out
}

var (
	_ repository.UserRepository     = (*mockUserRepo)(nil)
	_ repository.QuestionRepository = (*mockQuestionRepo)(nil)
	_ repository.AnswerRepository   = (*mockAnswerRepo)(nil)
	_ repository.CommentRepository  = (*mockCommentRepo)(nil)
	_ repository.TagRepository      = (*mockTagRepo)(nil)
	_ repository.Transactor         = (*mockTransactor)(nil)
)
