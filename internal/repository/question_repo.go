package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/qa-forum-api/internal/models"
)

// questionRepo is the concrete implementation of QuestionRepository
type questionRepo struct {
	db querier
}

const questionColumns = `q.id, q.title, q.summary, q.text, q.views, q.votes, q.asked_by, q.user_id, q.asked_at`

// streamBatchSize bounds how many questions StreamAll hydrates per round trip
const streamBatchSize = 100

// Create inserts a question together with its tag links
func (r *questionRepo) Create(ctx context.Context, question *models.Question) error {
	query := `
		INSERT INTO questions (id, title, summary, text, views, votes, asked_by, user_id, asked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		question.ID, question.Title, question.Summary, question.Text,
		question.Views, question.Votes, question.AskedBy, question.UserID, question.AskedAt,
	)
	if err != nil {
		return Classify(err)
	}
	return r.SetTags(ctx, question.ID, question.TagIDs())
}

// Update rewrites the editable fields of a question
func (r *questionRepo) Update(ctx context.Context, question *models.Question) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE questions SET title = $2, summary = $3, text = $4 WHERE id = $1`,
		question.ID, question.Title, question.Summary, question.Text,
	))
}

// SetTags replaces the tag links of a question, preserving the given order
func (r *questionRepo) SetTags(ctx context.Context, questionID string, tagIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM question_tags WHERE question_id = $1`, questionID); err != nil {
		return Classify(err)
	}
	for i, tagID := range tagIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO question_tags (question_id, tag_id, position) VALUES ($1, $2, $3)`,
			questionID, tagID, i,
		)
		if err != nil {
			return Classify(err)
		}
	}
	return nil
}

// GetByID retrieves a question by ID
func (r *questionRepo) GetByID(ctx context.Context, id string) (*models.Question, error) {
	questions, err := r.query(ctx, `WHERE q.id = $1`, id)
	if err != nil || len(questions) == 0 {
		return nil, err
	}
	return questions[0], nil
}

// List returns all questions, newest first
func (r *questionRepo) List(ctx context.Context) ([]*models.Question, error) {
	return r.query(ctx, `ORDER BY q.asked_at DESC, q.id`)
}

// ListByUser returns the questions a user asked, oldest first
func (r *questionRepo) ListByUser(ctx context.Context, userID string) ([]*models.Question, error) {
	return r.query(ctx, `WHERE q.user_id = $1 ORDER BY q.asked_at, q.id`, userID)
}

// ListAnsweredBy returns questions the user has posted at least one answer to, newest first
func (r *questionRepo) ListAnsweredBy(ctx context.Context, userID string) ([]*models.Question, error) {
	return r.query(ctx, `
		WHERE q.id IN (SELECT question_id FROM answers WHERE user_id = $1)
		ORDER BY q.asked_at DESC, q.id`, userID)
}

// AddVotes atomically adds delta to the question's votes
func (r *questionRepo) AddVotes(ctx context.Context, id string, delta int) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE questions SET votes = votes + $2 WHERE id = $1`, id, delta))
}

// IncrementViews atomically bumps the view counter
func (r *questionRepo) IncrementViews(ctx context.Context, id string) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE questions SET views = views + 1 WHERE id = $1`, id))
}

// Delete removes the question row and its tag links
func (r *questionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM question_tags WHERE question_id = $1`, id); err != nil {
		return Classify(err)
	}
	return requireRow(r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id))
}

// Count returns the total number of questions
func (r *questionRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions").Scan(&count)
	return count, Classify(err)
}

// StreamAll streams every question in ask order, hydrating one page at a time
func (r *questionRepo) StreamAll(ctx context.Context, callback func(*models.Question) error) error {
	var (
		afterTime time.Time
		afterID   string
	)
	for {
		page, err := r.query(ctx, `
			WHERE (q.asked_at, q.id) > ($1, $2)
			ORDER BY q.asked_at, q.id
			LIMIT $3`, afterTime, afterID, streamBatchSize)
		if err != nil {
			return err
		}
		for _, q := range page {
			if err := callback(q); err != nil {
				return err
			}
		}
		if len(page) < streamBatchSize {
			return nil
		}
		last := page[len(page)-1]
		afterTime, afterID = last.AskedAt, last.ID
	}
}

func (r *questionRepo) query(ctx context.Context, clause string, args ...any) ([]*models.Question, error) {
	var questions []*models.Question
	err := eachRow(ctx, r.db, `SELECT `+questionColumns+` FROM questions q `+clause, args, func(rows *sql.Rows) error {
		var q models.Question
		if err := rows.Scan(
			&q.ID, &q.Title, &q.Summary, &q.Text, &q.Views, &q.Votes,
			&q.AskedBy, &q.UserID, &q.AskedAt,
		); err != nil {
			return err
		}
		questions = append(questions, &q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// hydrate fills tags and derived answer/comment ids with one query per relation
func (r *questionRepo) hydrate(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	byID := make(map[string]*models.Question, len(questions))
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		q.Tags = []models.Tag{}
		q.AnswerIDs = []string{}
		q.CommentIDs = []string{}
		byID[q.ID] = q
		ids = append(ids, q.ID)
	}
	args := []any{pq.Array(ids)}

	err := eachRow(ctx, r.db, `
		SELECT qt.question_id, t.id, t.name, COALESCE(t.user_id, '')
		FROM question_tags qt JOIN tags t ON t.id = qt.tag_id
		WHERE qt.question_id = ANY($1)
		ORDER BY qt.question_id, qt.position`, args, func(rows *sql.Rows) error {
		var qid string
		var tag models.Tag
		if err := rows.Scan(&qid, &tag.ID, &tag.Name, &tag.UserID); err != nil {
			return err
		}
		byID[qid].Tags = append(byID[qid].Tags, tag)
		return nil
	})
	if err != nil {
		return err
	}

	err = eachRow(ctx, r.db, `
		SELECT question_id, id, answered_at FROM answers
		WHERE question_id = ANY($1)
		ORDER BY answered_at, id`, args, func(rows *sql.Rows) error {
		var qid, aid string
		var at time.Time
		if err := rows.Scan(&qid, &aid, &at); err != nil {
			return err
		}
		q := byID[qid]
		q.AnswerIDs = append(q.AnswerIDs, aid)
		if q.LastAnsweredAt == nil || at.After(*q.LastAnsweredAt) {
			q.LastAnsweredAt = &at
		}
		return nil
	})
	if err != nil {
		return err
	}

	return eachRow(ctx, r.db, `
		SELECT question_id, id FROM comments
		WHERE question_id = ANY($1)
		ORDER BY created_at, id`, args, func(rows *sql.Rows) error {
		var qid, cid string
		if err := rows.Scan(&qid, &cid); err != nil {
			return err
		}
		byID[qid].CommentIDs = append(byID[qid].CommentIDs, cid)
		return nil
	})
}
