package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/qa-forum-api/internal/models"
)

// answerRepo is the concrete implementation of AnswerRepository
type answerRepo struct {
	db querier
}

const answerColumns = `id, question_id, text, votes, ans_by, user_id, answered_at`

// Create inserts a new answer
func (r *answerRepo) Create(ctx context.Context, answer *models.Answer) error {
	query := `
		INSERT INTO answers (id, question_id, text, votes, ans_by, user_id, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		answer.ID, answer.QuestionID, answer.Text, answer.Votes,
		answer.AnsBy, answer.UserID, answer.AnsweredAt,
	)
	return Classify(err)
}

// Update rewrites the answer text
func (r *answerRepo) Update(ctx context.Context, answer *models.Answer) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE answers SET text = $2 WHERE id = $1`, answer.ID, answer.Text))
}

// GetByID retrieves an answer by ID
func (r *answerRepo) GetByID(ctx context.Context, id string) (*models.Answer, error) {
	answers, err := r.query(ctx, `WHERE id = $1`, id)
	if err != nil || len(answers) == 0 {
		return nil, err
	}
	return answers[0], nil
}

// ListByQuestion returns a question's answers in posting order
func (r *answerRepo) ListByQuestion(ctx context.Context, questionID string) ([]*models.Answer, error) {
	return r.query(ctx, `WHERE question_id = $1 ORDER BY answered_at, id`, questionID)
}

// ListByUser returns a user's answers in posting order
func (r *answerRepo) ListByUser(ctx context.Context, userID string) ([]*models.Answer, error) {
	return r.query(ctx, `WHERE user_id = $1 ORDER BY answered_at, id`, userID)
}

// AddVotes atomically adds delta to the answer's votes
func (r *answerRepo) AddVotes(ctx context.Context, id string, delta int) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE answers SET votes = votes + $2 WHERE id = $1`, id, delta))
}

// Delete removes an answer row
func (r *answerRepo) Delete(ctx context.Context, id string) error {
	return requireRow(r.db.ExecContext(ctx, `DELETE FROM answers WHERE id = $1`, id))
}

// Count returns the total number of answers
func (r *answerRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM answers").Scan(&count)
	return count, Classify(err)
}

func (r *answerRepo) query(ctx context.Context, clause string, args ...any) ([]*models.Answer, error) {
	var answers []*models.Answer
	err := eachRow(ctx, r.db, `SELECT `+answerColumns+` FROM answers `+clause, args, func(rows *sql.Rows) error {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Votes, &a.AnsBy, &a.UserID, &a.AnsweredAt); err != nil {
			return err
		}
		a.CommentIDs = []string{}
		answers = append(answers, &a)
		return nil
	})
	if err != nil || len(answers) == 0 {
		return answers, err
	}

	byID := make(map[string]*models.Answer, len(answers))
	ids := make([]string, 0, len(answers))
	for _, a := range answers {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	err = eachRow(ctx, r.db, `
		SELECT answer_id, id FROM comments
		WHERE answer_id = ANY($1)
		ORDER BY created_at, id`, []any{pq.Array(ids)}, func(rows *sql.Rows) error {
		var aid, cid string
		if err := rows.Scan(&aid, &cid); err != nil {
			return err
		}
		byID[aid].CommentIDs = append(byID[aid].CommentIDs, cid)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return answers, nil
}
