package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qa-forum-api/internal/models"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db querier
}

const commentColumns = `id, question_id, answer_id, text, votes, comment_by, user_id, created_at`

// parentColumn maps a parent type onto its foreign key column
func parentColumn(parentType models.ParentType) (string, error) {
	switch parentType {
	case models.ParentQuestion:
		return "question_id", nil
	case models.ParentAnswer:
		return "answer_id", nil
	default:
		return "", fmt.Errorf("unknown comment parent type %q", parentType)
	}
}

func scanComment(rows *sql.Rows) (*models.Comment, error) {
	var c models.Comment
	var questionID, answerID sql.NullString
	if err := rows.Scan(
		&c.ID, &questionID, &answerID, &c.Text, &c.Votes,
		&c.CommentBy, &c.UserID, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if questionID.Valid {
		c.ParentType, c.ParentID = models.ParentQuestion, questionID.String
	} else {
		c.ParentType, c.ParentID = models.ParentAnswer, answerID.String
	}
	return &c, nil
}

// Create inserts a new comment under its parent
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	var questionID, answerID sql.NullString
	switch comment.ParentType {
	case models.ParentQuestion:
		questionID = sql.NullString{String: comment.ParentID, Valid: true}
	case models.ParentAnswer:
		answerID = sql.NullString{String: comment.ParentID, Valid: true}
	default:
		return fmt.Errorf("unknown comment parent type %q", comment.ParentType)
	}

	query := `
		INSERT INTO comments (id, question_id, answer_id, text, votes, comment_by, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, questionID, answerID, comment.Text, comment.Votes,
		comment.CommentBy, comment.UserID, comment.CreatedAt,
	)
	return Classify(err)
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	comments, err := r.query(ctx, `WHERE id = $1`, id)
	if err != nil || len(comments) == 0 {
		return nil, err
	}
	return comments[0], nil
}

// ListByParent returns the comments of a question or answer, oldest first
func (r *commentRepo) ListByParent(ctx context.Context, parentType models.ParentType, parentID string) ([]*models.Comment, error) {
	col, err := parentColumn(parentType)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, `WHERE `+col+` = $1 ORDER BY created_at, id`, parentID)
}

// ListByUser returns a user's comments, oldest first
func (r *commentRepo) ListByUser(ctx context.Context, userID string) ([]*models.Comment, error) {
	return r.query(ctx, `WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

// Upvote atomically increments a comment's votes
func (r *commentRepo) Upvote(ctx context.Context, id string) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE comments SET votes = votes + 1 WHERE id = $1`, id))
}

// Delete removes a comment row
func (r *commentRepo) Delete(ctx context.Context, id string) error {
	return requireRow(r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id))
}

// DeleteByParent removes every comment under a parent and reports how many went
func (r *commentRepo) DeleteByParent(ctx context.Context, parentType models.ParentType, parentID string) (int, error) {
	col, err := parentColumn(parentType)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE `+col+` = $1`, parentID)
	if err != nil {
		return 0, Classify(err)
	}
	n, err := res.RowsAffected()
	return int(n), Classify(err)
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, Classify(err)
}

func (r *commentRepo) query(ctx context.Context, clause string, args ...any) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := eachRow(ctx, r.db, `SELECT `+commentColumns+` FROM comments `+clause, args, func(rows *sql.Rows) error {
		c, err := scanComment(rows)
		if err != nil {
			return err
		}
		comments = append(comments, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}
