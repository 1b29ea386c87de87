package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/qa-forum-api/internal/models"
)

// tagRepo is the concrete implementation of TagRepository
type tagRepo struct {
	db querier
}

// Create inserts a new tag; a taken name yields ErrDuplicate
func (r *tagRepo) Create(ctx context.Context, tag *models.Tag) error {
	var creator sql.NullString
	if tag.UserID != "" {
		creator = sql.NullString{String: tag.UserID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, name, user_id, created_at) VALUES ($1, $2, $3, $4)`,
		tag.ID, tag.Name, creator, time.Now().UTC(),
	)
	return Classify(err)
}

// GetByID retrieves a tag by ID
func (r *tagRepo) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	tags, err := r.query(ctx, `WHERE t.id = $1 GROUP BY t.id`, id)
	if err != nil || len(tags) == 0 {
		return nil, err
	}
	return tags[0], nil
}

// GetByName retrieves a tag by its normalized name
func (r *tagRepo) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	tags, err := r.query(ctx, `WHERE t.name = $1 GROUP BY t.id`, name)
	if err != nil || len(tags) == 0 {
		return nil, err
	}
	return tags[0], nil
}

// List returns every tag with the number of questions referencing it
func (r *tagRepo) List(ctx context.Context) ([]*models.Tag, error) {
	return r.query(ctx, `GROUP BY t.id ORDER BY t.name`)
}

// ListByUser returns tags created by a user, oldest first
func (r *tagRepo) ListByUser(ctx context.Context, userID string) ([]*models.Tag, error) {
	return r.query(ctx, `WHERE t.user_id = $1 GROUP BY t.id ORDER BY t.created_at, t.id`, userID)
}

// Rename changes a tag's name; a taken name yields ErrDuplicate
func (r *tagRepo) Rename(ctx context.Context, id, name string) error {
	return requireRow(r.db.ExecContext(ctx, `UPDATE tags SET name = $2 WHERE id = $1`, id, name))
}

// UsedByOthers reports whether any question referencing the tag belongs to someone other than creatorID
func (r *tagRepo) UsedByOthers(ctx context.Context, tagID, creatorID string) (bool, error) {
	var used bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM question_tags qt JOIN questions q ON q.id = qt.question_id
			WHERE qt.tag_id = $1 AND q.user_id <> $2
		)`, tagID, creatorID).Scan(&used)
	return used, Classify(err)
}

// Unlink removes the tag from every question and reports how many links went
func (r *tagRepo) Unlink(ctx context.Context, id string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM question_tags WHERE tag_id = $1`, id)
	if err != nil {
		return 0, Classify(err)
	}
	n, err := res.RowsAffected()
	return int(n), Classify(err)
}

// ClearCreator orphans a tag
func (r *tagRepo) ClearCreator(ctx context.Context, id string) error {
	return requireRow(r.db.ExecContext(ctx, `UPDATE tags SET user_id = NULL WHERE id = $1`, id))
}

// Delete removes a tag row
func (r *tagRepo) Delete(ctx context.Context, id string) error {
	return requireRow(r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id))
}

// Count returns the total number of tags
func (r *tagRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tags").Scan(&count)
	return count, Classify(err)
}

// StreamAll streams all tags by name
func (r *tagRepo) StreamAll(ctx context.Context, callback func(*models.Tag) error) error {
	tags, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if err := callback(tag); err != nil {
			return err
		}
	}
	return nil
}

func (r *tagRepo) query(ctx context.Context, clause string, args ...any) ([]*models.Tag, error) {
	query := `
		SELECT t.id, t.name, COALESCE(t.user_id, ''), COUNT(qt.question_id)
		FROM tags t LEFT JOIN question_tags qt ON qt.tag_id = t.id ` + clause

	var tags []*models.Tag
	err := eachRow(ctx, r.db, query, args, func(rows *sql.Rows) error {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.UserID, &tag.QuestionCount); err != nil {
			return err
		}
		tags = append(tags, &tag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}
