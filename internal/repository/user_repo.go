package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/qa-forum-api/internal/models"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db querier
}

const userColumns = `id, username, email, password_hash, reputation, is_admin, registered_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Reputation, &user.IsAdmin, &user.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, reputation, is_admin, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, strings.ToLower(user.Email), user.PasswordHash,
		user.Reputation, user.IsAdmin, user.RegisteredAt,
	)
	return Classify(err)
}

func (r *userRepo) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, Classify(err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

// GetByUsername retrieves the earliest registered user with the given username
func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1 ORDER BY registered_at LIMIT 1", username)
}

// List returns all users ordered by registration date
func (r *userRepo) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.StreamAll(ctx, func(u *models.User) error {
		users = append(users, u)
		return nil
	})
	return users, err
}

// AdjustReputation atomically adds delta to a user's reputation
func (r *userRepo) AdjustReputation(ctx context.Context, id string, delta int) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE users SET reputation = reputation + $2 WHERE id = $1`, id, delta))
}

// Delete removes a user row
func (r *userRepo) Delete(ctx context.Context, id string) error {
	return requireRow(r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id))
}

// Count returns the total number of users
func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, Classify(err)
}

// StreamAll streams all users in registration order
func (r *userRepo) StreamAll(ctx context.Context, callback func(*models.User) error) error {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY registered_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return Classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return Classify(err)
		}
		if err := callback(user); err != nil {
			return err
		}
	}

	return Classify(rows.Err())
}
