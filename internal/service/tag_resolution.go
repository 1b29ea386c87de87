package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/policy"
	"github.com/qa-forum-api/internal/repository"
)

// resolveTag returns the tag with the normalized name, creating it for user when
// missing. Creating requires the gated privilege. Runs inside the caller's
// transaction, so a later failure discards the new tag.
func resolveTag(ctx context.Context, repos *repository.Repositories, pol policy.Policy, user *models.User, name string) (*models.Tag, bool, error) {
	existing, err := repos.Tag.GetByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if err := pol.RequireGated(user, fmt.Sprintf("create the new tag %q", name)); err != nil {
		return nil, false, err
	}

	tag := &models.Tag{ID: uuid.New().String(), Name: name, UserID: user.ID}
	if err := repos.Tag.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent creator; the retried unit of work reuses the winner
			return nil, false, apperrors.Transient(err)
		}
		return nil, false, err
	}
	return tag, true, nil
}

// resolveTags resolves every normalized name in order, all or nothing
func resolveTags(ctx context.Context, repos *repository.Repositories, pol policy.Policy, user *models.User, names []string) ([]models.Tag, int, error) {
	tags := make([]models.Tag, 0, len(names))
	created := 0
	for _, name := range names {
		tag, isNew, err := resolveTag(ctx, repos, pol, user, name)
		if err != nil {
			return nil, 0, err
		}
		if isNew {
			created++
		}
		tags = append(tags, models.Tag{ID: tag.ID, Name: tag.Name, UserID: tag.UserID})
	}
	return tags, created, nil
}
