package service

import (
	"context"

	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
	"github.com/qa-forum-api/internal/repository"
	"github.com/qa-forum-api/internal/validation"
	"github.com/rs/zerolog"
)

// tagService is the concrete implementation of TagService
type tagService struct {
	*deps
	log zerolog.Logger
}

func newTagService(d *deps) *tagService {
	return &tagService{
		deps: d,
		log:  d.log.With().Str("service", "tag").Logger(),
	}
}

// Create returns the tag with the normalized name, creating it when missing
func (s *tagService) Create(ctx context.Context, userID, name string) (*models.Tag, error) {
	normalized, err := validation.NormalizeTagName(name)
	if err != nil {
		return nil, err
	}

	var tag *models.Tag
	err = s.run.run(ctx, "tag.create", func(ctx context.Context, repos *repository.Repositories) error {
		user, err := repos.User.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NotFound("user", userID)
		}
		resolved, isNew, err := resolveTag(ctx, repos, s.policy, user, normalized)
		if err != nil {
			return err
		}
		if isNew {
			s.log.Info().Str("tag_id", resolved.ID).Str("name", normalized).Str("user_id", userID).Msg("Tag created")
		}
		tag, err = repos.Tag.GetByID(ctx, resolved.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// Rename changes a tag's name unless another user's question uses it
func (s *tagService) Rename(ctx context.Context, tagID, name string) (*models.Tag, error) {
	var renamed *models.Tag
	err := s.run.run(ctx, "tag.rename", func(ctx context.Context, repos *repository.Repositories) error {
		tag, creator, err := tagCreator(ctx, repos, tagID)
		if err != nil {
			return err
		}
		if err := requireNotUsedByOthers(ctx, repos, tag, creator.ID); err != nil {
			return err
		}
		normalized, err := validation.NormalizeTagName(name)
		if err != nil {
			return err
		}
		if normalized == tag.Name {
			renamed = tag
			return nil
		}

		other, err := repos.Tag.GetByName(ctx, normalized)
		if err != nil {
			return err
		}
		if other != nil {
			return apperrors.Conflict("tag " + normalized + " already exists")
		}
		if err := repos.Tag.Rename(ctx, tagID, normalized); err != nil {
			return err
		}
		renamed, err = repos.Tag.GetByID(ctx, tagID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// Delete removes a tag that only its creator's questions use
func (s *tagService) Delete(ctx context.Context, tagID string) error {
	var counts cascadeCounts
	err := s.run.run(ctx, "tag.delete", func(ctx context.Context, repos *repository.Repositories) error {
		counts = cascadeCounts{}
		tag, creator, err := tagCreator(ctx, repos, tagID)
		if err != nil {
			return err
		}
		if err := requireNotUsedByOthers(ctx, repos, tag, creator.ID); err != nil {
			return err
		}
		return deleteTagUnchecked(ctx, repos, tagID, &counts)
	})
	if err != nil {
		return err
	}
	counts.record("tag", s.log, tagID)
	return nil
}

func (s *tagService) Get(ctx context.Context, tagID string) (*models.Tag, error) {
	tag, err := s.repos.Tag.GetByID(ctx, tagID)
	if err != nil {
		return nil, normalize(err)
	}
	if tag == nil {
		return nil, apperrors.NotFound("tag", tagID)
	}
	return tag, nil
}

// List returns every tag with its question count
func (s *tagService) List(ctx context.Context) ([]*models.Tag, error) {
	tags, err := s.repos.Tag.List(ctx)
	if err != nil {
		return nil, normalize(err)
	}
	return tags, nil
}

func (s *tagService) ListByUser(ctx context.Context, userID string) ([]*models.Tag, error) {
	tags, err := s.repos.Tag.ListByUser(ctx, userID)
	if err != nil {
		return nil, normalize(err)
	}
	return tags, nil
}
