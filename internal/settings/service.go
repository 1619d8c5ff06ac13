package settings

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Service interface {
	Get(ctx context.Context) (SiteSettings, error)
	Update(ctx context.Context, key, value string) (SiteSettings, error)
	UpdateMany(ctx context.Context, values map[string]string) (SiteSettings, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context) (SiteSettings, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load site settings")
		return SiteSettings{}, fmt.Errorf("service: failed to load site settings: %w", err)
	}
	return Merge(rows), nil
}

func (s *service) Update(ctx context.Context, key, value string) (SiteSettings, error) {
	return s.UpdateMany(ctx, map[string]string{key: value})
}

// UpdateMany rejects the whole set if any key is unknown, then returns the
// settings as re-read from the store.
func (s *service) UpdateMany(ctx context.Context, values map[string]string) (SiteSettings, error) {
	for key := range values {
		if !IsKnownKey(key) {
			log.Warn().Str("key", key).Msg("service: rejected unknown site setting")
			return SiteSettings{}, fmt.Errorf("%w: %q", ErrUnknownSetting, key)
		}
	}

	if err := s.repo.Upsert(ctx, values); err != nil {
		log.Error().Err(err).Int("keys", len(values)).Msg("service: failed to save site settings")
		return SiteSettings{}, fmt.Errorf("service: failed to save site settings: %w", err)
	}

	log.Info().Int("keys", len(values)).Msg("service: site settings updated successfully")
	return s.Get(ctx)
}
