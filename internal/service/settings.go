package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/review-admin/internal/domain"
	"github.com/utafrali/review-admin/internal/event"
	"github.com/utafrali/review-admin/internal/repository"
	apperrors "github.com/utafrali/review-admin/pkg/errors"
	"github.com/utafrali/review-admin/pkg/validator"
)

// SettingsService reads and updates the store's review settings.
type SettingsService struct {
	repo     repository.SettingsRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo repository.SettingsRepository, producer *event.Producer, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	st, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

// Update replaces the settings after validating them. UpdatedAt is set by
// the service; any value in the input is ignored.
func (s *SettingsService) Update(ctx context.Context, input *domain.Settings) (*domain.Settings, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("settings are required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	st := input.Clone()
	st.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	if err := s.producer.PublishSettingsUpdated(ctx, st); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review_settings.updated event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review settings updated",
		slog.Bool("auto_approve", st.AutoApprove),
		slog.Bool("reviews_enabled", st.ReviewsEnabled),
		slog.Int("reviews_per_page", st.ReviewsPerPage),
	)

	return st, nil
}
