package repository

import (
	"context"

	"github.com/utafrali/review-admin/internal/domain"
)

// ReviewRepository is the storage collaborator for reviews. Implementations
// return apperrors.NotFound for unknown ids and must be safe for concurrent
// use.
type ReviewRepository interface {
	// List returns every review, newest first by date and then by id.
	List(ctx context.Context) ([]domain.Review, error)

	// GetByID returns one review including its history.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Create stores a new review. A duplicate id is a conflict.
	Create(ctx context.Context, review *domain.Review) error

	// UpdateStatus sets the moderation status, appends entry to the history
	// and returns the updated review.
	UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus, entry domain.HistoryEntry) (*domain.Review, error)

	// UpdateComment replaces the comment, appends entry to the history and
	// returns the updated review.
	UpdateComment(ctx context.Context, id, comment string, entry domain.HistoryEntry) (*domain.Review, error)

	// Delete removes a review.
	Delete(ctx context.Context, id string) error

	// Summary aggregates counts and the average rating over all reviews.
	Summary(ctx context.Context) (*domain.ReviewSummary, error)
}

// SettingsRepository persists the store's review settings. Get returns the
// defaults when nothing has been saved yet.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, settings *domain.Settings) error
}
