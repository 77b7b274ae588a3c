package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/review-admin/internal/domain"
	"github.com/utafrali/review-admin/internal/event"
	apperrors "github.com/utafrali/review-admin/pkg/errors"
	"github.com/utafrali/review-admin/pkg/validator"
)

var _ event.Submitter = (*ReviewService)(nil)

// SubmitReview stores a review sent by the storefront, applying the store's
// collection settings. The review starts published when auto-approve is on
// and pending otherwise.
func (s *ReviewService) SubmitReview(ctx context.Context, input domain.ReviewSubmission) (*domain.Review, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if !st.ReviewsEnabled {
		return nil, apperrors.InvalidInput("reviews are disabled for this store")
	}

	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	comment := s.sanitize(input.Comment)
	switch {
	case comment == "" && st.RequireComment:
		return nil, apperrors.InvalidInput("comment is required")
	case comment != "":
		if err := checkCommentLength(comment, st); err != nil {
			return nil, err
		}
	}

	name := s.sanitize(input.CustomerName)
	if name == "" {
		if !st.AllowAnonymous {
			return nil, apperrors.InvalidInput("customer_name is required")
		}
		name = domain.AnonymousCustomer
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	status := domain.InitialStatus(st.AutoApprove)
	next := historyPendingReview
	if status == domain.ReviewStatusPublished {
		next = historyAutoApproved
	}

	review := &domain.Review{
		ID:              id,
		ProductID:       input.ProductID,
		ProductTitle:    input.ProductTitle,
		ProductImage:    input.ProductImage,
		CustomerName:    name,
		CustomerEmail:   input.CustomerEmail,
		CustomerOrderID: input.CustomerOrderID,
		Rating:          input.Rating,
		Comment:         comment,
		Date:            domain.NewDate(now),
		Status:          status,
		Verified:        input.Verified,
		History: []domain.HistoryEntry{
			{Action: historyCreated, At: now, By: domain.ActorCustomer},
			{Action: next, At: now, By: domain.ActorSystem},
		},
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.String("status", string(review.Status)),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}
