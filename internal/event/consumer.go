package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/review-admin/internal/domain"
	apperrors "github.com/utafrali/review-admin/pkg/errors"
	pkgkafka "github.com/utafrali/review-admin/pkg/kafka"
)

// TopicReviewSubmitted carries reviews submitted on the storefront.
const TopicReviewSubmitted = "ecommerce.review.submitted"

// ConsumerGroupID is the consumer group of this service.
const ConsumerGroupID = "review-admin"

// Submitter accepts storefront review submissions.
type Submitter interface {
	SubmitReview(ctx context.Context, input domain.ReviewSubmission) (*domain.Review, error)
}

// SubmissionHandler turns review.submitted events into stored reviews.
type SubmissionHandler struct {
	submitter Submitter
	logger    *slog.Logger
}

// NewSubmissionHandler creates a handler backed by submitter.
func NewSubmissionHandler(submitter Submitter, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{submitter: submitter, logger: logger}
}

// Handle stores the submitted review. Submissions that break the store's
// review rules are logged and acknowledged, not retried. A submission whose
// id already exists was handled before and is skipped.
func (h *SubmissionHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	if event.EventType != TopicReviewSubmitted {
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var input domain.ReviewSubmission
	if err := event.UnmarshalData(&input); err != nil {
		return fmt.Errorf("decode review.submitted payload: %w", err)
	}
	if input.ID == "" {
		input.ID = event.AggregateID
	}

	review, err := h.submitter.SubmitReview(ctx, input)
	switch {
	case err == nil:
		h.logger.InfoContext(ctx, "review submission stored",
			slog.String("review_id", review.ID),
			slog.String("status", string(review.Status)),
			slog.String("event_id", event.EventID),
		)
		return nil
	case errors.Is(err, apperrors.ErrConflict):
		h.logger.InfoContext(ctx, "review submission already stored",
			slog.String("review_id", input.ID),
			slog.String("event_id", event.EventID),
		)
		return nil
	case errors.Is(err, apperrors.ErrInvalidInput):
		h.logger.WarnContext(ctx, "review submission rejected",
			slog.String("event_id", event.EventID),
			slog.String("product_id", input.ProductID),
			slog.String("reason", err.Error()),
		)
		return nil
	default:
		return fmt.Errorf("submit review: %w", err)
	}
}

// ConsumerSettings configures the submission consumer.
type ConsumerSettings struct {
	Brokers    []string
	MaxRetries int
}

// NewSubmissionConsumer wires the handler behind idempotency checks. Messages
// that still fail after MaxRetries attempts go to dlq.
func NewSubmissionConsumer(
	cfg ConsumerSettings,
	handler *SubmissionHandler,
	store pkgkafka.IdempotencyStore,
	dlq pkgkafka.DeadLetterer,
	logger *slog.Logger,
) *pkgkafka.Consumer {
	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:    cfg.Brokers,
		GroupID:    ConsumerGroupID,
		Topic:      TopicReviewSubmitted,
		MinBytes:   1,
		MaxBytes:   10e6,
		MaxRetries: cfg.MaxRetries,
	}, pkgkafka.IdempotentHandler(store, handler.Handle, logger), dlq, logger)
}
