package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/review-admin/internal/domain"
	pkgkafka "github.com/utafrali/review-admin/pkg/kafka"
)

// Kafka topics for review domain events.
const (
	TopicReviewCreated   = "ecommerce.review.created"
	TopicReviewApproved  = "ecommerce.review.approved"
	TopicReviewRejected  = "ecommerce.review.rejected"
	TopicReviewDeleted   = "ecommerce.review.deleted"
	TopicReviewUpdated   = "ecommerce.review.updated"
	TopicSettingsUpdated = "ecommerce.review_settings.updated"
)

// Aggregate types.
const (
	AggregateTypeReview   = "review"
	AggregateTypeSettings = "review_settings"
)

// SourceReviewAdmin identifies events published by this service.
const SourceReviewAdmin = "review-admin"

// ReviewData is the payload of created, approved, rejected and updated events.
type ReviewData struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	ProductTitle string `json:"product_title"`
	CustomerName string `json:"customer_name"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	Status       string `json:"status"`
	Date         string `json:"date"`
}

// ReviewDeletedData is the payload of a review.deleted event.
type ReviewDeletedData struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
}

func reviewData(r *domain.Review) ReviewData {
	return ReviewData{
		ID:           r.ID,
		ProductID:    r.ProductID,
		ProductTitle: r.ProductTitle,
		CustomerName: r.CustomerName,
		Rating:       r.Rating,
		Comment:      r.Comment,
		Status:       string(r.Status),
		Date:         r.Date.String(),
	}
}

// Producer publishes review domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates an event producer. Pass a pkgkafka.NoopPublisher when
// Kafka is disabled.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(ctx, topic, aggregateID, aggregateType, SourceReviewAdmin, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
		slog.String("event_id", event.EventID),
	)
	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, r.ID, AggregateTypeReview, reviewData(r))
}

// PublishReviewStatusChanged publishes review.approved or review.rejected
// depending on the review's new status. Moving back to pending publishes
// nothing.
func (p *Producer) PublishReviewStatusChanged(ctx context.Context, r *domain.Review) error {
	var topic string
	switch r.Status {
	case domain.ReviewStatusPublished:
		topic = TopicReviewApproved
	case domain.ReviewStatusRejected:
		topic = TopicReviewRejected
	default:
		return nil
	}
	return p.publish(ctx, topic, r.ID, AggregateTypeReview, reviewData(r))
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewUpdated, r.ID, AggregateTypeReview, reviewData(r))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewDeleted, r.ID, AggregateTypeReview, ReviewDeletedData{
		ID:        r.ID,
		ProductID: r.ProductID,
	})
}

// PublishSettingsUpdated publishes a review_settings.updated event carrying
// the full settings document.
func (p *Producer) PublishSettingsUpdated(ctx context.Context, s *domain.Settings) error {
	return p.publish(ctx, TopicSettingsUpdated, "settings", AggregateTypeSettings, s)
}
