package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/utafrali/review-admin/internal/domain"
	"github.com/utafrali/review-admin/internal/event"
	"github.com/utafrali/review-admin/internal/query"
	"github.com/utafrali/review-admin/internal/repository"
	apperrors "github.com/utafrali/review-admin/pkg/errors"
)

// ModerationAction is a command an admin applies to a review.
type ModerationAction string

// Moderation actions.
const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionDelete  ModerationAction = "delete"
)

// IsValid reports whether a is a known moderation action.
func (a ModerationAction) IsValid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionDelete:
		return true
	default:
		return false
	}
}

// History actions recorded by this service.
const (
	historyCreated       = "Created"
	historyAutoApproved  = "Auto-approved"
	historyPendingReview = "Pending review"
	historyApproved      = "Approved"
	historyRejected      = "Rejected"
	historyCommentEdited = "Comment edited"
)

// MaxBulkIDs bounds the number of reviews in one bulk command.
const MaxBulkIDs = 100

// recentReviewCount is the number of reviews shown on the dashboard.
const recentReviewCount = 5

// BulkResult is the outcome of a bulk command for one review.
type BulkResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// ReviewService implements listing, moderation and submission of reviews.
type ReviewService struct {
	repo      repository.ReviewRepository
	settings  repository.SettingsRepository
	producer  *event.Producer
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	repo repository.ReviewRepository,
	settings repository.SettingsRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:      repo,
		settings:  settings,
		producer:  producer,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

// ListReviews runs the query pipeline over the full review set. A zero page
// size is replaced by the store's reviews_per_page setting.
func (s *ReviewService) ListReviews(ctx context.Context, params domain.QueryParams) (*domain.QueryResult, error) {
	if params.PageSize == 0 {
		st, err := s.settings.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("get settings: %w", err)
		}
		params.PageSize = st.ReviewsPerPage
	}

	reviews, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return query.Run(reviews, params)
}

// GetReview returns a review with its history.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return review, nil
}

// Moderate applies action to the review. The returned review is the updated
// one, or the removed one for ActionDelete.
func (s *ReviewService) Moderate(ctx context.Context, id string, action ModerationAction) (*domain.Review, error) {
	switch action {
	case ActionApprove:
		return s.setStatus(ctx, id, domain.ReviewStatusPublished, historyApproved)
	case ActionReject:
		return s.setStatus(ctx, id, domain.ReviewStatusRejected, historyRejected)
	case ActionDelete:
		return s.delete(ctx, id)
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown action %q", action))
	}
}

func (s *ReviewService) setStatus(ctx context.Context, id string, status domain.ReviewStatus, action string) (*domain.Review, error) {
	entry := domain.HistoryEntry{Action: action, At: time.Now().UTC(), By: domain.ActorAdmin}

	review, err := s.repo.UpdateStatus(ctx, id, status, entry)
	if err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}

	if err := s.producer.PublishReviewStatusChanged(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review status event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", review.ID),
		slog.String("status", string(review.Status)),
	)

	return review, nil
}

func (s *ReviewService) delete(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete review: %w", err)
	}

	if err := s.producer.PublishReviewDeleted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted", slog.String("review_id", review.ID))

	return review, nil
}

// UpdateComment replaces the review's comment. Markup is stripped and the
// result must satisfy the store's character limits.
func (s *ReviewService) UpdateComment(ctx context.Context, id, comment string) (*domain.Review, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	comment = s.sanitize(comment)
	if err := checkCommentLength(comment, st); err != nil {
		return nil, err
	}

	entry := domain.HistoryEntry{Action: historyCommentEdited, At: time.Now().UTC(), By: domain.ActorAdmin}
	review, err := s.repo.UpdateComment(ctx, id, comment, entry)
	if err != nil {
		return nil, fmt.Errorf("update review comment: %w", err)
	}

	if err := s.producer.PublishReviewUpdated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.updated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review comment updated", slog.String("review_id", review.ID))

	return review, nil
}

// BulkModerate applies action to each id in order. A failure on one review
// does not stop the others; only an invalid command fails as a whole.
func (s *ReviewService) BulkModerate(ctx context.Context, action ModerationAction, ids []string) ([]BulkResult, error) {
	if !action.IsValid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown action %q", action))
	}
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("review_ids must not be empty")
	}
	if len(ids) > MaxBulkIDs {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d review_ids per request", MaxBulkIDs))
	}

	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := BulkResult{ID: id, OK: true}
		if _, err := s.Moderate(ctx, id, action); err != nil {
			res.OK = false
			res.Code, res.Error = describeError(err)
		}
		results = append(results, res)
	}

	return results, nil
}

// Dashboard returns the aggregate counts and the most recent reviews.
func (s *ReviewService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}

	recent, err := s.ListReviews(ctx, domain.QueryParams{
		Sort:     domain.SortDateDesc,
		Page:     1,
		PageSize: recentReviewCount,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Dashboard{Summary: *summary, RecentReviews: recent.Reviews}, nil
}

// maxSanitizePasses bounds how many layers of entity encoding are peeled off
// user text.
const maxSanitizePasses = 8

// sanitize strips all markup and surrounding whitespace from user text and
// returns it unescaped. Entity-encoded markup is decoded and stripped again
// until the text is stable, so the result never contains a tag. Text that is
// still changing after maxSanitizePasses is returned escaped.
func (s *ReviewService) sanitize(text string) string {
	cur := text
	for range maxSanitizePasses {
		next := html.UnescapeString(s.sanitizer.Sanitize(cur))
		if next == cur {
			return strings.TrimSpace(cur)
		}
		cur = next
	}
	return strings.TrimSpace(s.sanitizer.Sanitize(cur))
}

func checkCommentLength(comment string, st *domain.Settings) error {
	n := utf8.RuneCountInString(comment)
	if n < st.MinCharacters {
		return apperrors.InvalidInput(fmt.Sprintf("comment must be at least %d characters", st.MinCharacters))
	}
	if n > st.MaxCharacters {
		return apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", st.MaxCharacters))
	}
	return nil
}

// describeError returns the code and message reported for a failed bulk
// item. Errors other than AppErrors are not exposed.
func describeError(err error) (code, message string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Message
	}
	return "INTERNAL_ERROR", "an internal error occurred"
}
