package memory

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"

	"github.com/utafrali/review-admin/internal/domain"
	apperrors "github.com/utafrali/review-admin/pkg/errors"
)

// ReviewRepository keeps reviews in memory. Every read returns deep copies.
type ReviewRepository struct {
	mu      sync.RWMutex
	reviews map[string]domain.Review
}

// NewReviewRepository creates a store holding a copy of seed.
func NewReviewRepository(seed []domain.Review) *ReviewRepository {
	r := &ReviewRepository{reviews: make(map[string]domain.Review, len(seed))}
	for _, rv := range seed {
		r.reviews[rv.ID] = rv.Clone()
	}
	return r
}

// storageOrder sorts newest first, then by id.
func storageOrder(a, b domain.Review) int {
	if c := b.Date.Compare(a.Date); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (r *ReviewRepository) List(_ context.Context) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Review, 0, len(r.reviews))
	for _, rv := range r.reviews {
		out = append(out, rv.Clone())
	}
	slices.SortFunc(out, storageOrder)
	return out, nil
}

func (r *ReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rv, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	out := rv.Clone()
	return &out, nil
}

func (r *ReviewRepository) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reviews[review.ID]; exists {
		return apperrors.Conflict("review " + review.ID + " already exists")
	}
	r.reviews[review.ID] = review.Clone()
	return nil
}

func (r *ReviewRepository) UpdateStatus(_ context.Context, id string, status domain.ReviewStatus, entry domain.HistoryEntry) (*domain.Review, error) {
	return r.update(id, func(rv *domain.Review) {
		rv.Status = status
		rv.History = append(rv.History, entry)
	})
}

func (r *ReviewRepository) UpdateComment(_ context.Context, id, comment string, entry domain.HistoryEntry) (*domain.Review, error) {
	return r.update(id, func(rv *domain.Review) {
		rv.Comment = comment
		rv.History = append(rv.History, entry)
	})
}

func (r *ReviewRepository) update(id string, mutate func(*domain.Review)) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rv, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	rv = rv.Clone()
	mutate(&rv)
	r.reviews[id] = rv

	out := rv.Clone()
	return &out, nil
}

func (r *ReviewRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[id]; !ok {
		return apperrors.NotFound("review", id)
	}
	delete(r.reviews, id)
	return nil
}

func (r *ReviewRepository) Summary(_ context.Context) (*domain.ReviewSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		summary domain.ReviewSummary
		sum     int
	)
	for _, rv := range r.reviews {
		summary.TotalCount++
		sum += rv.Rating
		switch rv.Status {
		case domain.ReviewStatusPending:
			summary.PendingCount++
		case domain.ReviewStatusPublished:
			summary.PublishedCount++
		case domain.ReviewStatusRejected:
			summary.RejectedCount++
		}
	}
	if summary.TotalCount > 0 {
		avg := float64(sum) / float64(summary.TotalCount)
		summary.AverageRating = math.Round(avg*10) / 10
	}
	return &summary, nil
}
