package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/review-admin/internal/domain"
	"github.com/utafrali/review-admin/pkg/database"
	apperrors "github.com/utafrali/review-admin/pkg/errors"
)

const uniqueViolation = "23505"

const reviewColumns = `id, product_id, product_title, product_image, customer_name, customer_email,
	customer_order_id, rating, comment, review_date, status, verified, helpful_votes, unhelpful_votes`

// ReviewRepository implements review persistence using PostgreSQL.
type ReviewRepository struct {
	db     database.TxStarter
	tracer *database.QueryTracer
}

// NewReviewRepository creates a PostgreSQL-backed review repository. A nil
// tracer still produces spans but never logs slow queries.
func NewReviewRepository(db database.TxStarter, tracer *database.QueryTracer) *ReviewRepository {
	if tracer == nil {
		tracer = database.NewQueryTracer("postgresql", 0, nil)
	}
	return &ReviewRepository{db: db, tracer: tracer}
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var (
		rv     domain.Review
		date   time.Time
		status string
	)
	err := row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.ProductTitle,
		&rv.ProductImage,
		&rv.CustomerName,
		&rv.CustomerEmail,
		&rv.CustomerOrderID,
		&rv.Rating,
		&rv.Comment,
		&date,
		&status,
		&rv.Verified,
		&rv.HelpfulVotes,
		&rv.UnhelpfulVotes,
	)
	if err != nil {
		return domain.Review{}, err
	}
	rv.Date = domain.NewDate(date)
	rv.Status = domain.ReviewStatus(status)
	return rv, nil
}

// List returns all reviews, newest first, without their history.
func (r *ReviewRepository) List(ctx context.Context) (reviews []domain.Review, err error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews ORDER BY review_date DESC, id`

	ctx, end := r.tracer.Start(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews = []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (rv *domain.Review, err error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	ctx, end := r.tracer.Start(ctx, "GetReview", query)
	defer func() { end(err) }()

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review %s: %w", id, err)
	}

	history, err := r.history(ctx, id)
	if err != nil {
		return nil, err
	}
	review.History = history

	return &review, nil
}

func (r *ReviewRepository) history(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT action, actor, at FROM review_history WHERE review_id = $1 ORDER BY at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("list review history: %w", err)
	}
	defer rows.Close()

	var history []domain.HistoryEntry
	for rows.Next() {
		var h domain.HistoryEntry
		if err := rows.Scan(&h.Action, &h.By, &h.At); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		h.At = h.At.UTC()
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return history, nil
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	const query = `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	ctx, end := r.tracer.Start(ctx, "CreateReview", query)
	defer func() { end(err) }()

	return r.inTx(ctx, "create review", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			review.ID,
			review.ProductID,
			review.ProductTitle,
			review.ProductImage,
			review.CustomerName,
			review.CustomerEmail,
			review.CustomerOrderID,
			review.Rating,
			review.Comment,
			review.Date.Time,
			string(review.Status),
			review.Verified,
			review.HelpfulVotes,
			review.UnhelpfulVotes,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return apperrors.Conflict("review " + review.ID + " already exists")
			}
			return fmt.Errorf("insert review: %w", err)
		}

		for _, h := range review.History {
			if err := insertHistory(ctx, tx, review.ID, h); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus, entry domain.HistoryEntry) (*domain.Review, error) {
	const query = `UPDATE reviews SET status = $2, updated_at = NOW() WHERE id = $1`
	return r.update(ctx, "UpdateReviewStatus", query, id, string(status), entry)
}

func (r *ReviewRepository) UpdateComment(ctx context.Context, id, comment string, entry domain.HistoryEntry) (*domain.Review, error) {
	const query = `UPDATE reviews SET comment = $2, updated_at = NOW() WHERE id = $1`
	return r.update(ctx, "UpdateReviewComment", query, id, comment, entry)
}

// update runs a single-column UPDATE and appends a history entry atomically,
// then reloads the review.
func (r *ReviewRepository) update(ctx context.Context, op, query, id string, value any, entry domain.HistoryEntry) (_ *domain.Review, err error) {
	spanCtx, end := r.tracer.Start(ctx, op, query)
	defer func() { end(err) }()

	err = r.inTx(spanCtx, op, func(tx pgx.Tx) error {
		tag, err := tx.Exec(spanCtx, query, id, value)
		if err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFound("review", id)
		}
		return insertHistory(spanCtx, tx, id, entry)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) (err error) {
	const query = `DELETE FROM reviews WHERE id = $1`

	ctx, end := r.tracer.Start(ctx, "DeleteReview", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

func (r *ReviewRepository) Summary(ctx context.Context) (s *domain.ReviewSummary, err error) {
	const query = `
		SELECT COUNT(*),
		       COALESCE(AVG(rating), 0),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'published'),
		       COUNT(*) FILTER (WHERE status = 'rejected')
		FROM reviews`

	ctx, end := r.tracer.Start(ctx, "ReviewSummary", query)
	defer func() { end(err) }()

	var summary domain.ReviewSummary
	if err := r.db.QueryRow(ctx, query).Scan(
		&summary.TotalCount,
		&summary.AverageRating,
		&summary.PendingCount,
		&summary.PublishedCount,
		&summary.RejectedCount,
	); err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}

	summary.AverageRating = math.Round(summary.AverageRating*10) / 10
	return &summary, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, reviewID string, h domain.HistoryEntry) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO review_history (review_id, action, actor, at) VALUES ($1, $2, $3, $4)`,
		reviewID, h.Action, h.By, h.At,
	)
	if err != nil {
		return fmt.Errorf("insert review history: %w", err)
	}
	return nil
}

func (r *ReviewRepository) inTx(ctx context.Context, what string, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", what, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", what, err)
	}
	return nil
}
