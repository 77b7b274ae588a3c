// Package query implements the review listing pipeline: filter, then sort,
// then paginate. It is a pure function over its inputs and never mutates the
// reviews it is given.
package query

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/utafrali/review-admin/internal/domain"
	apperrors "github.com/utafrali/review-admin/pkg/errors"
	"github.com/utafrali/review-admin/pkg/pagination"
)

// Run filters reviews by text, status and rating, orders the matches by
// params.Sort, and returns the requested page.
//
// An empty sort key means date-desc and page 0 means page 1. A negative page,
// a non-positive page size, or an unknown sort key is an INVALID_PARAMETER
// error. A page beyond the last one yields an empty page.
func Run(reviews []domain.Review, params domain.QueryParams) (*domain.QueryResult, error) {
	params, err := normalize(params)
	if err != nil {
		return nil, err
	}

	f := newFilter(params)
	matched := make([]domain.Review, 0, len(reviews))
	for i := range reviews {
		if f.matches(&reviews[i]) {
			matched = append(matched, reviews[i])
		}
	}

	sortReviews(matched, params.Sort)

	total := len(matched)
	start, end := pagination.Window(total, params.Page, params.PageSize)

	page := make([]domain.Review, 0, end-start)
	for _, r := range matched[start:end] {
		page = append(page, r.Clone())
	}

	totalPages := 0
	if total > 0 {
		totalPages = pagination.TotalPages(total, params.PageSize)
	}

	return &domain.QueryResult{
		Reviews:      page,
		TotalMatched: total,
		TotalPages:   totalPages,
		Page:         params.Page,
		PageSize:     params.PageSize,
		Sort:         params.Sort,
	}, nil
}

func normalize(p domain.QueryParams) (domain.QueryParams, error) {
	if p.PageSize <= 0 {
		return p, apperrors.InvalidParameter("page_size", "must be positive")
	}
	if p.Page < 0 {
		return p, apperrors.InvalidParameter("page", "must not be negative")
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Sort == "" {
		p.Sort = domain.DefaultSort
	}
	if !domain.IsValidSort(p.Sort) {
		return p, apperrors.InvalidParameter("sort", "unknown sort key "+strconv.Quote(string(p.Sort)))
	}
	return p, nil
}

type filter struct {
	text     string
	statuses map[string]struct{}
	ratings  map[string]struct{}
}

func newFilter(p domain.QueryParams) filter {
	return filter{
		text:     strings.ToLower(p.Query),
		statuses: toSet(p.Statuses),
		ratings:  toSet(p.Ratings),
	}
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// matches applies the text, status and rating filters; all must pass.
func (f filter) matches(r *domain.Review) bool {
	if f.text != "" &&
		!strings.Contains(strings.ToLower(r.ProductTitle), f.text) &&
		!strings.Contains(strings.ToLower(r.CustomerName), f.text) &&
		!strings.Contains(strings.ToLower(r.Comment), f.text) {
		return false
	}

	if f.statuses != nil {
		if _, ok := f.statuses[string(r.Status)]; !ok {
			return false
		}
	}

	if f.ratings != nil {
		if _, ok := f.ratings[strconv.Itoa(r.Rating)]; !ok {
			return false
		}
	}

	return true
}

// sortReviews orders reviews in place. Every ordering is stable so equal keys
// keep their input order.
func sortReviews(reviews []domain.Review, key domain.SortKey) {
	switch key {
	case domain.SortDateDesc:
		slices.SortStableFunc(reviews, func(a, b domain.Review) int {
			return b.Date.Compare(a.Date)
		})
	case domain.SortDateAsc:
		slices.SortStableFunc(reviews, func(a, b domain.Review) int {
			return a.Date.Compare(b.Date)
		})
	case domain.SortRatingDesc:
		slices.SortStableFunc(reviews, func(a, b domain.Review) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
	case domain.SortRatingAsc:
		slices.SortStableFunc(reviews, func(a, b domain.Review) int {
			return cmp.Compare(a.Rating, b.Rating)
		})
	case domain.SortProduct:
		// Collators keep internal buffers, so each call gets its own.
		c := collate.New(language.English)
		slices.SortStableFunc(reviews, func(a, b domain.Review) int {
			return c.CompareString(a.ProductTitle, b.ProductTitle)
		})
	}
}
