package http

import (
	"net/url"
	"strings"

	"github.com/utafrali/review-admin/internal/domain"
	apperrors "github.com/utafrali/review-admin/pkg/errors"
	"github.com/utafrali/review-admin/pkg/pagination"
)

// parseListParams reads the listing query string:
//
//	q=text&status=pending,published&rating=4,5&sort=rating-desc&page=2&per_page=20
//
// status and rating accept comma-separated lists and may also be repeated.
// A missing per_page leaves PageSize at zero so the service applies the
// store's reviews_per_page setting.
func parseListParams(values url.Values) (domain.QueryParams, error) {
	pg, err := pagination.Parse(values, 0)
	if err != nil {
		return domain.QueryParams{}, err
	}

	statuses := splitList(values["status"])
	for _, s := range statuses {
		if !domain.ReviewStatus(s).IsValid() {
			return domain.QueryParams{}, apperrors.InvalidParameter("status", "must be one of: pending, published, rejected")
		}
	}

	sort := domain.SortKey(strings.TrimSpace(values.Get("sort")))
	if sort != "" && !domain.IsValidSort(sort) {
		return domain.QueryParams{}, apperrors.InvalidParameter("sort", "must be one of: date-desc, date-asc, rating-desc, rating-asc, product")
	}

	return domain.QueryParams{
		Query:    strings.TrimSpace(values.Get("q")),
		Statuses: statuses,
		Ratings:  splitList(values["rating"]),
		Sort:     sort,
		Page:     pg.Page,
		PageSize: pg.PerPage,
	}, nil
}

// splitList flattens repeated and comma-separated values, dropping blanks.
func splitList(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
