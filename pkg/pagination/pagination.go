package pagination

import (
	"net/url"
	"strconv"

	apperrors "github.com/utafrali/review-admin/pkg/errors"
)

// MaxPerPage is the largest page size accepted from a request.
const MaxPerPage = 100

// Params holds 1-indexed pagination parameters.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Parse reads "page" and "per_page" from query values. A missing page means
// page 1; a missing per_page yields defaultPerPage, which may be zero to let
// the caller resolve a default later. Malformed, negative, or out-of-range
// values are rejected with an INVALID_PARAMETER error instead of being
// silently replaced.
func Parse(values url.Values, defaultPerPage int) (Params, error) {
	p := Params{Page: 1, PerPage: defaultPerPage}

	if raw := values.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, apperrors.InvalidParameter("page", "must be an integer")
		}
		if v < 0 {
			return Params{}, apperrors.InvalidParameter("page", "must not be negative")
		}
		if v > 0 {
			p.Page = v
		}
	}

	if raw := values.Get("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, apperrors.InvalidParameter("per_page", "must be an integer")
		}
		if v <= 0 {
			return Params{}, apperrors.InvalidParameter("per_page", "must be positive")
		}
		if v > MaxPerPage {
			return Params{}, apperrors.InvalidParameter("per_page", "must be at most "+strconv.Itoa(MaxPerPage))
		}
		p.PerPage = v
	}

	return p, nil
}

// TotalPages returns ceil(total / perPage). perPage must be positive.
func TotalPages(total, perPage int) int {
	pages := total / perPage
	if total%perPage > 0 {
		pages++
	}
	return pages
}

// Window returns the half-open slice bounds [start, end) of the given
// 1-indexed page over total items. Pages past the end yield an empty window
// at total. page and perPage must be positive.
func Window(total, page, perPage int) (start, end int) {
	// Checked before multiplying so huge pages cannot overflow into range.
	if page < 1 || page > TotalPages(total, perPage) {
		return total, total
	}
	start = (page - 1) * perPage
	end = start + perPage
	if end > total {
		end = total
	}
	return start, end
}
