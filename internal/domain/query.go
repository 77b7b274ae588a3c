package domain

// SortKey selects the ordering of a review listing.
type SortKey string

// Supported sort keys.
const (
	SortDateDesc   SortKey = "date-desc"
	SortDateAsc    SortKey = "date-asc"
	SortRatingDesc SortKey = "rating-desc"
	SortRatingAsc  SortKey = "rating-asc"
	SortProduct    SortKey = "product"
)

// DefaultSort is applied when no sort key is given.
const DefaultSort = SortDateDesc

// ValidSortKeys returns the supported sort keys.
func ValidSortKeys() []SortKey {
	return []SortKey{SortDateDesc, SortDateAsc, SortRatingDesc, SortRatingAsc, SortProduct}
}

// IsValidSort reports whether k is a supported sort key.
func IsValidSort(k SortKey) bool {
	for _, s := range ValidSortKeys() {
		if s == k {
			return true
		}
	}
	return false
}

// QueryParams holds the filter, sort, and page selections of a review listing.
type QueryParams struct {
	Query    string   `json:"query"`
	Statuses []string `json:"statuses,omitempty"`
	Ratings  []string `json:"ratings,omitempty"`
	Sort     SortKey  `json:"sort"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// QueryResult is one page of a filtered and sorted review listing.
type QueryResult struct {
	Reviews      []Review `json:"reviews"`
	TotalMatched int      `json:"total_matched"`
	TotalPages   int      `json:"total_pages"`
	Page         int      `json:"page"`
	PageSize     int      `json:"page_size"`
	Sort         SortKey  `json:"sort"`
}
