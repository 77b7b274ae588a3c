package domain

import (
	"time"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

// Review moderation states.
const (
	ReviewStatusPending   ReviewStatus = "pending"
	ReviewStatusPublished ReviewStatus = "published"
	ReviewStatusRejected  ReviewStatus = "rejected"
)

// IsValid reports whether s is one of the known moderation states.
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusPublished, ReviewStatusRejected:
		return true
	default:
		return false
	}
}

// Actors recorded in a review's history.
const (
	ActorCustomer = "Customer"
	ActorSystem   = "System"
	ActorAdmin    = "Admin"
)

// HistoryEntry records a single lifecycle step of a review.
type HistoryEntry struct {
	Action string    `json:"action" yaml:"action"`
	At     time.Time `json:"at" yaml:"at"`
	By     string    `json:"by" yaml:"by"`
}

// Review is a customer-submitted rating and comment on a product.
type Review struct {
	ID              string         `json:"id" yaml:"id"`
	ProductID       string         `json:"product_id" yaml:"product_id"`
	ProductTitle    string         `json:"product_title" yaml:"product_title"`
	ProductImage    string         `json:"product_image,omitempty" yaml:"product_image"`
	CustomerName    string         `json:"customer_name" yaml:"customer_name"`
	CustomerEmail   string         `json:"customer_email" yaml:"customer_email"`
	CustomerOrderID string         `json:"customer_order_id,omitempty" yaml:"customer_order_id"`
	Rating          int            `json:"rating" yaml:"rating"`
	Comment         string         `json:"comment" yaml:"comment"`
	Date            Date           `json:"date" yaml:"date"`
	Status          ReviewStatus   `json:"status" yaml:"status"`
	Verified        bool           `json:"verified" yaml:"verified"`
	HelpfulVotes    int            `json:"helpful_votes" yaml:"helpful_votes"`
	UnhelpfulVotes  int            `json:"unhelpful_votes" yaml:"unhelpful_votes"`
	History         []HistoryEntry `json:"history,omitempty" yaml:"history"`
}

// Clone returns a deep copy of r so callers can never alias stored history.
func (r Review) Clone() Review {
	if r.History != nil {
		r.History = append([]HistoryEntry(nil), r.History...)
	}
	return r
}

// InitialStatus returns the status a newly submitted review starts in.
func InitialStatus(autoApprove bool) ReviewStatus {
	if autoApprove {
		return ReviewStatusPublished
	}
	return ReviewStatusPending
}

// ReviewSummary contains aggregate review statistics for the dashboard.
type ReviewSummary struct {
	TotalCount     int     `json:"total_reviews"`
	AverageRating  float64 `json:"average_rating"`
	PendingCount   int     `json:"pending_reviews"`
	PublishedCount int     `json:"published_reviews"`
	RejectedCount  int     `json:"rejected_reviews"`
}

// AnonymousCustomer is shown when a review is submitted without a name.
const AnonymousCustomer = "Anonymous"

// ReviewSubmission is a review as sent by the storefront. ID is optional;
// when set it makes resubmission of the same review detectable.
type ReviewSubmission struct {
	ID              string `json:"id,omitempty" validate:"omitempty,max=64"`
	ProductID       string `json:"product_id" validate:"required,max=255"`
	ProductTitle    string `json:"product_title" validate:"required,max=255"`
	ProductImage    string `json:"product_image,omitempty" validate:"omitempty,url,max=2048"`
	CustomerName    string `json:"customer_name" validate:"max=120"`
	CustomerEmail   string `json:"customer_email" validate:"omitempty,email,max=254"`
	CustomerOrderID string `json:"customer_order_id,omitempty" validate:"max=64"`
	Rating          int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment         string `json:"comment" validate:"max=20000"`
	Verified        bool   `json:"verified"`
}
