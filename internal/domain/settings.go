package domain

import "time"

// Display orders offered to the storefront widget.
const (
	DisplayOrderNewest  = "newest"
	DisplayOrderOldest  = "oldest"
	DisplayOrderHighest = "highest"
	DisplayOrderLowest  = "lowest"
	DisplayOrderHelpful = "helpful"
)

// Settings holds the review moderation and display configuration of a store.
//
// The moderation group (profanity filter, keyword filter, auto reject and
// review delay) is stored and returned but never applied here; a separate
// moderation component owns those rules.
type Settings struct {
	// Collection
	ReviewsEnabled bool `json:"reviews_enabled"`
	AutoApprove    bool `json:"auto_approve"`
	AllowAnonymous bool `json:"allow_anonymous"`
	MinCharacters  int  `json:"min_characters" validate:"gte=0,lte=5000"`
	MaxCharacters  int  `json:"max_characters" validate:"gte=1,lte=5000,gtefield=MinCharacters"`
	RequireRating  bool `json:"require_rating"`
	RequireComment bool `json:"require_comment"`

	// Display
	ShowRatings         bool   `json:"show_ratings"`
	DisplayOrder        string `json:"display_order" validate:"required,oneof=newest oldest highest lowest helpful"`
	ReviewsPerPage      int    `json:"reviews_per_page" validate:"gte=1,lte=100"`
	ShowReviewerName    bool   `json:"show_reviewer_name"`
	ShowReviewDates     bool   `json:"show_review_dates"`
	EnableHelpfulVoting bool   `json:"enable_helpful_voting"`

	// Moderation
	ProfanityFilter  bool     `json:"profanity_filter"`
	KeywordFilter    []string `json:"keyword_filter" validate:"max=100,dive,required,max=64"`
	AutoReject       bool     `json:"auto_reject"`
	ReviewDelayHours int      `json:"review_delay_hours" validate:"oneof=0 1 24 48 168"`

	// Email
	SendReviewRequests    bool   `json:"send_review_requests"`
	EmailTimingDays       int    `json:"email_timing_days" validate:"gte=0,lte=90"`
	ReviewRequestTemplate string `json:"review_request_template" validate:"required,oneof=default friendly professional custom"`
	ResponseNotifications bool   `json:"response_notifications"`

	// Integrations
	GoogleReviews bool `json:"google_reviews"`
	SchemaMarkup  bool `json:"schema_markup"`
	ShowWidgets   bool `json:"show_widgets"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings a store starts with.
func DefaultSettings() *Settings {
	return &Settings{
		ReviewsEnabled: true,
		AutoApprove:    false,
		AllowAnonymous: true,
		MinCharacters:  10,
		MaxCharacters:  500,
		RequireRating:  true,
		RequireComment: true,

		ShowRatings:         true,
		DisplayOrder:        DisplayOrderNewest,
		ReviewsPerPage:      5,
		ShowReviewerName:    true,
		ShowReviewDates:     true,
		EnableHelpfulVoting: true,

		ProfanityFilter:  true,
		KeywordFilter:    []string{"spam", "fake"},
		AutoReject:       false,
		ReviewDelayHours: 0,

		SendReviewRequests:    true,
		EmailTimingDays:       7,
		ReviewRequestTemplate: "default",
		ResponseNotifications: true,

		GoogleReviews: false,
		SchemaMarkup:  true,
		ShowWidgets:   false,
	}
}

// Clone returns a deep copy of s.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	c := *s
	if s.KeywordFilter != nil {
		c.KeywordFilter = append([]string(nil), s.KeywordFilter...)
	}
	return &c
}

// SortKey maps the storefront display order onto the listing sort key.
// "helpful" has no listing equivalent and falls back to newest first.
func (s *Settings) SortKey() SortKey {
	switch s.DisplayOrder {
	case DisplayOrderOldest:
		return SortDateAsc
	case DisplayOrderHighest:
		return SortRatingDesc
	case DisplayOrderLowest:
		return SortRatingAsc
	default:
		return SortDateDesc
	}
}
