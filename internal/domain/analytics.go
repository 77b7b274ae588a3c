package domain

import (
	"maps"
	"slices"
)

// Trend direction of a product's review activity.
const (
	TrendUp   = "up"
	TrendDown = "down"
)

// MetricChange compares a metric over the current and previous period.
type MetricChange struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
}

// AnalyticsOverview holds the headline review metrics.
type AnalyticsOverview struct {
	TotalReviews         MetricChange `json:"total_reviews"`
	AverageRating        MetricChange `json:"average_rating"`
	ReviewConversionRate MetricChange `json:"review_conversion_rate"`
	ResponseRate         MetricChange `json:"response_rate"`
}

// ReviewTrends holds review counts over time and the rating distribution.
type ReviewTrends struct {
	Last7Days          []int       `json:"last_7_days"`
	Last30Days         []int       `json:"last_30_days"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}

// ProductStat summarizes reviews for one product.
type ProductStat struct {
	Name      string  `json:"name"`
	Reviews   int     `json:"reviews"`
	AvgRating float64 `json:"avg_rating"`
	Trend     string  `json:"trend,omitempty"`
	Issue     string  `json:"issue,omitempty"`
}

// ReviewerStat summarizes one customer's reviewing activity.
type ReviewerStat struct {
	Name      string  `json:"name"`
	Reviews   int     `json:"reviews"`
	AvgRating float64 `json:"avg_rating"`
}

// CustomerInsights describes who writes reviews and when.
type CustomerInsights struct {
	TopReviewers          []ReviewerStat `json:"top_reviewers"`
	ReviewsByCustomerType map[string]int `json:"reviews_by_customer_type"`
	AverageWordsPerReview int            `json:"average_words_per_review"`
	ReviewsByTimeOfDay    map[string]int `json:"reviews_by_time_of_day"`
}

// CampaignStat is the outcome of one review-request email template.
type CampaignStat struct {
	Template string `json:"template"`
	Sent     int    `json:"sent"`
	Opens    int    `json:"opens"`
	Clicks   int    `json:"clicks"`
	Reviews  int    `json:"reviews"`
}

// EmailCampaigns aggregates review-request email performance.
type EmailCampaigns struct {
	TotalSent       int            `json:"total_sent"`
	OpenRate        float64        `json:"open_rate"`
	ClickRate       float64        `json:"click_rate"`
	ConversionRate  float64        `json:"conversion_rate"`
	RecentCampaigns []CampaignStat `json:"recent_campaigns"`
}

// KeywordCount is the number of reviews flagged for a keyword.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// ModerationStats aggregates moderation outcomes.
type ModerationStats struct {
	TotalProcessed        int            `json:"total_processed"`
	AutoApproved          int            `json:"auto_approved"`
	ManuallyApproved      int            `json:"manually_approved"`
	Rejected              int            `json:"rejected"`
	FlaggedKeywords       []KeywordCount `json:"flagged_keywords"`
	AverageProcessingTime string         `json:"average_processing_time"`
}

// AnalyticsReport is the review analytics snapshot shown to admins. It is
// computed by an external analytics service.
type AnalyticsReport struct {
	Overview         AnalyticsOverview `json:"overview"`
	ReviewTrends     ReviewTrends      `json:"review_trends"`
	TopProducts      []ProductStat     `json:"top_products"`
	NeedsAttention   []ProductStat     `json:"needs_attention"`
	CustomerInsights CustomerInsights  `json:"customer_insights"`
	EmailCampaigns   EmailCampaigns    `json:"email_campaigns"`
	ModerationStats  ModerationStats   `json:"moderation_stats"`
	// Source is "live" when fetched from the analytics service and "sample"
	// when served from the built-in fallback.
	Source string `json:"source"`
}

// Clone returns a deep copy of r. Cached reports are handed out as clones.
func (r AnalyticsReport) Clone() AnalyticsReport {
	r.ReviewTrends.Last7Days = slices.Clone(r.ReviewTrends.Last7Days)
	r.ReviewTrends.Last30Days = slices.Clone(r.ReviewTrends.Last30Days)
	r.ReviewTrends.RatingDistribution = maps.Clone(r.ReviewTrends.RatingDistribution)
	r.TopProducts = slices.Clone(r.TopProducts)
	r.NeedsAttention = slices.Clone(r.NeedsAttention)
	r.CustomerInsights.TopReviewers = slices.Clone(r.CustomerInsights.TopReviewers)
	r.CustomerInsights.ReviewsByCustomerType = maps.Clone(r.CustomerInsights.ReviewsByCustomerType)
	r.CustomerInsights.ReviewsByTimeOfDay = maps.Clone(r.CustomerInsights.ReviewsByTimeOfDay)
	r.EmailCampaigns.RecentCampaigns = slices.Clone(r.EmailCampaigns.RecentCampaigns)
	r.ModerationStats.FlaggedKeywords = slices.Clone(r.ModerationStats.FlaggedKeywords)
	return r
}

// Dashboard is the landing-page overview: aggregate counts plus the most
// recent reviews.
type Dashboard struct {
	Summary       ReviewSummary `json:"summary"`
	RecentReviews []Review      `json:"recent_reviews"`
}
