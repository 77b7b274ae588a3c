// Package analytics supplies the review analytics report. The numbers are
// computed by an external analytics service; this package fetches, caches
// and, when the service is unavailable, substitutes a sample report.
package analytics

import (
	"context"

	"github.com/utafrali/review-admin/internal/domain"
)

// Report sources.
const (
	SourceLive   = "live"
	SourceSample = "sample"
)

// Provider returns the current analytics report.
type Provider interface {
	Report(ctx context.Context) (*domain.AnalyticsReport, error)
}
