package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/review-admin/internal/analytics"
	"github.com/utafrali/review-admin/internal/domain"
)

// AnalyticsService serves the review analytics report.
type AnalyticsService struct {
	provider analytics.Provider
	logger   *slog.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(provider analytics.Provider, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{provider: provider, logger: logger}
}

// Report returns the current analytics report.
func (s *AnalyticsService) Report(ctx context.Context) (*domain.AnalyticsReport, error) {
	report, err := s.provider.Report(ctx)
	if err != nil {
		return nil, fmt.Errorf("get analytics report: %w", err)
	}

	s.logger.DebugContext(ctx, "analytics report served", slog.String("source", report.Source))

	return report, nil
}
