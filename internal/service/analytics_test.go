package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/review-admin/internal/analytics"
	"github.com/utafrali/review-admin/internal/domain"
)

type failingProvider struct{}

func (failingProvider) Report(context.Context) (*domain.AnalyticsReport, error) {
	return nil, errors.New("fallback unavailable")
}

func TestAnalyticsService_Report(t *testing.T) {
	static, err := analytics.NewStaticProvider()
	require.NoError(t, err)

	report, err := NewAnalyticsService(static, newTestLogger()).Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, analytics.SourceSample, report.Source)
	assert.NotEmpty(t, report.TopProducts)

	_, err = NewAnalyticsService(failingProvider{}, newTestLogger()).Report(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get analytics report")
}
