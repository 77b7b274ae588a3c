package analytics

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/utafrali/review-admin/internal/domain"
	"github.com/utafrali/review-admin/pkg/httpclient"
)

// ReportPath is the analytics service endpoint for the review report.
const ReportPath = "/api/v1/review-analytics"

// JSONGetter fetches and decodes a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, dst any) error
}

// HTTPProvider fetches the report from the analytics service and falls back
// to another provider when the call fails or the circuit is open.
type HTTPProvider struct {
	client   JSONGetter
	url      string
	fallback Provider
	logger   *slog.Logger
}

// NewHTTPProvider creates a provider for the service at baseURL.
func NewHTTPProvider(client JSONGetter, baseURL string, fallback Provider, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		client:   client,
		url:      strings.TrimRight(baseURL, "/") + ReportPath,
		fallback: fallback,
		logger:   logger,
	}
}

func (p *HTTPProvider) Report(ctx context.Context) (*domain.AnalyticsReport, error) {
	var envelope struct {
		Data *domain.AnalyticsReport `json:"data"`
	}

	err := p.client.GetJSON(ctx, p.url, &envelope)
	if err == nil && envelope.Data != nil {
		envelope.Data.Source = SourceLive
		return envelope.Data, nil
	}
	if err == nil {
		err = errors.New("analytics response has no data")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	attrs := []any{slog.String("url", p.url), slog.String("error", err.Error())}
	if errors.Is(err, httpclient.ErrCircuitOpen) {
		p.logger.DebugContext(ctx, "analytics circuit open, serving fallback report", attrs...)
	} else {
		p.logger.WarnContext(ctx, "analytics service call failed, serving fallback report", attrs...)
	}
	return p.fallback.Report(ctx)
}
