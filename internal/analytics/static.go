package analytics

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/utafrali/review-admin/internal/domain"
)

//go:embed sample_report.json
var sampleReport []byte

// StaticProvider serves the built-in sample report.
type StaticProvider struct {
	report domain.AnalyticsReport
}

// NewStaticProvider decodes the embedded sample report.
func NewStaticProvider() (*StaticProvider, error) {
	var report domain.AnalyticsReport
	if err := json.Unmarshal(sampleReport, &report); err != nil {
		return nil, fmt.Errorf("decode sample analytics report: %w", err)
	}
	report.Source = SourceSample
	return &StaticProvider{report: report}, nil
}

// Report returns a copy of the sample report.
func (p *StaticProvider) Report(_ context.Context) (*domain.AnalyticsReport, error) {
	r := p.report
	return &r, nil
}
