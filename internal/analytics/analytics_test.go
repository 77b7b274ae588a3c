package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/utafrali/review-admin/internal/domain"
	"github.com/utafrali/review-admin/pkg/httpclient"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticProvider(t *testing.T) *StaticProvider {
	t.Helper()
	p, err := NewStaticProvider()
	require.NoError(t, err)
	return p
}

func TestStaticProvider(t *testing.T) {
	r, err := staticProvider(t).Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceSample, r.Source)
	assert.Equal(t, 1456.0, r.Overview.TotalReviews.Current)
	assert.Len(t, r.ReviewTrends.Last7Days, 7)
	assert.Len(t, r.ReviewTrends.Last30Days, 30)
	assert.Equal(t, 678, r.ReviewTrends.RatingDistribution[5])
	assert.Equal(t, domain.TrendDown, r.TopProducts[2].Trend)
	assert.Equal(t, "No reviews", r.NeedsAttention[1].Issue)
	assert.Equal(t, "2.3 hours", r.ModerationStats.AverageProcessingTime)
}

type stubGetter struct {
	calls atomic.Int32
	fn    func(dst any) error
}

func (s *stubGetter) GetJSON(_ context.Context, _ string, dst any) error {
	s.calls.Add(1)
	return s.fn(dst)
}

func TestHTTPProvider_Live(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ReportPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"overview":{"total_reviews":{"current":7}},"top_products":[{"name":"Mug","reviews":3,"avg_rating":4.5}]}}`))
	}))
	defer srv.Close()

	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("analytics-live-test"),
		discardLogger(),
	)
	p := NewHTTPProvider(client, srv.URL+"/", staticProvider(t), discardLogger())

	r, err := p.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceLive, r.Source)
	assert.Equal(t, 7.0, r.Overview.TotalReviews.Current)
	assert.Equal(t, "Mug", r.TopProducts[0].Name)
}

func TestHTTPProvider_FallsBack(t *testing.T) {
	tests := map[string]error{
		"circuit open":  httpclient.ErrCircuitOpen,
		"upstream down": errors.New("connection refused"),
		"empty body":    nil,
	}

	for name, getErr := range tests {
		t.Run(name, func(t *testing.T) {
			getter := &stubGetter{fn: func(any) error { return getErr }}
			p := NewHTTPProvider(getter, "http://analytics", staticProvider(t), discardLogger())

			r, err := p.Report(context.Background())
			require.NoError(t, err)
			assert.Equal(t, SourceSample, r.Source)
		})
	}
}

func TestHTTPProvider_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	getter := &stubGetter{fn: func(any) error { return context.Canceled }}
	_, err := NewHTTPProvider(getter, "http://analytics", staticProvider(t), discardLogger()).Report(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type countingProvider struct {
	calls  atomic.Int32
	source string
	err    error
}

func (p *countingProvider) Report(context.Context) (*domain.AnalyticsReport, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return &domain.AnalyticsReport{Source: p.source}, nil
}

func TestCachedProvider_CachesLiveReports(t *testing.T) {
	inner := &countingProvider{source: SourceLive}
	p := NewCachedProvider(inner, time.Minute)

	for i := 0; i < 3; i++ {
		r, err := p.Report(context.Background())
		require.NoError(t, err)
		assert.Equal(t, SourceLive, r.Source)
	}
	assert.Equal(t, int32(1), inner.calls.Load())

	p.Invalidate()
	_, err := p.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

type fixedProvider struct{ report domain.AnalyticsReport }

func (p fixedProvider) Report(context.Context) (*domain.AnalyticsReport, error) {
	r := p.report.Clone()
	return &r, nil
}

func TestCachedProvider_ReturnsIndependentCopies(t *testing.T) {
	p := NewCachedProvider(fixedProvider{report: domain.AnalyticsReport{
		Source:       SourceLive,
		ReviewTrends: domain.ReviewTrends{Last7Days: []int{1, 2, 3}, RatingDistribution: map[int]int{5: 10}},
		TopProducts:  []domain.ProductStat{{Name: "Trail Socks", Reviews: 4}},
	}}, time.Minute)

	first, err := p.Report(context.Background())
	require.NoError(t, err)
	first.ReviewTrends.Last7Days[0] = 99
	first.ReviewTrends.RatingDistribution[5] = 0
	first.TopProducts[0].Name = "mutated"

	second, err := p.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, second.ReviewTrends.Last7Days)
	assert.Equal(t, map[int]int{5: 10}, second.ReviewTrends.RatingDistribution)
	assert.Equal(t, "Trail Socks", second.TopProducts[0].Name)
}

func TestCachedProvider_Expires(t *testing.T) {
	inner := &countingProvider{source: SourceLive}
	p := NewCachedProvider(inner, 20*time.Millisecond)
	go p.Start()
	defer p.Stop()

	_, err := p.Report(context.Background())
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	_, err = p.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedProvider_DoesNotCacheSampleOrErrors(t *testing.T) {
	sample := &countingProvider{source: SourceSample}
	p := NewCachedProvider(sample, time.Minute)
	_, _ = p.Report(context.Background())
	_, _ = p.Report(context.Background())
	assert.Equal(t, int32(2), sample.calls.Load())

	failing := &countingProvider{err: errors.New("boom")}
	_, err := NewCachedProvider(failing, time.Minute).Report(context.Background())
	assert.Error(t, err)
}
