package analytics

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/utafrali/review-admin/internal/domain"
)

const reportKey = "report"

// CachedProvider caches live reports for a fixed TTL. Sample reports are not
// cached, so a recovered analytics service is picked up on the next call.
type CachedProvider struct {
	inner Provider
	cache *ttlcache.Cache[string, domain.AnalyticsReport]
}

// NewCachedProvider wraps inner. Call Start to run the expiry loop and Stop
// to end it.
func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, domain.AnalyticsReport](ttl),
			ttlcache.WithDisableTouchOnHit[string, domain.AnalyticsReport](),
		),
	}
}

// Report returns the cached live report or fetches a new one. Callers get
// their own copy and may modify it.
func (p *CachedProvider) Report(ctx context.Context) (*domain.AnalyticsReport, error) {
	if item := p.cache.Get(reportKey); item != nil {
		r := item.Value().Clone()
		return &r, nil
	}

	r, err := p.inner.Report(ctx)
	if err != nil {
		return nil, err
	}
	if r.Source == SourceLive {
		p.cache.Set(reportKey, r.Clone(), ttlcache.DefaultTTL)
	}
	return r, nil
}

// Invalidate drops the cached report.
func (p *CachedProvider) Invalidate() {
	p.cache.Delete(reportKey)
}

// Start runs the expiry loop until Stop is called.
func (p *CachedProvider) Start() { p.cache.Start() }

// Stop ends the expiry loop.
func (p *CachedProvider) Stop() { p.cache.Stop() }
