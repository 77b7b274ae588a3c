package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a point-in-time snapshot of connection pool statistics.
type PoolStats struct {
	AcquiredConns    int32
	IdleConns        int32
	TotalConns       int32
	MaxConns         int32
	AcquireCount     int64
	AcquireDuration  time.Duration
	EmptyAcquires    int64
	CanceledAcquires int64
}

// PgxPoolStats adapts a pgx pool to the stats function PoolStatsCollector
// expects.
func PgxPoolStats(pool *pgxpool.Pool) func() PoolStats {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			AcquiredConns:    s.AcquiredConns(),
			IdleConns:        s.IdleConns(),
			TotalConns:       s.TotalConns(),
			MaxConns:         s.MaxConns(),
			AcquireCount:     s.AcquireCount(),
			AcquireDuration:  s.AcquireDuration(),
			EmptyAcquires:    s.EmptyAcquireCount(),
			CanceledAcquires: s.CanceledAcquireCount(),
		}
	}
}

// PoolStatsCollector exports connection pool statistics as Prometheus metrics.
type PoolStatsCollector struct {
	stats   func() PoolStats
	service string

	acquiredConns    *prometheus.Desc
	idleConns        *prometheus.Desc
	totalConns       *prometheus.Desc
	maxConns         *prometheus.Desc
	acquireCount     *prometheus.Desc
	acquireDuration  *prometheus.Desc
	emptyAcquires    *prometheus.Desc
	canceledAcquires *prometheus.Desc
}

// NewPoolStatsCollector creates a collector reading stats on every scrape.
func NewPoolStatsCollector(stats func() PoolStats, service string) *PoolStatsCollector {
	labels := []string{"service"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, labels, nil)
	}

	return &PoolStatsCollector{
		stats:            stats,
		service:          service,
		acquiredConns:    desc("db_pool_acquired_connections", "Number of currently acquired connections"),
		idleConns:        desc("db_pool_idle_connections", "Number of currently idle connections"),
		totalConns:       desc("db_pool_total_connections", "Total number of connections in the pool"),
		maxConns:         desc("db_pool_max_connections", "Maximum number of connections allowed"),
		acquireCount:     desc("db_pool_acquire_count_total", "Total number of connection acquires"),
		acquireDuration:  desc("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections in seconds"),
		emptyAcquires:    desc("db_pool_empty_acquire_count_total", "Total number of acquires that had to wait for a connection"),
		canceledAcquires: desc("db_pool_canceled_acquire_count_total", "Total number of canceled connection acquires"),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.totalConns
	ch <- c.maxConns
	ch <- c.acquireCount
	ch <- c.acquireDuration
	ch <- c.emptyAcquires
	ch <- c.canceledAcquires
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, c.service)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, c.service)
	}

	gauge(c.acquiredConns, float64(s.AcquiredConns))
	gauge(c.idleConns, float64(s.IdleConns))
	gauge(c.totalConns, float64(s.TotalConns))
	gauge(c.maxConns, float64(s.MaxConns))
	counter(c.acquireCount, float64(s.AcquireCount))
	counter(c.acquireDuration, s.AcquireDuration.Seconds())
	counter(c.emptyAcquires, float64(s.EmptyAcquires))
	counter(c.canceledAcquires, float64(s.CanceledAcquires))
}
