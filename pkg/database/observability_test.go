package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func TestQueryTracer_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	qt := NewQueryTracer("postgresql", 0, nil)
	_, end := qt.Start(context.Background(), "GetReview", "SELECT * FROM reviews WHERE id = $1")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.GetReview", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	attrs := map[string]string{}
	for _, a := range spans[0].Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "GetReview", attrs["db.operation"])
}

func TestQueryTracer_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)

	qt := NewQueryTracer("redis", 0, nil)
	_, end := qt.Start(context.Background(), "GetSettings", "GET review-admin:settings")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events)
}

func TestQueryTracer_SlowQueryLogging(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	slow := NewQueryTracer("postgresql", time.Nanosecond, logger)
	_, end := slow.Start(context.Background(), "ListReviews", "SELECT * FROM reviews")
	time.Sleep(time.Millisecond)
	end(nil)

	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), "ListReviews")

	buf.Reset()
	fast := NewQueryTracer("postgresql", time.Hour, logger)
	_, end = fast.Start(context.Background(), "ListReviews", "SELECT * FROM reviews")
	end(nil)
	assert.Zero(t, buf.Len())
}

func TestPoolStatsCollector_Collect(t *testing.T) {
	c := NewPoolStatsCollector(func() PoolStats {
		return PoolStats{AcquiredConns: 3, IdleConns: 2, TotalConns: 5, MaxConns: 10, AcquireCount: 42}
	}, "review-admin")

	assert.Equal(t, 8, testutil.CollectAndCount(c))

	expected := `
# HELP db_pool_acquired_connections Number of currently acquired connections
# TYPE db_pool_acquired_connections gauge
db_pool_acquired_connections{service="review-admin"} 3
# HELP db_pool_acquire_count_total Total number of connection acquires
# TYPE db_pool_acquire_count_total counter
db_pool_acquire_count_total{service="review-admin"} 42
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"db_pool_acquired_connections", "db_pool_acquire_count_total")
	assert.NoError(t, err)
}
