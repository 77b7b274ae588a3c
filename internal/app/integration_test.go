//go:build integration

package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/review-admin/internal/config"
	"github.com/utafrali/review-admin/internal/domain"
)

// These tests run the full service against the PostgreSQL and Redis
// instances named by the usual POSTGRES_* and REDIS_* variables:
//
//	go test -tags integration ./internal/app/...
//
// A test is skipped when its backend is not reachable.

// skipIfNotRunning skips the test when nothing listens on addr.
func skipIfNotRunning(t *testing.T, addr string) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Skipf("%s not reachable (Docker not running?): %v", addr, err)
	}
	conn.Close()
}

type liveEnv struct {
	server *httptest.Server
	token  string
}

func newLiveEnv(t *testing.T) *liveEnv {
	t.Helper()
	cfg := loadConfig(t, map[string]string{
		"REVIEW_STORE":   config.StorePostgres,
		"SETTINGS_STORE": config.StoreRedis,
	})
	skipIfNotRunning(t, fmt.Sprintf("%s:%d", cfg.PostgresHost, cfg.PostgresPort))
	skipIfNotRunning(t, cfg.Redis().Addr())

	a, err := NewApp(cfg, testLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		srv.Close()
		assert.NoError(t, a.Shutdown())
	})
	return &liveEnv{server: srv, token: adminToken(t)}
}

// call sends a JSON request and decodes the data member of the response
// envelope into out when out is non-nil.
func (e *liveEnv) call(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return resp.StatusCode
}

func TestLive_ReviewLifecycle(t *testing.T) {
	env := newLiveEnv(t)
	marker := uuid.NewString()

	var created domain.Review
	status := env.call(t, http.MethodPost, "/api/v1/reviews", domain.ReviewSubmission{
		ProductID:     "it-mug",
		ProductTitle:  "Integration Mug " + marker,
		CustomerName:  "Ada",
		CustomerEmail: "ada@test.example.com",
		Rating:        4,
		Comment:       "Keeps coffee hot for hours.",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, created.ID)

	var page domain.QueryResult
	status = env.call(t, http.MethodGet, "/api/v1/admin/reviews?q="+marker+"&per_page=10", nil, &page)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, page.Reviews, 1)
	assert.Equal(t, created.ID, page.Reviews[0].ID)

	var approved domain.Review
	status = env.call(t, http.MethodPost, "/api/v1/admin/reviews/"+created.ID+"/actions",
		map[string]string{"action": "approve"}, &approved)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.ReviewStatusPublished, approved.Status)

	var edited domain.Review
	status = env.call(t, http.MethodPatch, "/api/v1/admin/reviews/"+created.ID,
		map[string]string{"comment": "Keeps coffee hot all morning."}, &edited)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Keeps coffee hot all morning.", edited.Comment)

	var detail domain.Review
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/v1/admin/reviews/"+created.ID, nil, &detail))
	assert.GreaterOrEqual(t, len(detail.History), 3)

	assert.Equal(t, http.StatusNoContent, env.call(t, http.MethodDelete, "/api/v1/admin/reviews/"+created.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, env.call(t, http.MethodGet, "/api/v1/admin/reviews/"+created.ID, nil, nil))
}

func TestLive_SettingsRoundTrip(t *testing.T) {
	env := newLiveEnv(t)

	var current domain.Settings
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/v1/admin/settings", nil, &current))
	t.Cleanup(func() {
		env.call(t, http.MethodPut, "/api/v1/admin/settings", current, nil)
	})

	next := current
	next.ReviewsPerPage = 7
	var saved domain.Settings
	require.Equal(t, http.StatusOK, env.call(t, http.MethodPut, "/api/v1/admin/settings", next, &saved))
	assert.Equal(t, 7, saved.ReviewsPerPage)

	var reread domain.Settings
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/v1/admin/settings", nil, &reread))
	assert.Equal(t, 7, reread.ReviewsPerPage)
}
