package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/review-admin/internal/domain"
)

func setupTestRedis(t *testing.T) (*SettingsRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSettingsRepository(client, nil), mr
}

func TestSettingsRepository_MissingKeyReturnsDefaults(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)
}

func TestSettingsRepository_SaveAndGet(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	s := domain.DefaultSettings()
	s.AutoApprove = true
	s.ReviewsPerPage = 20
	s.KeywordFilter = []string{"spam"}
	s.UpdatedAt = time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, s))

	assert.True(t, mr.Exists(SettingsKey))
	assert.Zero(t, mr.TTL(SettingsKey))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestSettingsRepository_PartialDocumentKeepsDefaults(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(SettingsKey, `{"reviews_per_page": 12}`))

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, got.ReviewsPerPage)
	assert.Equal(t, domain.DefaultSettings().DisplayOrder, got.DisplayOrder)
}

func TestSettingsRepository_Errors(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(SettingsKey, `not json`))

	_, err := repo.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal settings")

	mr.Close()
	_, err = repo.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get settings")
}
