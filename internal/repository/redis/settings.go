package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/review-admin/internal/domain"
	"github.com/utafrali/review-admin/pkg/database"
)

// SettingsKey is where the settings document is stored.
const SettingsKey = "review-admin:settings"

// SettingsRepository implements repository.SettingsRepository using Redis.
type SettingsRepository struct {
	client redis.Cmdable
	tracer *database.QueryTracer
}

// NewSettingsRepository creates a Redis-backed settings repository.
func NewSettingsRepository(client redis.Cmdable, tracer *database.QueryTracer) *SettingsRepository {
	if tracer == nil {
		tracer = database.NewQueryTracer("redis", 0, nil)
	}
	return &SettingsRepository{client: client, tracer: tracer}
}

// Get returns the stored settings. Fields missing from the stored document
// keep their default values; a missing key yields the defaults.
func (r *SettingsRepository) Get(ctx context.Context) (s *domain.Settings, err error) {
	ctx, end := r.tracer.Start(ctx, "GetSettings", "GET "+SettingsKey)
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, SettingsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.DefaultSettings(), nil
		}
		return nil, fmt.Errorf("redis get settings: %w", err)
	}

	settings := domain.DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return settings, nil
}

// Save overwrites the stored settings. They never expire.
func (r *SettingsRepository) Save(ctx context.Context, settings *domain.Settings) (err error) {
	ctx, end := r.tracer.Start(ctx, "SaveSettings", "SET "+SettingsKey)
	defer func() { end(err) }()

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := r.client.Set(ctx, SettingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set settings: %w", err)
	}
	return nil
}
