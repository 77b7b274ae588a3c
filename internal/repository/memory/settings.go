package memory

import (
	"context"
	"sync"

	"github.com/utafrali/review-admin/internal/domain"
)

// SettingsRepository keeps the settings in memory, starting from defaults.
type SettingsRepository struct {
	mu       sync.RWMutex
	settings *domain.Settings
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{settings: domain.DefaultSettings()}
}

func (r *SettingsRepository) Get(_ context.Context) (*domain.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings.Clone(), nil
}

func (r *SettingsRepository) Save(_ context.Context, s *domain.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = s.Clone()
	return nil
}
