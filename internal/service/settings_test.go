package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/review-admin/internal/domain"
	"github.com/utafrali/review-admin/internal/event"
	"github.com/utafrali/review-admin/internal/repository/memory"
	apperrors "github.com/utafrali/review-admin/pkg/errors"
)

func newTestSettingsService(repo *memory.SettingsRepository) (*SettingsService, *recordingPublisher) {
	publisher := &recordingPublisher{}
	return NewSettingsService(repo, event.NewProducer(publisher, newTestLogger()), newTestLogger()), publisher
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc, _ := newTestSettingsService(memory.NewSettingsRepository())

	st, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), st)
}

func TestSettingsService_Update(t *testing.T) {
	repo := memory.NewSettingsRepository()
	svc, publisher := newTestSettingsService(repo)

	in := domain.DefaultSettings()
	in.AutoApprove = true
	in.DisplayOrder = domain.DisplayOrderHelpful
	in.ReviewsPerPage = 20
	in.KeywordFilter = []string{"spam"}

	got, err := svc.Update(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.IsZero())
	assert.True(t, in.UpdatedAt.IsZero(), "input must not be modified")

	stored, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, stored.AutoApprove)
	assert.Equal(t, 20, stored.ReviewsPerPage)
	assert.Equal(t, got.UpdatedAt, stored.UpdatedAt)

	require.Equal(t, []string{event.TopicSettingsUpdated}, publisher.Topics())
	var payload domain.Settings
	require.NoError(t, json.Unmarshal(publisher.events[0].Data, &payload))
	assert.Equal(t, domain.DisplayOrderHelpful, payload.DisplayOrder)
}

func TestSettingsService_UpdateRejectsInvalid(t *testing.T) {
	tests := map[string]func(*domain.Settings){
		"min above max":         func(s *domain.Settings) { s.MinCharacters, s.MaxCharacters = 100, 50 },
		"zero per page":         func(s *domain.Settings) { s.ReviewsPerPage = 0 },
		"per page above 100":    func(s *domain.Settings) { s.ReviewsPerPage = 101 },
		"unknown display order": func(s *domain.Settings) { s.DisplayOrder = "random" },
		"email timing":          func(s *domain.Settings) { s.EmailTimingDays = 91 },
		"review delay":          func(s *domain.Settings) { s.ReviewDelayHours = 3 },
		"empty keyword":         func(s *domain.Settings) { s.KeywordFilter = []string{""} },
		"unknown template":      func(s *domain.Settings) { s.ReviewRequestTemplate = "shouty" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			repo := memory.NewSettingsRepository()
			svc, publisher := newTestSettingsService(repo)

			in := domain.DefaultSettings()
			mutate(in)
			_, err := svc.Update(context.Background(), in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

			stored, err := repo.Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, domain.DefaultSettings(), stored)
			assert.Empty(t, publisher.Topics())
		})
	}

	svc, _ := newTestSettingsService(memory.NewSettingsRepository())
	_, err := svc.Update(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSettingsService_SaveError(t *testing.T) {
	ctx := context.Background()
	repo := new(mockSettingsRepository)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Settings")).Return(errors.New("READONLY replica"))

	publisher := &recordingPublisher{}
	svc := NewSettingsService(repo, event.NewProducer(publisher, newTestLogger()), newTestLogger())

	_, err := svc.Update(ctx, domain.DefaultSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save settings")
	assert.Empty(t, publisher.Topics())
	repo.AssertExpectations(t)
}
