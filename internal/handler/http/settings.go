package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/review-admin/internal/domain"
	"github.com/utafrali/review-admin/internal/service"
	"github.com/utafrali/review-admin/pkg/httputil"
	"github.com/utafrali/review-admin/pkg/validator"
)

// SettingsHandler handles HTTP requests for the review settings.
type SettingsHandler struct {
	service *service.SettingsService
	logger  *slog.Logger
}

// NewSettingsHandler creates a new settings HTTP handler.
func NewSettingsHandler(svc *service.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: svc,
		logger:  logger,
	}
}

// GetSettings handles GET /api/v1/admin/settings
// @Summary Get review settings
// @Tags settings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/settings [get]
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, st)
}

// UpdateSettings handles PUT /api/v1/admin/settings
// @Summary Replace review settings
// @Description The full settings document is required; updated_at is ignored
// @Tags settings
// @Accept json
// @Produce json
// @Param request body domain.Settings true "Settings"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/admin/settings [put]
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	if err := validator.DecodeAndValidate(w, r, &req, maxBodyBytes); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	st, err := h.service.Update(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, st)
}
