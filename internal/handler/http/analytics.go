package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/review-admin/internal/service"
	"github.com/utafrali/review-admin/pkg/httputil"
)

// AnalyticsHandler serves the review analytics report.
type AnalyticsHandler struct {
	service *service.AnalyticsService
	logger  *slog.Logger
}

// NewAnalyticsHandler creates a new analytics HTTP handler.
func NewAnalyticsHandler(svc *service.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: svc,
		logger:  logger,
	}
}

// GetReport handles GET /api/v1/admin/analytics
// @Summary Review analytics
// @Description The source field is "sample" when the analytics service is unavailable
// @Tags analytics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/analytics [get]
func (h *AnalyticsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, report)
}
