package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/review-admin/internal/service"
	"github.com/utafrali/review-admin/pkg/health"
	"github.com/utafrali/review-admin/pkg/middleware"
)

// RouterConfig holds the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	ServiceName string
	// ValidateToken authenticates admin requests.
	ValidateToken middleware.TokenValidator
	// SubmitLimiter throttles storefront submissions per client IP; nil
	// disables throttling.
	SubmitLimiter *middleware.RateLimiter
	CORS          middleware.CORSConfig
	// AdminCacheMaxAge is how long browsers may keep admin GET responses.
	AdminCacheMaxAge time.Duration
	PprofCIDRs       []string
}

// NewRouter creates a chi router with all review admin routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	settingsService *service.SettingsService,
	analyticsService *service.AnalyticsService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Operational endpoints
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	reviewHandler := NewReviewHandler(reviewService, logger)
	settingsHandler := NewSettingsHandler(settingsService, logger)
	analyticsHandler := NewAnalyticsHandler(analyticsService, logger)

	// Storefront submission
	r.Group(func(r chi.Router) {
		if cfg.SubmitLimiter != nil {
			r.Use(cfg.SubmitLimiter.Handler)
		}
		r.Post("/api/v1/reviews", reviewHandler.SubmitReview)
	})

	// Admin API
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.ValidateToken, logger))
		r.Use(middleware.RequireRole(middleware.RoleAdmin))
		r.Use(middleware.PrivateCache(cfg.AdminCacheMaxAge))

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", reviewHandler.ListReviews)
			r.Post("/bulk", reviewHandler.BulkModerate)
			r.Get("/{id}", reviewHandler.GetReview)
			r.Patch("/{id}", reviewHandler.UpdateReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
			r.Post("/{id}/actions", reviewHandler.ModerateReview)
		})

		r.Get("/dashboard", reviewHandler.Dashboard)
		r.Get("/analytics", analyticsHandler.GetReport)

		r.Get("/settings", settingsHandler.GetSettings)
		r.Put("/settings", settingsHandler.UpdateSettings)
	})

	return r
}
