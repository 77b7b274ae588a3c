package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/review-admin/internal/domain"
	"github.com/utafrali/review-admin/internal/service"
	"github.com/utafrali/review-admin/pkg/httputil"
	"github.com/utafrali/review-admin/pkg/validator"
)

// maxBodyBytes limits request bodies to 1MB.
const maxBodyBytes = 1 << 20

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ModerateRequest is the JSON request body for a moderation action.
type ModerateRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject delete"`
}

// UpdateReviewRequest is the JSON request body for editing a review.
type UpdateReviewRequest struct {
	Comment string `json:"comment" validate:"required,max=20000"`
}

// BulkModerateRequest is the JSON request body for a bulk moderation action.
type BulkModerateRequest struct {
	Action    string   `json:"action" validate:"required,oneof=approve reject delete"`
	ReviewIDs []string `json:"review_ids" validate:"required,min=1,max=100,dive,required,max=64"`
}

// --- Response DTOs ---

// BulkModerateResponse reports the outcome of a bulk action.
type BulkModerateResponse struct {
	Results   []service.BulkResult `json:"results"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}

// DeletedResponse confirms a deletion made through the actions endpoint.
type DeletedResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/admin/reviews
// @Summary List reviews
// @Description Filters, sorts and paginates all reviews
// @Tags reviews
// @Produce json
// @Param q query string false "Text matched against product, customer and comment"
// @Param status query string false "Comma-separated statuses" Enums(pending,published,rejected)
// @Param rating query string false "Comma-separated ratings"
// @Param sort query string false "Sort key" Enums(date-desc,date-asc,rating-desc,rating-asc,product)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100); defaults to the store setting"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/admin/reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.ListReviews(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// GetReview handles GET /api/v1/admin/reviews/{id}
// @Summary Get review detail
// @Tags reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/{id} [get]
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// ModerateReview handles POST /api/v1/admin/reviews/{id}/actions
// @Summary Approve, reject or delete a review
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param request body ModerateRequest true "Action to apply"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/{id}/actions [post]
func (h *ReviewHandler) ModerateReview(w http.ResponseWriter, r *http.Request) {
	var req ModerateRequest
	if err := validator.DecodeAndValidate(w, r, &req, maxBodyBytes); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	action := service.ModerationAction(req.Action)
	review, err := h.service.Moderate(r.Context(), chi.URLParam(r, "id"), action)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if action == service.ActionDelete {
		httputil.WriteData(w, http.StatusOK, DeletedResponse{ID: review.ID, Deleted: true})
		return
	}
	httputil.WriteData(w, http.StatusOK, review)
}

// UpdateReview handles PATCH /api/v1/admin/reviews/{id}
// @Summary Edit a review's comment
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param request body UpdateReviewRequest true "New comment"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/{id} [patch]
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var req UpdateReviewRequest
	if err := validator.DecodeAndValidate(w, r, &req, maxBodyBytes); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	review, err := h.service.UpdateComment(r.Context(), chi.URLParam(r, "id"), req.Comment)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/v1/admin/reviews/{id}
// @Summary Delete a review
// @Tags reviews
// @Param id path string true "Review ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.Moderate(r.Context(), chi.URLParam(r, "id"), service.ActionDelete); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkModerate handles POST /api/v1/admin/reviews/bulk
// @Summary Apply one action to many reviews
// @Description Each review is processed independently; the response lists per-review outcomes
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body BulkModerateRequest true "Action and review IDs"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/admin/reviews/bulk [post]
func (h *ReviewHandler) BulkModerate(w http.ResponseWriter, r *http.Request) {
	var req BulkModerateRequest
	if err := validator.DecodeAndValidate(w, r, &req, maxBodyBytes); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	results, err := h.service.BulkModerate(r.Context(), service.ModerationAction(req.Action), req.ReviewIDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := BulkModerateResponse{Results: results}
	for _, res := range results {
		if res.OK {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	httputil.WriteData(w, http.StatusOK, resp)
}

// SubmitReview handles POST /api/v1/reviews
// @Summary Submit a review from the storefront
// @Tags storefront
// @Accept json
// @Produce json
// @Param request body domain.ReviewSubmission true "Review to submit"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /api/v1/reviews [post]
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req domain.ReviewSubmission
	if err := validator.DecodeAndValidate(w, r, &req, maxBodyBytes); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	review, err := h.service.SubmitReview(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, review)
}

// Dashboard handles GET /api/v1/admin/dashboard
// @Summary Review dashboard
// @Description Aggregate counts and the five most recent reviews
// @Tags dashboard
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/dashboard [get]
func (h *ReviewHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, dashboard)
}
