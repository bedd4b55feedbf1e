// Package handler exposes claim package review over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"claimaudit/internal/review"
	"claimaudit/internal/review/models"
	dErrors "claimaudit/pkg/domain-errors"
	"claimaudit/pkg/platform/httputil"
	"claimaudit/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the review operations the handler needs.
type Service interface {
	Review(ctx context.Context, req models.ReviewRequest) (*models.Assessment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Assessment, error)
	ListByFileNumber(ctx context.Context, fileNumber string) ([]*models.Assessment, error)
}

// Handler wires review endpoints to the review service.
type Handler struct {
	service   Service
	logger    *slog.Logger
	maxUpload int64
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		maxUpload: MaxUploadBytes,
	}
}

// Register mounts review endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleHealth)
	r.Post("/vision-review", h.HandleReview)
	r.Get("/assessments/{id}", h.HandleGetAssessment)
	r.Get("/claims/{file_number}/assessments", h.HandleListAssessments)
}

// HandleHealth handles GET /.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReview handles POST /vision-review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	form, err := parseReviewForm(w, r, h.maxUpload)
	if err == nil {
		err = form.Validate()
	}
	if err != nil {
		h.logger.WarnContext(ctx, "invalid review request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "review request received",
		"request_id", requestID,
		"file_number", form.FileNumber,
		"files", len(form.Files),
	)

	assessment, err := h.service.Review(ctx, form.ToReviewRequest())
	if err != nil {
		h.logger.ErrorContext(ctx, "claim review failed",
			"request_id", requestID,
			"file_number", form.FileNumber,
			"error", err,
		)
		writeReviewError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim review completed",
		"request_id", requestID,
		"file_number", form.FileNumber,
		"assessment_id", assessment.ID,
		"final_score", assessment.FinalScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromAssessment(assessment))
}

// HandleGetAssessment handles GET /assessments/{id}.
func (h *Handler) HandleGetAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid assessment id"))
		return
	}
	assessment, err := h.service.Get(ctx, id)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load assessment",
				"request_id", requestcontext.RequestID(ctx),
				"assessment_id", id,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAssessment(assessment))
}

// HandleListAssessments handles GET /claims/{file_number}/assessments.
func (h *Handler) HandleListAssessments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileNumber := chi.URLParam(r, "file_number")
	list, err := h.service.ListByFileNumber(ctx, fileNumber)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list assessments",
			"request_id", requestcontext.RequestID(ctx),
			"file_number", fileNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAssessments(fileNumber, list))
}

// writeReviewError adds the narrative sentinel and retry hint to collaborator
// failures; everything else goes through the shared error writer.
func writeReviewError(w http.ResponseWriter, err error) {
	ce, ok := review.AsCollaboratorError(err)
	if !ok {
		httputil.WriteError(w, err)
		return
	}
	code := dErrors.CodeOf(err)
	httputil.WriteJSON(w, httputil.StatusFor(code), ErrorResponse{
		Error:            string(code),
		ErrorDescription: ce.Collaborator + " " + string(ce.Category),
		Narrative:        ce.Narrative,
		Retryable:        ce.Retryable,
	})
}
