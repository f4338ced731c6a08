package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"recordhub/internal/certificate/models"
	"recordhub/pkg/platform/envelope"
	"recordhub/pkg/platform/httputil"
	"recordhub/pkg/requestcontext"
)

// Service defines the certificate operations exposed over HTTP.
type Service interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Certificate, int, error)
	Verify(ctx context.Context, criteria models.VerificationCriteria) (*models.VerificationResult, error)
	Create(ctx context.Context, req *models.Request) ([]*models.Certificate, error)
	Update(ctx context.Context, req *models.Request) ([]*models.Certificate, error)
	Revoke(ctx context.Context, req *models.RevocationRequest) ([]*models.Certificate, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts certificate endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/certificate/v1", func(r chi.Router) {
		r.Post("/_create", h.HandleCreate)
		r.Post("/_update", h.HandleUpdate)
		r.Post("/_revoke", h.HandleRevoke)
		r.Post("/_search", h.HandleSearch)
		r.Post("/_verify", h.HandleVerify)
	})
}

// HandleCreate handles POST /certificate/v1/_create.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, "create", h.service.Create)
}

// HandleUpdate handles POST /certificate/v1/_update.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, "update", h.service.Update)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, op string,
	call func(context.Context, *models.Request) ([]*models.Certificate, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.Request](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	certs, err := call(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "certificate "+op+" failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.accepted(w, certs)
}

// HandleRevoke handles POST /certificate/v1/_revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RevocationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	certs, err := h.service.Revoke(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "certificate revoke failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "certificates revoked",
		"request_id", requestID,
		"count", len(certs),
	)
	h.accepted(w, certs)
}

func (h *Handler) accepted(w http.ResponseWriter, certs []*models.Certificate) {
	httputil.WriteJSON(w, http.StatusAccepted, models.Response{
		ResponseInfo: envelope.Successful(),
		Certificates: certs,
		TotalCount:   len(certs),
	})
}

// HandleSearch handles POST /certificate/v1/_search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[models.SearchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	certs, total, err := h.service.Search(ctx, *req.Criteria)
	if err != nil {
		h.logger.ErrorContext(ctx, "certificate search failed",
			"request_id", requestID,
			"tenant_id", req.Criteria.TenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "certificates searched",
		"request_id", requestID,
		"tenant_id", req.Criteria.TenantID,
		"results", len(certs),
		"total", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if certs == nil {
		certs = []*models.Certificate{}
	}
	httputil.WriteJSON(w, http.StatusOK, models.Response{
		ResponseInfo: envelope.Successful(),
		Certificates: certs,
		TotalCount:   total,
	})
}

// HandleVerify handles POST /certificate/v1/_verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.VerificationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Verify(ctx, *req.Criteria)
	if err != nil {
		h.logger.ErrorContext(ctx, "certificate verification failed",
			"request_id", requestID,
			"certificate_id", req.Criteria.CertificateID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.VerificationResponse{
		ResponseInfo:       envelope.Successful(),
		VerificationResult: result,
	})
}
