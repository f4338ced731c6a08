package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"recordhub/internal/account/models"
	"recordhub/internal/search"
	"recordhub/pkg/platform/envelope"
	"recordhub/pkg/platform/httputil"
	"recordhub/pkg/requestcontext"
)

// Service defines the bank account operations exposed over HTTP.
type Service interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Account, search.Pagination, error)
	Create(ctx context.Context, req *models.Request) ([]*models.Account, error)
	Update(ctx context.Context, req *models.Request) ([]*models.Account, error)
}

// Handler wires bank account endpoints to the account service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts bank account endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/bankaccount/v1", func(r chi.Router) {
		r.Post("/_create", h.HandleCreate)
		r.Post("/_search", h.HandleSearch)
		r.Post("/_update", h.HandleUpdate)
	})
}

// HandleCreate handles POST /bankaccount/v1/_create.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, "create", h.service.Create)
}

// HandleUpdate handles POST /bankaccount/v1/_update.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, "update", h.service.Update)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, op string,
	call func(context.Context, *models.Request) ([]*models.Account, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[models.Request](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	accounts, err := call(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "bank account "+op+" failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bank account "+op+" accepted",
		"request_id", requestID,
		"count", len(accounts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusAccepted, models.Response{
		ResponseInfo: envelope.Successful(),
		BankAccounts: accounts,
	})
}

// HandleSearch handles POST /bankaccount/v1/_search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[models.SearchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	accounts, page, err := h.service.Search(ctx, *req.Criteria)
	if err != nil {
		h.logger.ErrorContext(ctx, "bank account search failed",
			"request_id", requestID,
			"tenant_id", req.Criteria.TenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bank accounts searched",
		"request_id", requestID,
		"tenant_id", req.Criteria.TenantID,
		"results", len(accounts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if accounts == nil {
		accounts = []*models.Account{}
	}
	httputil.WriteJSON(w, http.StatusOK, models.SearchResponse{
		ResponseInfo: envelope.Successful(),
		BankAccounts: accounts,
		Pagination:   page,
	})
}
