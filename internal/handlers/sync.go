// internal/handlers/sync.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/ammerola/stocksync/internal/pkg/logger"
)

// ShopDomainHeader carries the shop a request acts on.
const ShopDomainHeader = "X-Shopify-Shop-Domain"

// SyncHandler exposes the manual trigger and the run log.
type SyncHandler struct {
	service ports.SyncService
	runs    ports.SyncLogRepository
	tasks   ports.SyncTaskEnqueuer
	timeout time.Duration
	logger  *slog.Logger
}

// NewSyncHandler creates a new sync handler. tasks may be nil when no queue
// is configured; the async trigger then answers 503.
func NewSyncHandler(
	service ports.SyncService,
	runs ports.SyncLogRepository,
	tasks ports.SyncTaskEnqueuer,
	timeout time.Duration,
	logger *slog.Logger,
) *SyncHandler {
	return &SyncHandler{
		service: service,
		runs:    runs,
		tasks:   tasks,
		timeout: timeout,
		logger:  logger.With(slog.String("handler", "sync")),
	}
}

// TriggerSync handles POST /api/v1/sync
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	shop := shopFromRequest(r)
	if shop == "" {
		respondError(w, http.StatusBadRequest, "missing shop domain")
		return
	}
	ctx := logger.WithShop(r.Context(), shop)

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.service.RunSync(ctx, shop, domain.TriggerManual)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual sync failed",
			slog.String("error", err.Error()))
		respondError(w, statusForSyncError(err), domain.PublicMessage(err))
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// EnqueueSync handles POST /api/v1/sync/async
func (h *SyncHandler) EnqueueSync(w http.ResponseWriter, r *http.Request) {
	shop := shopFromRequest(r)
	if shop == "" {
		respondError(w, http.StatusBadRequest, "missing shop domain")
		return
	}
	if h.tasks == nil {
		respondError(w, http.StatusServiceUnavailable, "background sync is not available")
		return
	}
	ctx := logger.WithShop(r.Context(), shop)

	taskID, err := h.tasks.EnqueueShopSync(ctx, shop)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue sync",
			slog.String("error", err.Error()))
		respondError(w, statusForSyncError(err), domain.PublicMessage(err))
		return
	}

	h.logger.InfoContext(ctx, "sync enqueued", slog.String("task_id", taskID))
	respondJSON(w, http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"shop":    shop,
		"status":  "queued",
	})
}

// SyncStatus handles GET /api/v1/sync/status
func (h *SyncHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	shop := shopFromRequest(r)
	if shop == "" {
		respondError(w, http.StatusBadRequest, "missing shop domain")
		return
	}
	ctx := r.Context()

	summary, err := h.service.LastSummary(ctx, shop)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read last summary",
			slog.String("shop", shop),
			slog.String("error", err.Error()))
	}

	respondJSON(w, http.StatusOK, SyncStatusResponse{
		Shop:        shop,
		Running:     h.service.IsRunning(shop),
		LastSummary: summary,
	})
}

// SyncStatusResponse reports whether a shop is syncing and how its last run ended.
type SyncStatusResponse struct {
	Shop        string                 `json:"shop"`
	Running     bool                   `json:"running"`
	LastSummary *domain.SyncRunSummary `json:"last_summary"`
}

// ListRuns handles GET /api/v1/sync/runs
func (h *SyncHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := parseRunListParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.runs.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sync runs",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to list sync runs")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetRun handles GET /api/v1/sync/runs/{id}
func (h *SyncHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	entry, err := h.runs.FindByID(ctx, id)
	if err == nil && !ownsRun(r, entry.Shop) {
		err = domain.ErrRunNotFound
	}
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "sync run not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get sync run",
			slog.String("run_id", id.String()),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "failed to retrieve sync run")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

func parseRunListParams(r *http.Request) (ports.RunListParams, error) {
	q := r.URL.Query()
	params := ports.RunListParams{
		Shop: shopFromRequest(r),
	}
	if params.Shop == "" {
		params.Shop = q.Get("shop")
	}

	if status := q.Get("status"); status != "" {
		switch s := domain.SyncStatus(status); s {
		case domain.SyncStatusRunning, domain.SyncStatusSuccess, domain.SyncStatusPartial, domain.SyncStatusFailed:
			params.Status = s
		default:
			return params, errors.New("invalid status filter")
		}
	}

	for name, dest := range map[string]*int{"limit": &params.Limit, "offset": &params.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return params, errors.New("invalid " + name)
		}
		*dest = v
	}
	return params, nil
}

// shopFromRequest prefers the shop resolved by ShopAuth over the raw header.
func shopFromRequest(r *http.Request) string {
	if shop, ok := r.Context().Value(logger.ContextKeyShop).(string); ok && shop != "" {
		return shop
	}
	return r.Header.Get(ShopDomainHeader)
}

// ownsRun hides runs of other shops from a shop-scoped request.
func ownsRun(r *http.Request, runShop string) bool {
	shop := shopFromRequest(r)
	return shop == "" || shop == runShop
}

func statusForSyncError(err error) int {
	var be *domain.BusinessError
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrShopNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &be):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
