// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/ammerola/stocksync/internal/pkg/config"
	"github.com/ammerola/stocksync/internal/workers"
)

// QueueInspector is the part of *asynq.Inspector the health checks read.
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Servers() ([]*asynq.ServerInfo, error)
	SchedulerEntries() ([]*asynq.SchedulerEntry, error)
}

// HealthHandler reports on the stores, the sync queue and the freshness of
// the last recorded run.
type HealthHandler struct {
	db        ports.Database
	redis     redis.UniversalClient
	asynq     QueueInspector
	runs      ports.SyncLogRepository
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
	now       func() time.Time
}

// NewHealthHandler creates a new health handler. The inspector may be nil,
// in which case the queue check is left out.
func NewHealthHandler(
	database ports.Database,
	redisClient redis.UniversalClient,
	asynqInspector QueueInspector,
	runs ports.SyncLogRepository,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		redis:     redisClient,
		asynq:     asynqInspector,
		runs:      runs,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
		now:       time.Now,
	}
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	Sync        SyncHealth             `json:"sync"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SyncHealth describes how inventory is being fed and when it last ran.
type SyncHealth struct {
	Status             string     `json:"status"`
	WarehouseMode      string     `json:"warehouse_mode"`
	WarehouseLocations int        `json:"warehouse_locations"`
	Schedule           string     `json:"schedule"`
	Scheduled          *bool      `json:"scheduled,omitempty"`
	NextRun            *time.Time `json:"next_run,omitempty"`
	LastRun            *LastRun   `json:"last_run,omitempty"`
	Message            string     `json:"message,omitempty"`
}

// LastRun is the most recent run across all shops.
type LastRun struct {
	Shop      string    `json:"shop"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Age       string    `json:"age"`
}

// Health handles the /health endpoint
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      "healthy",
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   h.now(),
		Services:    make(map[string]ServiceInfo),
	}

	health.Services["database"] = h.checkDatabase(ctx)
	health.Services["redis"] = h.checkRedis(ctx)
	if h.asynq != nil {
		health.Services["sync_queue"] = h.checkQueue(ctx)
	}
	health.Sync = h.checkSync(ctx)

	for _, s := range health.Services {
		if s.Status != "healthy" {
			health.Status = "degraded"
		}
	}
	if health.Sync.Status == "stale" {
		health.Status = "degraded"
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(health); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response",
			slog.String("error", err.Error()))
	}
}

// Readiness handles the /ready endpoint
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)

	check := func(name string, err error) {
		if err != nil {
			ready = false
			details[name] = "not ready"
			return
		}
		details[name] = "ready"
	}

	check("database", h.db.Ping(ctx))
	check("redis", h.redis.Ping(ctx).Err())
	if h.asynq != nil {
		_, err := h.asynq.Queues()
		check("asynq", err)
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":   ready,
		"details": details,
	}); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode readiness response",
			slog.String("error", err.Error()))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: "unhealthy", Message: err.Error()}
	}
	return ServiceInfo{Status: "healthy", ResponseTime: time.Since(start).String()}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ServiceInfo {
	start := time.Now()
	if err := h.redis.Ping(ctx).Err(); err != nil {
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: "unhealthy", Message: err.Error()}
	}
	return ServiceInfo{Status: "healthy", ResponseTime: time.Since(start).String()}
}

// checkQueue reports the backlog of the sync queue and how many workers
// are polling it.
func (h *HealthHandler) checkQueue(ctx context.Context) ServiceInfo {
	start := time.Now()
	queue := h.config.Sync.Queue
	info := ServiceInfo{
		Status:  "healthy",
		Details: map[string]interface{}{"queue": queue},
	}

	if _, err := h.asynq.Queues(); err != nil {
		h.logger.ErrorContext(ctx, "sync queue health check failed",
			slog.String("error", err.Error()))
		info.Status = "unhealthy"
		info.Message = err.Error()
		return info
	}

	if q, err := h.asynq.GetQueueInfo(queue); err == nil {
		info.Details["pending"] = q.Pending
		info.Details["active"] = q.Active
		info.Details["retry"] = q.Retry
		info.Details["archived"] = q.Archived
	}

	if servers, err := h.asynq.Servers(); err == nil {
		workers := 0
		for _, s := range servers {
			if _, ok := s.Queues[queue]; ok {
				workers++
			}
		}
		info.Details["workers"] = workers
		if workers == 0 {
			info.Message = "no worker is polling the sync queue"
		}
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

// checkSync reports the scheduler registration and flags the last run as
// stale once it is older than Sync.StaleAfter.
func (h *HealthHandler) checkSync(ctx context.Context) SyncHealth {
	cfg := h.config
	sh := SyncHealth{
		Status:             "ok",
		WarehouseMode:      cfg.Warehouse.Mode,
		WarehouseLocations: len(cfg.Warehouse.Locations),
		Schedule:           cfg.Sync.Schedule,
	}

	if h.asynq != nil {
		if entries, err := h.asynq.SchedulerEntries(); err == nil {
			scheduled := false
			for _, e := range entries {
				if e.Task != nil && e.Task.Type() == workers.TypeSyncAll {
					scheduled = true
					next := e.Next
					sh.NextRun = &next
					break
				}
			}
			sh.Scheduled = &scheduled
		}
	}

	if h.runs == nil {
		return sh
	}
	page, err := h.runs.List(ctx, ports.RunListParams{Limit: 1})
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read last sync run",
			slog.String("error", err.Error()))
		sh.Status = "unknown"
		sh.Message = "run log unavailable"
		return sh
	}
	if len(page.Runs) == 0 {
		sh.Message = "no runs recorded"
		return sh
	}

	last := page.Runs[0]
	age := h.now().Sub(last.StartedAt)
	sh.LastRun = &LastRun{
		Shop:      last.Shop,
		Status:    string(last.Status),
		StartedAt: last.StartedAt,
		Age:       age.Round(time.Second).String(),
	}
	if cfg.Sync.StaleAfter > 0 && age > cfg.Sync.StaleAfter {
		sh.Status = "stale"
		sh.Message = "no sync started within " + cfg.Sync.StaleAfter.String()
	}
	return sh
}
