// internal/workers/sync_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/ammerola/stocksync/internal/pkg/logger"
)

// SyncProcessor handles scheduled inventory sync tasks
type SyncProcessor struct {
	sync     ports.SyncService
	sessions ports.SessionRepository
	tasks    ports.SyncTaskEnqueuer
	logger   *slog.Logger
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(sync ports.SyncService, sessions ports.SessionRepository, tasks ports.SyncTaskEnqueuer, logger *slog.Logger) *SyncProcessor {
	return &SyncProcessor{
		sync:     sync,
		sessions: sessions,
		tasks:    tasks,
		logger:   logger.With(slog.String("processor", "sync")),
	}
}

// ProcessShopSync runs one scheduled sync. Failures are logged and the task
// is never retried; the next scheduled run picks the shop up again.
func (p *SyncProcessor) ProcessShopSync(ctx context.Context, t *asynq.Task) error {
	var payload SyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Shop == "" {
		return fmt.Errorf("payload has no shop: %w", asynq.SkipRetry)
	}

	ctx = logger.WithShop(ctx, payload.Shop)
	if id, ok := asynq.GetTaskID(ctx); ok {
		ctx = logger.WithValue(ctx, logger.ContextKeyTaskID, id)
	}

	result, err := p.sync.RunSync(ctx, payload.Shop, domain.TriggerScheduled)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			p.logger.InfoContext(ctx, "sync skipped, another run is active")
			return nil
		}
		p.logger.ErrorContext(ctx, "scheduled sync failed",
			slog.String("error", err.Error()))
		return fmt.Errorf("sync %s: %s: %w", payload.Shop, domain.PublicMessage(err), asynq.SkipRetry)
	}

	s := result.Summary
	p.logger.InfoContext(ctx, "scheduled sync finished",
		slog.String("status", string(s.Status)),
		slog.Int("total_items", s.TotalItems),
		slog.Int("success", s.SuccessCount),
		slog.Int("failed", s.FailedCount),
		slog.Int("skipped", s.SkippedCount),
		slog.Int64("duration_ms", s.DurationMs))

	return nil
}

// ProcessSyncAll enqueues one sync per active installed shop.
func (p *SyncProcessor) ProcessSyncAll(ctx context.Context, t *asynq.Task) error {
	sessions, err := p.sessions.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list installed shops: %w", err)
	}

	queued, skipped, failed := 0, 0, 0
	for _, s := range sessions {
		if _, err := p.tasks.EnqueueShopSync(ctx, s.Shop); err != nil {
			if errors.Is(err, domain.ErrSyncInProgress) {
				skipped++
				continue
			}
			failed++
			p.logger.ErrorContext(ctx, "failed to queue shop sync",
				slog.String("shop", s.Shop),
				slog.String("error", err.Error()))
			continue
		}
		queued++
	}

	p.logger.InfoContext(ctx, "scheduled syncs queued",
		slog.Int("shops", len(sessions)),
		slog.Int("queued", queued),
		slog.Int("already_queued", skipped),
		slog.Int("failed", failed))

	return nil
}
