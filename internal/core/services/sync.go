// internal/core/services/sync.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/google/uuid"
)

const (
	defaultLockTTL    = 30 * time.Minute
	defaultSummaryTTL = 24 * time.Hour
	finalizeTimeout   = 30 * time.Second
)

// SyncOption configures optional collaborators of the SyncService.
type SyncOption func(*SyncService)

// WithRunLock adds a cross-process lock on top of the in-process guard.
func WithRunLock(lock ports.RunLock, ttl time.Duration) SyncOption {
	return func(s *SyncService) {
		s.lock = lock
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithSummaryCache stores the latest summary per shop.
func WithSummaryCache(cache ports.CacheRepository, ttl time.Duration) SyncOption {
	return func(s *SyncService) {
		s.cache = cache
		if ttl > 0 {
			s.summaryTTL = ttl
		}
	}
}

// WithReportStore archives every completed run.
func WithReportStore(store ports.ReportStore) SyncOption {
	return func(s *SyncService) {
		s.reports = store
	}
}

// WithRunLog persists one record per run.
func WithRunLog(repo ports.SyncLogRepository) SyncOption {
	return func(s *SyncService) {
		s.runLog = repo
	}
}

// SyncService drives the reconciler across the whole warehouse catalog.
type SyncService struct {
	warehouse ports.WarehouseClient
	commerce  ports.CommerceFactory
	sessions  ports.SessionRepository
	runLog    ports.SyncLogRepository
	cache     ports.CacheRepository
	lock      ports.RunLock
	reports   ports.ReportStore
	base      *slog.Logger
	logger    *slog.Logger

	lockTTL    time.Duration
	summaryTTL time.Duration
	now        func() time.Time

	mu     sync.Mutex
	active map[string]struct{}
}

var _ ports.SyncService = (*SyncService)(nil)

// NewSyncService creates a new sync service
func NewSyncService(
	warehouse ports.WarehouseClient,
	commerce ports.CommerceFactory,
	sessions ports.SessionRepository,
	logger *slog.Logger,
	opts ...SyncOption,
) *SyncService {
	s := &SyncService{
		warehouse:  warehouse,
		commerce:   commerce,
		sessions:   sessions,
		base:       logger,
		logger:     logger.With(slog.String("service", "sync")),
		lockTTL:    defaultLockTTL,
		summaryTTL: defaultSummaryTTL,
		now:        time.Now,
		active:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsRunning reports whether this process is currently syncing the shop.
func (s *SyncService) IsRunning(shop string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[shop]
	return ok
}

func (s *SyncService) begin(shop string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[shop]; ok {
		return false
	}
	s.active[shop] = struct{}{}
	return true
}

func (s *SyncService) end(shop string) {
	s.mu.Lock()
	delete(s.active, shop)
	s.mu.Unlock()
}

// RunSync reconciles every warehouse item for the shop. Item-level failures
// are collected in the result; only configuration errors, a failed warehouse
// fetch or an overlapping run are returned as errors.
func (s *SyncService) RunSync(ctx context.Context, shop, trigger string) (*domain.SyncResult, error) {
	if !s.begin(shop) {
		return nil, domain.ErrSyncInProgress
	}
	defer s.end(shop)

	if s.lock != nil {
		release, ok, err := s.lock.Acquire(ctx, LockKey(shop), s.lockTTL)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "run lock unavailable, relying on in-process guard",
				slog.String("shop", shop),
				slog.String("error", err.Error()))
		case !ok:
			return nil, domain.ErrSyncInProgress
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					s.logger.WarnContext(ctx, "failed to release run lock",
						slog.String("shop", shop),
						slog.String("error", err.Error()))
				}
			}()
		}
	}

	startedAt := s.now()
	runID := s.createRun(ctx, shop, trigger)
	logger := s.logger.With(slog.String("shop", shop), slog.String("run_id", runID.String()))
	logger.InfoContext(ctx, "sync started", slog.String("trigger", trigger))

	items, reconciler, err := s.prepare(ctx, shop)
	if err != nil {
		logger.ErrorContext(ctx, "sync aborted", slog.String("error", err.Error()))
		fctx, cancel := finalizeContext(ctx)
		defer cancel()
		s.failRun(fctx, runID, err)
		return nil, err
	}

	outcomes := make([]domain.SyncOutcome, 0, len(items))
	var itemErrors []domain.ItemError
	for _, item := range items {
		itemOutcomes, err := s.reconcileItem(ctx, reconciler, item)
		if err != nil {
			logger.ErrorContext(ctx, "item reconciliation failed",
				slog.String("sku", item.SKU),
				slog.String("error", err.Error()))
			itemErrors = append(itemErrors, domain.ItemError{SKU: item.SKU, Error: domain.PublicMessage(err)})
			continue
		}
		outcomes = append(outcomes, itemOutcomes...)
	}

	summary := domain.Summarize(len(items), outcomes, itemErrors, startedAt, s.now(), len(items) == 0)
	summary.RunID = runID
	summary.Shop = shop
	if itemErrors == nil {
		itemErrors = []domain.ItemError{}
	}
	result := &domain.SyncResult{Summary: summary, Outcomes: outcomes, Errors: itemErrors}

	fctx, cancel := finalizeContext(ctx)
	defer cancel()
	s.completeRun(fctx, runID, result)
	s.cacheSummary(fctx, &summary)
	s.archive(fctx, result)

	logger.InfoContext(ctx, "sync completed",
		slog.String("status", string(summary.Status)),
		slog.Int("total_items", summary.TotalItems),
		slog.Int("success_count", summary.SuccessCount),
		slog.Int("skipped_count", summary.SkippedCount),
		slog.Int("failed_count", summary.FailedCount),
		slog.Int("location_failures", summary.LocationFailures),
		slog.Int64("duration_ms", summary.DurationMs))

	return result, nil
}

// LastSummary returns the cached summary of the shop's most recent run, or
// nil when no run has been recorded.
func (s *SyncService) LastSummary(ctx context.Context, shop string) (*domain.SyncRunSummary, error) {
	if s.cache == nil {
		return nil, nil
	}
	var summary domain.SyncRunSummary
	if err := s.cache.Get(ctx, SummaryKey(shop), &summary); err != nil {
		if errors.Is(err, ports.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

func (s *SyncService) prepare(ctx context.Context, shop string) ([]domain.CanonicalInventoryItem, *Reconciler, error) {
	session, err := s.sessions.Get(ctx, shop)
	if err != nil {
		return nil, nil, fmt.Errorf("load session for %s: %w", shop, err)
	}

	commerce, err := s.commerce.ForShop(session)
	if err != nil {
		return nil, nil, fmt.Errorf("build commerce client for %s: %w", shop, err)
	}

	items, err := s.warehouse.FetchCanonicalInventory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch warehouse inventory: %w", err)
	}

	return items, NewReconciler(commerce, s.base), nil
}

// reconcileItem turns a panic inside one item into an item-level error.
func (s *SyncService) reconcileItem(ctx context.Context, r *Reconciler, item domain.CanonicalInventoryItem) (outcomes []domain.SyncOutcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.ErrorContext(ctx, "panic while reconciling item",
				slog.String("sku", item.SKU),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			outcomes = nil
			err = fmt.Errorf("panic reconciling %s: %v", item.SKU, rec)
		}
	}()

	if err := item.Validate(); err != nil {
		return nil, err
	}
	return r.ReconcileItem(ctx, item)
}

func (s *SyncService) createRun(ctx context.Context, shop, trigger string) uuid.UUID {
	if s.runLog == nil {
		return uuid.New()
	}
	id, err := s.runLog.CreateRun(ctx, shop, trigger)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record run start",
			slog.String("shop", shop),
			slog.String("error", err.Error()))
		return uuid.New()
	}
	return id
}

func (s *SyncService) completeRun(ctx context.Context, id uuid.UUID, result *domain.SyncResult) {
	if s.runLog == nil {
		return
	}
	if err := s.runLog.CompleteRun(ctx, id, result); err != nil && !errors.Is(err, domain.ErrRunNotFound) {
		s.logger.WarnContext(ctx, "failed to record run completion",
			slog.String("run_id", id.String()),
			slog.String("error", err.Error()))
	}
}

func (s *SyncService) failRun(ctx context.Context, id uuid.UUID, runErr error) {
	if s.runLog == nil {
		return
	}
	if err := s.runLog.FailRun(ctx, id, runErr); err != nil && !errors.Is(err, domain.ErrRunNotFound) {
		s.logger.WarnContext(ctx, "failed to record run failure",
			slog.String("run_id", id.String()),
			slog.String("error", err.Error()))
	}
}

func (s *SyncService) cacheSummary(ctx context.Context, summary *domain.SyncRunSummary) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetWithTTL(ctx, SummaryKey(summary.Shop), summary, s.summaryTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to cache run summary",
			slog.String("shop", summary.Shop),
			slog.String("error", err.Error()))
	}
}

func (s *SyncService) archive(ctx context.Context, result *domain.SyncResult) {
	if s.reports == nil {
		return
	}
	key, err := s.reports.SaveRunReport(ctx, result)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to archive run report",
			slog.String("run_id", result.Summary.RunID.String()),
			slog.String("error", err.Error()))
		return
	}
	s.logger.DebugContext(ctx, "archived run report", slog.String("key", key))
}

// finalizeContext keeps the caller's values but not its deadline or
// cancellation, so a run that outlived its context is still closed out.
func finalizeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
}

// LockKey is the run lock key of a shop.
func LockKey(shop string) string {
	return "sync:lock:" + shop
}

// SummaryKey is the cache key of a shop's latest summary.
func SummaryKey(shop string) string {
	return "sync:last:" + shop
}
