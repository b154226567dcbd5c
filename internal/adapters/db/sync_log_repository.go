// internal/adapters/db/sync_log_repository.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

const (
	defaultRunListLimit = 20
	maxRunListLimit     = 100
)

var syncLogColumns = []string{
	"id", "shop", "status", "trigger", "total_items",
	"success_count", "failed_count", "skipped_count", "duration_ms",
	"summary", "error", "started_at", "completed_at",
}

type syncLogRepository struct {
	db     ports.Database
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncLogRepository creates the Postgres-backed run log.
func NewSyncLogRepository(db ports.Database, logger *slog.Logger) ports.SyncLogRepository {
	return &syncLogRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sync_logs")),
		now:    time.Now,
	}
}

func (r *syncLogRepository) CreateRun(ctx context.Context, shop, trigger string) (uuid.UUID, error) {
	id := uuid.New()
	query := `
		INSERT INTO sync_logs (id, shop, status, trigger, started_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.Exec(ctx, query, id, shop, domain.SyncStatusRunning, trigger, r.now().UTC()); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create sync run: %w", err)
	}
	return id, nil
}

func (r *syncLogRepository) CompleteRun(ctx context.Context, id uuid.UUID, result *domain.SyncResult) error {
	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}
	outcomes, err := json.Marshal(nonNil(result.Outcomes))
	if err != nil {
		return fmt.Errorf("failed to encode run outcomes: %w", err)
	}
	itemErrors, err := json.Marshal(nonNil(result.Errors))
	if err != nil {
		return fmt.Errorf("failed to encode item errors: %w", err)
	}

	s := result.Summary
	query := `
		UPDATE sync_logs SET
			status = $2, total_items = $3, success_count = $4, failed_count = $5,
			skipped_count = $6, duration_ms = $7, summary = $8, completed_at = $9,
			outcomes = $10, item_errors = $11
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		id, s.Status, s.TotalItems, s.SuccessCount, s.FailedCount,
		s.SkippedCount, s.DurationMs, summary, r.now().UTC(),
		outcomes, itemErrors,
	)
	if err != nil {
		return fmt.Errorf("failed to complete sync run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	return nil
}

func (r *syncLogRepository) FailRun(ctx context.Context, id uuid.UUID, runErr error) error {
	query := `
		UPDATE sync_logs SET
			status = $2, error = $3, completed_at = $4,
			duration_ms = (EXTRACT(EPOCH FROM ($4 - started_at)) * 1000)::BIGINT
		WHERE id = $1`

	now := r.now().UTC()
	tag, err := r.db.Exec(ctx, query, id, domain.SyncStatusFailed, domain.PublicMessage(runErr), now)
	if err != nil {
		return fmt.Errorf("failed to mark sync run failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	return nil
}

func (r *syncLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SyncLogEntry, error) {
	query, args, err := squirrel.Select(syncLogColumns...).
		From("sync_logs").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	entry, err := scanSyncLog(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to find sync run: %w", err)
	}
	return &entry, nil
}

// List returns runs newest first, optionally filtered by shop and status.
func (r *syncLogRepository) List(ctx context.Context, params ports.RunListParams) (*ports.RunListResult, error) {
	if params.Limit <= 0 {
		params.Limit = defaultRunListLimit
	}
	if params.Limit > maxRunListLimit {
		params.Limit = maxRunListLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	where := squirrel.And{}
	if params.Shop != "" {
		where = append(where, squirrel.Eq{"shop": params.Shop})
	}
	if params.Status != "" {
		where = append(where, squirrel.Eq{"status": params.Status})
	}

	countSQL, countArgs, err := squirrel.Select("COUNT(*)").
		From("sync_logs").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count sync runs: %w", err)
	}

	listSQL, args, err := squirrel.Select(syncLogColumns...).
		From("sync_logs").
		Where(where).
		OrderBy("started_at DESC").
		Limit(uint64(params.Limit)).
		Offset(uint64(params.Offset)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}

	runs, err := ScanMany(rows, scanSyncLog)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync runs: %w", err)
	}
	if runs == nil {
		runs = []domain.SyncLogEntry{}
	}

	return &ports.RunListResult{
		Runs:       runs,
		TotalCount: total,
		Limit:      params.Limit,
		Offset:     params.Offset,
	}, nil
}

// FindResult returns the stored outcomes of a completed run. A run that is
// still going or failed before reconciling has none.
func (r *syncLogRepository) FindResult(ctx context.Context, id uuid.UUID) (*domain.SyncResult, error) {
	query := `SELECT summary, outcomes, item_errors FROM sync_logs WHERE id = $1`

	var summary, outcomes, itemErrors []byte
	if err := r.db.QueryRow(ctx, query, id).Scan(&summary, &outcomes, &itemErrors); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to load sync run result: %w", err)
	}

	result := &domain.SyncResult{Outcomes: []domain.SyncOutcome{}, Errors: []domain.ItemError{}}
	for _, part := range []struct {
		raw  []byte
		dest any
	}{
		{summary, &result.Summary},
		{outcomes, &result.Outcomes},
		{itemErrors, &result.Errors},
	} {
		if len(part.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(part.raw, part.dest); err != nil {
			return nil, fmt.Errorf("failed to decode sync run result: %w", err)
		}
	}
	return result, nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func scanSyncLog(row pgx.Row) (domain.SyncLogEntry, error) {
	var (
		e       domain.SyncLogEntry
		summary []byte
		errText *string
	)
	err := row.Scan(
		&e.ID, &e.Shop, &e.Status, &e.Trigger, &e.TotalItems,
		&e.SuccessCount, &e.FailedCount, &e.SkippedCount, &e.DurationMs,
		&summary, &errText, &e.StartedAt, &e.CompletedAt,
	)
	if err != nil {
		return e, err
	}
	if len(summary) > 0 {
		e.Summary = json.RawMessage(summary)
	}
	if errText != nil {
		e.Error = *errText
	}
	return e, nil
}
