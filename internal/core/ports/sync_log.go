// internal/core/ports/sync_log.go
package ports

import (
	"context"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/google/uuid"
)

// SyncLogRepository persists one record per sync run.
type SyncLogRepository interface {
	CreateRun(ctx context.Context, shop, trigger string) (uuid.UUID, error)
	CompleteRun(ctx context.Context, id uuid.UUID, result *domain.SyncResult) error
	FailRun(ctx context.Context, id uuid.UUID, runErr error) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.SyncLogEntry, error)
	// FindResult returns the outcomes and item errors recorded for a run.
	FindResult(ctx context.Context, id uuid.UUID) (*domain.SyncResult, error)
	List(ctx context.Context, params RunListParams) (*RunListResult, error)
}

// RunListParams filters the run log.
type RunListParams struct {
	Shop   string
	Status domain.SyncStatus
	Limit  int
	Offset int
}

// RunListResult is a page of run log entries.
type RunListResult struct {
	Runs       []domain.SyncLogEntry `json:"runs"`
	TotalCount int64                 `json:"total_count"`
	Limit      int                   `json:"limit"`
	Offset     int                   `json:"offset"`
}
