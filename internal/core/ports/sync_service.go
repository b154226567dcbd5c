// internal/core/ports/sync_service.go
package ports

import (
	"context"

	"github.com/ammerola/stocksync/internal/core/domain"
)

// SyncService is the unit of work shared by the manual trigger and the scheduler.
type SyncService interface {
	RunSync(ctx context.Context, shop, trigger string) (*domain.SyncResult, error)
	IsRunning(shop string) bool
	LastSummary(ctx context.Context, shop string) (*domain.SyncRunSummary, error)
}
