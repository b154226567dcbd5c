// internal/core/ports/tasks.go
package ports

import "context"

// SyncTaskEnqueuer schedules a background sync for one shop.
type SyncTaskEnqueuer interface {
	// EnqueueShopSync returns the task id.
	EnqueueShopSync(ctx context.Context, shop string) (string, error)
}
