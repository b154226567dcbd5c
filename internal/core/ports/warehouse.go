// internal/core/ports/warehouse.go
package ports

import (
	"context"

	"github.com/ammerola/stocksync/internal/core/domain"
)

// WarehouseClient is the read-only view of the external warehouse.
// Implementations are selected once at composition time.
type WarehouseClient interface {
	// FetchCanonicalInventory returns every SKU the warehouse reports, merged
	// across locations. It is all-or-nothing: on a fatal error no items are
	// returned.
	FetchCanonicalInventory(ctx context.Context) ([]domain.CanonicalInventoryItem, error)
}
