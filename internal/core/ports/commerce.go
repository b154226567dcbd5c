// internal/core/ports/commerce.go
package ports

import (
	"context"

	"github.com/ammerola/stocksync/internal/core/domain"
)

// CommerceInventory reads and mutates inventory on the commerce platform for
// a single shop.
type CommerceInventory interface {
	// FindVariantBySKU returns domain.ErrVariantNotFound when the SKU is unknown.
	FindVariantBySKU(ctx context.Context, sku string) (*domain.CommerceVariantRef, error)
	GetInventoryLevels(ctx context.Context, inventoryItemID string) ([]domain.CommerceInventoryLevel, error)
	ListShopLocations(ctx context.Context) ([]domain.ShopLocation, error)
	// ActivateInventory starts tracking the item at the location; the new
	// level has zero available stock.
	ActivateInventory(ctx context.Context, inventoryItemID, locationID string) (*domain.CommerceInventoryLevel, error)
	AdjustInventory(ctx context.Context, adj domain.Adjustment) error
}

// CommerceFactory builds a shop-scoped commerce client from a stored session.
type CommerceFactory interface {
	ForShop(session *domain.ShopSession) (CommerceInventory, error)
}
