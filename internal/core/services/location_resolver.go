// internal/core/services/location_resolver.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

// Resolution is the commerce level a warehouse location maps to.
type Resolution struct {
	Level        domain.CommerceInventoryLevel
	WasActivated bool
}

// LocationResolver joins warehouse location names to commerce locations and
// activates tracking where the item has no level yet.
type LocationResolver struct {
	commerce ports.CommerceInventory
	logger   *slog.Logger
}

// NewLocationResolver creates a resolver bound to one shop's commerce client.
func NewLocationResolver(commerce ports.CommerceInventory, logger *slog.Logger) *LocationResolver {
	return &LocationResolver{
		commerce: commerce,
		logger:   logger.With(slog.String("service", "location_resolver")),
	}
}

// Resolve returns domain.ErrLocationUnmatched when no active shop location
// has the same normalized name, and a *domain.ActivationError when the
// activation mutation fails. Activation is attempted at most once per call.
func (r *LocationResolver) Resolve(
	ctx context.Context,
	inventoryItemID string,
	warehouseLocation string,
	levels []domain.CommerceInventoryLevel,
	locations []domain.ShopLocation,
) (*Resolution, error) {
	target := domain.NormalizeLocationName(warehouseLocation)

	for _, level := range levels {
		if domain.NormalizeLocationName(level.LocationName) == target {
			return &Resolution{Level: level}, nil
		}
	}

	var match *domain.ShopLocation
	for i := range locations {
		if !locations[i].IsActive {
			continue
		}
		if domain.NormalizeLocationName(locations[i].Name) == target {
			match = &locations[i]
			break
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrLocationUnmatched, warehouseLocation)
	}

	level, err := r.commerce.ActivateInventory(ctx, inventoryItemID, match.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "inventory activation failed",
			slog.String("inventory_item_id", inventoryItemID),
			slog.String("location_id", match.ID),
			slog.String("error", err.Error()))
		return nil, &domain.ActivationError{LocationName: match.Name, Err: err}
	}

	activated := domain.CommerceInventoryLevel{
		LocationID:   match.ID,
		LocationName: match.Name,
	}
	if level != nil {
		activated.Available = level.Available
		if level.LocationName != "" {
			activated.LocationName = level.LocationName
		}
	}

	r.logger.InfoContext(ctx, "activated inventory at location",
		slog.String("inventory_item_id", inventoryItemID),
		slog.String("location", match.Name))

	return &Resolution{Level: activated, WasActivated: true}, nil
}
