// internal/core/services/reconciler.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

// Reconciler converges one shop's per-location stock to the warehouse's
// canonical quantities, one item at a time.
type Reconciler struct {
	commerce ports.CommerceInventory
	resolver *LocationResolver
	logger   *slog.Logger
}

// NewReconciler creates a reconciler for a single shop.
func NewReconciler(commerce ports.CommerceInventory, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		commerce: commerce,
		resolver: NewLocationResolver(commerce, logger),
		logger:   logger.With(slog.String("service", "reconciler")),
	}
}

// ReconcileItem returns one outcome per requested location, or a single
// "all" outcome when the SKU has no variant. Modelled failures are reported as
// outcomes; the error is reserved for reads that failed after retries.
func (r *Reconciler) ReconcileItem(ctx context.Context, item domain.CanonicalInventoryItem) ([]domain.SyncOutcome, error) {
	variant, err := r.commerce.FindVariantBySKU(ctx, item.SKU)
	if errors.Is(err, domain.ErrVariantNotFound) {
		return []domain.SyncOutcome{{
			SKU:      item.SKU,
			Location: domain.AllLocations,
			Skipped:  true,
			Message:  fmt.Sprintf("no variant with SKU %s; skipped %d location(s)", item.SKU, len(item.Locations)),
		}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find variant %s: %w", item.SKU, err)
	}

	levels, err := r.commerce.GetInventoryLevels(ctx, variant.InventoryItemID)
	if err != nil {
		return nil, fmt.Errorf("get inventory levels for %s: %w", item.SKU, err)
	}

	locations, err := r.commerce.ListShopLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shop locations: %w", err)
	}

	outcomes := make([]domain.SyncOutcome, 0, len(item.Locations))
	for _, lq := range item.Locations {
		outcome := r.reconcileLocation(ctx, item.SKU, variant.InventoryItemID, lq, &levels, locations)
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// reconcileLocation keeps levels current so a location listed twice for the
// same item sees the result of the first adjustment.
func (r *Reconciler) reconcileLocation(
	ctx context.Context,
	sku, inventoryItemID string,
	lq domain.LocationQuantity,
	levels *[]domain.CommerceInventoryLevel,
	locations []domain.ShopLocation,
) domain.SyncOutcome {
	outcome := domain.SyncOutcome{SKU: sku, Location: lq.LocationName}

	res, err := r.resolver.Resolve(ctx, inventoryItemID, lq.LocationName, *levels, locations)
	switch {
	case errors.Is(err, domain.ErrLocationUnmatched):
		outcome.Skipped = true
		outcome.Message = fmt.Sprintf("no shop location matches %q; create it in the shop to sync this stock", lq.LocationName)
		return outcome
	case err != nil:
		outcome.Error = domain.PublicMessage(err)
		outcome.Message = fmt.Sprintf("could not activate inventory at %s", lq.LocationName)
		return outcome
	}

	if res.WasActivated {
		*levels = append(*levels, res.Level)
	}

	current := res.Level.Available
	target := lq.Quantity
	outcome.WasActivated = res.WasActivated
	outcome.PreviousQuantity = domain.IntPtr(current)

	if current == target {
		outcome.Success = true
		outcome.Skipped = true
		outcome.NewQuantity = domain.IntPtr(target)
		outcome.Message = fmt.Sprintf("unchanged at %d", current)
		return outcome
	}

	delta := target - current
	err = r.commerce.AdjustInventory(ctx, domain.Adjustment{
		SKU:             sku,
		InventoryItemID: inventoryItemID,
		LocationID:      res.Level.LocationID,
		Delta:           delta,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "inventory adjustment failed",
			slog.String("sku", sku),
			slog.String("location", lq.LocationName),
			slog.Int("delta", delta),
			slog.String("error", err.Error()))
		outcome.Error = domain.PublicMessage(err)
		outcome.Message = fmt.Sprintf("adjustment of %+d at %s failed", delta, lq.LocationName)
		return outcome
	}

	for i := range *levels {
		if (*levels)[i].LocationID == res.Level.LocationID {
			(*levels)[i].Available = target
		}
	}

	outcome.Success = true
	outcome.NewQuantity = domain.IntPtr(target)
	outcome.Delta = domain.IntPtr(delta)
	outcome.Message = fmt.Sprintf("adjusted %d -> %d", current, target)
	return outcome
}
