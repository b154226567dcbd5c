// internal/adapters/shopify/inventory.go
package shopify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

var _ ports.CommerceInventory = (*Client)(nil)

const (
	opFindVariant     = "shopify productVariants"
	opInventoryLevels = "shopify inventoryLevels"
	opLocations       = "shopify locations"
	opActivate        = "shopify inventoryActivate"
	opAdjust          = "shopify inventoryAdjustQuantities"
)

const findVariantQuery = `query findVariant($query: String!) {
  productVariants(first: 5, query: $query) {
    nodes {
      id
      sku
      inventoryItem { id }
    }
  }
}`

const inventoryLevelsQuery = `query inventoryLevels($id: ID!) {
  inventoryItem(id: $id) {
    inventoryLevels(first: 50) {
      nodes {
        location { id name }
        quantities(names: ["available"]) { name quantity }
      }
    }
  }
}`

const locationsQuery = `query locations($first: Int!, $after: String) {
  locations(first: $first, after: $after) {
    nodes { id name isActive }
    pageInfo { hasNextPage endCursor }
  }
}`

const activateMutation = `mutation inventoryActivate($inventoryItemId: ID!, $locationId: ID!) {
  inventoryActivate(inventoryItemId: $inventoryItemId, locationId: $locationId) {
    inventoryLevel {
      location { id name }
      quantities(names: ["available"]) { name quantity }
    }
    userErrors { field message }
  }
}`

const adjustMutation = `mutation inventoryAdjustQuantities($input: InventoryAdjustQuantitiesInput!) {
  inventoryAdjustQuantities(input: $input) {
    inventoryAdjustmentGroup { reason }
    userErrors { field message }
  }
}`

// FindVariantBySKU returns the first variant whose SKU equals sku exactly.
// The platform search is fuzzy, so near matches are discarded.
func (c *Client) FindVariantBySKU(ctx context.Context, sku string) (*domain.CommerceVariantRef, error) {
	var data variantsData
	vars := map[string]any{"query": skuSearch(sku)}
	if err := c.graphql(ctx, opFindVariant, findVariantQuery, vars, IsRetryable, &data); err != nil {
		return nil, err
	}

	for _, n := range data.ProductVariants.Nodes {
		if n.SKU != sku || n.InventoryItem == nil {
			continue
		}
		return &domain.CommerceVariantRef{
			VariantID:       n.ID,
			InventoryItemID: n.InventoryItem.ID,
			SKU:             n.SKU,
		}, nil
	}
	return nil, fmt.Errorf("%w: sku %s", domain.ErrVariantNotFound, sku)
}

// GetInventoryLevels returns the available quantity at every location where
// the item is tracked.
func (c *Client) GetInventoryLevels(ctx context.Context, inventoryItemID string) ([]domain.CommerceInventoryLevel, error) {
	var data inventoryLevelsData
	vars := map[string]any{"id": inventoryItemID}
	if err := c.graphql(ctx, opInventoryLevels, inventoryLevelsQuery, vars, IsRetryable, &data); err != nil {
		return nil, err
	}
	if data.InventoryItem == nil {
		return nil, fmt.Errorf("%w: inventory item %s", domain.ErrVariantNotFound, inventoryItemID)
	}

	levels := make([]domain.CommerceInventoryLevel, 0, len(data.InventoryItem.InventoryLevels.Nodes))
	for _, n := range data.InventoryItem.InventoryLevels.Nodes {
		if n.Location == nil {
			continue
		}
		levels = append(levels, toLevel(n))
	}
	return levels, nil
}

// ListShopLocations pages through every location registered in the shop.
func (c *Client) ListShopLocations(ctx context.Context) ([]domain.ShopLocation, error) {
	var (
		locations []domain.ShopLocation
		after     *string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var data locationsData
		vars := map[string]any{"first": c.locationPage, "after": after}
		if err := c.graphql(ctx, opLocations, locationsQuery, vars, IsRetryable, &data); err != nil {
			return nil, err
		}
		for _, n := range data.Locations.Nodes {
			locations = append(locations, domain.ShopLocation{ID: n.ID, Name: n.Name, IsActive: n.IsActive})
		}

		page := data.Locations.PageInfo
		if !page.HasNextPage || page.EndCursor == "" {
			break
		}
		cursor := page.EndCursor
		after = &cursor
	}

	c.logger.DebugContext(ctx, "listed shop locations", slog.Int("count", len(locations)))
	return locations, nil
}

// ActivateInventory starts tracking the item at a location. Only requests
// the platform refused outright are resent.
func (c *Client) ActivateInventory(ctx context.Context, inventoryItemID, locationID string) (*domain.CommerceInventoryLevel, error) {
	if err := c.beforeMutation(ctx); err != nil {
		return nil, err
	}

	var data inventoryActivateData
	vars := map[string]any{"inventoryItemId": inventoryItemID, "locationId": locationID}
	if err := c.graphql(ctx, opActivate, activateMutation, vars, IsThrottled, &data); err != nil {
		return nil, err
	}
	if err := userErrorsToBusinessError(opActivate, data.InventoryActivate.UserErrors); err != nil {
		return nil, err
	}

	level := domain.CommerceInventoryLevel{LocationID: locationID}
	if n := data.InventoryActivate.InventoryLevel; n != nil && n.Location != nil {
		level = toLevel(*n)
	}
	return &level, nil
}

// AdjustInventory applies a signed correction to the available quantity.
func (c *Client) AdjustInventory(ctx context.Context, adj domain.Adjustment) error {
	if adj.Delta == 0 {
		return nil
	}
	if err := c.beforeMutation(ctx); err != nil {
		return err
	}

	vars := map[string]any{
		"input": map[string]any{
			"name":   "available",
			"reason": "correction",
			"changes": []map[string]any{{
				"delta":           adj.Delta,
				"inventoryItemId": adj.InventoryItemID,
				"locationId":      adj.LocationID,
			}},
		},
	}

	var data inventoryAdjustData
	if err := c.graphql(ctx, opAdjust, adjustMutation, vars, IsRetryable, &data); err != nil {
		return err
	}
	if err := userErrorsToBusinessError(opAdjust, data.InventoryAdjustQuantities.UserErrors); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "inventory adjusted",
		slog.String("sku", adj.SKU),
		slog.String("location_id", adj.LocationID),
		slog.Int("delta", adj.Delta))
	return nil
}

func toLevel(n inventoryLevelNode) domain.CommerceInventoryLevel {
	return domain.CommerceInventoryLevel{
		LocationID:   n.Location.ID,
		LocationName: n.Location.Name,
		Available:    n.available(),
	}
}

// skuSearch builds an exact-phrase search term for the variants query.
func skuSearch(sku string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(sku)
	return `sku:"` + escaped + `"`
}
