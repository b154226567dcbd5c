// internal/adapters/warehouse/static.go
package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

// StaticClient serves a fixed inventory snapshot. Used for local development
// and demos where no warehouse endpoint is available.
type StaticClient struct {
	items  []domain.CanonicalInventoryItem
	logger *slog.Logger
}

var _ ports.WarehouseClient = (*StaticClient)(nil)

// NewStaticClient serves the given items. Invalid items are rejected.
func NewStaticClient(items []domain.CanonicalInventoryItem, logger *slog.Logger) (*StaticClient, error) {
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return nil, domain.ConfigError("static inventory item %d: %v", i, err)
		}
	}
	return &StaticClient{
		items:  items,
		logger: logger.With(slog.String("adapter", "warehouse_static")),
	}, nil
}

// LoadStaticClient reads a JSON array of canonical items from path. An empty
// path serves the built-in sample.
func LoadStaticClient(path string, logger *slog.Logger) (*StaticClient, error) {
	if path == "" {
		return NewStaticClient(SampleInventory(), logger)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ConfigError("read warehouse fixture %s: %v", path, err)
	}
	var items []domain.CanonicalInventoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, domain.ConfigError("parse warehouse fixture %s: %v", path, err)
	}
	return NewStaticClient(items, logger)
}

// FetchCanonicalInventory returns a deep copy of the snapshot.
func (c *StaticClient) FetchCanonicalInventory(ctx context.Context) ([]domain.CanonicalInventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch static inventory: %w", err)
	}

	out := make([]domain.CanonicalInventoryItem, len(c.items))
	for i, item := range c.items {
		out[i] = item
		out[i].Locations = append([]domain.LocationQuantity(nil), item.Locations...)
	}

	c.logger.DebugContext(ctx, "serving static warehouse inventory", slog.Int("items", len(out)))
	return out, nil
}

// SampleInventory is the built-in development snapshot.
func SampleInventory() []domain.CanonicalInventoryItem {
	return []domain.CanonicalInventoryItem{
		{
			SKU:         "4511413305478",
			ProductName: "Uji Matcha Starter Kit",
			Locations: []domain.LocationQuantity{
				{LocationName: "Narita - JP", Quantity: 100},
				{LocationName: "Ba Đình - HN", Quantity: 80},
			},
		},
		{
			SKU:         "4902102072618",
			ProductName: "Bamboo Whisk",
			Locations: []domain.LocationQuantity{
				{LocationName: "Narita - JP", Quantity: 25},
			},
		},
	}
}
