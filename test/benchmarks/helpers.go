// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"sync"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

var benchLocations = []domain.ShopLocation{
	{ID: "gid://shopify/Location/1", Name: "Narita - JP", IsActive: true},
	{ID: "gid://shopify/Location/2", Name: "Ba Đình - HN", IsActive: true},
	{ID: "gid://shopify/Location/3", Name: "Osaka Annex", IsActive: false},
}

// memoryShop is a thread-safe in-memory commerce backend.
type memoryShop struct {
	mu     sync.Mutex
	items  map[string]string
	levels map[string]map[string]int
}

func newMemoryShop(catalog []domain.CanonicalInventoryItem) *memoryShop {
	s := &memoryShop{
		items:  make(map[string]string, len(catalog)),
		levels: make(map[string]map[string]int, len(catalog)),
	}
	for i, item := range catalog {
		id := fmt.Sprintf("gid://shopify/InventoryItem/%d", i)
		s.items[item.SKU] = id
		// Only the first location is tracked so runs exercise activation.
		s.levels[id] = map[string]int{benchLocations[0].ID: i % 7}
	}
	return s
}

func (s *memoryShop) FindVariantBySKU(_ context.Context, sku string) (*domain.CommerceVariantRef, error) {
	id, ok := s.items[sku]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	return &domain.CommerceVariantRef{VariantID: "gid://shopify/ProductVariant/" + sku, InventoryItemID: id, SKU: sku}, nil
}

func (s *memoryShop) GetInventoryLevels(_ context.Context, inventoryItemID string) ([]domain.CommerceInventoryLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CommerceInventoryLevel
	for _, l := range benchLocations {
		if qty, ok := s.levels[inventoryItemID][l.ID]; ok {
			out = append(out, domain.CommerceInventoryLevel{LocationID: l.ID, LocationName: l.Name, Available: qty})
		}
	}
	return out, nil
}

func (s *memoryShop) ListShopLocations(context.Context) ([]domain.ShopLocation, error) {
	return benchLocations, nil
}

func (s *memoryShop) ActivateInventory(_ context.Context, inventoryItemID, locationID string) (*domain.CommerceInventoryLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[inventoryItemID][locationID] = 0
	for _, l := range benchLocations {
		if l.ID == locationID {
			return &domain.CommerceInventoryLevel{LocationID: l.ID, LocationName: l.Name}, nil
		}
	}
	return nil, domain.ErrLocationUnmatched
}

func (s *memoryShop) AdjustInventory(_ context.Context, adj domain.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[adj.InventoryItemID][adj.LocationID] += adj.Delta
	return nil
}

type shopFactory struct {
	shop ports.CommerceInventory
}

func (f shopFactory) ForShop(*domain.ShopSession) (ports.CommerceInventory, error) {
	return f.shop, nil
}

type staticSessions struct{}

func (staticSessions) Get(_ context.Context, shop string) (*domain.ShopSession, error) {
	return &domain.ShopSession{Shop: shop, AccessToken: "shpat_bench", IsActive: true}, nil
}

func (staticSessions) ListActive(context.Context) ([]domain.ShopSession, error) {
	return nil, nil
}

func (staticSessions) Upsert(context.Context, *domain.ShopSession) error { return nil }

func (staticSessions) Deactivate(context.Context, string) error { return nil }

// generateCatalog builds n warehouse items; every tenth SKU is unknown to the shop.
func generateCatalog(n int) []domain.CanonicalInventoryItem {
	items := make([]domain.CanonicalInventoryItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, domain.CanonicalInventoryItem{
			SKU:         fmt.Sprintf("BENCH-%05d", i),
			ProductName: fmt.Sprintf("Benchmark Item %d", i),
			Locations: []domain.LocationQuantity{
				{LocationName: "Narita - JP", Quantity: i % 11},
				{LocationName: "  ba đình   -  HN", Quantity: i % 5},
				{LocationName: "Osaka Annex", Quantity: 3},
			},
		})
	}
	return items
}

// withUnknownSKUs returns a copy of catalog where every tenth SKU is renamed
// so the shop cannot find it.
func withUnknownSKUs(catalog []domain.CanonicalInventoryItem) []domain.CanonicalInventoryItem {
	out := make([]domain.CanonicalInventoryItem, len(catalog))
	copy(out, catalog)
	for i := 0; i < len(out); i += 10 {
		out[i].SKU = "MISSING-" + out[i].SKU
	}
	return out
}
