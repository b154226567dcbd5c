//go:build e2e
// +build e2e

package e2e_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ammerola/stocksync/internal/adapters/db"
	redis_a "github.com/ammerola/stocksync/internal/adapters/redis_adapter"
	"github.com/ammerola/stocksync/internal/adapters/warehouse"
	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/ammerola/stocksync/internal/core/services"
	"github.com/ammerola/stocksync/internal/handlers"
	"github.com/ammerola/stocksync/internal/handlers/middleware"
	"github.com/ammerola/stocksync/test/helpers"
)

const (
	e2eShop   = "e2e-store.myshopify.com"
	naritaID  = "gid://shopify/Location/101"
	baDinhID  = "gid://shopify/Location/102"
	matchaSKU = "4511413305478"
)

// fakeShop keeps inventory levels in memory and applies mutations to them.
type fakeShop struct {
	mu     sync.Mutex
	levels map[string]int
}

func (f *fakeShop) FindVariantBySKU(_ context.Context, sku string) (*domain.CommerceVariantRef, error) {
	if sku != matchaSKU {
		return nil, domain.ErrVariantNotFound
	}
	return &domain.CommerceVariantRef{VariantID: "gid://shopify/ProductVariant/1", InventoryItemID: "gid://shopify/InventoryItem/1", SKU: sku}, nil
}

func (f *fakeShop) GetInventoryLevels(context.Context, string) ([]domain.CommerceInventoryLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CommerceInventoryLevel
	for _, l := range f.locations() {
		if qty, ok := f.levels[l.ID]; ok {
			out = append(out, domain.CommerceInventoryLevel{LocationID: l.ID, LocationName: l.Name, Available: qty})
		}
	}
	return out, nil
}

func (f *fakeShop) locations() []domain.ShopLocation {
	return []domain.ShopLocation{
		{ID: naritaID, Name: "Narita - JP", IsActive: true},
		{ID: baDinhID, Name: "Ba Đình - HN", IsActive: true},
	}
}

func (f *fakeShop) ListShopLocations(context.Context) ([]domain.ShopLocation, error) {
	return f.locations(), nil
}

func (f *fakeShop) ActivateInventory(_ context.Context, _, locationID string) (*domain.CommerceInventoryLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[locationID] = 0
	for _, l := range f.locations() {
		if l.ID == locationID {
			return &domain.CommerceInventoryLevel{LocationID: l.ID, LocationName: l.Name}, nil
		}
	}
	return nil, domain.ErrLocationUnmatched
}

func (f *fakeShop) AdjustInventory(_ context.Context, adj domain.Adjustment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[adj.LocationID] += adj.Delta
	return nil
}

func (f *fakeShop) level(locationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[locationID]
}

type fakeFactory struct{ shop *fakeShop }

func (f fakeFactory) ForShop(*domain.ShopSession) (ports.CommerceInventory, error) {
	return f.shop, nil
}

type SyncE2ESuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	shop      *fakeShop
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis
}

func (s *SyncE2ESuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *SyncE2ESuite) TearDownSuite() {
	s.server.Close()
}

func (s *SyncE2ESuite) startTestServer() *httptest.Server {
	logger := helpers.TestLogger()
	database := s.testDB.Database

	sessions := db.NewSessionRepository(database, logger)
	s.Require().NoError(sessions.Upsert(context.Background(), &domain.ShopSession{
		Shop:        e2eShop,
		AccessToken: "shpat_e2e",
		Scope:       "read_inventory,write_inventory",
		IsActive:    true,
	}))

	wh, err := warehouse.NewStaticClient([]domain.CanonicalInventoryItem{
		{
			SKU:         matchaSKU,
			ProductName: "Uji Matcha Starter Kit",
			Locations: []domain.LocationQuantity{
				{LocationName: "narita -  jp", Quantity: 100},
				{LocationName: "Ba Đình - HN", Quantity: 80},
			},
		},
		{
			SKU:         "NOT-IN-SHOP",
			ProductName: "Bamboo Whisk",
			Locations:   []domain.LocationQuantity{{LocationName: "Narita - JP", Quantity: 5}},
		},
	}, logger)
	s.Require().NoError(err)

	s.shop = &fakeShop{levels: map[string]int{naritaID: 90}}
	runs := db.NewSyncLogRepository(database, logger)
	cache := redis_a.NewCache(s.testRedis.Client, time.Minute, logger)

	svc := services.NewSyncService(wh, fakeFactory{s.shop}, sessions, logger,
		services.WithRunLog(runs),
		services.WithRunLock(redis_a.NewLock(s.testRedis.Client, logger), time.Minute),
		services.WithSummaryCache(cache, time.Minute),
	)

	syncHandler := handlers.NewSyncHandler(svc, runs, nil, 30*time.Second, logger)
	exportHandler := handlers.NewExportHandler(runs, logger)
	shop := middleware.ShopAuth("", logger)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/sync", shop(http.HandlerFunc(syncHandler.TriggerSync)))
	mux.Handle("POST /api/v1/sync/async", shop(http.HandlerFunc(syncHandler.EnqueueSync)))
	mux.Handle("GET /api/v1/sync/status", shop(http.HandlerFunc(syncHandler.SyncStatus)))
	mux.Handle("GET /api/v1/sync/runs", shop(http.HandlerFunc(syncHandler.ListRuns)))
	mux.Handle("GET /api/v1/sync/runs/{id}", shop(http.HandlerFunc(syncHandler.GetRun)))
	mux.Handle("GET /api/v1/sync/runs/{id}/export", shop(http.HandlerFunc(exportHandler.ExportRun)))

	var handler http.Handler = mux
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logger(logger)(handler)
	handler = middleware.RequestID(handler)

	return httptest.NewServer(handler)
}

func (s *SyncE2ESuite) TestCompleteSyncWorkflow() {
	// 1. First manual run activates Ba Đình and adjusts Narita
	resp := s.makeRequest(http.MethodPost, "/sync", e2eShop)
	s.Equal(http.StatusOK, resp.StatusCode)

	var first domain.SyncResult
	s.decodeResponse(resp, &first)
	s.Equal(domain.SyncStatusSuccess, first.Summary.Status)
	s.Equal(2, first.Summary.TotalItems)
	s.Equal(2, first.Summary.SuccessCount)
	s.Equal(1, first.Summary.SkippedCount)
	s.Equal(100, s.shop.level(naritaID))
	s.Equal(80, s.shop.level(baDinhID))

	// 2. Second run is a no-op
	resp = s.makeRequest(http.MethodPost, "/sync", e2eShop)
	s.Equal(http.StatusOK, resp.StatusCode)

	var second domain.SyncResult
	s.decodeResponse(resp, &second)
	s.Equal(0, second.Summary.SuccessCount)
	s.Equal(100, s.shop.level(naritaID))

	// 3. Status reflects the last run
	resp = s.makeRequest(http.MethodGet, "/sync/status", e2eShop)
	s.Equal(http.StatusOK, resp.StatusCode)

	var status handlers.SyncStatusResponse
	s.decodeResponse(resp, &status)
	s.False(status.Running)
	s.Require().NotNil(status.LastSummary)
	s.Equal(second.Summary.RunID, status.LastSummary.RunID)

	// 4. Both runs are in the log
	resp = s.makeRequest(http.MethodGet, "/sync/runs?limit=10", e2eShop)
	s.Equal(http.StatusOK, resp.StatusCode)

	var list ports.RunListResult
	s.decodeResponse(resp, &list)
	s.GreaterOrEqual(list.TotalCount, int64(2))

	// 5. The first run exports with its outcomes
	resp = s.makeRequest(http.MethodGet, fmt.Sprintf("/sync/runs/%s/export?format=json", first.Summary.RunID), e2eShop)
	s.Equal(http.StatusOK, resp.StatusCode)

	var exported domain.SyncResult
	s.decodeResponse(resp, &exported)
	s.Len(exported.Outcomes, len(first.Outcomes))

	resp = s.makeRequest(http.MethodGet, fmt.Sprintf("/sync/runs/%s/export", first.Summary.RunID), e2eShop)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	// 6. Another shop cannot see the run
	resp = s.makeRequest(http.MethodGet, fmt.Sprintf("/sync/runs/%s", first.Summary.RunID), "other-store.myshopify.com")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *SyncE2ESuite) TestUnknownShopIsRejected() {
	resp := s.makeRequest(http.MethodPost, "/sync", "ghost-store.myshopify.com")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *SyncE2ESuite) TestInvalidShopDomain() {
	resp := s.makeRequest(http.MethodPost, "/sync", "not a shop")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func (s *SyncE2ESuite) TestAsyncWithoutQueue() {
	resp := s.makeRequest(http.MethodPost, "/sync/async", e2eShop)
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func (s *SyncE2ESuite) makeRequest(method, path, shop string) *http.Response {
	req, err := http.NewRequest(method, s.baseURL+path, nil)
	s.Require().NoError(err)
	req.Header.Set(handlers.ShopDomainHeader, shop)

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *SyncE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func TestSyncE2E(t *testing.T) {
	suite.Run(t, new(SyncE2ESuite))
}
