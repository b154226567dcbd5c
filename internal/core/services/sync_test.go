package services_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/ammerola/stocksync/internal/core/services"
	"github.com/ammerola/stocksync/test/helpers"
	"github.com/ammerola/stocksync/test/mocks"
)

const testShop = "matcha-house.myshopify.com"

// memoryCommerce is an in-memory shop that applies mutations to its own state.
type memoryCommerce struct {
	mu        sync.Mutex
	variants  map[string]string
	levels    map[string]map[string]int
	locations []domain.ShopLocation
	panicSKU  string
	failSKU   string
	mutations int
}

func newMemoryCommerce() *memoryCommerce {
	return &memoryCommerce{
		variants: map[string]string{},
		levels:   map[string]map[string]int{},
		locations: []domain.ShopLocation{
			{ID: naritaID, Name: naritaName, IsActive: true},
			{ID: baDinhID, Name: baDinhName, IsActive: true},
		},
	}
}

func (c *memoryCommerce) addVariant(sku string, levels map[string]int) {
	id := "gid://shopify/InventoryItem/" + sku
	c.variants[sku] = id
	c.levels[id] = levels
}

func (c *memoryCommerce) locationName(id string) string {
	for _, l := range c.locations {
		if l.ID == id {
			return l.Name
		}
	}
	return ""
}

func (c *memoryCommerce) FindVariantBySKU(_ context.Context, sku string) (*domain.CommerceVariantRef, error) {
	if sku == c.panicSKU {
		panic("corrupt catalog entry")
	}
	if sku == c.failSKU {
		return nil, &domain.TransportError{Op: "productVariants", StatusCode: 500, Retryable: true, Err: errors.New("internal")}
	}
	id, ok := c.variants[sku]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	return &domain.CommerceVariantRef{VariantID: "gid://shopify/ProductVariant/" + sku, InventoryItemID: id, SKU: sku}, nil
}

func (c *memoryCommerce) GetInventoryLevels(_ context.Context, inventoryItemID string) ([]domain.CommerceInventoryLevel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.CommerceInventoryLevel
	for _, l := range c.locations {
		if qty, ok := c.levels[inventoryItemID][l.ID]; ok {
			out = append(out, domain.CommerceInventoryLevel{LocationID: l.ID, LocationName: l.Name, Available: qty})
		}
	}
	return out, nil
}

func (c *memoryCommerce) ListShopLocations(context.Context) ([]domain.ShopLocation, error) {
	return c.locations, nil
}

func (c *memoryCommerce) ActivateInventory(_ context.Context, inventoryItemID, locationID string) (*domain.CommerceInventoryLevel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutations++
	c.levels[inventoryItemID][locationID] = 0
	return &domain.CommerceInventoryLevel{LocationID: locationID, LocationName: c.locationName(locationID)}, nil
}

func (c *memoryCommerce) AdjustInventory(_ context.Context, adj domain.Adjustment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutations++
	c.levels[adj.InventoryItemID][adj.LocationID] += adj.Delta
	return nil
}

type fixedFactory struct {
	commerce ports.CommerceInventory
}

func (f fixedFactory) ForShop(*domain.ShopSession) (ports.CommerceInventory, error) {
	return f.commerce, nil
}

func warehouseItems() []domain.CanonicalInventoryItem {
	return []domain.CanonicalInventoryItem{
		{
			SKU:         testSKU,
			ProductName: "Matcha Kit",
			Locations: []domain.LocationQuantity{
				{LocationName: naritaName, Quantity: 100},
				{LocationName: baDinhName, Quantity: 80},
			},
		},
		{
			SKU:         "SKU-UNLISTED",
			ProductName: "Whisk",
			Locations:   []domain.LocationQuantity{{LocationName: naritaName, Quantity: 4}},
		},
	}
}

func expectSession(m *mocks.MockSessionRepository) {
	m.EXPECT().Get(gomock.Any(), testShop).
		Return(&domain.ShopSession{Shop: testShop, AccessToken: "shpat_test", IsActive: true}, nil).
		AnyTimes()
}

func TestSyncService_RunSync_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	warehouse := mocks.NewMockWarehouseClient(ctrl)
	sessions := mocks.NewMockSessionRepository(ctrl)
	expectSession(sessions)
	warehouse.EXPECT().FetchCanonicalInventory(gomock.Any()).Return(warehouseItems(), nil).Times(2)

	commerce := newMemoryCommerce()
	commerce.addVariant(testSKU, map[string]int{naritaID: 90})

	svc := services.NewSyncService(warehouse, fixedFactory{commerce}, sessions, helpers.TestLogger())

	first, err := svc.RunSync(context.Background(), testShop, domain.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSuccess, first.Summary.Status)
	assert.Equal(t, 2, first.Summary.SuccessCount)
	assert.Equal(t, 1, first.Summary.SkippedCount)
	assert.Equal(t, 1, first.Summary.UnmatchedCount)
	assert.Equal(t, 3, commerce.mutations)

	second, err := svc.RunSync(context.Background(), testShop, domain.TriggerScheduled)
	require.NoError(t, err)
	assert.Equal(t, 3, commerce.mutations, "second run must not mutate")
	assert.Equal(t, 0, second.Summary.SuccessCount)
	for _, o := range second.Outcomes {
		if o.Location == domain.AllLocations {
			continue
		}
		assert.True(t, o.Success)
		assert.True(t, o.Skipped)
	}
}

func TestSyncService_RunSync_PartialFailureIsolation(t *testing.T) {
	tests := []struct {
		name     string
		badSKU   func(*memoryCommerce)
		expected domain.SyncStatus
	}{
		{
			name:     "panicking_item",
			badSKU:   func(c *memoryCommerce) { c.panicSKU = "SKU-2" },
			expected: domain.SyncStatusPartial,
		},
		{
			name:     "item_with_exhausted_retries",
			badSKU:   func(c *memoryCommerce) { c.failSKU = "SKU-2" },
			expected: domain.SyncStatusPartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			warehouse := mocks.NewMockWarehouseClient(ctrl)
			sessions := mocks.NewMockSessionRepository(ctrl)
			expectSession(sessions)

			items := make([]domain.CanonicalInventoryItem, 0, 3)
			commerce := newMemoryCommerce()
			for _, sku := range []string{"SKU-1", "SKU-2", "SKU-3"} {
				commerce.addVariant(sku, map[string]int{naritaID: 1})
				items = append(items, domain.CanonicalInventoryItem{
					SKU:       sku,
					Locations: []domain.LocationQuantity{{LocationName: naritaName, Quantity: 2}},
				})
			}
			tt.badSKU(commerce)
			warehouse.EXPECT().FetchCanonicalInventory(gomock.Any()).Return(items, nil)

			svc := services.NewSyncService(warehouse, fixedFactory{commerce}, sessions, helpers.TestLogger())
			result, err := svc.RunSync(context.Background(), testShop, domain.TriggerManual)

			require.NoError(t, err)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, "SKU-2", result.Errors[0].SKU)
			assert.Len(t, result.Outcomes, 2)
			assert.Equal(t, 2, result.Summary.SuccessCount)
			assert.Equal(t, 1, result.Summary.FailedCount)
			assert.Equal(t, tt.expected, result.Summary.Status)
		})
	}
}

func TestSyncService_RunSync_AllItemsFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	warehouse := mocks.NewMockWarehouseClient(ctrl)
	sessions := mocks.NewMockSessionRepository(ctrl)
	expectSession(sessions)

	commerce := newMemoryCommerce()
	commerce.failSKU = testSKU
	warehouse.EXPECT().FetchCanonicalInventory(gomock.Any()).Return(warehouseItems()[:1], nil)

	svc := services.NewSyncService(warehouse, fixedFactory{commerce}, sessions, helpers.TestLogger())
	result, err := svc.RunSync(context.Background(), testShop, domain.TriggerManual)

	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusFailed, result.Summary.Status)
	assert.Equal(t, "productVariants failed with status 500", result.Errors[0].Error)
}

func TestSyncService_RunSync_EmptyWarehouse(t *testing.T) {
	ctrl := gomock.NewController(t)
	warehouse := mocks.NewMockWarehouseClient(ctrl)
	sessions := mocks.NewMockSessionRepository(ctrl)
	runLog := mocks.NewMockSyncLogRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	expectSession(sessions)

	runID := uuid.New()
	warehouse.EXPECT().FetchCanonicalInventory(gomock.Any()).Return(nil, nil)
	runLog.EXPECT().CreateRun(gomock.Any(), testShop, domain.TriggerScheduled).Return(runID, nil)
	runLog.EXPECT().CompleteRun(gomock.Any(), runID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, result *domain.SyncResult) error {
			assert.Equal(t, domain.SyncStatusPartial, result.Summary.Status)
			return nil
		})
	cache.EXPECT().SetWithTTL(gomock.Any(), services.SummaryKey(testShop), gomock.Any(), time.Hour).Return(nil)

	svc := services.NewSyncService(warehouse, fixedFactory{newMemoryCommerce()}, sessions, helpers.TestLogger(),
		services.WithRunLog(runLog),
		services.WithSummaryCache(cache, time.Hour))

	result, err := svc.RunSync(context.Background(), testShop, domain.TriggerScheduled)

	require.NoError(t, err)
	assert.Equal(t, runID, result.Summary.RunID)
	assert.Equal(t, domain.SyncStatusPartial, result.Summary.Status)
	assert.Equal(t, domain.EmptyInventoryMessage, result.Summary.Message)
	assert.Empty(t, result.Outcomes)
	assert.NotNil(t, result.Errors)
}

func TestSyncService_RunSync_FatalErrors(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(*mocks.MockWarehouseClient, *mocks.MockSessionRepository)
		expectedError error
	}{
		{
			name: "warehouse_fetch_failure_fails_run",
			setupMocks: func(w *mocks.MockWarehouseClient, s *mocks.MockSessionRepository) {
				expectSession(s)
				w.EXPECT().FetchCanonicalInventory(gomock.Any()).
					Return(nil, &domain.TransportError{Op: "warehouse inventories", StatusCode: 502, Retryable: true, Err: errors.New("bad gateway")})
			},
		},
		{
			name: "unknown_shop_fails_before_fetch",
			setupMocks: func(w *mocks.MockWarehouseClient, s *mocks.MockSessionRepository) {
				s.EXPECT().Get(gomock.Any(), testShop).Return(nil, domain.ErrShopNotFound)
			},
			expectedError: domain.ErrShopNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			warehouse := mocks.NewMockWarehouseClient(ctrl)
			sessions := mocks.NewMockSessionRepository(ctrl)
			runLog := mocks.NewMockSyncLogRepository(ctrl)
			tt.setupMocks(warehouse, sessions)

			runID := uuid.New()
			runLog.EXPECT().CreateRun(gomock.Any(), testShop, domain.TriggerManual).Return(runID, nil)
			runLog.EXPECT().FailRun(gomock.Any(), runID, gomock.Any()).Return(nil)

			svc := services.NewSyncService(warehouse, fixedFactory{newMemoryCommerce()}, sessions, helpers.TestLogger(),
				services.WithRunLog(runLog))
			result, err := svc.RunSync(context.Background(), testShop, domain.TriggerManual)

			require.Error(t, err)
			assert.Nil(t, result)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			}
		})
	}
}

func TestSyncService_RunSync_RunLogFailureDoesNotFailRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	warehouse := mocks.NewMockWarehouseClient(ctrl)
	sessions := mocks.NewMockSessionRepository(ctrl)
	runLog := mocks.NewMockSyncLogRepository(ctrl)
	reports := mocks.NewMockReportStore(ctrl)
	expectSession(sessions)

	commerce := newMemoryCommerce()
	commerce.addVariant(testSKU, map[string]int{naritaID: 100, baDinhID: 80})
	warehouse.EXPECT().FetchCanonicalInventory(gomock.Any()).Return(warehouseItems()[:1], nil)
	runLog.EXPECT().CreateRun(gomock.Any(), gomock.Any(), gomock.Any()).Return(uuid.Nil, errors.New("connection refused"))
	runLog.EXPECT().CompleteRun(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
	reports.EXPECT().SaveRunReport(gomock.Any(), gomock.Any()).Return("", errors.New("access denied"))

	svc := services.NewSyncService(warehouse, fixedFactory{commerce}, sessions, helpers.TestLogger(),
		services.WithRunLog(runLog),
		services.WithReportStore(reports))
	result, err := svc.RunSync(context.Background(), testShop, domain.TriggerManual)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.Summary.RunID)
	assert.Equal(t, domain.SyncStatusSuccess, result.Summary.Status)
	assert.Equal(t, 2, result.Summary.SkippedCount)
}

func TestSyncService_RunSync_FinalizesAfterCancellation(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(cancel context.CancelFunc, w *mocks.MockWarehouseClient, runLog *mocks.MockSyncLogRepository, cache *mocks.MockCacheRepository, finalErr *error)
		failed bool
	}{
		{
			name: "completed_run_is_recorded",
			setup: func(cancel context.CancelFunc, w *mocks.MockWarehouseClient, runLog *mocks.MockSyncLogRepository, cache *mocks.MockCacheRepository, finalErr *error) {
				w.EXPECT().FetchCanonicalInventory(gomock.Any()).
					DoAndReturn(func(context.Context) ([]domain.CanonicalInventoryItem, error) {
						cancel()
						return warehouseItems()[:1], nil
					})
				runLog.EXPECT().CompleteRun(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, _ uuid.UUID, _ *domain.SyncResult) error {
						*finalErr = ctx.Err()
						return ctx.Err()
					})
				cache.EXPECT().SetWithTTL(gomock.Any(), services.SummaryKey(testShop), gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, _ string, _ interface{}, _ time.Duration) error {
						return ctx.Err()
					})
			},
		},
		{
			name: "failed_run_is_recorded",
			setup: func(cancel context.CancelFunc, w *mocks.MockWarehouseClient, runLog *mocks.MockSyncLogRepository, _ *mocks.MockCacheRepository, finalErr *error) {
				w.EXPECT().FetchCanonicalInventory(gomock.Any()).
					DoAndReturn(func(ctx context.Context) ([]domain.CanonicalInventoryItem, error) {
						cancel()
						return nil, ctx.Err()
					})
				runLog.EXPECT().FailRun(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, _ uuid.UUID, _ error) error {
						*finalErr = ctx.Err()
						return ctx.Err()
					})
			},
			failed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			warehouse := mocks.NewMockWarehouseClient(ctrl)
			sessions := mocks.NewMockSessionRepository(ctrl)
			runLog := mocks.NewMockSyncLogRepository(ctrl)
			cache := mocks.NewMockCacheRepository(ctrl)
			expectSession(sessions)

			commerce := newMemoryCommerce()
			commerce.addVariant(testSKU, map[string]int{naritaID: 100, baDinhID: 80})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			finalErr := errors.New("run was never finalized")
			runLog.EXPECT().CreateRun(gomock.Any(), testShop, domain.TriggerManual).Return(uuid.New(), nil)
			tt.setup(cancel, warehouse, runLog, cache, &finalErr)

			svc := services.NewSyncService(warehouse, fixedFactory{commerce}, sessions, helpers.TestLogger(),
				services.WithRunLog(runLog),
				services.WithSummaryCache(cache, time.Hour))
			_, err := svc.RunSync(ctx, testShop, domain.TriggerManual)

			if tt.failed {
				assert.ErrorIs(t, err, context.Canceled)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, finalErr)
		})
	}
}

func TestSyncService_RunSync_ComponentLogAttributes(t *testing.T) {
	ctrl := gomock.NewController(t)
	warehouse := mocks.NewMockWarehouseClient(ctrl)
	sessions := mocks.NewMockSessionRepository(ctrl)
	expectSession(sessions)
	warehouse.EXPECT().FetchCanonicalInventory(gomock.Any()).Return(warehouseItems()[:1], nil)

	commerce := newMemoryCommerce()
	commerce.addVariant(testSKU, map[string]int{naritaID: 90})

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	svc := services.NewSyncService(warehouse, fixedFactory{commerce}, sessions, l)
	_, err := svc.RunSync(context.Background(), testShop, domain.TriggerManual)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"service":"location_resolver"`)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, strings.Count(line, `"service":`), 1, line)
	}
}

func TestSyncService_RunSync_OverlapGuard(t *testing.T) {
	t.Run("lock_held_by_other_process", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lock := mocks.NewMockRunLock(ctrl)
		lock.EXPECT().Acquire(gomock.Any(), services.LockKey(testShop), 10*time.Minute).Return(nil, false, nil)

		svc := services.NewSyncService(mocks.NewMockWarehouseClient(ctrl), fixedFactory{}, mocks.NewMockSessionRepository(ctrl),
			helpers.TestLogger(), services.WithRunLock(lock, 10*time.Minute))

		_, err := svc.RunSync(context.Background(), testShop, domain.TriggerScheduled)
		assert.ErrorIs(t, err, domain.ErrSyncInProgress)
		assert.False(t, svc.IsRunning(testShop))
	})

	t.Run("concurrent_run_in_same_process", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		warehouse := mocks.NewMockWarehouseClient(ctrl)
		sessions := mocks.NewMockSessionRepository(ctrl)
		expectSession(sessions)

		started := make(chan struct{})
		unblock := make(chan struct{})
		warehouse.EXPECT().FetchCanonicalInventory(gomock.Any()).
			DoAndReturn(func(context.Context) ([]domain.CanonicalInventoryItem, error) {
				close(started)
				<-unblock
				return nil, nil
			})

		svc := services.NewSyncService(warehouse, fixedFactory{newMemoryCommerce()}, sessions, helpers.TestLogger())

		done := make(chan error, 1)
		go func() {
			_, err := svc.RunSync(context.Background(), testShop, domain.TriggerScheduled)
			done <- err
		}()

		<-started
		assert.True(t, svc.IsRunning(testShop))
		_, err := svc.RunSync(context.Background(), testShop, domain.TriggerManual)
		assert.ErrorIs(t, err, domain.ErrSyncInProgress)

		close(unblock)
		require.NoError(t, <-done)
		assert.False(t, svc.IsRunning(testShop))
	})

	t.Run("lock_released_after_run", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		warehouse := mocks.NewMockWarehouseClient(ctrl)
		sessions := mocks.NewMockSessionRepository(ctrl)
		lock := mocks.NewMockRunLock(ctrl)
		expectSession(sessions)

		released := false
		lock.EXPECT().Acquire(gomock.Any(), services.LockKey(testShop), gomock.Any()).
			Return(func(context.Context) error { released = true; return nil }, true, nil)
		warehouse.EXPECT().FetchCanonicalInventory(gomock.Any()).Return(nil, nil)

		svc := services.NewSyncService(warehouse, fixedFactory{newMemoryCommerce()}, sessions, helpers.TestLogger(),
			services.WithRunLock(lock, 0))
		_, err := svc.RunSync(context.Background(), testShop, domain.TriggerManual)

		require.NoError(t, err)
		assert.True(t, released)
	})
}

func TestSyncService_LastSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	cache.EXPECT().Get(gomock.Any(), "sync:last:"+testShop, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, dest interface{}) error {
			dest.(*domain.SyncRunSummary).Status = domain.SyncStatusPartial
			return nil
		})

	svc := services.NewSyncService(mocks.NewMockWarehouseClient(ctrl), fixedFactory{}, mocks.NewMockSessionRepository(ctrl),
		helpers.TestLogger(), services.WithSummaryCache(cache, 0))

	summary, err := svc.LastSummary(context.Background(), testShop)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusPartial, summary.Status)
}

func TestSyncService_LastSummary_NoRunYet(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	cache.EXPECT().Get(gomock.Any(), "sync:last:"+testShop, gomock.Any()).Return(ports.ErrCacheMiss)

	svc := services.NewSyncService(mocks.NewMockWarehouseClient(ctrl), fixedFactory{}, mocks.NewMockSessionRepository(ctrl),
		helpers.TestLogger(), services.WithSummaryCache(cache, 0))

	summary, err := svc.LastSummary(context.Background(), testShop)
	require.NoError(t, err)
	assert.Nil(t, summary)
}
