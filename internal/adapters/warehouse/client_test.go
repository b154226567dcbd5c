package warehouse_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stocksync/internal/adapters/warehouse"
	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/pkg/retry"
	"github.com/ammerola/stocksync/test/helpers"
)

type page struct {
	Data        []map[string]any `json:"data"`
	CurrentPage int              `json:"current_page"`
	LastPage    int              `json:"last_page"`
}

func record(sku, name string, qty any, warehouseID any) map[string]any {
	return map[string]any{
		"product":                 map[string]any{"sku": sku, "name": name},
		"sale_inventory_quantity": qty,
		"warehouse_id":            warehouseID,
	}
}

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Multiplier: 2}
}

func newClient(t *testing.T, baseURL string, concurrency int) *warehouse.HTTPClient {
	t.Helper()
	c, err := warehouse.NewHTTPClient(warehouse.Config{
		BaseURL: baseURL,
		Token:   "wh-token",
		Locations: []warehouse.Location{
			{ID: "1", Name: "Narita - JP"},
			{ID: "2", Name: "Ba Đình - HN"},
		},
		PageSize:    2,
		Timeout:     time.Second,
		Concurrency: concurrency,
		Retry:       fastRetry(),
	}, nil, helpers.TestLogger())
	require.NoError(t, err)
	return c
}

func TestHTTPClient_FetchCanonicalInventory(t *testing.T) {
	pages := map[string][]page{
		"1": {
			{Data: []map[string]any{
				record("4511413305478", "Matcha Kit", 100, 1),
				record(" ", "Blank", 3, 1),
			}, CurrentPage: 1, LastPage: 2},
			{Data: []map[string]any{
				record("SKU-B", "Whisk", "12.9", "1"),
				{"sale_inventory_quantity": 4, "warehouse_id": 1},
			}, CurrentPage: 2, LastPage: 2},
		},
		"2": {
			{Data: []map[string]any{
				record("4511413305478", "Matcha Kit (HN)", "80", 2),
				record("SKU-C", "Bowl", -5, 2),
				record("SKU-D", "Scoop", "n/a", 2),
			}, CurrentPage: 1, LastPage: 1},
		},
	}

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/inventories", r.URL.Path)
		assert.Equal(t, "Bearer wh-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		p, _ := strconv.Atoi(r.URL.Query().Get("page"))
		body := pages[r.URL.Query().Get("warehouse_id")][p-1]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	for _, concurrency := range []int{1, 2} {
		t.Run(fmt.Sprintf("concurrency_%d", concurrency), func(t *testing.T) {
			requests.Store(0)
			items, err := newClient(t, server.URL+"/", concurrency).FetchCanonicalInventory(context.Background())
			require.NoError(t, err)
			assert.EqualValues(t, 3, requests.Load())

			require.Len(t, items, 3)
			assert.Equal(t, domain.CanonicalInventoryItem{
				SKU:         "4511413305478",
				ProductName: "Matcha Kit",
				Locations: []domain.LocationQuantity{
					{LocationName: "Narita - JP", Quantity: 100},
					{LocationName: "Ba Đình - HN", Quantity: 80},
				},
			}, items[0])
			assert.Equal(t, "SKU-B", items[1].SKU)
			assert.Equal(t, 12, items[1].Locations[0].Quantity)
			assert.Equal(t, "SKU-C", items[2].SKU)
			assert.Equal(t, 0, items[2].Locations[0].Quantity)

			seen := map[string]bool{}
			for _, item := range items {
				assert.False(t, seen[item.SKU], "duplicate sku %s", item.SKU)
				seen[item.SKU] = true
			}
		})
	}
}

func TestHTTPClient_FetchCanonicalInventory_Failures(t *testing.T) {
	tests := []struct {
		name          string
		handler       func(calls int32) (int, any)
		expectedCalls int32
		expectedCode  int
	}{
		{
			name: "recovers_from_transient_503",
			handler: func(calls int32) (int, any) {
				if calls < 3 {
					return http.StatusServiceUnavailable, map[string]string{"error": "busy"}
				}
				return http.StatusOK, page{CurrentPage: 1, LastPage: 1}
			},
			expectedCalls: 4,
		},
		{
			name: "exhausted_retries_abort_fetch",
			handler: func(calls int32) (int, any) {
				return http.StatusBadGateway, map[string]string{"error": "bad gateway"}
			},
			expectedCalls: 3,
			expectedCode:  http.StatusBadGateway,
		},
		{
			name: "unauthorized_is_not_retried",
			handler: func(calls int32) (int, any) {
				return http.StatusUnauthorized, map[string]string{"error": "invalid token"}
			},
			expectedCalls: 1,
			expectedCode:  http.StatusUnauthorized,
		},
		{
			name: "rate_limited_then_ok",
			handler: func(calls int32) (int, any) {
				if calls == 1 {
					return http.StatusTooManyRequests, nil
				}
				return http.StatusOK, page{CurrentPage: 1, LastPage: 1}
			},
			expectedCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				status, body := tt.handler(n)
				w.WriteHeader(status)
				if body != nil {
					_ = json.NewEncoder(w).Encode(body)
				}
			}))
			defer server.Close()

			items, err := newClient(t, server.URL, 1).FetchCanonicalInventory(context.Background())

			assert.Equal(t, tt.expectedCalls, calls.Load())
			if tt.expectedCode == 0 {
				require.NoError(t, err)
				assert.Empty(t, items)
				return
			}
			require.Error(t, err)
			assert.Nil(t, items)
			var te *domain.TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.expectedCode, te.StatusCode)
		})
	}
}

func TestNewHTTPClient_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  warehouse.Config
	}{
		{name: "missing_base_url", cfg: warehouse.Config{Token: "t", Locations: []warehouse.Location{{ID: "1", Name: "A"}}}},
		{name: "missing_token", cfg: warehouse.Config{BaseURL: "http://x", Locations: []warehouse.Location{{ID: "1", Name: "A"}}}},
		{name: "missing_locations", cfg: warehouse.Config{BaseURL: "http://x", Token: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := warehouse.NewHTTPClient(tt.cfg, nil, helpers.TestLogger())
			assert.Nil(t, c)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestStaticClient(t *testing.T) {
	t.Run("serves_copies_of_sample", func(t *testing.T) {
		c, err := warehouse.New(warehouse.ModeStatic, warehouse.Config{}, "", nil, helpers.TestLogger())
		require.NoError(t, err)

		first, err := c.FetchCanonicalInventory(context.Background())
		require.NoError(t, err)
		first[0].Locations[0].Quantity = -1

		second, err := c.FetchCanonicalInventory(context.Background())
		require.NoError(t, err)
		assert.Equal(t, warehouse.SampleInventory(), second)
	})

	t.Run("loads_fixture_file", func(t *testing.T) {
		path := helpers.CreateTempFile(t, []byte(`[{"sku":"A-1","product_name":"A","locations":[{"location_name":"Narita - JP","quantity":3}]}]`), ".json")
		c, err := warehouse.LoadStaticClient(path, helpers.TestLogger())
		require.NoError(t, err)

		items, err := c.FetchCanonicalInventory(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Locations[0].Quantity)
	})

	t.Run("rejects_invalid_fixture", func(t *testing.T) {
		path := helpers.CreateTempFile(t, []byte(`[{"sku":"","locations":[]}]`), ".json")
		_, err := warehouse.LoadStaticClient(path, helpers.TestLogger())
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("unknown_mode", func(t *testing.T) {
		_, err := warehouse.New("mock", warehouse.Config{}, "", nil, helpers.TestLogger())
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}
