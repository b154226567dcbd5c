// internal/adapters/warehouse/client.go
package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/ammerola/stocksync/internal/pkg/retry"
)

const opInventories = "warehouse inventories"

// Location is a configured warehouse location.
type Location struct {
	ID   string
	Name string
}

// Config holds the warehouse HTTP client configuration
type Config struct {
	BaseURL     string
	Token       string
	Locations   []Location
	PageSize    int
	Timeout     time.Duration
	Concurrency int
	Retry       retry.Policy
}

// HTTPClient reads inventory from the warehouse REST API.
type HTTPClient struct {
	baseURL     string
	token       string
	locations   []Location
	names       map[string]string
	pageSize    int
	timeout     time.Duration
	concurrency int
	retry       retry.Policy
	http        *http.Client
	logger      *slog.Logger
}

var _ ports.WarehouseClient = (*HTTPClient)(nil)

// NewHTTPClient validates the configuration before any network call.
func NewHTTPClient(cfg Config, httpClient *http.Client, logger *slog.Logger) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, domain.ConfigError("warehouse base URL is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, domain.ConfigError("warehouse token is required")
	}
	if len(cfg.Locations) == 0 {
		return nil, domain.ConfigError("at least one warehouse location is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	names := make(map[string]string, len(cfg.Locations))
	for _, loc := range cfg.Locations {
		names[loc.ID] = loc.Name
	}

	c := &HTTPClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		locations:   cfg.Locations,
		names:       names,
		pageSize:    cfg.PageSize,
		timeout:     cfg.Timeout,
		concurrency: cfg.Concurrency,
		retry:       cfg.Retry,
		http:        httpClient,
		logger:      logger.With(slog.String("adapter", "warehouse")),
	}
	if c.pageSize <= 0 {
		c.pageSize = 100
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.concurrency <= 0 {
		c.concurrency = 1
	}
	c.retry.Retryable = IsRetryable
	c.retry.Name = opInventories
	if c.retry.Logger == nil {
		c.retry.Logger = c.logger
	}

	return c, nil
}

// FetchCanonicalInventory pages through every configured location and merges
// the records by SKU. Any location failing after retries fails the whole call.
func (c *HTTPClient) FetchCanonicalInventory(ctx context.Context) ([]domain.CanonicalInventoryItem, error) {
	start := time.Now()
	perLocation := make([][]inventoryRecord, len(c.locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, loc := range c.locations {
		g.Go(func() error {
			records, err := c.fetchLocation(gctx, loc)
			if err != nil {
				return fmt.Errorf("location %s: %w", loc.ID, err)
			}
			perLocation[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := c.merge(ctx, perLocation)

	c.logger.InfoContext(ctx, "warehouse inventory fetched",
		slog.Int("locations", len(c.locations)),
		slog.Int("items", len(items)),
		slog.Duration("duration", time.Since(start)))

	return items, nil
}

func (c *HTTPClient) fetchLocation(ctx context.Context, loc Location) ([]inventoryRecord, error) {
	var records []inventoryRecord
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var resp *inventoryPage
		err := c.retry.Do(ctx, func(ctx context.Context) error {
			var err error
			resp, err = c.fetchPage(ctx, loc.ID, page)
			return err
		})
		if err != nil {
			return nil, err
		}

		records = append(records, resp.Data...)
		c.logger.DebugContext(ctx, "fetched warehouse page",
			slog.String("warehouse_id", loc.ID),
			slog.Int("page", resp.CurrentPage),
			slog.Int("last_page", resp.LastPage),
			slog.Int("records", len(resp.Data)))

		if resp.CurrentPage >= resp.LastPage || page >= resp.LastPage {
			return records, nil
		}
	}
}

func (c *HTTPClient) fetchPage(ctx context.Context, warehouseID string, page int) (*inventoryPage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("warehouse_id", warehouseID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/inventories?"+q.Encode(), nil)
	if err != nil {
		return nil, &domain.TransportError{Op: opInventories, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: opInventories, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.TransportError{
			Op:         opInventories,
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	var out inventoryPage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		var netErr net.Error
		retryable := errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
		return nil, &domain.TransportError{Op: opInventories, Retryable: retryable, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

// merge keeps first-seen SKU order across locations in configured order.
func (c *HTTPClient) merge(ctx context.Context, perLocation [][]inventoryRecord) []domain.CanonicalInventoryItem {
	index := make(map[string]int)
	var items []domain.CanonicalInventoryItem

	for i, records := range perLocation {
		fallback := c.locations[i].Name
		for _, rec := range records {
			if rec.Product == nil {
				c.logger.WarnContext(ctx, "dropping warehouse record without product",
					slog.String("warehouse_id", c.locations[i].ID))
				continue
			}
			sku := strings.TrimSpace(rec.Product.SKU)
			if sku == "" {
				c.logger.WarnContext(ctx, "dropping warehouse record without sku",
					slog.String("warehouse_id", c.locations[i].ID),
					slog.String("product", rec.Product.Name))
				continue
			}
			if !rec.Quantity.valid {
				c.logger.WarnContext(ctx, "dropping warehouse record with invalid quantity",
					slog.String("sku", sku),
					slog.String("warehouse_id", c.locations[i].ID))
				continue
			}

			name := fallback
			if mapped, ok := c.names[string(rec.WarehouseID)]; ok {
				name = mapped
			}
			lq := domain.LocationQuantity{LocationName: name, Quantity: rec.Quantity.Int()}

			if idx, ok := index[sku]; ok {
				items[idx].Locations = append(items[idx].Locations, lq)
				continue
			}
			index[sku] = len(items)
			items = append(items, domain.CanonicalInventoryItem{
				SKU:         sku,
				ProductName: strings.TrimSpace(rec.Product.Name),
				Locations:   []domain.LocationQuantity{lq},
			})
		}
	}

	return items
}

// IsRetryable classifies warehouse failures: 5xx, 429, timeouts and network
// errors are transient.
func IsRetryable(err error) bool {
	var te *domain.TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return errors.Is(err, context.DeadlineExceeded)
}
