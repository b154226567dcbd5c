// internal/adapters/shopify/factory.go
package shopify

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/ammerola/stocksync/internal/pkg/retry"
)

// Config holds the Admin API client settings shared by every shop.
type Config struct {
	APIVersion       string
	Timeout          time.Duration
	MutationInterval time.Duration
	MutationBurst    int
	PauseEvery       int
	PauseDuration    time.Duration
	LocationPageSize int
	Retry            retry.Policy

	// EndpointOverride replaces https://<shop>/admin/api/<version>/graphql.json
	// when set. Used against local proxies and test servers.
	EndpointOverride string
}

// Factory builds a commerce client per installed shop.
type Factory struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

var _ ports.CommerceFactory = (*Factory)(nil)

func NewFactory(cfg Config, httpClient *http.Client, logger *slog.Logger) *Factory {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-10"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MutationBurst <= 0 {
		cfg.MutationBurst = 1
	}
	if cfg.LocationPageSize <= 0 {
		cfg.LocationPageSize = 50
	}
	return &Factory{
		cfg:    cfg,
		http:   httpClient,
		logger: logger.With(slog.String("adapter", "shopify")),
	}
}

// ForShop returns a client bound to the shop's domain and offline token.
// Each call gets its own mutation limiter.
func (f *Factory) ForShop(session *domain.ShopSession) (ports.CommerceInventory, error) {
	if session == nil || strings.TrimSpace(session.Shop) == "" {
		return nil, domain.ConfigError("shop domain is required")
	}
	if strings.TrimSpace(session.AccessToken) == "" {
		return nil, domain.ConfigError("shop %s has no access token", session.Shop)
	}

	endpoint := f.cfg.EndpointOverride
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", session.Shop, f.cfg.APIVersion)
	}

	limit := rate.Inf
	if f.cfg.MutationInterval > 0 {
		limit = rate.Every(f.cfg.MutationInterval)
	}

	logger := f.logger.With(slog.String("shop", session.Shop))
	policy := f.cfg.Retry
	if policy.Logger == nil {
		policy.Logger = logger
	}

	return &Client{
		shop:          session.Shop,
		endpoint:      endpoint,
		token:         session.AccessToken,
		http:          f.http,
		timeout:       f.cfg.Timeout,
		retry:         policy,
		logger:        logger,
		limiter:       rate.NewLimiter(limit, f.cfg.MutationBurst),
		pauseEvery:    f.cfg.PauseEvery,
		pauseDuration: f.cfg.PauseDuration,
		locationPage:  f.cfg.LocationPageSize,
	}, nil
}
