// internal/adapters/warehouse/factory.go
package warehouse

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

// Mode selects the warehouse implementation.
type Mode string

const (
	ModeHTTP   Mode = "http"
	ModeStatic Mode = "static"
)

// New picks the implementation once, at composition time.
func New(mode Mode, cfg Config, fixturePath string, httpClient *http.Client, logger *slog.Logger) (ports.WarehouseClient, error) {
	switch mode {
	case ModeHTTP:
		return NewHTTPClient(cfg, httpClient, logger)
	case ModeStatic:
		return LoadStaticClient(fixturePath, logger)
	default:
		return nil, domain.ConfigError("unknown warehouse mode %q", mode)
	}
}
