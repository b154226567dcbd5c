// internal/adapters/storage/local.go
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

// LocalStorage writes run reports to the filesystem. Used in development
// when no bucket is configured.
type LocalStorage struct {
	basePath string
	prefix   string
	logger   *slog.Logger
}

var _ ports.ReportStore = (*LocalStorage)(nil)

// NewLocalStorage creates a new local storage client
func NewLocalStorage(basePath, prefix string, logger *slog.Logger) *LocalStorage {
	return &LocalStorage{
		basePath: basePath,
		prefix:   prefix,
		logger:   logger.With(slog.String("storage", "local")),
	}
}

func (l *LocalStorage) SaveRunReport(ctx context.Context, result *domain.SyncResult) (string, error) {
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run report: %w", err)
	}

	path := filepath.Join(l.basePath, filepath.FromSlash(ReportKey(l.prefix, result.Summary.Shop, result.Summary.RunID.String())))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write run report: %w", err)
	}

	l.logger.DebugContext(ctx, "run report written", slog.String("path", path))
	return path, nil
}
