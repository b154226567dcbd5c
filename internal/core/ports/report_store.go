// internal/core/ports/report_store.go
package ports

import (
	"context"

	"github.com/ammerola/stocksync/internal/core/domain"
)

// ReportStore archives the full result of a run outside the database.
type ReportStore interface {
	SaveRunReport(ctx context.Context, result *domain.SyncResult) (string, error)
}
