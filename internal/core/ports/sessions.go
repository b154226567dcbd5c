// internal/core/ports/sessions.go
package ports

import (
	"context"

	"github.com/ammerola/stocksync/internal/core/domain"
)

// SessionRepository exposes installed shop sessions.
type SessionRepository interface {
	Get(ctx context.Context, shop string) (*domain.ShopSession, error)
	ListActive(ctx context.Context) ([]domain.ShopSession, error)
	Upsert(ctx context.Context, session *domain.ShopSession) error
	Deactivate(ctx context.Context, shop string) error
}
