// internal/adapters/db/session_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

type sessionRepository struct {
	db     ports.Database
	logger *slog.Logger
}

// NewSessionRepository reads installed shop sessions. Sessions are written by
// the app's install flow.
func NewSessionRepository(db ports.Database, logger *slog.Logger) ports.SessionRepository {
	return &sessionRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "shop_sessions")),
	}
}

const sessionColumns = `shop, access_token, scope, is_active, installed_at, updated_at`

func (r *sessionRepository) Get(ctx context.Context, shop string) (*domain.ShopSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM shop_sessions WHERE shop = $1 AND is_active`

	s, err := scanSession(r.db.QueryRow(ctx, query, shop))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrShopNotFound, shop)
		}
		return nil, fmt.Errorf("failed to load shop session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepository) ListActive(ctx context.Context) ([]domain.ShopSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM shop_sessions WHERE is_active ORDER BY shop`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop sessions: %w", err)
	}
	sessions, err := ScanMany(rows, scanSession)
	if err != nil {
		return nil, fmt.Errorf("failed to scan shop sessions: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) Upsert(ctx context.Context, s *domain.ShopSession) error {
	query := `
		INSERT INTO shop_sessions (shop, access_token, scope, is_active, installed_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		ON CONFLICT (shop) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			scope = EXCLUDED.scope,
			is_active = TRUE,
			updated_at = NOW()
		RETURNING is_active, installed_at, updated_at`

	err := r.db.QueryRow(ctx, query, s.Shop, s.AccessToken, s.Scope).
		Scan(&s.IsActive, &s.InstalledAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save shop session: %w", err)
	}

	r.logger.InfoContext(ctx, "shop session saved", slog.String("shop", s.Shop))
	return nil
}

func (r *sessionRepository) Deactivate(ctx context.Context, shop string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE shop_sessions SET is_active = FALSE, updated_at = NOW() WHERE shop = $1`, shop)
	if err != nil {
		return fmt.Errorf("failed to deactivate shop session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrShopNotFound, shop)
	}
	return nil
}

func scanSession(row pgx.Row) (domain.ShopSession, error) {
	var s domain.ShopSession
	err := row.Scan(&s.Shop, &s.AccessToken, &s.Scope, &s.IsActive, &s.InstalledAt, &s.UpdatedAt)
	return s, err
}
