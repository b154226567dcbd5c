// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stocksync/internal/adapters/db"
	redis_a "github.com/ammerola/stocksync/internal/adapters/redis_adapter"
	"github.com/ammerola/stocksync/internal/adapters/shopify"
	"github.com/ammerola/stocksync/internal/adapters/storage"
	"github.com/ammerola/stocksync/internal/adapters/warehouse"
	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/ammerola/stocksync/internal/core/services"
	"github.com/ammerola/stocksync/internal/pkg/config"
	"github.com/ammerola/stocksync/internal/pkg/retry"
)

// Sync bundles what both binaries need to run and record syncs.
type Sync struct {
	Service  *services.SyncService
	Runs     ports.SyncLogRepository
	Sessions ports.SessionRepository
	Cache    ports.CacheRepository
}

// NewRedisClient builds the client used for caching and the run lock.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
	})
}

// AsynqRedisOpt returns the connection options shared by the asynq client,
// inspector, server and scheduler.
func AsynqRedisOpt(cfg config.AsynqConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// NewWarehouse selects the warehouse implementation from WAREHOUSE_MODE.
func NewWarehouse(cfg config.WarehouseConfig, logger *slog.Logger) (ports.WarehouseClient, error) {
	locations := make([]warehouse.Location, 0, len(cfg.Locations))
	for _, loc := range cfg.Locations {
		locations = append(locations, warehouse.Location{ID: loc.ID, Name: loc.Name})
	}

	return warehouse.New(warehouse.Mode(cfg.Mode), warehouse.Config{
		BaseURL:     cfg.BaseURL,
		Token:       cfg.Token,
		Locations:   locations,
		PageSize:    cfg.PageSize,
		Timeout:     cfg.Timeout,
		Concurrency: cfg.Concurrency,
		Retry: retry.Policy{
			MaxAttempts:     cfg.RetryMax,
			InitialInterval: cfg.RetryInitial,
			MaxInterval:     cfg.RetryMaxInterval,
			Multiplier:      2,
			Logger:          logger,
		},
	}, cfg.FixturePath, &http.Client{}, logger)
}

// NewCommerceFactory configures the per-shop Admin API clients.
func NewCommerceFactory(cfg config.ShopifyConfig, logger *slog.Logger) *shopify.Factory {
	return shopify.NewFactory(shopify.Config{
		APIVersion:       cfg.APIVersion,
		Timeout:          cfg.Timeout,
		MutationInterval: cfg.MutationInterval,
		MutationBurst:    cfg.MutationBurst,
		PauseEvery:       cfg.PauseEvery,
		PauseDuration:    cfg.PauseDuration,
		LocationPageSize: cfg.LocationPageSize,
		Retry: retry.Policy{
			MaxAttempts:     cfg.RetryMax,
			InitialInterval: cfg.RetryInitial,
			MaxInterval:     cfg.RetryMaxInterval,
			Multiplier:      2,
			Logger:          logger,
		},
	}, &http.Client{}, logger)
}

// NewReportStore returns nil when archiving is disabled, S3 when a bucket is
// configured and the local filesystem otherwise.
func NewReportStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ReportStore, error) {
	if !cfg.Sync.ArchiveReports {
		return nil, nil
	}
	if cfg.AWS.S3Bucket == "" {
		return storage.NewLocalStorage(cfg.Sync.ReportDir, cfg.Sync.ReportPrefix, logger), nil
	}

	store, err := storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		Prefix:          cfg.Sync.ReportPrefix,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewSync wires the sync service with its run log, cache, lock and archive.
func NewSync(ctx context.Context, cfg *config.Config, database ports.Database, rdb redis.UniversalClient, logger *slog.Logger) (*Sync, error) {
	wh, err := NewWarehouse(cfg.Warehouse, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure warehouse: %w", err)
	}

	reports, err := NewReportStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure report store: %w", err)
	}

	cache := redis_a.NewCache(rdb, cfg.Redis.TTL, logger)
	runs := db.NewSyncLogRepository(database, logger)
	sessions := db.NewSessionRepository(database, logger)

	opts := []services.SyncOption{
		services.WithRunLog(runs),
		services.WithRunLock(redis_a.NewLock(rdb, logger), cfg.Sync.LockTTL),
		services.WithSummaryCache(cache, cfg.Sync.SummaryTTL),
	}
	if reports != nil {
		opts = append(opts, services.WithReportStore(reports))
	}

	service := services.NewSyncService(wh, NewCommerceFactory(cfg.Shopify, logger), sessions, logger, opts...)

	logger.Info("sync service configured",
		slog.String("warehouse_mode", cfg.Warehouse.Mode),
		slog.Int("warehouse_locations", len(cfg.Warehouse.Locations)),
		slog.Bool("archive_reports", reports != nil))

	return &Sync{
		Service:  service,
		Runs:     runs,
		Sessions: sessions,
		Cache:    cache,
	}, nil
}

// RunMigrations applies the embedded schema when AutoMigrate is on.
func RunMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if !cfg.Database.AutoMigrate {
		logger.Info("automatic migrations disabled")
		return nil
	}
	logger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}
