// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stocksync/internal/adapters/db"
	"github.com/ammerola/stocksync/internal/app"
	"github.com/ammerola/stocksync/internal/core/ports"
	"github.com/ammerola/stocksync/internal/handlers"
	"github.com/ammerola/stocksync/internal/handlers/middleware"
	"github.com/ammerola/stocksync/internal/pkg/config"
	"github.com/ammerola/stocksync/internal/pkg/logger"
	"github.com/ammerola/stocksync/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger(logger.LogConfig{Level: "info", Format: "json"})

	slogger.Info("starting stocksync api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(logger.LogConfig{
		Level:          cfg.App.LogLevel,
		Format:         cfg.App.LogFormat,
		Environment:    cfg.App.Environment,
		ServiceName:    cfg.App.Name + "-api",
		ServiceVersion: Version,
	})
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	if err := app.RunMigrations(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		if cfg.IsProduction() {
			os.Exit(1)
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       ports.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	syncHandler    *handlers.SyncHandler
	exportHandler  *handlers.ExportHandler
	healthHandler  *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)
	database, err := db.NewDatabase(ctx, db.ConfigFromApp(cfg.Database), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	logger.Info("connecting to Redis", slog.String("address", cfg.GetRedisAddress()))
	redisClient := app.NewRedisClient(cfg.Redis)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient

	sync, err := app.NewSync(ctx, cfg, database, redisClient, logger)
	if err != nil {
		deps.cleanup()
		return nil, err
	}

	asynqOpt := app.AsynqRedisOpt(cfg.Asynq)
	deps.asynqClient = asynq.NewClient(asynqOpt)
	deps.asynqInspector = asynq.NewInspector(asynqOpt)

	tasks := workers.NewTaskClient(deps.asynqClient, workers.TaskClientConfig{
		Queue:     cfg.Sync.Queue,
		Timeout:   cfg.Sync.TaskTimeout,
		UniqueFor: cfg.Sync.UniqueFor,
	}, logger)

	deps.syncHandler = handlers.NewSyncHandler(sync.Service, sync.Runs, tasks, cfg.Server.SyncTimeout, logger)
	deps.exportHandler = handlers.NewExportHandler(sync.Runs, logger)
	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, sync.Runs, cfg, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps, logger, cfg)

	// Apply middleware in reverse order (innermost first)
	var handler http.Handler = mux
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logger(logger)(handler)

	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}

	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}

	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}
	handler = middleware.RequestID(handler)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, logger *slog.Logger, cfg *config.Config) {
	apiV1 := "/api/v1"

	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)

	shop := middleware.ShopAuth(cfg.Shopify.AppSecret, logger,
		middleware.WithSignatureMaxAge(cfg.Shopify.SignatureMaxAge))

	mux.Handle("POST "+apiV1+"/sync", shop(http.HandlerFunc(deps.syncHandler.TriggerSync)))
	mux.Handle("POST "+apiV1+"/sync/async", shop(http.HandlerFunc(deps.syncHandler.EnqueueSync)))
	mux.Handle("GET "+apiV1+"/sync/status", shop(http.HandlerFunc(deps.syncHandler.SyncStatus)))
	mux.Handle("GET "+apiV1+"/sync/runs", shop(http.HandlerFunc(deps.syncHandler.ListRuns)))
	mux.Handle("GET "+apiV1+"/sync/runs/{id}", shop(http.HandlerFunc(deps.syncHandler.GetRun)))
	mux.Handle("GET "+apiV1+"/sync/runs/{id}/export", shop(middleware.Compression(http.HandlerFunc(deps.exportHandler.ExportRun))))
}
