// cmd/worker/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stocksync/internal/adapters/db"
	"github.com/ammerola/stocksync/internal/app"
	"github.com/ammerola/stocksync/internal/pkg/config"
	"github.com/ammerola/stocksync/internal/pkg/logger"
	"github.com/ammerola/stocksync/internal/workers"
)

var Version = "dev"

func main() {
	slogger := logger.SetupLogger(logger.LogConfig{Level: "info", Format: "json"})

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
		ServiceName:    cfg.App.Name + "-worker",
		ServiceVersion: Version,
	})
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr),
		slog.String("schedule", cfg.Sync.Schedule))

	ctx := context.Background()

	if err := app.RunMigrations(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Fewer connections for the worker
	dbConfig := db.ConfigFromApp(cfg.Database)
	dbConfig.MaxConnections = 10
	dbConfig.MinConnections = 2
	database, err := db.NewDatabase(ctx, dbConfig, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	redisClient := app.NewRedisClient(cfg.Redis)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slogger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sync, err := app.NewSync(ctx, cfg, database, redisClient, slogger)
	if err != nil {
		slogger.Error("failed to initialize sync service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisOpt := app.AsynqRedisOpt(cfg.Asynq)

	client := asynq.NewClient(redisOpt)
	defer client.Close()
	tasks := workers.NewTaskClient(client, workers.TaskClientConfig{
		Queue:     cfg.Sync.Queue,
		Timeout:   cfg.Sync.TaskTimeout,
		UniqueFor: cfg.Sync.UniqueFor,
	}, slogger)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     cfg.Asynq.Concurrency,
			Queues:          withQueue(cfg.Asynq.Queues, cfg.Sync.Queue),
			StrictPriority:  cfg.Asynq.StrictPriority,
			ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
			RetryDelayFunc:  exponentialBackoff,
			ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
			HealthCheckFunc: healthCheck,
			Logger:          workers.NewAsynqLogger(slogger),
		},
	)

	processor := workers.NewSyncProcessor(sync.Service, sync.Sessions, tasks, slogger)

	mux := asynq.NewServeMux()
	mux.HandleFunc(workers.TypeSyncShop, processor.ProcessShopSync)
	mux.HandleFunc(workers.TypeSyncAll, processor.ProcessSyncAll)

	scheduler := workers.NewScheduler(redisOpt, workers.SchedulerConfig{
		Spec:      cfg.Sync.Schedule,
		Queue:     cfg.Sync.Queue,
		UniqueFor: cfg.Sync.UniqueFor,
	}, slogger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	if err := scheduler.Start(); err != nil {
		slogger.Error("failed to start scheduler", slog.String("error", err.Error()))
		srv.Shutdown()
		os.Exit(1)
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Stop()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

// withQueue makes sure the sync queue is polled even when ASYNQ_QUEUES
// leaves it out.
func withQueue(queues map[string]int, name string) map[string]int {
	out := make(map[string]int, len(queues)+1)
	for q, p := range queues {
		out[q] = p
	}
	if _, ok := out[name]; !ok {
		out[name] = 5
	}
	return out
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}
