// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/core/ports"
)

const (
	// TypeSyncShop reconciles one shop.
	TypeSyncShop = "inventory:sync"
	// TypeSyncAll fans out one TypeSyncShop task per installed shop.
	TypeSyncAll = "inventory:sync_all"
)

// SyncPayload is the payload of a TypeSyncShop task.
type SyncPayload struct {
	Shop string `json:"shop"`
}

// NewSyncShopTask builds a TypeSyncShop task for shop.
func NewSyncShopTask(shop string) (*asynq.Task, error) {
	if strings.TrimSpace(shop) == "" {
		return nil, errors.New("shop is required")
	}
	b, err := json.Marshal(SyncPayload{Shop: shop})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sync payload: %w", err)
	}
	return asynq.NewTask(TypeSyncShop, b), nil
}

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskClientConfig controls how sync tasks are enqueued.
type TaskClientConfig struct {
	Queue     string
	Timeout   time.Duration
	UniqueFor time.Duration
	Retention time.Duration
}

// TaskClient enqueues sync tasks through asynq.
type TaskClient struct {
	client taskEnqueuer
	cfg    TaskClientConfig
	logger *slog.Logger
}

var _ ports.SyncTaskEnqueuer = (*TaskClient)(nil)

func NewTaskClient(client taskEnqueuer, cfg TaskClientConfig, logger *slog.Logger) *TaskClient {
	if cfg.Queue == "" {
		cfg.Queue = "default"
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	return &TaskClient{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "task_client")),
	}
}

// EnqueueShopSync queues a sync for shop. A sync already queued for the shop
// within the uniqueness window yields domain.ErrSyncInProgress.
func (c *TaskClient) EnqueueShopSync(ctx context.Context, shop string) (string, error) {
	task, err := NewSyncShopTask(shop)
	if err != nil {
		return "", err
	}

	opts := []asynq.Option{
		asynq.Queue(c.cfg.Queue),
		asynq.MaxRetry(0),
		asynq.Retention(c.cfg.Retention),
	}
	if c.cfg.Timeout > 0 {
		opts = append(opts, asynq.Timeout(c.cfg.Timeout))
	}
	if c.cfg.UniqueFor > 0 {
		opts = append(opts, asynq.Unique(c.cfg.UniqueFor))
	}

	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return "", fmt.Errorf("%w: sync already queued for %s", domain.ErrSyncInProgress, shop)
		}
		return "", fmt.Errorf("failed to enqueue sync for %s: %w", shop, err)
	}

	c.logger.InfoContext(ctx, "sync task queued",
		slog.String("shop", shop),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))

	return info.ID, nil
}
