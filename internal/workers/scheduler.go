// internal/workers/scheduler.go
package workers

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
)

// cronScheduler is the part of *asynq.Scheduler the Scheduler drives.
type cronScheduler interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
	Start() error
	Shutdown()
}

// SchedulerConfig configures the periodic fan-out.
type SchedulerConfig struct {
	Spec      string
	Queue     string
	UniqueFor time.Duration
}

// Scheduler owns the periodic TypeSyncAll registration. Start and Stop are
// idempotent and the scheduler may be restarted after Stop.
type Scheduler struct {
	cfg    SchedulerConfig
	newFn  func() cronScheduler
	logger *slog.Logger

	mu      sync.Mutex
	current cronScheduler
	entryID string
}

// NewScheduler builds a scheduler backed by asynq.
func NewScheduler(redisOpt asynq.RedisConnOpt, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	logger = logger.With(slog.String("component", "scheduler"))
	return newScheduler(cfg, func() cronScheduler {
		return asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
			Logger:   NewAsynqLogger(logger),
			Location: time.UTC,
			PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
				if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
					logger.Error("failed to enqueue scheduled sync", slog.String("error", err.Error()))
				}
			},
		})
	}, logger)
}

func newScheduler(cfg SchedulerConfig, newFn func() cronScheduler, logger *slog.Logger) *Scheduler {
	if cfg.Spec == "" {
		cfg.Spec = "@every 1h"
	}
	if cfg.Queue == "" {
		cfg.Queue = "default"
	}
	return &Scheduler{cfg: cfg, newFn: newFn, logger: logger}
}

// Start registers the sync fan-out and starts ticking. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil
	}

	sched := s.newFn()
	opts := []asynq.Option{asynq.Queue(s.cfg.Queue), asynq.MaxRetry(1)}
	if s.cfg.UniqueFor > 0 {
		opts = append(opts, asynq.Unique(s.cfg.UniqueFor))
	}

	entryID, err := sched.Register(s.cfg.Spec, asynq.NewTask(TypeSyncAll, nil), opts...)
	if err != nil {
		return fmt.Errorf("register %s on %q: %w", TypeSyncAll, s.cfg.Spec, err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	s.current = sched
	s.entryID = entryID
	s.logger.Info("scheduler started",
		slog.String("spec", s.cfg.Spec),
		slog.String("entry_id", entryID))
	return nil
}

// IsRunning reports whether Start succeeded and Stop has not been called since.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Stop shuts the scheduler down. Calling Stop when stopped is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.current.Shutdown()
	s.current = nil
	s.entryID = ""
	s.logger.Info("scheduler stopped")
}
