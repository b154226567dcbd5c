// internal/adapters/redis_adapter/lock.go
package redis_a

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stocksync/internal/core/ports"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a SET NX based lock shared by the api and worker processes.
type Lock struct {
	client redis.UniversalClient
	logger *slog.Logger
}

var _ ports.RunLock = (*Lock)(nil)

func NewLock(client redis.UniversalClient, logger *slog.Logger) *Lock {
	return &Lock{
		client: client,
		logger: logger.With(slog.String("component", "run_lock")),
	}
}

// Acquire takes key for ttl. ok is false when another holder has it.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx error: %w", err)
	}
	if !ok {
		l.logger.DebugContext(ctx, "lock held elsewhere", slog.String("key", key))
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		if n == 0 {
			l.logger.WarnContext(ctx, "lock expired before release", slog.String("key", key))
		}
		return nil
	}
	return release, true, nil
}
