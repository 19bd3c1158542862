package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	appsales "github.com/erp/salescore/internal/application/sales"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultSourceLockTTL bounds a transfer's hold on its source
	DefaultSourceLockTTL = 30 * time.Second

	sourceLockRetries = 10
	sourceLockBackoff = 100 * time.Millisecond
)

// RedisSourceLocker serializes transfers out of one source document
// across processes with a redis lock
type RedisSourceLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSourceLocker creates a locker on a shared client
func NewRedisSourceLocker(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisSourceLocker {
	if ttl <= 0 {
		ttl = DefaultSourceLockTTL
	}
	return &RedisSourceLocker{
		locker: redislock.New(client),
		ttl:    ttl,
		logger: logger,
	}
}

// Lock obtains the lock for sourceID, retrying briefly. A lock still held
// after the retries is reported as a conflict.
func (l *RedisSourceLocker) Lock(ctx context.Context, tenantID, sourceID uuid.UUID) (func(context.Context) error, error) {
	key := fmt.Sprintf("lock:transfer:%s:%s", tenantID, sourceID)
	lock, err := l.locker.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(sourceLockBackoff), sourceLockRetries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Warn("could not obtain transfer lock",
			zap.String("source_id", sourceID.String()))
		return nil, shared.NewConflictError("document %s is being transferred, try again", sourceID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain transfer lock: %w", err)
	}

	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}

// Ensure RedisSourceLocker implements SourceLocker
var _ appsales.SourceLocker = (*RedisSourceLocker)(nil)
