package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	appidentity "github.com/erp/salescore/internal/application/identity"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultInvalidationChannel is the pub/sub channel for permission edits
	DefaultInvalidationChannel = "salescore:permission:invalidate"

	defaultCloseTimeout = 5 * time.Second
)

// InvalidationMessage is published whenever a group's rights change
type InvalidationMessage struct {
	GroupID   uuid.UUID `json:"group_id"`
	Origin    string    `json:"origin"`
	Timestamp int64     `json:"timestamp"`
}

// RedisPermissionInvalidator fans permission invalidations out to every
// process over redis pub/sub. The local cache is always invalidated
// synchronously by the evaluator; this only reaches the other replicas.
type RedisPermissionInvalidator struct {
	client   *redis.Client
	channel  string
	origin   string
	logger   *zap.Logger
	cancelFn context.CancelFunc
	doneCh   chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
	running  bool
}

// InvalidatorOption is a functional option for configuring the invalidator
type InvalidatorOption func(*RedisPermissionInvalidator)

// WithInvalidatorChannel sets the Pub/Sub channel name
func WithInvalidatorChannel(channel string) InvalidatorOption {
	return func(i *RedisPermissionInvalidator) {
		if channel != "" {
			i.channel = channel
		}
	}
}

// WithInvalidatorLogger sets the logger for the invalidator
func WithInvalidatorLogger(logger *zap.Logger) InvalidatorOption {
	return func(i *RedisPermissionInvalidator) {
		i.logger = logger
	}
}

// NewRedisPermissionInvalidator creates an invalidator on a shared client.
// The caller keeps ownership of the client.
func NewRedisPermissionInvalidator(client *redis.Client, opts ...InvalidatorOption) *RedisPermissionInvalidator {
	i := &RedisPermissionInvalidator{
		client:  client,
		channel: DefaultInvalidationChannel,
		origin:  uuid.NewString(),
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Broadcast publishes an invalidation for groupID
func (i *RedisPermissionInvalidator) Broadcast(ctx context.Context, groupID uuid.UUID) error {
	data, err := json.Marshal(InvalidationMessage{
		GroupID:   groupID,
		Origin:    i.origin,
		Timestamp: time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	i.logger.Debug("Published permission invalidation",
		zap.String("group_id", groupID.String()),
		zap.String("channel", i.channel))
	return nil
}

// Subscribe applies remote invalidations to cache until ctx is done.
// Messages this process published are skipped. It blocks, so run it in
// a goroutine.
func (i *RedisPermissionInvalidator) Subscribe(ctx context.Context, cache appidentity.PermissionCache) error {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	i.running = true
	subCtx, cancel := context.WithCancel(ctx)
	i.cancelFn = cancel
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
		i.doneOnce.Do(func() { close(i.doneCh) })
	}()

	pubsub := i.client.Subscribe(subCtx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	i.logger.Info("Subscribed to permission invalidation channel", zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			i.logger.Info("Permission invalidation subscription stopped")
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				i.logger.Warn("Permission invalidation channel closed")
				return nil
			}
			i.handle(msg.Payload, cache)
		}
	}
}

func (i *RedisPermissionInvalidator) handle(payload string, cache appidentity.PermissionCache) {
	var m InvalidationMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		i.logger.Error("Failed to unmarshal permission invalidation",
			zap.String("payload", payload),
			zap.Error(err))
		return
	}
	if m.Origin == i.origin {
		return
	}
	cache.Invalidate(m.GroupID)
	i.logger.Debug("Applied remote permission invalidation", zap.String("group_id", m.GroupID.String()))
}

// Close stops the subscription
func (i *RedisPermissionInvalidator) Close() error {
	i.mu.Lock()
	cancelFn := i.cancelFn
	i.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-i.doneCh:
		case <-time.After(defaultCloseTimeout):
			i.logger.Warn("Timeout waiting for subscription to stop")
		}
	}
	return nil
}

// Ensure RedisPermissionInvalidator implements InvalidationBroadcaster
var _ appidentity.InvalidationBroadcaster = (*RedisPermissionInvalidator)(nil)
