package event

import (
	"context"
	"fmt"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/erp/salescore/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// InMemoryEventBus dispatches domain events to handlers in-process.
// Services publish only after their transaction committed, so handlers
// never see events of rolled back work.
type InMemoryEventBus struct {
	routes *routes
	logger *zap.Logger
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		routes: newRoutes(),
		logger: logger,
	}
}

// Publish hands every event to its handlers synchronously. A failing
// handler is logged and does not stop the others.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	log := logger.FromContextOr(ctx, b.logger)
	for _, event := range events {
		for _, handler := range b.routes.match(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				log.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.String("aggregate_id", event.AggregateID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler. Without explicit types the handler's
// own EventTypes are used; none at all subscribes to every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.routes.add(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe drops handler from every event type it was routed to
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.routes.remove(handler)
}

// Start only logs; dispatch is synchronous so there is nothing to run
func (b *InMemoryEventBus) Start(context.Context) error {
	b.logger.Info("event bus started",
		zap.Int("handlers", b.routes.count()))
	return nil
}

func (b *InMemoryEventBus) Stop(context.Context) error {
	b.logger.Info("event bus stopped")
	return nil
}

// dispatch turns a handler panic into an error
func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

// Ensure InMemoryEventBus implements EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)
