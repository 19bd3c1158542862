package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate. Events are published
// after the transaction that produced them commits.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// BaseDomainEvent is the envelope embedded by every concrete event. Its
// JSON form is what the audit log and the event catalog round trip.
type BaseDomainEvent struct {
	Event     EventHeader  `json:"event"`
	Aggregate AggregateRef `json:"aggregate"`
	Tenant    uuid.UUID    `json:"tenant_id"`
}

// EventHeader identifies one occurrence
type EventHeader struct {
	ID   uuid.UUID `json:"id"`
	Type string    `json:"type"`
	At   time.Time `json:"at"`
}

// AggregateRef points at the aggregate that raised the event
type AggregateRef struct {
	ID   uuid.UUID `json:"id"`
	Type string    `json:"type"`
}

func (e BaseDomainEvent) EventID() uuid.UUID     { return e.Event.ID }
func (e BaseDomainEvent) EventType() string      { return e.Event.Type }
func (e BaseDomainEvent) OccurredAt() time.Time  { return e.Event.At }
func (e BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate.ID }
func (e BaseDomainEvent) AggregateType() string  { return e.Aggregate.Type }
func (e BaseDomainEvent) TenantID() uuid.UUID    { return e.Tenant }

// NewBaseDomainEvent stamps a fresh event id and the current UTC time
func NewBaseDomainEvent(eventType, aggType string, aggID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		Event:     EventHeader{ID: uuid.New(), Type: eventType, At: time.Now().UTC()},
		Aggregate: AggregateRef{ID: aggID, Type: aggType},
		Tenant:    tenantID,
	}
}

// EventHandler reacts to published events. An empty EventTypes subscribes
// to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what application services depend on
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is the publisher plus the subscription side wired in main
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// EventSource is an aggregate with events waiting to be published
type EventSource interface {
	PullDomainEvents() []DomainEvent
}

// PublishPending drains src and hands its events to publisher. With a nil
// publisher the events are dropped.
func PublishPending(ctx context.Context, publisher EventPublisher, src EventSource) error {
	events := src.PullDomainEvents()
	if publisher == nil || len(events) == 0 {
		return nil
	}
	return publisher.Publish(ctx, events...)
}
