package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is identity plus audit timestamps, kept in UTC
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh ID
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch marks the entity as modified now
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// TenantAggregateRoot is embedded by every tenant-owned aggregate.
// Repositories compare Version on update for optimistic locking and
// persist nothing of the pending event queue.
type TenantAggregateRoot struct {
	BaseEntity
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
	Version   int

	pending []DomainEvent
}

// NewTenantAggregateRoot starts a new aggregate at version 1
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{BaseEntity: NewBaseEntity(), TenantID: tenantID, Version: 1}
}

// AddDomainEvent queues event until the aggregate is saved
func (a *TenantAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the queue without draining it
func (a *TenantAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

// ClearDomainEvents empties the queue
func (a *TenantAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}

// PullDomainEvents drains the queue
func (a *TenantAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.pending
	a.pending = nil
	return events
}

// BelongsTo reports whether tenantID owns the aggregate
func (a *TenantAggregateRoot) BelongsTo(tenantID uuid.UUID) bool {
	return a.TenantID == tenantID
}
