package partner

import (
	"github.com/erp/salescore/internal/domain/shared"
)

// AggregateTypeCustomer is the aggregate type carried by customer events
const AggregateTypeCustomer = "Customer"

const (
	EventTypeCustomerCreated = "CustomerCreated"
	EventTypeCustomerUpdated = "CustomerUpdated"
)

// CustomerCreatedEvent is raised when a customer is created
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewCustomerCreatedEvent creates a CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, c.ID, c.TenantID),
		Code:            c.Code,
		Name:            c.Name,
	}
}

// CustomerUpdatedEvent is raised when a customer is renamed
type CustomerUpdatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewCustomerUpdatedEvent creates a CustomerUpdatedEvent
func NewCustomerUpdatedEvent(c *Customer) *CustomerUpdatedEvent {
	return &CustomerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerUpdated, AggregateTypeCustomer, c.ID, c.TenantID),
		Code:            c.Code,
		Name:            c.Name,
	}
}
