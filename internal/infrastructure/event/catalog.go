package event

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/domain/partner"
	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/domain/shared"
)

// Catalog knows every event type this service emits and how to rebuild
// one from its JSON payload.
type Catalog struct {
	factories map[string]func() shared.DomainEvent
}

// NewCatalog returns an empty catalog. Most callers want DefaultCatalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]func() shared.DomainEvent)}
}

// DefaultCatalog lists the sales, receivable and customer events
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	c.Add(sales.EventTypeDocumentCreated, func() shared.DomainEvent { return &sales.DocumentCreatedEvent{} })
	c.Add(sales.EventTypeDocumentUpdated, func() shared.DomainEvent { return &sales.DocumentUpdatedEvent{} })
	c.Add(sales.EventTypeDocumentPosted, func() shared.DomainEvent { return &sales.DocumentPostedEvent{} })
	c.Add(sales.EventTypeDocumentTransferred, func() shared.DomainEvent { return &sales.DocumentTransferredEvent{} })
	c.Add(sales.EventTypeDocumentVoided, func() shared.DomainEvent { return &sales.DocumentVoidedEvent{} })
	c.Add(sales.EventTypeDocumentDeleted, func() shared.DomainEvent { return &sales.DocumentDeletedEvent{} })

	c.Add(finance.EventTypeARInvoiceCreated, func() shared.DomainEvent { return &finance.ARInvoiceCreatedEvent{} })
	c.Add(finance.EventTypeARInvoiceSynced, func() shared.DomainEvent { return &finance.ARInvoiceSyncedEvent{} })
	c.Add(finance.EventTypeARInvoicePaid, func() shared.DomainEvent { return &finance.ARInvoicePaidEvent{} })
	c.Add(finance.EventTypeARInvoiceVoided, func() shared.DomainEvent { return &finance.ARInvoiceVoidedEvent{} })

	c.Add(partner.EventTypeCustomerCreated, func() shared.DomainEvent { return &partner.CustomerCreatedEvent{} })
	c.Add(partner.EventTypeCustomerUpdated, func() shared.DomainEvent { return &partner.CustomerUpdatedEvent{} })
	return c
}

// Add registers a factory for eventType. Not safe for use after the
// catalog has been handed to handlers.
func (c *Catalog) Add(eventType string, factory func() shared.DomainEvent) {
	c.factories[eventType] = factory
}

// Knows reports whether eventType was registered
func (c *Catalog) Knows(eventType string) bool {
	_, ok := c.factories[eventType]
	return ok
}

// Types returns the registered event types in lexical order
func (c *Catalog) Types() []string {
	types := make([]string, 0, len(c.factories))
	for t := range c.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Encode renders a registered event as JSON
func (c *Catalog) Encode(event shared.DomainEvent) ([]byte, error) {
	if !c.Knows(event.EventType()) {
		return nil, fmt.Errorf("event type %q is not in the catalog", event.EventType())
	}
	return json.Marshal(event)
}

// Decode rebuilds the concrete event for eventType from data
func (c *Catalog) Decode(eventType string, data []byte) (shared.DomainEvent, error) {
	factory, ok := c.factories[eventType]
	if !ok {
		return nil, fmt.Errorf("event type %q is not in the catalog", eventType)
	}
	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return event, nil
}
