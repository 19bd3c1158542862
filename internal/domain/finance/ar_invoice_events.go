package finance

import (
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeARInvoice is the aggregate type carried by AR events
const AggregateTypeARInvoice = "ARInvoice"

const (
	EventTypeARInvoiceCreated = "ARInvoiceCreated"
	EventTypeARInvoiceSynced  = "ARInvoiceSynced"
	EventTypeARInvoicePaid    = "ARInvoicePaid"
	EventTypeARInvoiceVoided  = "ARInvoiceVoided"
)

// ARInvoiceCreatedEvent is raised when a sales invoice is posted
type ARInvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNo string          `json:"invoice_no"`
	SourceID  uuid.UUID       `json:"source_id"`
	NetTotal  decimal.Decimal `json:"net_total"`
}

// NewARInvoiceCreatedEvent creates an ARInvoiceCreatedEvent
func NewARInvoiceCreatedEvent(ar *ARInvoice) *ARInvoiceCreatedEvent {
	return &ARInvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeARInvoiceCreated, AggregateTypeARInvoice, ar.ID, ar.TenantID),
		InvoiceNo:       ar.InvoiceNo,
		SourceID:        ar.SourceID,
		NetTotal:        ar.NetTotal,
	}
}

// ARInvoiceSyncedEvent is raised when an edited sales invoice is mirrored
type ARInvoiceSyncedEvent struct {
	shared.BaseDomainEvent
	InvoiceNo         string          `json:"invoice_no"`
	NetTotal          decimal.Decimal `json:"net_total"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	Status            ARInvoiceStatus `json:"status"`
}

// NewARInvoiceSyncedEvent creates an ARInvoiceSyncedEvent
func NewARInvoiceSyncedEvent(ar *ARInvoice) *ARInvoiceSyncedEvent {
	return &ARInvoiceSyncedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeARInvoiceSynced, AggregateTypeARInvoice, ar.ID, ar.TenantID),
		InvoiceNo:         ar.InvoiceNo,
		NetTotal:          ar.NetTotal,
		OutstandingAmount: ar.OutstandingAmount,
		Status:            ar.Status,
	}
}

// ARInvoicePaidEvent is raised when a receipt is applied
type ARInvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNo         string          `json:"invoice_no"`
	Amount            decimal.Decimal `json:"amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	Status            ARInvoiceStatus `json:"status"`
}

// NewARInvoicePaidEvent creates an ARInvoicePaidEvent
func NewARInvoicePaidEvent(ar *ARInvoice, amount decimal.Decimal) *ARInvoicePaidEvent {
	return &ARInvoicePaidEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeARInvoicePaid, AggregateTypeARInvoice, ar.ID, ar.TenantID),
		InvoiceNo:         ar.InvoiceNo,
		Amount:            amount,
		OutstandingAmount: ar.OutstandingAmount,
		Status:            ar.Status,
	}
}

// ARInvoiceVoidedEvent is raised when the mirror is voided
type ARInvoiceVoidedEvent struct {
	shared.BaseDomainEvent
	InvoiceNo string    `json:"invoice_no"`
	SourceID  uuid.UUID `json:"source_id"`
}

// NewARInvoiceVoidedEvent creates an ARInvoiceVoidedEvent
func NewARInvoiceVoidedEvent(ar *ARInvoice) *ARInvoiceVoidedEvent {
	return &ARInvoiceVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeARInvoiceVoided, AggregateTypeARInvoice, ar.ID, ar.TenantID),
		InvoiceNo:       ar.InvoiceNo,
		SourceID:        ar.SourceID,
	}
}
