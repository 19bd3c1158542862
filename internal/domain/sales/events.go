package sales

import (
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeSalesDocument is the aggregate type carried by sales events
const AggregateTypeSalesDocument = "SalesDocument"

// Event type constants
const (
	EventTypeDocumentCreated     = "SalesDocumentCreated"
	EventTypeDocumentUpdated     = "SalesDocumentUpdated"
	EventTypeDocumentPosted      = "SalesDocumentPosted"
	EventTypeDocumentTransferred = "SalesDocumentTransferred"
	EventTypeDocumentVoided      = "SalesDocumentVoided"
	EventTypeDocumentDeleted     = "SalesDocumentDeleted"
)

// DocumentCreatedEvent is raised when a sales document is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentType DocumentType    `json:"document_type"`
	DocumentNo   string          `json:"document_no"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	NetTotal     decimal.Decimal `json:"net_total"`
	SourceID     *uuid.UUID      `json:"source_id,omitempty"`
}

// NewDocumentCreatedEvent creates a DocumentCreatedEvent
func NewDocumentCreatedEvent(d *SalesDocument) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, AggregateTypeSalesDocument, d.ID, d.TenantID),
		DocumentType:    d.DocumentType,
		DocumentNo:      d.DocumentNo,
		CustomerID:      d.CustomerID,
		NetTotal:        d.NetTotal,
		SourceID:        d.SourceID,
	}
}

// DocumentUpdatedEvent is raised after a content edit
type DocumentUpdatedEvent struct {
	shared.BaseDomainEvent
	DocumentType DocumentType    `json:"document_type"`
	DocumentNo   string          `json:"document_no"`
	NetTotal     decimal.Decimal `json:"net_total"`
}

// NewDocumentUpdatedEvent creates a DocumentUpdatedEvent
func NewDocumentUpdatedEvent(d *SalesDocument) *DocumentUpdatedEvent {
	return &DocumentUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentUpdated, AggregateTypeSalesDocument, d.ID, d.TenantID),
		DocumentType:    d.DocumentType,
		DocumentNo:      d.DocumentNo,
		NetTotal:        d.NetTotal,
	}
}

// DocumentPostedEvent is raised when an invoice or cash sale is posted
type DocumentPostedEvent struct {
	shared.BaseDomainEvent
	DocumentType DocumentType    `json:"document_type"`
	DocumentNo   string          `json:"document_no"`
	NetTotal     decimal.Decimal `json:"net_total"`
}

// NewDocumentPostedEvent creates a DocumentPostedEvent
func NewDocumentPostedEvent(d *SalesDocument) *DocumentPostedEvent {
	return &DocumentPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentPosted, AggregateTypeSalesDocument, d.ID, d.TenantID),
		DocumentType:    d.DocumentType,
		DocumentNo:      d.DocumentNo,
		NetTotal:        d.NetTotal,
	}
}

// TransferredLineInfo describes one moved line in a transfer event
type TransferredLineInfo struct {
	LineID   uuid.UUID       `json:"line_id"`
	LineNo   int             `json:"line_no"`
	Quantity decimal.Decimal `json:"quantity"`
}

// DocumentTransferredEvent is raised on the source of a transfer
type DocumentTransferredEvent struct {
	shared.BaseDomainEvent
	DocumentType   DocumentType          `json:"document_type"`
	DocumentNo     string                `json:"document_no"`
	TargetID       uuid.UUID             `json:"target_id"`
	TargetType     DocumentType          `json:"target_type"`
	TransferStatus TransferStatus        `json:"transfer_status"`
	Lines          []TransferredLineInfo `json:"lines"`
}

// NewDocumentTransferredEvent creates a DocumentTransferredEvent
func NewDocumentTransferredEvent(d *SalesDocument, targetID uuid.UUID, targetType DocumentType, plan []TransferLine) *DocumentTransferredEvent {
	lines := make([]TransferredLineInfo, len(plan))
	for i, tl := range plan {
		lines[i] = TransferredLineInfo{LineID: tl.Line.ID, LineNo: tl.Line.LineNo, Quantity: tl.Quantity}
	}
	return &DocumentTransferredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentTransferred, AggregateTypeSalesDocument, d.ID, d.TenantID),
		DocumentType:    d.DocumentType,
		DocumentNo:      d.DocumentNo,
		TargetID:        targetID,
		TargetType:      targetType,
		TransferStatus:  d.TransferStatus,
		Lines:           lines,
	}
}

// DocumentVoidedEvent is raised when a document is voided
type DocumentVoidedEvent struct {
	shared.BaseDomainEvent
	DocumentType DocumentType `json:"document_type"`
	DocumentNo   string       `json:"document_no"`
	Reason       string       `json:"reason"`
}

// NewDocumentVoidedEvent creates a DocumentVoidedEvent
func NewDocumentVoidedEvent(d *SalesDocument) *DocumentVoidedEvent {
	return &DocumentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentVoided, AggregateTypeSalesDocument, d.ID, d.TenantID),
		DocumentType:    d.DocumentType,
		DocumentNo:      d.DocumentNo,
		Reason:          d.VoidReason,
	}
}

// DocumentDeletedEvent is raised after a hard delete
type DocumentDeletedEvent struct {
	shared.BaseDomainEvent
	DocumentType DocumentType `json:"document_type"`
	DocumentNo   string       `json:"document_no"`
}

// NewDocumentDeletedEvent creates a DocumentDeletedEvent
func NewDocumentDeletedEvent(d *SalesDocument) *DocumentDeletedEvent {
	return &DocumentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentDeleted, AggregateTypeSalesDocument, d.ID, d.TenantID),
		DocumentType:    d.DocumentType,
		DocumentNo:      d.DocumentNo,
	}
}
