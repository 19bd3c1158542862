package sales

import (
	"context"
	"time"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesDocumentRepository persists sales documents with their lines
type SalesDocumentRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SalesDocument, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, docType DocumentType, documentNo string) (*SalesDocument, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) ([]SalesDocument, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) (int64, error)
	FindBySource(ctx context.Context, tenantID, sourceID uuid.UUID) ([]SalesDocument, error)

	// Save inserts or updates the header and synchronizes its lines
	Save(ctx context.Context, doc *SalesDocument) error
	// SaveWithLock is Save with an optimistic version check
	SaveWithLock(ctx context.Context, doc *SalesDocument) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// DecrementOutstanding atomically moves qty from outstanding to
	// transferred on one line. Fails with a conflict if less than qty
	// is outstanding at the time of the update.
	DecrementOutstanding(ctx context.Context, tenantID, lineID uuid.UUID, qty decimal.Decimal) error
}

// DocumentFilter narrows document listings
type DocumentFilter struct {
	shared.Filter
	DocumentType   DocumentType
	Status         DocumentStatus
	TransferStatus TransferStatus
	CustomerID     *uuid.UUID
	DateFrom       *time.Time
	DateTo         *time.Time
}

// NumberingService issues document numbers. Implementations must never
// return the same number twice for a tenant and type.
type NumberingService interface {
	Next(ctx context.Context, tenantID uuid.UUID, docType DocumentType) (string, error)
}
