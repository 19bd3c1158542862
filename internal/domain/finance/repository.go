package finance

import (
	"context"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
)

// ARInvoiceFilter defines filtering options for AR invoice queries
type ARInvoiceFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     *ARInvoiceStatus
	SourceID   *uuid.UUID
}

// ARInvoiceRepository persists AR invoices
type ARInvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ARInvoice, error)

	// FindBySource finds the mirror of a source document
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) (*ARInvoice, error)

	FindAll(ctx context.Context, tenantID uuid.UUID, filter ARInvoiceFilter) ([]ARInvoice, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter ARInvoiceFilter) (int64, error)

	Save(ctx context.Context, invoice *ARInvoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *ARInvoice) error
}

// PeriodLockRepository stores the per-tenant period lock
type PeriodLockRepository interface {
	// Get returns the tenant's lock, or an unlocked value if none is stored
	Get(ctx context.Context, tenantID uuid.UUID) (*PeriodLock, error)
	Save(ctx context.Context, lock *PeriodLock) error
}
