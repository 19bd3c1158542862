package sales

import (
	"context"
	"time"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/domain/partner"
	"github.com/erp/salescore/internal/domain/sales"
	"github.com/google/uuid"
)

// TransactionScope provides transactional access to the repositories the
// document engine writes. Header, lines, numbering and the AR mirror of one
// operation commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to one transaction
type TransactionalRepositories interface {
	Documents() sales.SalesDocumentRepository
	Receivables() finance.ARInvoiceRepository
	Numbering() sales.NumberingService
}

// CustomerStore supplies the customer context for new documents
type CustomerStore interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error)
}

// PeriodGuard rejects writes dated inside a locked accounting period
type PeriodGuard interface {
	Ensure(ctx context.Context, tenantID uuid.UUID, dates ...time.Time) error
}

// ReceivablesPoster keeps the AR mirror of sales invoices in step.
// Implemented by finance.ARSyncService.
type ReceivablesPoster interface {
	PostInvoice(ctx context.Context, repo finance.ARInvoiceRepository, doc *sales.SalesDocument) (*finance.ARInvoice, error)
	SyncOnUpdate(ctx context.Context, repo finance.ARInvoiceRepository, doc *sales.SalesDocument) (*finance.ARInvoice, error)
	VoidCascade(ctx context.Context, repo finance.ARInvoiceRepository, doc *sales.SalesDocument) (*finance.ARInvoice, bool, error)
}

// SourceLocker serializes transfers out of the same source document
// across processes. The returned release func must always be called.
type SourceLocker interface {
	Lock(ctx context.Context, tenantID, sourceID uuid.UUID) (release func(context.Context) error, err error)
}

// noopLocker is used when no distributed lock is configured; the
// conditional outstanding decrement still guards every line.
type noopLocker struct{}

func (noopLocker) Lock(context.Context, uuid.UUID, uuid.UUID) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
