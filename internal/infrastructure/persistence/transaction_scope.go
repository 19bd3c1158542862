package persistence

import (
	"context"

	appsales "github.com/erp/salescore/internal/application/sales"
	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/domain/sales"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db        *gorm.DB
	padding   int
	numbering sales.NumberingService
}

// ScopeOption configures a GormTransactionScope
type ScopeOption func(*GormTransactionScope)

// WithNumberPadding sets the width of database issued document numbers
func WithNumberPadding(padding int) ScopeOption {
	return func(s *GormTransactionScope) { s.padding = padding }
}

// WithNumbering replaces the in-transaction counter with an external
// numbering service, e.g. the redis backed one
func WithNumbering(n sales.NumberingService) ScopeOption {
	return func(s *GormTransactionScope) { s.numbering = n }
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, opts ...ScopeOption) *GormTransactionScope {
	s := &GormTransactionScope{db: db, padding: sales.DefaultNumberPadding}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, scope: s})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx    *gorm.DB
	scope *GormTransactionScope
}

// Documents returns the sales document repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Documents() sales.SalesDocumentRepository {
	return NewGormSalesDocumentRepository(r.tx)
}

// Receivables returns the AR invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Receivables() finance.ARInvoiceRepository {
	return NewGormARInvoiceRepository(r.tx)
}

// Numbering returns the numbering service. The database counter joins
// the current transaction.
func (r *gormTransactionalRepositories) Numbering() sales.NumberingService {
	if r.scope.numbering != nil {
		return r.scope.numbering
	}
	return NewGormNumberingService(r.tx, r.scope.padding)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appsales.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appsales.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
