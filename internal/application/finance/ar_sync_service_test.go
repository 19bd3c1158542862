package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestInvoice(t *testing.T, tenantID uuid.UUID, qty, price int64) *sales.SalesDocument {
	t.Helper()
	doc, err := sales.NewSalesDocument(
		tenantID,
		sales.DocumentTypeInvoice,
		"INV-000001",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		sales.CustomerSnapshot{ID: uuid.New(), Code: "C001", Name: "Acme", CurrencyCode: "MYR", CreditTermDays: 30},
		sales.HeaderInput{},
		[]sales.LineInput{{ProductCode: "P-1", Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.NewFromInt(price)}},
	)
	require.NoError(t, err)
	return doc
}

func TestARSyncService_PostInvoice(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates an open mirror and links it", func(t *testing.T) {
		repo := new(MockARInvoiceRepository)
		svc := NewARSyncService(zap.NewNop())
		doc := newTestInvoice(t, tenantID, 2, 50)

		repo.On("Save", mock.Anything, mock.AnythingOfType("*finance.ARInvoice")).Return(nil)

		ar, err := svc.PostInvoice(ctx, repo, doc)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, ar.SourceID)
		assert.Equal(t, finance.SourceTypeSalesInvoice, ar.SourceType)
		assert.True(t, ar.NetTotal.Equal(decimal.NewFromInt(100)))
		assert.True(t, ar.OutstandingAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, ar.PaidAmount.IsZero())
		assert.Equal(t, finance.ARInvoiceStatusOpen, ar.Status)
		require.NotNil(t, doc.ARInvoiceID)
		assert.Equal(t, ar.ID, *doc.ARInvoiceID)
		assert.Equal(t, doc.DueDate, ar.DueDate)
		repo.AssertExpectations(t)
	})

	t.Run("rejects a document that is already linked", func(t *testing.T) {
		repo := new(MockARInvoiceRepository)
		svc := NewARSyncService(zap.NewNop())
		doc := newTestInvoice(t, tenantID, 1, 10)
		linked := uuid.New()
		doc.ARInvoiceID = &linked

		_, err := svc.PostInvoice(ctx, repo, doc)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, shared.CodeAlreadyPosted, domainErr.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-invoice documents", func(t *testing.T) {
		repo := new(MockARInvoiceRepository)
		svc := NewARSyncService(zap.NewNop())
		doc := newTestInvoice(t, tenantID, 1, 10)
		doc.DocumentType = sales.DocumentTypeSalesOrder

		_, err := svc.PostInvoice(ctx, repo, doc)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("propagates save failures", func(t *testing.T) {
		repo := new(MockARInvoiceRepository)
		svc := NewARSyncService(zap.NewNop())
		doc := newTestInvoice(t, tenantID, 1, 10)

		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

		_, err := svc.PostInvoice(ctx, repo, doc)
		require.Error(t, err)
		assert.Nil(t, doc.ARInvoiceID)
	})
}

func TestARSyncService_SyncOnUpdate(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("keeps paid amount and re-derives status", func(t *testing.T) {
		repo := new(MockARInvoiceRepository)
		svc := NewARSyncService(zap.NewNop())
		doc := newTestInvoice(t, tenantID, 2, 50)

		repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
		ar, err := svc.PostInvoice(ctx, repo, doc)
		require.NoError(t, err)
		require.NoError(t, ar.ApplyPayment(decimal.NewFromInt(40), "R-1"))

		// edit the invoice down to 1 x 50
		lineID := doc.Lines[0].ID
		require.NoError(t, doc.Revise(doc.DocumentDate, sales.HeaderInput{}, []sales.LineInput{
			{ID: &lineID, ProductCode: "P-1", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)},
		}))

		repo.On("FindByID", ctx, tenantID, ar.ID).Return(ar, nil)
		repo.On("SaveWithLock", ctx, ar).Return(nil)

		synced, err := svc.SyncOnUpdate(ctx, repo, doc)
		require.NoError(t, err)
		assert.True(t, synced.NetTotal.Equal(decimal.NewFromInt(50)))
		assert.True(t, synced.PaidAmount.Equal(decimal.NewFromInt(40)))
		assert.True(t, synced.OutstandingAmount.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, finance.ARInvoiceStatusPartial, synced.Status)
	})

	t.Run("falls back to the source lookup", func(t *testing.T) {
		repo := new(MockARInvoiceRepository)
		svc := NewARSyncService(zap.NewNop())
		doc := newTestInvoice(t, tenantID, 1, 10)
		ar, err := finance.NewARInvoice(tenantID, finance.ARInvoiceSource{
			SourceID: doc.ID, InvoiceNo: doc.DocumentNo, CustomerID: doc.CustomerID, NetTotal: decimal.NewFromInt(99),
		})
		require.NoError(t, err)

		repo.On("FindBySource", ctx, tenantID, finance.SourceTypeSalesInvoice, doc.ID).Return(ar, nil)
		repo.On("SaveWithLock", ctx, ar).Return(nil)

		synced, err := svc.SyncOnUpdate(ctx, repo, doc)
		require.NoError(t, err)
		assert.True(t, synced.NetTotal.Equal(decimal.NewFromInt(10)))
	})

	t.Run("never creates a missing mirror", func(t *testing.T) {
		repo := new(MockARInvoiceRepository)
		svc := NewARSyncService(zap.NewNop())
		doc := newTestInvoice(t, tenantID, 1, 10)

		repo.On("FindBySource", ctx, tenantID, finance.SourceTypeSalesInvoice, doc.ID).Return(nil, shared.ErrNotFound)

		_, err := svc.SyncOnUpdate(ctx, repo, doc)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestARSyncService_VoidCascade(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("voids the linked mirror", func(t *testing.T) {
		repo := new(MockARInvoiceRepository)
		svc := NewARSyncService(zap.NewNop())
		doc := newTestInvoice(t, tenantID, 1, 10)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		ar, err := svc.PostInvoice(ctx, repo, doc)
		require.NoError(t, err)

		repo.On("FindByID", ctx, tenantID, ar.ID).Return(ar, nil)
		repo.On("SaveWithLock", ctx, ar).Return(nil).Once()

		_, changed, err := svc.VoidCascade(ctx, repo, doc)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, finance.ARInvoiceStatusVoid, ar.Status)
		assert.True(t, ar.OutstandingAmount.IsZero())

		// second cascade is a no-op
		_, changed, err = svc.VoidCascade(ctx, repo, doc)
		require.NoError(t, err)
		assert.False(t, changed)
		repo.AssertNumberOfCalls(t, "SaveWithLock", 1)
	})

	t.Run("no mirror is not an error", func(t *testing.T) {
		repo := new(MockARInvoiceRepository)
		svc := NewARSyncService(zap.NewNop())
		doc := newTestInvoice(t, tenantID, 1, 10)

		repo.On("FindBySource", ctx, tenantID, finance.SourceTypeSalesInvoice, doc.ID).Return(nil, shared.ErrNotFound)

		ar, changed, err := svc.VoidCascade(ctx, repo, doc)
		require.NoError(t, err)
		assert.Nil(t, ar)
		assert.False(t, changed)
	})

	t.Run("paid mirror blocks the void", func(t *testing.T) {
		repo := new(MockARInvoiceRepository)
		svc := NewARSyncService(zap.NewNop())
		doc := newTestInvoice(t, tenantID, 1, 10)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		ar, err := svc.PostInvoice(ctx, repo, doc)
		require.NoError(t, err)
		require.NoError(t, ar.ApplyPayment(decimal.NewFromInt(5), ""))

		repo.On("FindByID", ctx, tenantID, ar.ID).Return(ar, nil)

		_, _, err = svc.VoidCascade(ctx, repo, doc)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}
