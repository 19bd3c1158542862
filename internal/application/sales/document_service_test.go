package sales

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
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T: %v", err, err)
	assert.Equal(t, code, domainErr.Code, domainErr.Message)
}

func (h *harness) request(qty, price string) DocumentRequest {
	id := h.customer.ID
	return DocumentRequest{
		CustomerID:   &id,
		DocumentDate: &Date{time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		Details: []LineRequest{
			{ProductCode: "P-100", Description: "Widget", Quantity: dec(qty), UnitPrice: dec(price)},
		},
	}
}

func (h *harness) create(t *testing.T, docType sales.DocumentType, qty, price string) *DocumentResponse {
	t.Helper()
	resp, err := h.svc.Create(context.Background(), h.tenantID, h.userID, docType, h.request(qty, price))
	require.NoError(t, err)
	return resp
}

func TestDocumentService_CreateInvoicePostsToReceivables(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	req := h.request("2", "50")
	req.Details[0].TaxRate = dec("6")
	resp, err := h.svc.Create(ctx, h.tenantID, h.userID, sales.DocumentTypeInvoice, req)
	require.NoError(t, err)

	assert.Equal(t, "INV-00001", resp.DocumentNo)
	assert.Equal(t, "POSTED", resp.Status)
	assert.True(t, resp.IsPosted)
	assert.Equal(t, "Acme Trading", resp.CustomerName)
	assert.Equal(t, "MYR", resp.CurrencyCode)
	assert.True(t, resp.SubTotal.Equal(dec("100")))
	assert.True(t, resp.TaxAmount.Equal(dec("6")))
	assert.True(t, resp.NetTotal.Equal(dec("106")))
	require.NotNil(t, resp.DueDate)
	assert.Equal(t, "2026-05-31", resp.DueDate.Format("2006-01-02"))
	require.NotNil(t, resp.ARInvoiceID)

	ar, ok := h.store.ars[*resp.ARInvoiceID]
	require.True(t, ok)
	assert.Equal(t, resp.ID, ar.SourceID)
	assert.Equal(t, finance.SourceTypeSalesInvoice, ar.SourceType)
	assert.True(t, ar.OutstandingAmount.Equal(dec("106")))
	assert.Equal(t, finance.ARInvoiceStatusOpen, ar.Status)

	assert.Contains(t, h.publisher.types(), sales.EventTypeDocumentPosted)
	assert.Contains(t, h.publisher.types(), finance.EventTypeARInvoiceCreated)
}

func TestDocumentService_CreateAcceptsAliases(t *testing.T) {
	h := newHarness()
	id := h.customer.ID
	req := DocumentRequest{
		CustomerID: &id,
		DocDate:    &Date{time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)},
		Items:      []LineRequest{{ProductCode: "P-1", Quantity: dec("3"), UnitPrice: dec("10")}},
	}

	resp, err := h.svc.Create(context.Background(), h.tenantID, h.userID, sales.DocumentTypeQuotation, req)
	require.NoError(t, err)
	assert.Equal(t, "2026-04-02", resp.DocumentDate.Format("2006-01-02"))
	require.Len(t, resp.Details, 1)
	assert.Equal(t, 1, resp.Details[0].LineNo)
	assert.True(t, resp.Details[0].OutstandingQty.Equal(dec("3")))
	assert.True(t, resp.Details[0].TransferredQty.IsZero())
	assert.Equal(t, "OPEN", resp.Status)
	assert.Nil(t, resp.ARInvoiceID)
}

func TestDocumentService_CreateValidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Create(ctx, h.tenantID, h.userID, sales.DocumentTypeQuotation, DocumentRequest{})
	assertCode(t, err, shared.CodeValidation)

	missing := uuid.New()
	req := h.request("1", "1")
	req.CustomerID = &missing
	_, err = h.svc.Create(ctx, h.tenantID, h.userID, sales.DocumentTypeQuotation, req)
	assertCode(t, err, shared.CodeNotFound)

	h.customer.Deactivate()
	_, err = h.svc.Create(ctx, h.tenantID, h.userID, sales.DocumentTypeQuotation, h.request("1", "1"))
	assertCode(t, err, shared.CodeValidation)
	assert.Empty(t, h.store.docs)
}

func TestDocumentService_CreateCashSale(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	req := h.request("1", "48.50")
	paid := dec("50")
	req.PaidAmount = &paid
	resp, err := h.svc.Create(ctx, h.tenantID, h.userID, sales.DocumentTypeCashSale, req)
	require.NoError(t, err)
	assert.True(t, resp.IsPosted)
	assert.Nil(t, resp.ARInvoiceID)
	assert.True(t, resp.ChangeAmount.Equal(dec("1.5")))
	assert.Empty(t, h.store.ars)

	short := dec("10")
	req.PaidAmount = &short
	_, err = h.svc.Create(ctx, h.tenantID, h.userID, sales.DocumentTypeCashSale, req)
	assertCode(t, err, shared.CodeValidation)
}

func TestDocumentService_CreateInLockedPeriod(t *testing.T) {
	h := newHarness()
	until := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	h.periods.lock.LockedUntil = &until

	_, err := h.svc.Create(context.Background(), h.tenantID, h.userID, sales.DocumentTypeInvoice, h.request("1", "1"))
	assertCode(t, err, shared.CodePeriodLocked)
	assert.Empty(t, h.store.docs)
	assert.Empty(t, h.store.ars)
}

func TestDocumentService_TransferChain(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	quotation := h.create(t, sales.DocumentTypeQuotation, "10", "5")

	// quotation fully into an order
	res, err := h.svc.Transfer(ctx, h.tenantID, h.userID, quotation.ID, TransferRequest{TargetType: "ORDER"})
	require.NoError(t, err)
	assert.Equal(t, "TRANSFERRED", res.Source.TransferStatus)
	assert.Equal(t, "TRANSFERRED", res.Source.Status)
	order := res.Target
	assert.Equal(t, "SALES_ORDER", order.DocumentType)
	assert.Equal(t, "QUOTATION", order.SourceType)
	assert.Equal(t, quotation.ID, *order.SourceID)
	assert.Equal(t, quotation.DocumentNo, order.Reference)
	require.Len(t, order.Details, 1)
	assert.True(t, order.Details[0].OutstandingQty.Equal(dec("10")))
	assert.Equal(t, quotation.Details[0].ID, *order.Details[0].SourceLineID)

	// 6 of 10 into a delivery order
	res, err = h.svc.Transfer(ctx, h.tenantID, h.userID, order.ID, TransferRequest{
		TargetType:    "DO",
		LineTransfers: []LineTransferRequest{{LineID: order.Details[0].ID, TransferQty: dec("6")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "PARTIAL", res.Source.TransferStatus)
	assert.Equal(t, "OPEN", res.Source.Status)
	assert.True(t, res.Source.Details[0].OutstandingQty.Equal(dec("4")))
	assert.True(t, res.Source.Details[0].TransferredQty.Equal(dec("6")))
	delivery := res.Target
	assert.True(t, delivery.Details[0].Quantity.Equal(dec("6")))
	assert.True(t, delivery.NetTotal.Equal(dec("30")))

	// the stored order line matches the response
	stored := h.store.docs[order.ID]
	assert.True(t, stored.Lines[0].OutstandingQty.Equal(dec("4")))
	assert.True(t, stored.Lines[0].TransferredQty.Equal(dec("6")))

	// delivery order into an invoice auto-posts
	res, err = h.svc.Transfer(ctx, h.tenantID, h.userID, delivery.ID, TransferRequest{TargetType: "INVOICE"})
	require.NoError(t, err)
	invoice := res.Target
	assert.True(t, invoice.IsPosted)
	require.NotNil(t, invoice.ARInvoiceID)
	assert.Equal(t, "2026-06-09", invoice.DueDate.Format("2006-01-02"))
	assert.True(t, h.store.ars[*invoice.ARInvoiceID].NetTotal.Equal(dec("30")))

	lines, err := h.svc.TransferableLines(ctx, h.tenantID, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].OutstandingQty.Equal(dec("4")))
}

func TestDocumentService_TransferTwiceFails(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	quotation := h.create(t, sales.DocumentTypeQuotation, "4", "1")

	_, err := h.svc.Transfer(ctx, h.tenantID, h.userID, quotation.ID, TransferRequest{TargetType: "SALES_ORDER"})
	require.NoError(t, err)

	_, err = h.svc.Transfer(ctx, h.tenantID, h.userID, quotation.ID, TransferRequest{TargetType: "SALES_ORDER"})
	assertCode(t, err, shared.CodeNothingToTransfer)
	assert.Equal(t, 1, h.store.docCount(sales.DocumentTypeSalesOrder))
}

type recordingLocker struct {
	locked   []uuid.UUID
	released int
	err      error
}

func (l *recordingLocker) Lock(_ context.Context, _ uuid.UUID, sourceID uuid.UUID) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, sourceID)
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

func TestDocumentService_TransferHoldsSourceLock(t *testing.T) {
	h := newHarness()
	locker := &recordingLocker{}
	h.svc.SetSourceLocker(locker)
	quotation := h.create(t, sales.DocumentTypeQuotation, "2", "3")

	_, err := h.svc.Transfer(context.Background(), h.tenantID, h.userID, quotation.ID, TransferRequest{TargetType: "SALES_ORDER"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{quotation.ID}, locker.locked)
	assert.Equal(t, 1, locker.released)

	// released on failure too
	_, err = h.svc.Transfer(context.Background(), h.tenantID, h.userID, quotation.ID, TransferRequest{TargetType: "SALES_ORDER"})
	assertCode(t, err, shared.CodeNothingToTransfer)
	assert.Equal(t, 2, locker.released)
}

func TestDocumentService_TransferLockBusy(t *testing.T) {
	h := newHarness()
	h.svc.SetSourceLocker(&recordingLocker{err: shared.NewConflictError("busy")})
	quotation := h.create(t, sales.DocumentTypeQuotation, "2", "3")

	_, err := h.svc.Transfer(context.Background(), h.tenantID, h.userID, quotation.ID, TransferRequest{TargetType: "SALES_ORDER"})
	assertCode(t, err, shared.CodeConflict)
	assert.Equal(t, 0, h.store.docCount(sales.DocumentTypeSalesOrder))
}

func TestDocumentService_TransferRejections(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	quotation := h.create(t, sales.DocumentTypeQuotation, "5", "2")
	lineID := quotation.Details[0].ID

	tests := []struct {
		name string
		req  TransferRequest
		code string
	}{
		{name: "unknown target", req: TransferRequest{TargetType: "PURCHASE_ORDER"}, code: shared.CodeValidation},
		{name: "target not allowed", req: TransferRequest{TargetType: "CREDIT_NOTE"}, code: shared.CodeValidation},
		{
			name: "quantity above outstanding",
			req:  TransferRequest{TargetType: "SO", LineTransfers: []LineTransferRequest{{LineID: lineID, TransferQty: dec("6")}}},
			code: shared.CodeQuantityExceeded,
		},
		{
			name: "all zero quantities",
			req:  TransferRequest{TargetType: "SO", LineTransfers: []LineTransferRequest{{LineID: lineID, TransferQty: decimal.Zero}}},
			code: shared.CodeNothingToTransfer,
		},
		{
			name: "foreign line",
			req:  TransferRequest{TargetType: "SO", LineTransfers: []LineTransferRequest{{LineID: uuid.New(), TransferQty: dec("1")}}},
			code: shared.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Transfer(ctx, h.tenantID, h.userID, quotation.ID, tt.req)
			assertCode(t, err, tt.code)
			assert.Len(t, h.store.docs, 1)
			assert.True(t, h.store.docs[quotation.ID].Lines[0].OutstandingQty.Equal(dec("5")))
		})
	}
}

func TestDocumentService_TransferRollsBackOnFailure(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	req := h.request("3", "10")
	req.Details = append(req.Details, LineRequest{ProductCode: "P-200", Quantity: dec("2"), UnitPrice: dec("7")})
	resp, err := h.svc.Create(ctx, h.tenantID, h.userID, sales.DocumentTypeSalesOrder, req)
	require.NoError(t, err)

	calls := 0
	h.store.decrementHook = func() {
		calls++
		if calls == 2 {
			h.store.decrementErr = shared.NewConflictError("line changed concurrently")
		}
	}

	_, err = h.svc.Transfer(ctx, h.tenantID, h.userID, resp.ID, TransferRequest{TargetType: "INVOICE"})
	assertCode(t, err, shared.CodeConflict)

	source := h.store.docs[resp.ID]
	assert.Equal(t, sales.TransferStatusNone, source.TransferStatus)
	for _, l := range source.Lines {
		assert.True(t, l.TransferredQty.IsZero())
		assert.True(t, l.OutstandingQty.Equal(l.Quantity))
	}
	assert.Equal(t, 0, h.store.docCount(sales.DocumentTypeInvoice))
	assert.Empty(t, h.store.ars)
	assert.Equal(t, 0, h.store.seq[sales.DocumentTypeInvoice])
}

func TestDocumentService_UpdateBlockedAfterTransfer(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	quotation := h.create(t, sales.DocumentTypeQuotation, "2", "3")
	_, err := h.svc.Transfer(ctx, h.tenantID, h.userID, quotation.ID, TransferRequest{TargetType: "SO"})
	require.NoError(t, err)

	_, err = h.svc.Update(ctx, h.tenantID, h.userID, quotation.ID, h.request("5", "3"))
	assertCode(t, err, shared.CodeValidation)
	assert.Contains(t, err.Error(), "TRANSFERRED")
}

func TestDocumentService_UpdateKeepsTransferHistory(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	invoice := h.create(t, sales.DocumentTypeInvoice, "10", "10")

	// credit 4 units, invoice stays editable
	_, err := h.svc.Transfer(ctx, h.tenantID, h.userID, invoice.ID, TransferRequest{
		TargetType:    "CN",
		LineTransfers: []LineTransferRequest{{LineID: invoice.Details[0].ID, TransferQty: dec("4")}},
	})
	require.NoError(t, err)

	lineID := invoice.Details[0].ID
	req := h.request("8", "10")
	req.Details[0].ID = &lineID
	updated, err := h.svc.Update(ctx, h.tenantID, h.userID, invoice.ID, req)
	require.NoError(t, err)
	assert.True(t, updated.Details[0].TransferredQty.Equal(dec("4")))
	assert.True(t, updated.Details[0].OutstandingQty.Equal(dec("4")))
	assert.True(t, updated.NetTotal.Equal(dec("80")))

	ar := h.store.ars[*invoice.ARInvoiceID]
	assert.True(t, ar.NetTotal.Equal(dec("80")))
	assert.True(t, ar.OutstandingAmount.Equal(dec("80")))

	// below the transferred quantity
	req.Details[0].Quantity = dec("3")
	_, err = h.svc.Update(ctx, h.tenantID, h.userID, invoice.ID, req)
	assertCode(t, err, shared.CodeValidation)
}

func TestDocumentService_UpdateVersionConflict(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	quotation := h.create(t, sales.DocumentTypeQuotation, "1", "1")

	req := h.request("2", "1")
	stale := quotation.Version + 5
	req.Version = &stale
	_, err := h.svc.Update(ctx, h.tenantID, h.userID, quotation.ID, req)
	assertCode(t, err, shared.CodeConcurrentModified)

	req.Version = &quotation.Version
	updated, err := h.svc.Update(ctx, h.tenantID, h.userID, quotation.ID, req)
	require.NoError(t, err)
	assert.Equal(t, quotation.Version+1, updated.Version)
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("untransferred document is removed", func(t *testing.T) {
		h := newHarness()
		quotation := h.create(t, sales.DocumentTypeQuotation, "1", "1")
		resp, err := h.svc.Delete(ctx, h.tenantID, h.userID, quotation.ID)
		require.NoError(t, err)
		assert.True(t, resp.Deleted)
		assert.Empty(t, h.store.docs)
		assert.Contains(t, h.publisher.types(), sales.EventTypeDocumentDeleted)
	})

	t.Run("transferred document is voided", func(t *testing.T) {
		h := newHarness()
		quotation := h.create(t, sales.DocumentTypeQuotation, "2", "1")
		_, err := h.svc.Transfer(ctx, h.tenantID, h.userID, quotation.ID, TransferRequest{
			TargetType:    "SO",
			LineTransfers: []LineTransferRequest{{LineID: quotation.Details[0].ID, TransferQty: dec("1")}},
		})
		require.NoError(t, err)

		resp, err := h.svc.Delete(ctx, h.tenantID, h.userID, quotation.ID)
		require.NoError(t, err)
		assert.True(t, resp.Voided)
		assert.False(t, resp.Deleted)
		stored := h.store.docs[quotation.ID]
		assert.True(t, stored.IsVoid)
		assert.Equal(t, sales.DocumentStatusVoid, stored.Status)
	})

	t.Run("posted invoice asks for a void", func(t *testing.T) {
		h := newHarness()
		invoice := h.create(t, sales.DocumentTypeInvoice, "1", "1")
		_, err := h.svc.Delete(ctx, h.tenantID, h.userID, invoice.ID)
		assertCode(t, err, shared.CodeVoidInstead)
		assert.Contains(t, err.Error(), "void it instead")
		assert.Len(t, h.store.docs, 1)
	})
}

func TestDocumentService_VoidCascadesToReceivables(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	invoice := h.create(t, sales.DocumentTypeInvoice, "1", "20")

	voided, err := h.svc.Void(ctx, h.tenantID, h.userID, invoice.ID, VoidRequest{Reason: "wrong customer"})
	require.NoError(t, err)
	assert.True(t, voided.IsVoid)
	assert.Equal(t, "VOID", voided.Status)
	assert.Equal(t, "wrong customer", voided.VoidReason)
	ar := h.store.ars[*invoice.ARInvoiceID]
	assert.Equal(t, finance.ARInvoiceStatusVoid, ar.Status)
	assert.True(t, ar.OutstandingAmount.IsZero())

	again, err := h.svc.Void(ctx, h.tenantID, h.userID, invoice.ID, VoidRequest{})
	require.NoError(t, err)
	assert.Equal(t, voided.Version, again.Version)
	assert.Equal(t, "wrong customer", again.VoidReason)
}

func TestDocumentService_VoidBlockedByPaidReceivable(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	invoice := h.create(t, sales.DocumentTypeInvoice, "1", "20")
	require.NoError(t, h.store.ars[*invoice.ARInvoiceID].ApplyPayment(dec("5"), "R-9"))

	_, err := h.svc.Void(ctx, h.tenantID, h.userID, invoice.ID, VoidRequest{})
	assertCode(t, err, shared.CodeInvalidState)
	assert.False(t, h.store.docs[invoice.ID].IsVoid)
}

func TestDocumentService_ListAndGet(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.create(t, sales.DocumentTypeQuotation, "1", "1")
	h.create(t, sales.DocumentTypeQuotation, "1", "2")
	invoice := h.create(t, sales.DocumentTypeInvoice, "1", "3")

	items, total, err := h.svc.List(ctx, h.tenantID, sales.DocumentTypeQuotation, DocumentListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
	assert.Empty(t, items[0].Details)

	_, _, err = h.svc.List(ctx, h.tenantID, sales.DocumentTypeQuotation, DocumentListFilter{DateFrom: "01/02/2026"})
	assertCode(t, err, shared.CodeValidation)

	got, err := h.svc.GetByID(ctx, h.tenantID, sales.DocumentTypeInvoice, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.DocumentNo, got.DocumentNo)

	_, err = h.svc.GetByID(ctx, h.tenantID, sales.DocumentTypeSalesOrder, invoice.ID)
	assertCode(t, err, shared.CodeNotFound)
}
