package sales

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCustomer() CustomerSnapshot {
	return CustomerSnapshot{
		ID:             uuid.New(),
		Code:           "C-001",
		Name:           "Kedai Runcit Ah Seng",
		BillingAddress: "12 Jalan Besar",
		CurrencyCode:   "MYR",
		CreditTermDays: 30,
	}
}

func testLine() LineInput {
	return LineInput{
		ProductCode:    "P-100",
		Description:    "Widget",
		Quantity:       dec("10"),
		UnitPrice:      dec("12.50"),
		DiscountAmount: dec("5"),
		TaxRate:        dec("6"),
	}
}

func newTestDocument(t *testing.T, docType DocumentType, lines ...LineInput) *SalesDocument {
	t.Helper()
	if len(lines) == 0 {
		lines = []LineInput{testLine()}
	}
	doc, err := NewSalesDocument(uuid.New(), docType, FormatDocumentNumber(docType, 2026, 1, 0), docDate, testCustomer(), HeaderInput{}, lines)
	require.NoError(t, err)
	return doc
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T", err)
	assert.Equal(t, code, domainErr.Code)
}

// ============================================
// Creation
// ============================================

func TestNewSalesDocument(t *testing.T) {
	doc := newTestDocument(t, DocumentTypeQuotation)

	assert.Equal(t, "QT-2026-00001", doc.DocumentNo)
	assert.Equal(t, DocumentStatusOpen, doc.Status)
	assert.Equal(t, TransferStatusNone, doc.TransferStatus)
	assert.Equal(t, "MYR", doc.CurrencyCode)
	assert.True(t, doc.ExchangeRate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "Kedai Runcit Ah Seng", doc.CustomerName)
	assert.Nil(t, doc.DueDate, "only invoices derive a due date")

	require.Len(t, doc.Lines, 1)
	line := doc.Lines[0]
	assert.Equal(t, 1, line.LineNo)
	assert.True(t, line.SubTotal.Equal(dec("125")))
	assert.True(t, line.TaxAmount.Equal(dec("7.2")))
	assert.True(t, line.OutstandingQty.Equal(dec("10")))
	assert.True(t, line.TransferredQty.IsZero())
	assert.True(t, line.BaseQuantity.Equal(dec("10")))

	assert.True(t, doc.SubTotal.Equal(dec("125")))
	assert.True(t, doc.DiscountAmount.Equal(dec("5")))
	assert.True(t, doc.TaxAmount.Equal(dec("7.2")))
	assert.True(t, doc.NetTotal.Equal(dec("127.2")))
	assert.True(t, doc.NetTotalLocal.Equal(dec("127.2")))

	events := doc.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeDocumentCreated, events[0].EventType())
}

func TestNewSalesDocument_Validation(t *testing.T) {
	customer := testCustomer()
	tests := []struct {
		name     string
		docType  DocumentType
		number   string
		customer CustomerSnapshot
		lines    []LineInput
	}{
		{"invalid type", DocumentType("RECEIPT"), "X-1", customer, []LineInput{testLine()}},
		{"empty number", DocumentTypeInvoice, "", customer, []LineInput{testLine()}},
		{"missing customer", DocumentTypeInvoice, "INV-1", CustomerSnapshot{}, []LineInput{testLine()}},
		{"no lines", DocumentTypeInvoice, "INV-1", customer, nil},
		{"zero quantity", DocumentTypeInvoice, "INV-1", customer, []LineInput{{ProductCode: "P", Quantity: decimal.Zero}}},
		{"negative price", DocumentTypeInvoice, "INV-1", customer, []LineInput{{ProductCode: "P", Quantity: dec("1"), UnitPrice: dec("-1")}}},
		{"no product or description", DocumentTypeInvoice, "INV-1", customer, []LineInput{{Quantity: dec("1")}}},
		{"discount above amount", DocumentTypeInvoice, "INV-1", customer, []LineInput{{ProductCode: "P", Quantity: dec("1"), UnitPrice: dec("10"), DiscountAmount: dec("11")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSalesDocument(uuid.New(), tt.docType, tt.number, docDate, tt.customer, HeaderInput{}, tt.lines)
			assertCode(t, err, shared.CodeValidation)
		})
	}
}

func TestNewSalesDocument_InvoiceDueDate(t *testing.T) {
	doc := newTestDocument(t, DocumentTypeInvoice)
	require.NotNil(t, doc.DueDate)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), *doc.DueDate)

	explicit := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	doc, err := NewSalesDocument(uuid.New(), DocumentTypeInvoice, "INV-2026-00002", docDate, testCustomer(),
		HeaderInput{DueDate: &explicit}, []LineInput{testLine()})
	require.NoError(t, err)
	assert.Equal(t, explicit, *doc.DueDate)
}

func TestNewSalesDocument_ExplicitTaxAndUOM(t *testing.T) {
	tax := dec("3.333")
	line := testLine()
	line.TaxAmount = &tax
	line.UOMCode = "BOX"
	line.UOMRate = dec("12")

	doc := newTestDocument(t, DocumentTypeSalesOrder, line)
	assert.True(t, doc.Lines[0].TaxAmount.Equal(dec("3.33")))
	assert.True(t, doc.Lines[0].BaseQuantity.Equal(dec("120")))
	assert.True(t, doc.NetTotal.Equal(dec("123.33")))
}

func TestNewSalesDocument_CashSale(t *testing.T) {
	t.Run("defaults to exact payment", func(t *testing.T) {
		doc := newTestDocument(t, DocumentTypeCashSale)
		assert.True(t, doc.PaidAmount.Equal(dec("127.2")))
		assert.True(t, doc.ChangeAmount.IsZero())
	})

	t.Run("computes change", func(t *testing.T) {
		paid := dec("150")
		doc, err := NewSalesDocument(uuid.New(), DocumentTypeCashSale, "CS-2026-00001", docDate, testCustomer(),
			HeaderInput{PaidAmount: &paid, RoundingAmount: dec("-0.2")}, []LineInput{testLine()})
		require.NoError(t, err)
		assert.True(t, doc.PayableTotal().Equal(dec("127")))
		assert.True(t, doc.ChangeAmount.Equal(dec("23")))
	})

	t.Run("rejects short payment", func(t *testing.T) {
		paid := dec("100")
		_, err := NewSalesDocument(uuid.New(), DocumentTypeCashSale, "CS-2026-00002", docDate, testCustomer(),
			HeaderInput{PaidAmount: &paid}, []LineInput{testLine()})
		assertCode(t, err, shared.CodeValidation)
	})
}

func TestNewSalesDocument_ForeignCurrency(t *testing.T) {
	doc, err := NewSalesDocument(uuid.New(), DocumentTypeInvoice, "INV-2026-00003", docDate, testCustomer(),
		HeaderInput{CurrencyCode: "USD", ExchangeRate: dec("4.5")}, []LineInput{testLine()})
	require.NoError(t, err)
	assert.Equal(t, "USD", doc.CurrencyCode)
	assert.True(t, doc.NetTotalLocal.Equal(dec("572.4")))
}

// ============================================
// Posting, voiding and deletion
// ============================================

func TestSalesDocument_MarkPosted(t *testing.T) {
	doc := newTestDocument(t, DocumentTypeInvoice)
	require.NoError(t, doc.MarkPosted())
	assert.True(t, doc.IsPosted)
	assert.Equal(t, DocumentStatusPosted, doc.Status)

	assert.ErrorIs(t, doc.MarkPosted(), shared.ErrAlreadyPosted)

	quotation := newTestDocument(t, DocumentTypeQuotation)
	assertCode(t, quotation.MarkPosted(), shared.CodeInvalidState)
}

func TestSalesDocument_LinkReceivable(t *testing.T) {
	doc := newTestDocument(t, DocumentTypeInvoice)
	arID := uuid.New()
	require.NoError(t, doc.LinkReceivable(arID))
	assert.Equal(t, arID, *doc.ARInvoiceID)
	assertCode(t, doc.LinkReceivable(uuid.New()), shared.CodeAlreadyPosted)

	cash := newTestDocument(t, DocumentTypeCashSale)
	assertCode(t, cash.LinkReceivable(uuid.New()), shared.CodeInvalidState)
}

func TestSalesDocument_Void(t *testing.T) {
	doc := newTestDocument(t, DocumentTypeInvoice)
	require.NoError(t, doc.MarkPosted())
	doc.ClearDomainEvents()

	changed, err := doc.Void("customer cancelled")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, doc.IsVoid)
	assert.Equal(t, DocumentStatusVoid, doc.Status)
	assert.Equal(t, "customer cancelled", doc.VoidReason)
	require.NotNil(t, doc.VoidedAt)
	require.Len(t, doc.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeDocumentVoided, doc.GetDomainEvents()[0].EventType())

	changed, err = doc.Void("again")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "customer cancelled", doc.VoidReason)
}

func TestSalesDocument_ResolveDelete(t *testing.T) {
	t.Run("open without transfers is removed", func(t *testing.T) {
		doc := newTestDocument(t, DocumentTypeQuotation)
		action, err := doc.ResolveDelete()
		require.NoError(t, err)
		assert.Equal(t, DeleteActionRemove, action)
	})

	t.Run("partially transferred is voided", func(t *testing.T) {
		doc := newTestDocument(t, DocumentTypeSalesOrder)
		plan, err := doc.PlanTransfer([]LineTransfer{{LineID: doc.Lines[0].ID, TransferQty: dec("3")}})
		require.NoError(t, err)
		require.NoError(t, doc.ApplyTransfer(uuid.New(), DocumentTypeDeliveryOrder, plan))

		action, err := doc.ResolveDelete()
		require.NoError(t, err)
		assert.Equal(t, DeleteActionVoid, action)
	})

	t.Run("posted must be voided instead", func(t *testing.T) {
		doc := newTestDocument(t, DocumentTypeInvoice)
		require.NoError(t, doc.MarkPosted())
		_, err := doc.ResolveDelete()
		assertCode(t, err, shared.CodeVoidInstead)
	})
}

// ============================================
// Editing
// ============================================

func TestSalesDocument_Revise(t *testing.T) {
	doc := newTestDocument(t, DocumentTypeQuotation)
	existing := doc.Lines[0]

	changed := testLine()
	changed.ID = &existing.ID
	changed.Quantity = dec("4")
	added := LineInput{Description: "Installation", Quantity: dec("1"), UnitPrice: dec("50")}

	newDate := docDate.AddDate(0, 0, 2)
	err := doc.Revise(newDate, HeaderInput{Reference: "PO-778"}, []LineInput{added, changed})
	require.NoError(t, err)

	require.Len(t, doc.Lines, 2)
	assert.Equal(t, "Installation", doc.Lines[0].Description)
	assert.Equal(t, 1, doc.Lines[0].LineNo)
	assert.Equal(t, existing.ID, doc.Lines[1].ID, "matched lines keep their identity")
	assert.Equal(t, 2, doc.Lines[1].LineNo)
	assert.True(t, doc.Lines[1].OutstandingQty.Equal(dec("4")))

	assert.Equal(t, newDate, doc.DocumentDate)
	assert.Equal(t, "PO-778", doc.Reference)
	// 50 + (4 * 12.5) - 5 + (45 * 6%)
	assert.True(t, doc.NetTotal.Equal(dec("97.7")), doc.NetTotal.String())
}

func TestSalesDocument_Revise_ShiftsDueDate(t *testing.T) {
	doc := newTestDocument(t, DocumentTypeInvoice)
	line := testLine()
	line.ID = &doc.Lines[0].ID

	require.NoError(t, doc.Revise(docDate.AddDate(0, 0, 5), HeaderInput{}, []LineInput{line}))
	assert.Equal(t, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), *doc.DueDate)
}

func TestSalesDocument_Revise_TransferHistory(t *testing.T) {
	doc := newTestDocument(t, DocumentTypeSalesOrder)
	lineID := doc.Lines[0].ID
	plan, err := doc.PlanTransfer([]LineTransfer{{LineID: lineID, TransferQty: dec("6")}})
	require.NoError(t, err)
	require.NoError(t, doc.ApplyTransfer(uuid.New(), DocumentTypeDeliveryOrder, plan))

	t.Run("quantity below transferred", func(t *testing.T) {
		in := testLine()
		in.ID = &lineID
		in.Quantity = dec("5")
		assertCode(t, doc.Revise(time.Time{}, HeaderInput{}, []LineInput{in}), shared.CodeValidation)
	})

	t.Run("removing a transferred line", func(t *testing.T) {
		in := LineInput{Description: "Replacement", Quantity: dec("1"), UnitPrice: dec("1")}
		assertCode(t, doc.Revise(time.Time{}, HeaderInput{}, []LineInput{in}), shared.CodeValidation)
	})

	t.Run("raising quantity reopens outstanding", func(t *testing.T) {
		in := testLine()
		in.ID = &lineID
		in.Quantity = dec("12")
		require.NoError(t, doc.Revise(time.Time{}, HeaderInput{}, []LineInput{in}))
		line := doc.GetLine(lineID)
		require.NotNil(t, line)
		assert.True(t, line.TransferredQty.Equal(dec("6")))
		assert.True(t, line.OutstandingQty.Equal(dec("6")))
		assert.Equal(t, TransferStatusPartial, doc.TransferStatus)
	})

	t.Run("lowering quantity to transferred completes the document", func(t *testing.T) {
		in := testLine()
		in.ID = &lineID
		in.Quantity = dec("6")
		require.NoError(t, doc.Revise(time.Time{}, HeaderInput{}, []LineInput{in}))
		assert.Equal(t, TransferStatusTransferred, doc.TransferStatus)
		assert.Equal(t, DocumentStatusTransferred, doc.Status)
	})

	t.Run("transferred documents are locked", func(t *testing.T) {
		in := testLine()
		in.ID = &lineID
		assertCode(t, doc.Revise(time.Time{}, HeaderInput{}, []LineInput{in}), shared.CodeValidation)
	})
}

func TestSalesDocument_Revise_ReopensTransferredInvoice(t *testing.T) {
	doc := newTestDocument(t, DocumentTypeInvoice)
	require.NoError(t, doc.MarkPosted())
	lineID := doc.Lines[0].ID
	plan, err := doc.PlanTransfer(nil)
	require.NoError(t, err)
	require.NoError(t, doc.ApplyTransfer(uuid.New(), DocumentTypeCreditNote, plan))
	require.Equal(t, DocumentStatusTransferred, doc.Status)

	in := testLine()
	in.ID = &lineID
	in.Quantity = dec("15")
	require.NoError(t, doc.Revise(time.Time{}, HeaderInput{}, []LineInput{in}))

	assert.Equal(t, TransferStatusPartial, doc.TransferStatus)
	assert.Equal(t, DocumentStatusPosted, doc.Status)
	assert.True(t, doc.GetLine(lineID).OutstandingQty.Equal(dec("5")))

	// and can be transferred again
	plan, err = doc.PlanTransfer(nil)
	require.NoError(t, err)
	require.NoError(t, doc.ApplyTransfer(uuid.New(), DocumentTypeCreditNote, plan))
	assert.Equal(t, DocumentStatusTransferred, doc.Status)
}

func TestSalesDocument_Revise_Rejections(t *testing.T) {
	t.Run("foreign line id", func(t *testing.T) {
		doc := newTestDocument(t, DocumentTypeQuotation)
		in := testLine()
		foreign := uuid.New()
		in.ID = &foreign
		assertCode(t, doc.Revise(time.Time{}, HeaderInput{}, []LineInput{in}), shared.CodeValidation)
	})

	t.Run("duplicate line id", func(t *testing.T) {
		doc := newTestDocument(t, DocumentTypeQuotation)
		in := testLine()
		in.ID = &doc.Lines[0].ID
		assertCode(t, doc.Revise(time.Time{}, HeaderInput{}, []LineInput{in, in}), shared.CodeValidation)
	})

	t.Run("void document", func(t *testing.T) {
		doc := newTestDocument(t, DocumentTypeInvoice)
		_, err := doc.Void("")
		require.NoError(t, err)
		assertCode(t, doc.Revise(time.Time{}, HeaderInput{}, []LineInput{testLine()}), shared.CodeValidation)
	})

	t.Run("posted invoice stays editable", func(t *testing.T) {
		doc := newTestDocument(t, DocumentTypeInvoice)
		require.NoError(t, doc.MarkPosted())
		assert.NoError(t, doc.EnsureEditable())
	})
}

func TestStatusMachine(t *testing.T) {
	tests := []struct {
		status DocumentStatus
		event  string
		can    bool
	}{
		{DocumentStatusOpen, EventPost, true},
		{DocumentStatusOpen, EventTransferFull, true},
		{DocumentStatusOpen, EventVoid, true},
		{DocumentStatusPosted, EventPost, false},
		{DocumentStatusPosted, EventTransferFull, true},
		{DocumentStatusTransferred, EventVoid, true},
		{DocumentStatusTransferred, EventPost, false},
		{DocumentStatusVoid, EventVoid, false},
		{DocumentStatusVoid, EventTransferFull, false},
		{DocumentStatusTransferred, EventReopen, true},
		{DocumentStatusTransferred, EventReopenPosted, true},
		{DocumentStatusPosted, EventReopen, false},
		{DocumentStatusVoid, EventReopenPosted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+tt.event, func(t *testing.T) {
			doc := &SalesDocument{Status: tt.status}
			assert.Equal(t, tt.can, doc.CanFire(tt.event))
		})
	}
}
