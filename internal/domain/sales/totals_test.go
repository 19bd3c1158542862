package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateTotals(t *testing.T) {
	totals := CalculateTotals([]TotalsInput{
		{Quantity: dec("3"), UnitPrice: dec("0.333"), DiscountAmount: dec("0.004"), TaxAmount: dec("0.0555")},
		{Quantity: dec("2"), UnitPrice: dec("10"), TaxAmount: dec("1.2")},
	})

	assert.True(t, totals.SubTotal.Equal(dec("20.999")))
	assert.True(t, totals.DiscountAmount.Equal(dec("0.004")))
	assert.True(t, totals.TaxAmount.Equal(dec("1.2555")))
	assert.True(t, totals.NetTotal.Equal(dec("22.2505")))

	rounded := totals.Rounded()
	assert.True(t, rounded.SubTotal.Equal(dec("21")))
	assert.True(t, rounded.DiscountAmount.IsZero())
	assert.True(t, rounded.TaxAmount.Equal(dec("1.26")))
	assert.True(t, rounded.NetTotal.Equal(rounded.SubTotal.Sub(rounded.DiscountAmount).Add(rounded.TaxAmount)))
}

func TestCalculateTotals_Empty(t *testing.T) {
	totals := CalculateTotals(nil)
	assert.True(t, totals.NetTotal.IsZero())
}

func TestTotals_LocalTotal(t *testing.T) {
	totals := Totals{NetTotal: dec("100.01")}
	assert.True(t, totals.LocalTotal(dec("4.4567")).Equal(dec("445.71")))
	assert.True(t, totals.LocalTotal(decimal.Zero).Equal(dec("100.01")))
}

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "INV-2026-00007", FormatDocumentNumber(DocumentTypeInvoice, 2026, 7, 0))
	assert.Equal(t, "DO-2026-042", FormatDocumentNumber(DocumentTypeDeliveryOrder, 2026, 42, 3))
	assert.Equal(t, "CN-2025-123456", FormatDocumentNumber(DocumentTypeCreditNote, 2025, 123456, 5))
}

func TestDocumentType(t *testing.T) {
	for _, dt := range AllDocumentTypes() {
		assert.True(t, dt.IsValid(), dt)
		assert.NotEqual(t, "DOC", dt.NumberPrefix(), dt)
	}
	assert.False(t, DocumentType("RECEIPT").IsValid())

	assert.True(t, DocumentTypeInvoice.AutoPosts())
	assert.True(t, DocumentTypeCashSale.AutoPosts())
	assert.False(t, DocumentTypeSalesOrder.AutoPosts())
	assert.True(t, DocumentTypeInvoice.PostsToReceivables())
	assert.False(t, DocumentTypeCashSale.PostsToReceivables())
	assert.True(t, DocumentTypeDeliveryOrder.EditRequiresOpen())
	assert.False(t, DocumentTypeCreditNote.EditRequiresOpen())
}
