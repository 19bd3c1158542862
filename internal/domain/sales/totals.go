package sales

import (
	"github.com/shopspring/decimal"
)

const (
	moneyPlaces    int32 = 2
	quantityPlaces int32 = 4
)

// TotalsInput is the part of a line the totals calculator reads
type TotalsInput struct {
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
}

// Totals holds the monetary summary of a set of lines
type Totals struct {
	SubTotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	NetTotal       decimal.Decimal
}

// CalculateTotals sums the lines. Pure and exact:
// NetTotal = SubTotal - DiscountAmount + TaxAmount.
func CalculateTotals(lines []TotalsInput) Totals {
	subTotal := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero
	for _, l := range lines {
		subTotal = subTotal.Add(l.Quantity.Mul(l.UnitPrice))
		discount = discount.Add(l.DiscountAmount)
		tax = tax.Add(l.TaxAmount)
	}
	return Totals{
		SubTotal:       subTotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		NetTotal:       subTotal.Sub(discount).Add(tax),
	}
}

// Rounded rounds each component to currency precision and derives the
// net total from the rounded components so the identity still holds.
func (t Totals) Rounded() Totals {
	sub := t.SubTotal.Round(moneyPlaces)
	disc := t.DiscountAmount.Round(moneyPlaces)
	tax := t.TaxAmount.Round(moneyPlaces)
	return Totals{
		SubTotal:       sub,
		DiscountAmount: disc,
		TaxAmount:      tax,
		NetTotal:       sub.Sub(disc).Add(tax),
	}
}

// LocalTotal converts the net total into the local currency
func (t Totals) LocalTotal(exchangeRate decimal.Decimal) decimal.Decimal {
	if exchangeRate.IsZero() {
		exchangeRate = decimal.NewFromInt(1)
	}
	return t.NetTotal.Mul(exchangeRate).Round(moneyPlaces)
}

// RoundMoney rounds an amount to currency precision
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// RoundQuantity rounds a quantity to stock precision
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(quantityPlaces)
}
