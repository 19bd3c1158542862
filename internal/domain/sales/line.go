package sales

import (
	"fmt"
	"time"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineInput is the strictly typed content of a document line.
// ID is set only when an edit refers to an existing line.
type LineInput struct {
	ID             *uuid.UUID
	ProductID      *uuid.UUID
	ProductCode    string
	Description    string
	Quantity       decimal.Decimal
	UOMCode        string
	UOMRate        decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxCode        string
	TaxRate        decimal.Decimal
	TaxAmount      *decimal.Decimal // explicit tax wins over TaxRate
	SourceLineID   *uuid.UUID
}

// SalesDocumentLine is a line of a sales document
type SalesDocumentLine struct {
	ID             uuid.UUID
	DocumentID     uuid.UUID
	LineNo         int
	ProductID      *uuid.UUID
	ProductCode    string
	Description    string
	Quantity       decimal.Decimal
	UOMCode        string
	UOMRate        decimal.Decimal
	BaseQuantity   decimal.Decimal // Quantity * UOMRate
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	SubTotal       decimal.Decimal // Quantity * UnitPrice
	TaxCode        string
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	OutstandingQty decimal.Decimal // not yet moved downstream
	TransferredQty decimal.Decimal // already moved downstream
	SourceLineID   *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func validateLineInput(lineNo int, in LineInput) error {
	if in.ProductCode == "" && in.Description == "" {
		return shared.NewValidationError("line %d: product code or description is required", lineNo)
	}
	if !in.Quantity.IsPositive() {
		return shared.NewValidationError("line %d: quantity must be positive", lineNo)
	}
	if in.UnitPrice.IsNegative() {
		return shared.NewValidationError("line %d: unit price cannot be negative", lineNo)
	}
	if in.DiscountAmount.IsNegative() {
		return shared.NewValidationError("line %d: discount cannot be negative", lineNo)
	}
	if in.DiscountAmount.GreaterThan(in.Quantity.Mul(in.UnitPrice)) {
		return shared.NewValidationError("line %d: discount exceeds line amount", lineNo)
	}
	if in.UOMRate.IsNegative() {
		return shared.NewValidationError("line %d: uom rate cannot be negative", lineNo)
	}
	if in.TaxRate.IsNegative() {
		return shared.NewValidationError("line %d: tax rate cannot be negative", lineNo)
	}
	if in.TaxAmount != nil && in.TaxAmount.IsNegative() {
		return shared.NewValidationError("line %d: tax amount cannot be negative", lineNo)
	}
	return nil
}

// newLine creates a fully outstanding line
func newLine(documentID uuid.UUID, lineNo int, in LineInput) (*SalesDocumentLine, error) {
	if err := validateLineInput(lineNo, in); err != nil {
		return nil, err
	}
	now := time.Now()
	l := &SalesDocumentLine{
		ID:             uuid.New(),
		DocumentID:     documentID,
		LineNo:         lineNo,
		TransferredQty: decimal.Zero,
		SourceLineID:   in.SourceLineID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	l.applyContent(in)
	l.OutstandingQty = l.Quantity
	return l, nil
}

// applyContent copies the editable fields and recomputes derived amounts.
// Outstanding and transferred quantities are left to the caller.
func (l *SalesDocumentLine) applyContent(in LineInput) {
	l.ProductID = in.ProductID
	l.ProductCode = in.ProductCode
	l.Description = in.Description
	l.Quantity = RoundQuantity(in.Quantity)
	l.UOMCode = in.UOMCode
	l.UOMRate = in.UOMRate
	if l.UOMRate.IsZero() {
		l.UOMRate = decimal.NewFromInt(1)
	}
	l.BaseQuantity = RoundQuantity(l.Quantity.Mul(l.UOMRate))
	l.UnitPrice = in.UnitPrice
	l.DiscountAmount = RoundMoney(in.DiscountAmount)
	l.SubTotal = RoundMoney(l.Quantity.Mul(l.UnitPrice))
	l.TaxCode = in.TaxCode
	l.TaxRate = in.TaxRate
	if in.TaxAmount != nil {
		l.TaxAmount = RoundMoney(*in.TaxAmount)
	} else {
		l.TaxAmount = RoundMoney(l.SubTotal.Sub(l.DiscountAmount).Mul(l.TaxRate).Div(hundred))
	}
	l.UpdatedAt = time.Now()
}

// changeQuantity sets a new quantity while keeping the transfer history.
// The new quantity may not drop below what was already transferred.
func (l *SalesDocumentLine) changeQuantity(quantity decimal.Decimal) error {
	if quantity.LessThan(l.TransferredQty) {
		return shared.NewValidationError("line %d: quantity %s is below the %s already transferred",
			l.LineNo, quantity.String(), l.TransferredQty.String())
	}
	l.Quantity = RoundQuantity(quantity)
	l.OutstandingQty = l.Quantity.Sub(l.TransferredQty)
	return nil
}

// ApplyTransfer moves quantity from outstanding to transferred
func (l *SalesDocumentLine) ApplyTransfer(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("line %d: transfer quantity must be positive", l.LineNo)
	}
	if quantity.GreaterThan(l.OutstandingQty) {
		return shared.NewDomainError(shared.CodeQuantityExceeded,
			fmt.Sprintf("line %d: cannot transfer %s, only %s outstanding", l.LineNo, quantity.String(), l.OutstandingQty.String()))
	}
	l.OutstandingQty = l.OutstandingQty.Sub(quantity)
	if l.OutstandingQty.IsNegative() {
		l.OutstandingQty = decimal.Zero
	}
	l.TransferredQty = l.TransferredQty.Add(quantity)
	l.UpdatedAt = time.Now()
	return nil
}

// IsFullyTransferred returns true when nothing is left outstanding
func (l *SalesDocumentLine) IsFullyTransferred() bool {
	return !l.OutstandingQty.IsPositive()
}

// HasTransfers returns true when part of the line moved downstream
func (l *SalesDocumentLine) HasTransfers() bool {
	return l.TransferredQty.IsPositive()
}

func (l *SalesDocumentLine) totalsInput() TotalsInput {
	return TotalsInput{
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		DiscountAmount: l.DiscountAmount,
		TaxAmount:      l.TaxAmount,
	}
}
