package sales

import (
	"fmt"
	"time"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

// LineTransfer requests a quantity of one source line
type LineTransfer struct {
	LineID      uuid.UUID
	TransferQty decimal.Decimal
}

// TransferLine is one planned movement out of a source line
type TransferLine struct {
	Line     SalesDocumentLine
	Quantity decimal.Decimal
}

// PlanTransfer resolves which quantities move downstream. With no
// requests every outstanding quantity is taken.
func (d *SalesDocument) PlanTransfer(requests []LineTransfer) ([]TransferLine, error) {
	if d.IsVoid {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot transfer %s %s: document is VOID", d.DocumentType, d.DocumentNo))
	}
	if d.TransferStatus == TransferStatusTransferred {
		return nil, shared.NewDomainError(shared.CodeNothingToTransfer,
			fmt.Sprintf("nothing to transfer: %s %s is already fully transferred", d.DocumentType, d.DocumentNo))
	}

	plan := make([]TransferLine, 0, len(d.Lines))
	if requests == nil {
		for _, l := range d.Lines {
			if l.OutstandingQty.IsPositive() {
				plan = append(plan, TransferLine{Line: l, Quantity: l.OutstandingQty})
			}
		}
	} else {
		seen := make(map[uuid.UUID]bool, len(requests))
		for _, req := range requests {
			line := d.GetLine(req.LineID)
			if line == nil {
				return nil, shared.NewValidationError("line %s does not belong to %s", req.LineID, d.DocumentNo)
			}
			if seen[req.LineID] {
				return nil, shared.NewValidationError("line %d is listed twice", line.LineNo)
			}
			seen[req.LineID] = true
			if req.TransferQty.IsNegative() {
				return nil, shared.NewValidationError("line %d: transfer quantity cannot be negative", line.LineNo)
			}
			if req.TransferQty.IsZero() {
				continue
			}
			if req.TransferQty.GreaterThan(line.OutstandingQty) {
				return nil, shared.NewDomainError(shared.CodeQuantityExceeded,
					fmt.Sprintf("line %d: cannot transfer %s, only %s outstanding",
						line.LineNo, req.TransferQty.String(), line.OutstandingQty.String()))
			}
			plan = append(plan, TransferLine{Line: *line, Quantity: RoundQuantity(req.TransferQty)})
		}
	}

	if len(plan) == 0 {
		return nil, shared.NewDomainError(shared.CodeNothingToTransfer,
			fmt.Sprintf("nothing to transfer from %s %s", d.DocumentType, d.DocumentNo))
	}
	return plan, nil
}

// ApplyTransfer records a committed transfer on the source lines
func (d *SalesDocument) ApplyTransfer(targetID uuid.UUID, targetType DocumentType, plan []TransferLine) error {
	for _, tl := range plan {
		line := d.GetLine(tl.Line.ID)
		if line == nil {
			return shared.NewValidationError("line %s does not belong to %s", tl.Line.ID, d.DocumentNo)
		}
		if err := line.ApplyTransfer(tl.Quantity); err != nil {
			return err
		}
	}
	if err := d.syncTransferState(); err != nil {
		return err
	}
	d.Touch()
	d.AddDomainEvent(NewDocumentTransferredEvent(d, targetID, targetType, plan))
	return nil
}

// TransferHeader is the header context a transfer target inherits
func (d *SalesDocument) TransferHeader() HeaderInput {
	sourceID := d.ID
	return HeaderInput{
		Reference:    d.DocumentNo,
		Description:  d.Description,
		CurrencyCode: d.CurrencyCode,
		ExchangeRate: d.ExchangeRate,
		SourceType:   d.DocumentType,
		SourceID:     &sourceID,
	}
}

// TransferLineInputs turns a plan into target lines. Discount and tax
// are pro-rated by the transferred fraction of each line, rounded on the
// running total so the parts of a line always add up to the line.
func TransferLineInputs(plan []TransferLine) ([]LineInput, error) {
	inputs := make([]LineInput, 0, len(plan))
	for _, tl := range plan {
		var in LineInput
		if err := copier.Copy(&in, &tl.Line); err != nil {
			return nil, fmt.Errorf("copy line %d: %w", tl.Line.LineNo, err)
		}
		sourceLineID := tl.Line.ID
		in.ID = nil
		in.SourceLineID = &sourceLineID
		in.Quantity = tl.Quantity

		in.DiscountAmount = proRate(tl.Line.DiscountAmount, tl.Line, tl.Quantity)
		tax := proRate(tl.Line.TaxAmount, tl.Line, tl.Quantity)
		in.TaxAmount = &tax
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// proRate is the share of amount carried by qty units taken after the
// line's TransferredQty
func proRate(amount decimal.Decimal, line SalesDocumentLine, qty decimal.Decimal) decimal.Decimal {
	if !line.Quantity.IsPositive() {
		return amount
	}
	upTo := func(q decimal.Decimal) decimal.Decimal {
		if q.GreaterThanOrEqual(line.Quantity) {
			return amount
		}
		return RoundMoney(amount.Mul(q).Div(line.Quantity))
	}
	done := line.TransferredQty
	return upTo(done.Add(qty)).Sub(upTo(done))
}

// TransferDate is the document date used for a transfer target
func TransferDate(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
