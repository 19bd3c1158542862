package sales

import (
	"fmt"
	"time"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerSnapshot is the customer context copied onto a document at
// creation. Later customer renames do not touch existing documents.
type CustomerSnapshot struct {
	ID             uuid.UUID
	Code           string
	Name           string
	BillingAddress string
	CurrencyCode   string
	CreditTermDays int
}

// HeaderInput carries the optional header fields of create and update
type HeaderInput struct {
	DueDate        *time.Time
	Reference      string
	Description    string
	CurrencyCode   string
	ExchangeRate   decimal.Decimal
	RoundingAmount decimal.Decimal
	PaidAmount     *decimal.Decimal
	SourceType     DocumentType
	SourceID       *uuid.UUID
}

// SalesDocument is the aggregate root for every sales document type
type SalesDocument struct {
	shared.TenantAggregateRoot
	DocumentType   DocumentType
	DocumentNo     string
	DocumentDate   time.Time
	DueDate        *time.Time
	CustomerID     uuid.UUID
	CustomerCode   string
	CustomerName   string
	BillingAddress string
	Reference      string
	Description    string
	Status         DocumentStatus
	TransferStatus TransferStatus
	IsPosted       bool
	IsVoid         bool
	SourceType     DocumentType
	SourceID       *uuid.UUID
	ARInvoiceID    *uuid.UUID
	SubTotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	NetTotal       decimal.Decimal
	NetTotalLocal  decimal.Decimal
	RoundingAmount decimal.Decimal
	PaidAmount     decimal.Decimal
	ChangeAmount   decimal.Decimal
	CurrencyCode   string
	ExchangeRate   decimal.Decimal
	VoidedAt       *time.Time
	VoidReason     string
	Lines          []SalesDocumentLine
}

// NewSalesDocument creates an OPEN document with fully outstanding lines
func NewSalesDocument(tenantID uuid.UUID, docType DocumentType, documentNo string, documentDate time.Time,
	customer CustomerSnapshot, header HeaderInput, lines []LineInput) (*SalesDocument, error) {
	if !docType.IsValid() {
		return nil, shared.NewValidationError("invalid document type %q", docType)
	}
	if documentNo == "" {
		return nil, shared.NewValidationError("document number cannot be empty")
	}
	if customer.ID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("at least one line item is required")
	}
	if documentDate.IsZero() {
		documentDate = time.Now()
	}

	doc := &SalesDocument{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DocumentType:        docType,
		DocumentNo:          documentNo,
		DocumentDate:        documentDate,
		CustomerID:          customer.ID,
		CustomerCode:        customer.Code,
		CustomerName:        customer.Name,
		BillingAddress:      customer.BillingAddress,
		Status:              DocumentStatusOpen,
		TransferStatus:      TransferStatusNone,
		SourceType:          header.SourceType,
		SourceID:            header.SourceID,
		RoundingAmount:      RoundMoney(header.RoundingAmount),
	}
	doc.applyHeader(header, customer.CurrencyCode)

	doc.DueDate = header.DueDate
	if doc.DueDate == nil && docType == DocumentTypeInvoice {
		due := documentDate.AddDate(0, 0, customer.CreditTermDays)
		doc.DueDate = &due
	}

	doc.Lines = make([]SalesDocumentLine, 0, len(lines))
	for i, in := range lines {
		line, err := newLine(doc.ID, i+1, in)
		if err != nil {
			return nil, err
		}
		doc.Lines = append(doc.Lines, *line)
	}
	doc.recalculateTotals()

	if docType == DocumentTypeCashSale {
		if err := doc.settleCash(header.PaidAmount); err != nil {
			return nil, err
		}
	}

	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))
	return doc, nil
}

func (d *SalesDocument) applyHeader(header HeaderInput, defaultCurrency string) {
	d.Reference = header.Reference
	d.Description = header.Description
	if header.CurrencyCode != "" {
		d.CurrencyCode = header.CurrencyCode
	} else if d.CurrencyCode == "" {
		d.CurrencyCode = defaultCurrency
	}
	if header.ExchangeRate.IsPositive() {
		d.ExchangeRate = header.ExchangeRate
	} else if !d.ExchangeRate.IsPositive() {
		d.ExchangeRate = decimal.NewFromInt(1)
	}
}

// settleCash records the tendered amount of a cash sale and its change
func (d *SalesDocument) settleCash(paid *decimal.Decimal) error {
	payable := d.PayableTotal()
	tendered := payable
	if paid != nil {
		tendered = RoundMoney(*paid)
	}
	if tendered.LessThan(payable) {
		return shared.NewValidationError("cash sale requires full payment of %s, got %s", payable.String(), tendered.String())
	}
	d.PaidAmount = tendered
	d.ChangeAmount = tendered.Sub(payable)
	return nil
}

// PayableTotal is the net total adjusted by the rounding amount
func (d *SalesDocument) PayableTotal() decimal.Decimal {
	return d.NetTotal.Add(d.RoundingAmount)
}

// Totals returns the current monetary summary
func (d *SalesDocument) Totals() Totals {
	return Totals{
		SubTotal:       d.SubTotal,
		DiscountAmount: d.DiscountAmount,
		TaxAmount:      d.TaxAmount,
		NetTotal:       d.NetTotal,
	}
}

func (d *SalesDocument) recalculateTotals() {
	inputs := make([]TotalsInput, len(d.Lines))
	for i := range d.Lines {
		inputs[i] = d.Lines[i].totalsInput()
	}
	totals := CalculateTotals(inputs).Rounded()
	d.SubTotal = totals.SubTotal
	d.DiscountAmount = totals.DiscountAmount
	d.TaxAmount = totals.TaxAmount
	d.NetTotal = totals.NetTotal
	d.NetTotalLocal = totals.LocalTotal(d.ExchangeRate)
}

// CustomerSnapshot returns the customer context stored on the document
func (d *SalesDocument) CustomerSnapshot() CustomerSnapshot {
	return CustomerSnapshot{
		ID:             d.CustomerID,
		Code:           d.CustomerCode,
		Name:           d.CustomerName,
		BillingAddress: d.BillingAddress,
		CurrencyCode:   d.CurrencyCode,
	}
}

// EnsureEditable returns a validation error naming the blocking state
func (d *SalesDocument) EnsureEditable() error {
	if d.IsVoid {
		return shared.NewValidationError("cannot edit %s %s: document is VOID", d.DocumentType, d.DocumentNo)
	}
	if d.DocumentType.EditRequiresOpen() && d.Status != DocumentStatusOpen {
		return shared.NewValidationError("cannot edit %s %s: document is %s", d.DocumentType, d.DocumentNo, d.Status)
	}
	return nil
}

// Revise replaces header fields and reconciles lines against the
// existing ones. Lines matched by ID keep their transfer history.
func (d *SalesDocument) Revise(documentDate time.Time, header HeaderInput, lines []LineInput) error {
	if err := d.EnsureEditable(); err != nil {
		return err
	}
	if len(lines) == 0 {
		return shared.NewValidationError("at least one line item is required")
	}
	if err := d.reconcileLines(lines); err != nil {
		return err
	}

	if !documentDate.IsZero() && !documentDate.Equal(d.DocumentDate) {
		if header.DueDate == nil && d.DueDate != nil {
			shifted := d.DueDate.Add(documentDate.Sub(d.DocumentDate))
			d.DueDate = &shifted
		}
		d.DocumentDate = documentDate
	}
	if header.DueDate != nil {
		d.DueDate = header.DueDate
	}
	d.applyHeader(header, d.CurrencyCode)
	d.RoundingAmount = RoundMoney(header.RoundingAmount)
	d.recalculateTotals()

	if d.DocumentType == DocumentTypeCashSale {
		if err := d.settleCash(header.PaidAmount); err != nil {
			return err
		}
	}
	if err := d.syncTransferState(); err != nil {
		return err
	}

	d.Touch()
	d.AddDomainEvent(NewDocumentUpdatedEvent(d))
	return nil
}

// reconcileLines applies an edit as a diff against the current lines
func (d *SalesDocument) reconcileLines(inputs []LineInput) error {
	existing := make(map[uuid.UUID]SalesDocumentLine, len(d.Lines))
	for _, l := range d.Lines {
		existing[l.ID] = l
	}

	kept := make(map[uuid.UUID]bool, len(inputs))
	next := make([]SalesDocumentLine, 0, len(inputs))
	for i, in := range inputs {
		lineNo := i + 1
		if in.ID == nil {
			line, err := newLine(d.ID, lineNo, in)
			if err != nil {
				return err
			}
			next = append(next, *line)
			continue
		}

		line, ok := existing[*in.ID]
		if !ok {
			return shared.NewValidationError("line %d: line %s does not belong to this document", lineNo, in.ID)
		}
		if kept[line.ID] {
			return shared.NewValidationError("line %d: line %s is listed twice", lineNo, in.ID)
		}
		if err := validateLineInput(lineNo, in); err != nil {
			return err
		}
		if err := line.changeQuantity(in.Quantity); err != nil {
			return err
		}
		in.SourceLineID = line.SourceLineID
		line.applyContent(in)
		line.LineNo = lineNo
		kept[line.ID] = true
		next = append(next, line)
	}

	for _, l := range d.Lines {
		if kept[l.ID] {
			continue
		}
		if l.HasTransfers() {
			return shared.NewValidationError("cannot remove line %d: %s already transferred", l.LineNo, l.TransferredQty.String())
		}
	}

	d.Lines = next
	return nil
}

// MarkPosted moves an auto-posting document to POSTED
func (d *SalesDocument) MarkPosted() error {
	if !d.DocumentType.AutoPosts() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("%s documents are not posted", d.DocumentType))
	}
	if d.IsPosted {
		return shared.ErrAlreadyPosted
	}
	if err := d.fire(EventPost); err != nil {
		return err
	}
	d.IsPosted = true
	d.Touch()
	d.AddDomainEvent(NewDocumentPostedEvent(d))
	return nil
}

// LinkReceivable records the AR invoice mirroring this document
func (d *SalesDocument) LinkReceivable(arInvoiceID uuid.UUID) error {
	if !d.DocumentType.PostsToReceivables() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("%s documents are not posted to receivables", d.DocumentType))
	}
	if d.ARInvoiceID != nil {
		return shared.NewDomainError(shared.CodeAlreadyPosted, fmt.Sprintf("%s %s is already posted", d.DocumentType, d.DocumentNo))
	}
	d.ARInvoiceID = &arInvoiceID
	return nil
}

// DeleteAction is the outcome of a delete request
type DeleteAction int

const (
	DeleteActionRemove DeleteAction = iota
	DeleteActionVoid
)

// ResolveDelete decides between a hard delete and a void. Posted
// documents are rejected with guidance to void them instead.
func (d *SalesDocument) ResolveDelete() (DeleteAction, error) {
	if d.IsPosted || d.ARInvoiceID != nil {
		return 0, shared.NewDomainError(shared.CodeVoidInstead,
			fmt.Sprintf("%s %s is posted and cannot be deleted, void it instead", d.DocumentType, d.DocumentNo))
	}
	if d.TransferStatus != TransferStatusNone || d.IsVoid {
		return DeleteActionVoid, nil
	}
	return DeleteActionRemove, nil
}

// Void marks the document VOID. Returns false when it already was.
func (d *SalesDocument) Void(reason string) (bool, error) {
	if d.IsVoid {
		return false, nil
	}
	if err := d.fire(EventVoid); err != nil {
		return false, err
	}
	now := time.Now()
	d.IsVoid = true
	d.VoidedAt = &now
	d.VoidReason = reason
	d.UpdatedAt = now
	d.AddDomainEvent(NewDocumentVoidedEvent(d))
	return true, nil
}

// syncTransferState derives TransferStatus from the lines. It fires the
// full transfer transition once nothing is outstanding and reopens a
// transferred document when an edit leaves quantity outstanding again.
func (d *SalesDocument) syncTransferState() error {
	anyTransferred := false
	allDone := len(d.Lines) > 0
	for i := range d.Lines {
		if d.Lines[i].HasTransfers() {
			anyTransferred = true
		}
		if !d.Lines[i].IsFullyTransferred() {
			allDone = false
		}
	}

	switch {
	case anyTransferred && allDone:
		d.TransferStatus = TransferStatusTransferred
		if d.Status != DocumentStatusTransferred {
			return d.fire(EventTransferFull)
		}
	case anyTransferred:
		d.TransferStatus = TransferStatusPartial
	default:
		d.TransferStatus = TransferStatusNone
	}
	if d.Status == DocumentStatusTransferred && d.TransferStatus != TransferStatusTransferred {
		if d.IsPosted {
			return d.fire(EventReopenPosted)
		}
		return d.fire(EventReopen)
	}
	return nil
}

// TransferableLines returns the lines with outstanding quantity
func (d *SalesDocument) TransferableLines() []SalesDocumentLine {
	out := make([]SalesDocumentLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		if l.OutstandingQty.IsPositive() {
			out = append(out, l)
		}
	}
	return out
}

// GetLine returns the line with the given ID, or nil
func (d *SalesDocument) GetLine(lineID uuid.UUID) *SalesDocumentLine {
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			return &d.Lines[i]
		}
	}
	return nil
}

// IsOpen returns true if the document is OPEN
func (d *SalesDocument) IsOpen() bool {
	return d.Status == DocumentStatusOpen
}

// TotalOutstandingQuantity sums the outstanding quantity of all lines
func (d *SalesDocument) TotalOutstandingQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.OutstandingQty)
	}
	return total
}
