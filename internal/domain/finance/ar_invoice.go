package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ARInvoiceStatus represents the status of an AR invoice
type ARInvoiceStatus string

const (
	ARInvoiceStatusOpen    ARInvoiceStatus = "OPEN"    // nothing paid yet
	ARInvoiceStatusPartial ARInvoiceStatus = "PARTIAL" // paid > 0, outstanding > 0
	ARInvoiceStatusPaid    ARInvoiceStatus = "PAID"    // outstanding within tolerance
	ARInvoiceStatusVoid    ARInvoiceStatus = "VOID"
)

// IsValid checks if the status is a valid ARInvoiceStatus
func (s ARInvoiceStatus) IsValid() bool {
	switch s {
	case ARInvoiceStatusOpen, ARInvoiceStatusPartial, ARInvoiceStatusPaid, ARInvoiceStatusVoid:
		return true
	}
	return false
}

func (s ARInvoiceStatus) String() string {
	return string(s)
}

// SourceTypeSalesInvoice marks AR invoices mirrored from sales invoices
const SourceTypeSalesInvoice = "SALES_INVOICE"

// PaidTolerance is the outstanding amount at or below which an invoice counts as paid
var PaidTolerance = decimal.NewFromFloat(0.01)

// DeriveStatus computes the status of a live invoice from its amounts
func DeriveStatus(outstanding, paid decimal.Decimal) ARInvoiceStatus {
	switch {
	case outstanding.LessThanOrEqual(PaidTolerance):
		return ARInvoiceStatusPaid
	case paid.IsPositive() && outstanding.IsPositive():
		return ARInvoiceStatusPartial
	default:
		return ARInvoiceStatusOpen
	}
}

// PaymentRecord is a receipt applied to an AR invoice, stored as JSON
type PaymentRecord struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	AppliedAt time.Time       `json:"applied_at"`
}

// PaymentRecords implements the GORM Scanner/Valuer pair for JSON storage
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (p *PaymentRecords) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*p = PaymentRecords{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}
	if len(raw) == 0 {
		*p = PaymentRecords{}
		return nil
	}
	return json.Unmarshal(raw, p)
}

// ARInvoiceSource is the sales invoice content mirrored into the subledger
type ARInvoiceSource struct {
	SourceID     uuid.UUID
	InvoiceNo    string
	CustomerID   uuid.UUID
	CustomerCode string
	CustomerName string
	DocumentDate time.Time
	DueDate      *time.Time
	Reference    string
	Description  string
	CurrencyCode string
	ExchangeRate decimal.Decimal
	NetTotal     decimal.Decimal
}

// ARInvoice is the receivable mirror of a posted sales invoice
type ARInvoice struct {
	shared.TenantAggregateRoot
	InvoiceNo         string
	CustomerID        uuid.UUID
	CustomerCode      string
	CustomerName      string
	DocumentDate      time.Time
	DueDate           *time.Time
	Reference         string
	Description       string
	CurrencyCode      string
	ExchangeRate      decimal.Decimal
	NetTotal          decimal.Decimal
	PaidAmount        decimal.Decimal
	OutstandingAmount decimal.Decimal
	Status            ARInvoiceStatus
	SourceType        string
	SourceID          uuid.UUID
	Payments          PaymentRecords
	VoidedAt          *time.Time
}

// NewARInvoice creates an OPEN AR invoice with the full net total outstanding
func NewARInvoice(tenantID uuid.UUID, src ARInvoiceSource) (*ARInvoice, error) {
	if src.SourceID == uuid.Nil {
		return nil, shared.NewValidationError("source document is required")
	}
	if src.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if src.InvoiceNo == "" {
		return nil, shared.NewValidationError("invoice number cannot be empty")
	}
	if src.NetTotal.IsNegative() {
		return nil, shared.NewValidationError("net total cannot be negative")
	}

	ar := &ARInvoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNo:           src.InvoiceNo,
		CustomerID:          src.CustomerID,
		CustomerCode:        src.CustomerCode,
		CustomerName:        src.CustomerName,
		SourceType:          SourceTypeSalesInvoice,
		SourceID:            src.SourceID,
		PaidAmount:          decimal.Zero,
		Payments:            PaymentRecords{},
	}
	ar.applySource(src)
	ar.AddDomainEvent(NewARInvoiceCreatedEvent(ar))
	return ar, nil
}

func (ar *ARInvoice) applySource(src ARInvoiceSource) {
	ar.DocumentDate = src.DocumentDate
	ar.DueDate = src.DueDate
	ar.Reference = src.Reference
	ar.Description = src.Description
	ar.CurrencyCode = src.CurrencyCode
	ar.ExchangeRate = src.ExchangeRate
	ar.NetTotal = src.NetTotal
	ar.refreshBalance()
}

func (ar *ARInvoice) refreshBalance() {
	ar.OutstandingAmount = ar.NetTotal.Sub(ar.PaidAmount)
	ar.Status = DeriveStatus(ar.OutstandingAmount, ar.PaidAmount)
}

// Resync copies edited invoice content. PaidAmount is never touched.
func (ar *ARInvoice) Resync(src ARInvoiceSource) error {
	if ar.IsVoid() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("AR invoice %s is void", ar.InvoiceNo))
	}
	ar.applySource(src)
	ar.Touch()
	ar.AddDomainEvent(NewARInvoiceSyncedEvent(ar))
	return nil
}

// ApplyPayment records a receipt against the invoice
func (ar *ARInvoice) ApplyPayment(amount decimal.Decimal, reference string) error {
	if ar.IsVoid() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("cannot apply payment to void AR invoice %s", ar.InvoiceNo))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("payment amount must be positive")
	}
	if amount.GreaterThan(ar.OutstandingAmount) {
		return shared.NewValidationError("payment %s exceeds outstanding amount %s", amount.String(), ar.OutstandingAmount.String())
	}

	now := time.Now()
	ar.Payments = append(ar.Payments, PaymentRecord{
		ID:        uuid.New(),
		Amount:    amount,
		Reference: reference,
		AppliedAt: now,
	})
	ar.PaidAmount = ar.PaidAmount.Add(amount)
	ar.refreshBalance()
	ar.UpdatedAt = now
	ar.AddDomainEvent(NewARInvoicePaidEvent(ar, amount))
	return nil
}

// Void marks the invoice VOID. Returns false if it already was.
// Invoices with receipts applied cannot be voided.
func (ar *ARInvoice) Void() (bool, error) {
	if ar.IsVoid() {
		return false, nil
	}
	if ar.PaidAmount.IsPositive() {
		return false, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("AR invoice %s has %s paid and cannot be voided", ar.InvoiceNo, ar.PaidAmount.String()))
	}
	now := time.Now()
	ar.Status = ARInvoiceStatusVoid
	ar.OutstandingAmount = decimal.Zero
	ar.VoidedAt = &now
	ar.UpdatedAt = now
	ar.AddDomainEvent(NewARInvoiceVoidedEvent(ar))
	return true, nil
}

// IsVoid returns true if the invoice is VOID
func (ar *ARInvoice) IsVoid() bool {
	return ar.Status == ARInvoiceStatusVoid
}

// IsOverdue reports whether an unpaid invoice is past its due date
func (ar *ARInvoice) IsOverdue(now time.Time) bool {
	if ar.DueDate == nil || ar.IsVoid() || ar.Status == ARInvoiceStatusPaid {
		return false
	}
	return now.After(*ar.DueDate)
}
