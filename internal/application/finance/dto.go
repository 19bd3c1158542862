package finance

import (
	"time"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ARInvoiceResponse represents an AR invoice in API responses
type ARInvoiceResponse struct {
	ID                uuid.UUID         `json:"id"`
	InvoiceNo         string            `json:"invoiceNo"`
	CustomerID        uuid.UUID         `json:"customerId"`
	CustomerCode      string            `json:"customerCode"`
	CustomerName      string            `json:"customerName"`
	DocumentDate      time.Time         `json:"documentDate"`
	DueDate           *time.Time        `json:"dueDate,omitempty"`
	Reference         string            `json:"reference,omitempty"`
	Description       string            `json:"description,omitempty"`
	CurrencyCode      string            `json:"currencyCode"`
	ExchangeRate      decimal.Decimal   `json:"exchangeRate"`
	NetTotal          decimal.Decimal   `json:"netTotal"`
	PaidAmount        decimal.Decimal   `json:"paidAmount"`
	OutstandingAmount decimal.Decimal   `json:"outstandingAmount"`
	Status            string            `json:"status"`
	IsOverdue         bool              `json:"isOverdue"`
	SourceType        string            `json:"sourceType"`
	SourceID          uuid.UUID         `json:"sourceId"`
	Payments          []PaymentResponse `json:"payments"`
	VoidedAt          *time.Time        `json:"voidedAt,omitempty"`
	Version           int               `json:"version"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// PaymentResponse is one receipt applied to an AR invoice
type PaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	AppliedAt time.Time       `json:"appliedAt"`
}

// ARInvoiceListFilter contains query parameters for AR invoice listings
type ARInvoiceListFilter struct {
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"pageSize" binding:"omitempty,min=1,max=100"`
	Search     string     `form:"search"`
	CustomerID *uuid.UUID `form:"customerId"`
	Status     string     `form:"status" binding:"omitempty,oneof=OPEN PARTIAL PAID VOID"`
	SourceID   *uuid.UUID `form:"sourceId"`
}

// RecordPaymentRequest applies a receipt to an AR invoice
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference" binding:"max=100"`
}

// PeriodLockResponse is the tenant's period lock state
type PeriodLockResponse struct {
	LockedUntil *time.Time `json:"lockedUntil"`
	UpdatedBy   *uuid.UUID `json:"updatedBy,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// SetPeriodLockRequest moves the lock date. A null date unlocks.
type SetPeriodLockRequest struct {
	LockedUntil *time.Time `json:"lockedUntil"`
}

// ToARInvoiceResponse converts a domain AR invoice to a response
func ToARInvoiceResponse(ar *finance.ARInvoice) ARInvoiceResponse {
	payments := make([]PaymentResponse, len(ar.Payments))
	for i, p := range ar.Payments {
		payments[i] = PaymentResponse{
			ID:        p.ID,
			Amount:    p.Amount,
			Reference: p.Reference,
			AppliedAt: p.AppliedAt,
		}
	}
	return ARInvoiceResponse{
		ID:                ar.ID,
		InvoiceNo:         ar.InvoiceNo,
		CustomerID:        ar.CustomerID,
		CustomerCode:      ar.CustomerCode,
		CustomerName:      ar.CustomerName,
		DocumentDate:      ar.DocumentDate,
		DueDate:           ar.DueDate,
		Reference:         ar.Reference,
		Description:       ar.Description,
		CurrencyCode:      ar.CurrencyCode,
		ExchangeRate:      ar.ExchangeRate,
		NetTotal:          ar.NetTotal,
		PaidAmount:        ar.PaidAmount,
		OutstandingAmount: ar.OutstandingAmount,
		Status:            ar.Status.String(),
		IsOverdue:         ar.IsOverdue(time.Now()),
		SourceType:        ar.SourceType,
		SourceID:          ar.SourceID,
		Payments:          payments,
		VoidedAt:          ar.VoidedAt,
		Version:           ar.Version,
		CreatedAt:         ar.CreatedAt,
		UpdatedAt:         ar.UpdatedAt,
	}
}

// ToPeriodLockResponse converts a period lock to a response
func ToPeriodLockResponse(lock *finance.PeriodLock) PeriodLockResponse {
	resp := PeriodLockResponse{LockedUntil: lock.LockedUntil, UpdatedBy: lock.UpdatedBy}
	if !lock.UpdatedAt.IsZero() {
		updated := lock.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
