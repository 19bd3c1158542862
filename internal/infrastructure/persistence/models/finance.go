package models

import (
	"encoding/json"
	"time"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ARInvoiceModel is the persistence model for the receivable mirror of a
// sales invoice
type ARInvoiceModel struct {
	AggregateModel
	TenantID          uuid.UUID               `gorm:"type:char(36);not null;uniqueIndex:idx_ar_invoice_source,priority:1;index"`
	InvoiceNo         string                  `gorm:"type:varchar(50);not null"`
	CustomerID        uuid.UUID               `gorm:"type:char(36);not null;index"`
	CustomerCode      string                  `gorm:"type:varchar(50);not null"`
	CustomerName      string                  `gorm:"type:varchar(200);not null"`
	DocumentDate      time.Time               `gorm:"not null"`
	DueDate           *time.Time              `gorm:"index"`
	Reference         string                  `gorm:"type:varchar(100)"`
	Description       string                  `gorm:"type:text"`
	CurrencyCode      string                  `gorm:"type:varchar(3)"`
	ExchangeRate      decimal.Decimal         `gorm:"type:decimal(18,8);not null;default:1"`
	NetTotal          decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	PaidAmount        decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	OutstandingAmount decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Status            finance.ARInvoiceStatus `gorm:"type:varchar(20);not null;index"`
	SourceType        string                  `gorm:"type:varchar(30);not null;uniqueIndex:idx_ar_invoice_source,priority:2"`
	SourceID          uuid.UUID               `gorm:"type:char(36);not null;uniqueIndex:idx_ar_invoice_source,priority:3"`
	Payments          datatypes.JSON
	VoidedAt          *time.Time
}

// TableName returns the table name for GORM
func (ARInvoiceModel) TableName() string {
	return "ar_invoices"
}

// ToDomain converts the persistence model to a domain ARInvoice
func (m *ARInvoiceModel) ToDomain() (*finance.ARInvoice, error) {
	payments := finance.PaymentRecords{}
	if len(m.Payments) > 0 {
		if err := json.Unmarshal(m.Payments, &payments); err != nil {
			return nil, err
		}
	}
	return &finance.ARInvoice{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(m.TenantID),
		InvoiceNo:           m.InvoiceNo,
		CustomerID:          m.CustomerID,
		CustomerCode:        m.CustomerCode,
		CustomerName:        m.CustomerName,
		DocumentDate:        m.DocumentDate,
		DueDate:             m.DueDate,
		Reference:           m.Reference,
		Description:         m.Description,
		CurrencyCode:        m.CurrencyCode,
		ExchangeRate:        m.ExchangeRate,
		NetTotal:            m.NetTotal,
		PaidAmount:          m.PaidAmount,
		OutstandingAmount:   m.OutstandingAmount,
		Status:              m.Status,
		SourceType:          m.SourceType,
		SourceID:            m.SourceID,
		Payments:            payments,
		VoidedAt:            m.VoidedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain ARInvoice
func (m *ARInvoiceModel) FromDomain(ar *finance.ARInvoice) error {
	payments := ar.Payments
	if payments == nil {
		payments = finance.PaymentRecords{}
	}
	raw, err := json.Marshal(payments)
	if err != nil {
		return err
	}
	m.FromDomainTenantAggregateRoot(ar.TenantAggregateRoot)
	m.TenantID = ar.TenantID
	m.InvoiceNo = ar.InvoiceNo
	m.CustomerID = ar.CustomerID
	m.CustomerCode = ar.CustomerCode
	m.CustomerName = ar.CustomerName
	m.DocumentDate = ar.DocumentDate
	m.DueDate = ar.DueDate
	m.Reference = ar.Reference
	m.Description = ar.Description
	m.CurrencyCode = ar.CurrencyCode
	m.ExchangeRate = ar.ExchangeRate
	m.NetTotal = ar.NetTotal
	m.PaidAmount = ar.PaidAmount
	m.OutstandingAmount = ar.OutstandingAmount
	m.Status = ar.Status
	m.SourceType = ar.SourceType
	m.SourceID = ar.SourceID
	m.Payments = datatypes.JSON(raw)
	m.VoidedAt = ar.VoidedAt
	return nil
}

// PeriodLockModel stores one accounting period lock per tenant
type PeriodLockModel struct {
	TenantID    uuid.UUID  `gorm:"type:char(36);primaryKey"`
	LockedUntil *time.Time
	UpdatedBy   *uuid.UUID `gorm:"type:char(36)"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PeriodLockModel) TableName() string {
	return "period_locks"
}

// ToDomain converts the persistence model to a domain PeriodLock
func (m *PeriodLockModel) ToDomain() *finance.PeriodLock {
	return &finance.PeriodLock{
		TenantID:    m.TenantID,
		LockedUntil: m.LockedUntil,
		UpdatedBy:   m.UpdatedBy,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain PeriodLock
func (m *PeriodLockModel) FromDomain(p *finance.PeriodLock) {
	m.TenantID = p.TenantID
	m.LockedUntil = p.LockedUntil
	m.UpdatedBy = p.UpdatedBy
	m.UpdatedAt = p.UpdatedAt
}
