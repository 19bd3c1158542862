package models

import (
	"time"

	"github.com/erp/salescore/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesDocumentModel is the persistence model for a sales document header
type SalesDocumentModel struct {
	AggregateModel
	TenantID       uuid.UUID            `gorm:"type:char(36);not null;uniqueIndex:idx_sales_doc_no,priority:1;index:idx_sales_doc_list,priority:1"`
	DocumentType   sales.DocumentType   `gorm:"type:varchar(20);not null;uniqueIndex:idx_sales_doc_no,priority:2;index:idx_sales_doc_list,priority:2"`
	DocumentNo     string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_sales_doc_no,priority:3"`
	DocumentDate   time.Time            `gorm:"not null;index:idx_sales_doc_list,priority:3"`
	DueDate        *time.Time
	CustomerID     uuid.UUID            `gorm:"type:char(36);not null;index"`
	CustomerCode   string               `gorm:"type:varchar(50);not null"`
	CustomerName   string               `gorm:"type:varchar(200);not null"`
	BillingAddress string               `gorm:"type:varchar(500)"`
	Reference      string               `gorm:"type:varchar(100)"`
	Description    string               `gorm:"type:text"`
	Status         sales.DocumentStatus `gorm:"type:varchar(20);not null;index"`
	TransferStatus sales.TransferStatus `gorm:"type:varchar(20);not null"`
	IsPosted       bool                 `gorm:"not null;default:false"`
	IsVoid         bool                 `gorm:"not null;default:false"`
	SourceType     sales.DocumentType   `gorm:"type:varchar(20)"`
	SourceID       *uuid.UUID           `gorm:"type:char(36);index"`
	ARInvoiceID    *uuid.UUID           `gorm:"column:ar_invoice_id;type:char(36)"`
	SubTotal       decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount      decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	NetTotal       decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	NetTotalLocal  decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	RoundingAmount decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	ChangeAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyCode   string               `gorm:"type:varchar(3)"`
	ExchangeRate   decimal.Decimal      `gorm:"type:decimal(18,8);not null;default:1"`
	VoidedAt       *time.Time
	VoidReason     string               `gorm:"type:varchar(500)"`

	Lines []SalesDocumentLineModel `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SalesDocumentModel) TableName() string {
	return "sales_documents"
}

// SalesDocumentLineModel is the persistence model for a document line
type SalesDocumentLineModel struct {
	BaseModel
	TenantID       uuid.UUID       `gorm:"type:char(36);not null;index"`
	DocumentID     uuid.UUID       `gorm:"type:char(36);not null;index"`
	LineNo         int             `gorm:"not null"`
	ProductID      *uuid.UUID      `gorm:"type:char(36)"`
	ProductCode    string          `gorm:"type:varchar(50)"`
	Description    string          `gorm:"type:varchar(500)"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UOMCode        string          `gorm:"column:uom_code;type:varchar(20)"`
	UOMRate        decimal.Decimal `gorm:"column:uom_rate;type:decimal(18,6);not null;default:1"`
	BaseQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxCode        string          `gorm:"type:varchar(20)"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OutstandingQty decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TransferredQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SourceLineID   *uuid.UUID      `gorm:"type:char(36);index"`
}

// TableName returns the table name for GORM
func (SalesDocumentLineModel) TableName() string {
	return "sales_document_lines"
}

// ToDomain converts the persistence model to a domain SalesDocument
func (m *SalesDocumentModel) ToDomain() *sales.SalesDocument {
	doc := &sales.SalesDocument{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(m.TenantID),
		DocumentType:        m.DocumentType,
		DocumentNo:          m.DocumentNo,
		DocumentDate:        m.DocumentDate,
		DueDate:             m.DueDate,
		CustomerID:          m.CustomerID,
		CustomerCode:        m.CustomerCode,
		CustomerName:        m.CustomerName,
		BillingAddress:      m.BillingAddress,
		Reference:           m.Reference,
		Description:         m.Description,
		Status:              m.Status,
		TransferStatus:      m.TransferStatus,
		IsPosted:            m.IsPosted,
		IsVoid:              m.IsVoid,
		SourceType:          m.SourceType,
		SourceID:            m.SourceID,
		ARInvoiceID:         m.ARInvoiceID,
		SubTotal:            m.SubTotal,
		DiscountAmount:      m.DiscountAmount,
		TaxAmount:           m.TaxAmount,
		NetTotal:            m.NetTotal,
		NetTotalLocal:       m.NetTotalLocal,
		RoundingAmount:      m.RoundingAmount,
		PaidAmount:          m.PaidAmount,
		ChangeAmount:        m.ChangeAmount,
		CurrencyCode:        m.CurrencyCode,
		ExchangeRate:        m.ExchangeRate,
		VoidedAt:            m.VoidedAt,
		VoidReason:          m.VoidReason,
		Lines:               make([]sales.SalesDocumentLine, len(m.Lines)),
	}
	for i := range m.Lines {
		doc.Lines[i] = m.Lines[i].ToDomain()
	}
	return doc
}

// FromDomain populates the header model and its lines from the domain
func (m *SalesDocumentModel) FromDomain(d *sales.SalesDocument) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.TenantID = d.TenantID
	m.DocumentType = d.DocumentType
	m.DocumentNo = d.DocumentNo
	m.DocumentDate = d.DocumentDate
	m.DueDate = d.DueDate
	m.CustomerID = d.CustomerID
	m.CustomerCode = d.CustomerCode
	m.CustomerName = d.CustomerName
	m.BillingAddress = d.BillingAddress
	m.Reference = d.Reference
	m.Description = d.Description
	m.Status = d.Status
	m.TransferStatus = d.TransferStatus
	m.IsPosted = d.IsPosted
	m.IsVoid = d.IsVoid
	m.SourceType = d.SourceType
	m.SourceID = d.SourceID
	m.ARInvoiceID = d.ARInvoiceID
	m.SubTotal = d.SubTotal
	m.DiscountAmount = d.DiscountAmount
	m.TaxAmount = d.TaxAmount
	m.NetTotal = d.NetTotal
	m.NetTotalLocal = d.NetTotalLocal
	m.RoundingAmount = d.RoundingAmount
	m.PaidAmount = d.PaidAmount
	m.ChangeAmount = d.ChangeAmount
	m.CurrencyCode = d.CurrencyCode
	m.ExchangeRate = d.ExchangeRate
	m.VoidedAt = d.VoidedAt
	m.VoidReason = d.VoidReason

	m.Lines = make([]SalesDocumentLineModel, len(d.Lines))
	for i := range d.Lines {
		m.Lines[i].FromDomain(d.TenantID, &d.Lines[i])
	}
}

// ToDomain converts the line model to a domain line
func (m *SalesDocumentLineModel) ToDomain() sales.SalesDocumentLine {
	return sales.SalesDocumentLine{
		ID:             m.ID,
		DocumentID:     m.DocumentID,
		LineNo:         m.LineNo,
		ProductID:      m.ProductID,
		ProductCode:    m.ProductCode,
		Description:    m.Description,
		Quantity:       m.Quantity,
		UOMCode:        m.UOMCode,
		UOMRate:        m.UOMRate,
		BaseQuantity:   m.BaseQuantity,
		UnitPrice:      m.UnitPrice,
		DiscountAmount: m.DiscountAmount,
		SubTotal:       m.SubTotal,
		TaxCode:        m.TaxCode,
		TaxRate:        m.TaxRate,
		TaxAmount:      m.TaxAmount,
		OutstandingQty: m.OutstandingQty,
		TransferredQty: m.TransferredQty,
		SourceLineID:   m.SourceLineID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the line model; lines inherit the header's tenant
func (m *SalesDocumentLineModel) FromDomain(tenantID uuid.UUID, l *sales.SalesDocumentLine) {
	m.ID = l.ID
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
	m.TenantID = tenantID
	m.DocumentID = l.DocumentID
	m.LineNo = l.LineNo
	m.ProductID = l.ProductID
	m.ProductCode = l.ProductCode
	m.Description = l.Description
	m.Quantity = l.Quantity
	m.UOMCode = l.UOMCode
	m.UOMRate = l.UOMRate
	m.BaseQuantity = l.BaseQuantity
	m.UnitPrice = l.UnitPrice
	m.DiscountAmount = l.DiscountAmount
	m.SubTotal = l.SubTotal
	m.TaxCode = l.TaxCode
	m.TaxRate = l.TaxRate
	m.TaxAmount = l.TaxAmount
	m.OutstandingQty = l.OutstandingQty
	m.TransferredQty = l.TransferredQty
	m.SourceLineID = l.SourceLineID
}
