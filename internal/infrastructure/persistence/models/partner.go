package models

import (
	"github.com/erp/salescore/internal/domain/partner"
	"github.com/google/uuid"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	TenantID       uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_customer_tenant_code,priority:1"`
	Code           string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_customer_tenant_code,priority:2"`
	Name           string    `gorm:"type:varchar(200);not null"`
	BillingAddress string    `gorm:"type:varchar(500)"`
	Phone          string    `gorm:"type:varchar(50)"`
	Email          string    `gorm:"type:varchar(200)"`
	CurrencyCode   string    `gorm:"type:varchar(3)"`
	CreditTermDays int       `gorm:"not null;default:0"`
	IsActive       bool      `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(m.TenantID),
		Code:                m.Code,
		Name:                m.Name,
		BillingAddress:      m.BillingAddress,
		Phone:               m.Phone,
		Email:               m.Email,
		CurrencyCode:        m.CurrencyCode,
		CreditTermDays:      m.CreditTermDays,
		IsActive:            m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.TenantID = c.TenantID
	m.Code = c.Code
	m.Name = c.Name
	m.BillingAddress = c.BillingAddress
	m.Phone = c.Phone
	m.Email = c.Email
	m.CurrencyCode = c.CurrencyCode
	m.CreditTermDays = c.CreditTermDays
	m.IsActive = c.IsActive
}
