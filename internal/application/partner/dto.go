package partner

import (
	"time"

	"github.com/erp/salescore/internal/domain/partner"
	"github.com/google/uuid"
)

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Code           string `json:"code" binding:"required,min=1,max=50"`
	Name           string `json:"name" binding:"required,min=1,max=200"`
	BillingAddress string `json:"billingAddress" binding:"max=500"`
	Phone          string `json:"phone" binding:"max=50"`
	Email          string `json:"email" binding:"omitempty,email,max=200"`
	CurrencyCode   string `json:"currencyCode" binding:"omitempty,len=3"`
	CreditTermDays int    `json:"creditTermDays" binding:"min=0,max=365"`
}

// UpdateCustomerRequest represents a request to update a customer.
// The code is immutable.
type UpdateCustomerRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1,max=200"`
	BillingAddress *string `json:"billingAddress" binding:"omitempty,max=500"`
	Phone          *string `json:"phone" binding:"omitempty,max=50"`
	Email          *string `json:"email" binding:"omitempty,max=200"`
	CurrencyCode   *string `json:"currencyCode" binding:"omitempty,len=3"`
	CreditTermDays *int    `json:"creditTermDays" binding:"omitempty,min=0,max=365"`
	IsActive       *bool   `json:"isActive"`
	Version        *int    `json:"version"`
}

// CustomerListFilter represents filter options for listing customers
type CustomerListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"orderBy"`
	OrderDir string `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID             uuid.UUID `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	BillingAddress string    `json:"billingAddress,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	CurrencyCode   string    `json:"currencyCode,omitempty"`
	CreditTermDays int       `json:"creditTermDays"`
	IsActive       bool      `json:"isActive"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		Code:           c.Code,
		Name:           c.Name,
		BillingAddress: c.BillingAddress,
		Phone:          c.Phone,
		Email:          c.Email,
		CurrencyCode:   c.CurrencyCode,
		CreditTermDays: c.CreditTermDays,
		IsActive:       c.IsActive,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ToCustomerResponses converts a slice of domain Customers
func ToCustomerResponses(customers []partner.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(customers))
	for i := range customers {
		out[i] = ToCustomerResponse(&customers[i])
	}
	return out
}
