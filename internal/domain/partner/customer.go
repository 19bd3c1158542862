package partner

import (
	"net/mail"
	"strings"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/ttacon/libphonenumber"
)

// Customer is a billable trading partner
type Customer struct {
	shared.TenantAggregateRoot
	Code           string
	Name           string
	BillingAddress string
	Phone          string // E.164
	Email          string
	CurrencyCode   string
	CreditTermDays int
	IsActive       bool
}

// NewCustomer creates an active customer
func NewCustomer(tenantID uuid.UUID, code, name string) (*Customer, error) {
	if err := validateCustomerCode(code); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}

	c := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(strings.TrimSpace(code)),
		Name:                strings.TrimSpace(name),
		IsActive:            true,
	}
	c.AddDomainEvent(NewCustomerCreatedEvent(c))
	return c, nil
}

// Update changes the display name and billing address
func (c *Customer) Update(name, billingAddress string) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}
	if len(billingAddress) > 500 {
		return shared.NewValidationError("billing address cannot exceed 500 characters")
	}
	c.Name = strings.TrimSpace(name)
	c.BillingAddress = billingAddress
	c.Touch()
	c.AddDomainEvent(NewCustomerUpdatedEvent(c))
	return nil
}

// SetTerms sets the trading currency and credit terms
func (c *Customer) SetTerms(currencyCode string, creditTermDays int) error {
	if creditTermDays < 0 || creditTermDays > 365 {
		return shared.NewValidationError("credit term must be between 0 and 365 days")
	}
	currencyCode = strings.ToUpper(strings.TrimSpace(currencyCode))
	if currencyCode != "" && len(currencyCode) != 3 {
		return shared.NewValidationError("currency code must be a 3-letter ISO code")
	}
	c.CurrencyCode = currencyCode
	c.CreditTermDays = creditTermDays
	c.Touch()
	return nil
}

// SetContact validates and stores contact details. Phone numbers are
// parsed against defaultRegion when they carry no country prefix.
func (c *Customer) SetContact(phone, email, defaultRegion string) error {
	normalized := ""
	if strings.TrimSpace(phone) != "" {
		p, err := NormalizePhone(phone, defaultRegion)
		if err != nil {
			return err
		}
		normalized = p
	}
	if email != "" {
		if len(email) > 200 {
			return shared.NewValidationError("email cannot exceed 200 characters")
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewValidationError("invalid email address %q", email)
		}
	}
	c.Phone = normalized
	c.Email = email
	c.Touch()
	return nil
}

// Deactivate blocks the customer from new documents
func (c *Customer) Deactivate() {
	c.IsActive = false
	c.Touch()
}

// Activate re-enables the customer
func (c *Customer) Activate() {
	c.IsActive = true
	c.Touch()
}

// NormalizePhone parses a phone number and formats it as E.164
func NormalizePhone(phone, defaultRegion string) (string, error) {
	num, err := libphonenumber.Parse(strings.TrimSpace(phone), strings.ToUpper(defaultRegion))
	if err != nil {
		return "", shared.NewValidationError("invalid phone number %q", phone)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", shared.NewValidationError("invalid phone number %q", phone)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

func validateCustomerCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewValidationError("customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewValidationError("customer code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewValidationError("customer code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("customer name cannot exceed 200 characters")
	}
	return nil
}
