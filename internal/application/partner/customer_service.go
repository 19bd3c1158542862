package partner

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/salescore/internal/domain/partner"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo   partner.CustomerRepository
	eventPublisher shared.EventPublisher
	defaultRegion  string
	logger         *zap.Logger
}

// NewCustomerService creates a new CustomerService. defaultRegion is the
// ISO country used to parse phone numbers without a country prefix.
func NewCustomerService(customerRepo partner.CustomerRepository, defaultRegion string, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customerRepo:  customerRepo,
		defaultRegion: defaultRegion,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CustomerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new customer. A code already used in the tenant is a
// conflict and nothing is written.
func (s *CustomerService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(tenantID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}

	exists, err := s.customerRepo.ExistsByCode(ctx, tenantID, customer.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError("customer with code %s already exists", customer.Code)
	}

	if req.BillingAddress != "" {
		if err := customer.Update(req.Name, req.BillingAddress); err != nil {
			return nil, err
		}
	}
	if err := customer.SetContact(req.Phone, req.Email, s.defaultRegion); err != nil {
		return nil, err
	}
	if err := customer.SetTerms(req.CurrencyCode, req.CreditTermDays); err != nil {
		return nil, err
	}
	customer.CreatedBy = &userID

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		// lost a race with a concurrent insert of the same code
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewConflictError("customer with code %s already exists", customer.Code)
		}
		return nil, err
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("code", customer.Code),
	)
	s.publish(ctx, customer)

	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// GetByCode retrieves a customer by code
func (s *CustomerService) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByCode(ctx, tenantID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// List retrieves a page of customers with the total count
func (s *CustomerService) List(ctx context.Context, tenantID uuid.UUID, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	domainFilter := shared.DefaultFilter().
		Override(0, 0, "code", "asc").
		Override(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir)
	domainFilter.Search = filter.Search
	if filter.Active != nil {
		domainFilter.Where("is_active", *filter.Active)
	}

	customers, err := s.customerRepo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.customerRepo.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToCustomerResponses(customers), total, nil
}

// Update applies the provided fields to a customer
func (s *CustomerService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != customer.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	if req.Name != nil || req.BillingAddress != nil {
		name, address := customer.Name, customer.BillingAddress
		if req.Name != nil {
			name = *req.Name
		}
		if req.BillingAddress != nil {
			address = *req.BillingAddress
		}
		if err := customer.Update(name, address); err != nil {
			return nil, err
		}
	}
	if req.Phone != nil || req.Email != nil {
		phone, email := customer.Phone, customer.Email
		if req.Phone != nil {
			phone = *req.Phone
		}
		if req.Email != nil {
			email = *req.Email
		}
		if err := customer.SetContact(phone, email, s.defaultRegion); err != nil {
			return nil, err
		}
	}
	if req.CurrencyCode != nil || req.CreditTermDays != nil {
		currency, days := customer.CurrencyCode, customer.CreditTermDays
		if req.CurrencyCode != nil {
			currency = *req.CurrencyCode
		}
		if req.CreditTermDays != nil {
			days = *req.CreditTermDays
		}
		if err := customer.SetTerms(currency, days); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil {
		if *req.IsActive {
			customer.Activate()
		} else {
			customer.Deactivate()
		}
	}

	if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}
	s.publish(ctx, customer)

	resp := ToCustomerResponse(customer)
	return &resp, nil
}

func (s *CustomerService) publish(ctx context.Context, customer *partner.Customer) {
	if err := shared.PublishPending(ctx, s.eventPublisher, customer); err != nil {
		s.logger.Warn("failed to publish customer events",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err),
		)
	}
}
