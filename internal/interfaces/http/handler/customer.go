package handler

import (
	"context"

	"github.com/erp/salescore/internal/application/partner"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerUseCases is the customer service as seen by the HTTP layer
type CustomerUseCases interface {
	Create(ctx context.Context, tenantID, userID uuid.UUID, req partner.CreateCustomerRequest) (*partner.CustomerResponse, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.CustomerResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter partner.CustomerListFilter) ([]partner.CustomerResponse, int64, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req partner.UpdateCustomerRequest) (*partner.CustomerResponse, error)
}

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customers CustomerUseCases
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customers CustomerUseCases) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a new customer
// @Description  Codes are unique per tenant. Phone numbers are normalized to E.164.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body partner.CreateCustomerRequest true "Customer creation request"
// @Success      201 {object} Envelope[partner.CustomerResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      409 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /partner/customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req partner.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customers.Create(c.Request.Context(), p.TenantID, p.UserID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, customer)
}

// GetByID godoc
// @ID           getCustomerById
// @Summary      Get customer by ID
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} Envelope[partner.CustomerResponse]
// @Failure      404 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /partner/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	customer, err := h.customers.GetByID(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, customer)
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Param        search query string false "Matches code or name"
// @Param        active query bool false "Active flag"
// @Param        page query int false "Page number" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Success      200 {object} ListEnvelope[partner.CustomerResponse]
// @Failure      400 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /partner/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter partner.CustomerListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	customers, total, err := h.customers.List(c.Request.Context(), p.TenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Paged(c, customers, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body partner.UpdateCustomerRequest true "Fields to change"
// @Success      200 {object} Envelope[partner.CustomerResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      404 {object} ErrorEnvelope
// @Failure      409 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /partner/customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req partner.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customers.Update(c.Request.Context(), p.TenantID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, customer)
}
