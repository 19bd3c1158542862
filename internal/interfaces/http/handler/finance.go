package handler

import (
	"context"

	"github.com/erp/salescore/internal/application/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReceivableUseCases is the AR invoice service as seen by the HTTP layer
type ReceivableUseCases interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.ARInvoiceResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter finance.ARInvoiceListFilter) ([]finance.ARInvoiceResponse, int64, error)
	RecordPayment(ctx context.Context, tenantID, id uuid.UUID, req finance.RecordPaymentRequest) (*finance.ARInvoiceResponse, error)
}

// PeriodLockUseCases is the period lock service as seen by the HTTP layer
type PeriodLockUseCases interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*finance.PeriodLockResponse, error)
	Set(ctx context.Context, tenantID, userID uuid.UUID, req finance.SetPeriodLockRequest) (*finance.PeriodLockResponse, error)
}

// FinanceHandler serves receivables and the accounting period lock
type FinanceHandler struct {
	BaseHandler
	receivables ReceivableUseCases
	periodLocks PeriodLockUseCases
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(receivables ReceivableUseCases, periodLocks PeriodLockUseCases) *FinanceHandler {
	return &FinanceHandler{receivables: receivables, periodLocks: periodLocks}
}

// ListReceivables godoc
// @ID           listARInvoices
// @Summary      List AR invoices
// @Tags         finance
// @Produce      json
// @Param        search query string false "Matches document number"
// @Param        customerId query string false "Customer ID" format(uuid)
// @Param        sourceId query string false "Source sales document ID" format(uuid)
// @Param        status query string false "Status" Enums(OPEN, PARTIAL, PAID, VOID)
// @Param        page query int false "Page number" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Success      200 {object} ListEnvelope[finance.ARInvoiceResponse]
// @Failure      400 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /finance/ar-invoices [get]
func (h *FinanceHandler) ListReceivables(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter finance.ARInvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	invoices, total, err := h.receivables.List(c.Request.Context(), p.TenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Paged(c, invoices, total, filter.Page, filter.PageSize)
}

// GetReceivable godoc
// @ID           getARInvoice
// @Summary      Get an AR invoice
// @Tags         finance
// @Produce      json
// @Param        id path string true "AR invoice ID" format(uuid)
// @Success      200 {object} Envelope[finance.ARInvoiceResponse]
// @Failure      404 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /finance/ar-invoices/{id} [get]
func (h *FinanceHandler) GetReceivable(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.receivables.GetByID(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RecordPayment godoc
// @ID           recordARPayment
// @Summary      Record a receipt against an AR invoice
// @Description  Moves the invoice to PARTIAL or PAID depending on what stays outstanding.
// @Tags         finance
// @Accept       json
// @Produce      json
// @Param        id path string true "AR invoice ID" format(uuid)
// @Param        request body finance.RecordPaymentRequest true "Payment"
// @Success      200 {object} Envelope[finance.ARInvoiceResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      404 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /finance/ar-invoices/{id}/payments [post]
func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req finance.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.receivables.RecordPayment(c.Request.Context(), p.TenantID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, invoice)
}

// GetPeriodLock godoc
// @ID           getPeriodLock
// @Summary      Get the accounting period lock
// @Tags         finance
// @Produce      json
// @Success      200 {object} Envelope[finance.PeriodLockResponse]
// @Security     BearerAuth
// @Router       /finance/period-lock [get]
func (h *FinanceHandler) GetPeriodLock(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	lock, err := h.periodLocks.Get(c.Request.Context(), p.TenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, lock)
}

// SetPeriodLock godoc
// @ID           setPeriodLock
// @Summary      Move the accounting period lock
// @Description  Documents dated on or before lockedUntil can no longer be written. Send null to unlock.
// @Tags         finance
// @Accept       json
// @Produce      json
// @Param        request body finance.SetPeriodLockRequest true "Lock date"
// @Success      200 {object} Envelope[finance.PeriodLockResponse]
// @Failure      400 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /finance/period-lock [put]
func (h *FinanceHandler) SetPeriodLock(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req finance.SetPeriodLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	lock, err := h.periodLocks.Set(c.Request.Context(), p.TenantID, p.UserID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, lock)
}
