package finance

import (
	"context"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ARInvoiceService exposes the AR subledger to the API
type ARInvoiceService struct {
	repo           finance.ARInvoiceRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewARInvoiceService creates a new ARInvoiceService
func NewARInvoiceService(repo finance.ARInvoiceRepository, logger *zap.Logger) *ARInvoiceService {
	return &ARInvoiceService{repo: repo, logger: logger}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ARInvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves an AR invoice
func (s *ARInvoiceService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ARInvoiceResponse, error) {
	ar, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToARInvoiceResponse(ar)
	return &resp, nil
}

// GetBySource retrieves the mirror of a sales invoice
func (s *ARInvoiceService) GetBySource(ctx context.Context, tenantID, sourceID uuid.UUID) (*ARInvoiceResponse, error) {
	ar, err := s.repo.FindBySource(ctx, tenantID, finance.SourceTypeSalesInvoice, sourceID)
	if err != nil {
		return nil, err
	}
	resp := ToARInvoiceResponse(ar)
	return &resp, nil
}

// List retrieves AR invoices with filtering and pagination
func (s *ARInvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter ARInvoiceListFilter) ([]ARInvoiceResponse, int64, error) {
	domainFilter := finance.ARInvoiceFilter{
		Filter:     shared.DefaultFilter().Override(filter.Page, filter.PageSize, "", ""),
		CustomerID: filter.CustomerID,
		SourceID:   filter.SourceID,
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		status := finance.ARInvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("invalid status %q", filter.Status)
		}
		domainFilter.Status = &status
	}

	invoices, err := s.repo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ARInvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToARInvoiceResponse(&invoices[i])
	}
	return out, total, nil
}

// RecordPayment applies a receipt and re-derives the invoice status
func (s *ARInvoiceService) RecordPayment(ctx context.Context, tenantID, id uuid.UUID, req RecordPaymentRequest) (*ARInvoiceResponse, error) {
	ar, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := ar.ApplyPayment(req.Amount, req.Reference); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, ar); err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded on AR invoice",
		zap.String("ar_invoice_id", ar.ID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("status", ar.Status.String()),
	)
	s.publish(ctx, ar)

	resp := ToARInvoiceResponse(ar)
	return &resp, nil
}

func (s *ARInvoiceService) publish(ctx context.Context, ar *finance.ARInvoice) {
	if err := shared.PublishPending(ctx, s.eventPublisher, ar); err != nil {
		s.logger.Warn("failed to publish AR invoice events", zap.Error(err))
	}
}
