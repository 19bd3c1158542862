package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/erp/salescore/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ARSyncService mirrors posted sales invoices into the AR subledger.
// Every method works on the repository handed in by the caller so that
// the mirror is written in the caller's transaction.
type ARSyncService struct {
	logger *zap.Logger
}

// NewARSyncService creates a new ARSyncService
func NewARSyncService(logger *zap.Logger) *ARSyncService {
	return &ARSyncService{logger: logger}
}

func sourceOf(doc *sales.SalesDocument) finance.ARInvoiceSource {
	return finance.ARInvoiceSource{
		SourceID:     doc.ID,
		InvoiceNo:    doc.DocumentNo,
		CustomerID:   doc.CustomerID,
		CustomerCode: doc.CustomerCode,
		CustomerName: doc.CustomerName,
		DocumentDate: doc.DocumentDate,
		DueDate:      doc.DueDate,
		Reference:    doc.Reference,
		Description:  doc.Description,
		CurrencyCode: doc.CurrencyCode,
		ExchangeRate: doc.ExchangeRate,
		NetTotal:     doc.NetTotal,
	}
}

// PostInvoice creates the AR mirror of a sales invoice and links it.
// A document that already carries a link is rejected as already posted.
func (s *ARSyncService) PostInvoice(ctx context.Context, repo finance.ARInvoiceRepository, doc *sales.SalesDocument) (_ *finance.ARInvoice, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ar_sync", "post_invoice",
		telemetry.SpanAttrDocumentNo, doc.DocumentNo,
		telemetry.SpanAttrAmount, doc.NetTotal,
	)
	defer telemetry.EndSpan(span, &err)

	if !doc.DocumentType.PostsToReceivables() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("%s documents are not posted to receivables", doc.DocumentType))
	}
	if doc.ARInvoiceID != nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyPosted,
			fmt.Sprintf("%s %s is already posted", doc.DocumentType, doc.DocumentNo))
	}

	ar, err := finance.NewARInvoice(doc.TenantID, sourceOf(doc))
	if err != nil {
		return nil, err
	}
	ar.CreatedBy = doc.CreatedBy
	if err := repo.Save(ctx, ar); err != nil {
		s.logger.Error("failed to save AR invoice",
			zap.String("document_id", doc.ID.String()),
			zap.String("document_no", doc.DocumentNo),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save AR invoice: %w", err)
	}
	if err := doc.LinkReceivable(ar.ID); err != nil {
		return nil, err
	}

	s.logger.Info("sales invoice posted to receivables",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_no", doc.DocumentNo),
		zap.String("ar_invoice_id", ar.ID.String()),
		zap.String("net_total", ar.NetTotal.String()),
	)
	return ar, nil
}

// SyncOnUpdate copies an edited invoice onto its existing mirror. It never
// creates a mirror; paid amounts are preserved.
func (s *ARSyncService) SyncOnUpdate(ctx context.Context, repo finance.ARInvoiceRepository, doc *sales.SalesDocument) (*finance.ARInvoice, error) {
	ar, err := s.locate(ctx, repo, doc)
	if err != nil {
		return nil, err
	}
	if ar == nil {
		return nil, shared.NewNotFoundError(fmt.Sprintf("AR invoice for %s", doc.DocumentNo))
	}
	if err := ar.Resync(sourceOf(doc)); err != nil {
		return nil, err
	}
	if err := repo.SaveWithLock(ctx, ar); err != nil {
		return nil, fmt.Errorf("sync AR invoice %s: %w", ar.InvoiceNo, err)
	}

	s.logger.Debug("AR invoice synchronized",
		zap.String("ar_invoice_id", ar.ID.String()),
		zap.String("outstanding", ar.OutstandingAmount.String()),
		zap.String("status", ar.Status.String()),
	)
	return ar, nil
}

// VoidCascade voids the mirror of a voided sales invoice. Returns false
// when there is no mirror or it was already void.
func (s *ARSyncService) VoidCascade(ctx context.Context, repo finance.ARInvoiceRepository, doc *sales.SalesDocument) (*finance.ARInvoice, bool, error) {
	ar, err := s.locate(ctx, repo, doc)
	if err != nil {
		return nil, false, err
	}
	if ar == nil {
		s.logger.Warn("no AR invoice found for voided sales invoice",
			zap.String("document_id", doc.ID.String()),
			zap.String("document_no", doc.DocumentNo),
		)
		return nil, false, nil
	}
	changed, err := ar.Void()
	if err != nil || !changed {
		return ar, false, err
	}
	if err := repo.SaveWithLock(ctx, ar); err != nil {
		return nil, false, fmt.Errorf("void AR invoice %s: %w", ar.InvoiceNo, err)
	}
	return ar, true, nil
}

// locate finds the mirror by the direct link, falling back to the source
// lookup for records written before the link existed.
func (s *ARSyncService) locate(ctx context.Context, repo finance.ARInvoiceRepository, doc *sales.SalesDocument) (*finance.ARInvoice, error) {
	if doc.ARInvoiceID != nil {
		ar, err := repo.FindByID(ctx, doc.TenantID, *doc.ARInvoiceID)
		if err == nil {
			return ar, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	ar, err := repo.FindBySource(ctx, doc.TenantID, finance.SourceTypeSalesInvoice, doc.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ar, nil
}
