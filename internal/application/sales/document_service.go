package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/domain/partner"
	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/erp/salescore/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxExportRows caps the number of documents written by one export
const MaxExportRows = 10000

// DocumentService runs the sales document lifecycle: create, update,
// delete or void, and transfer between document types.
type DocumentService struct {
	scope          TransactionScope
	docs           sales.SalesDocumentRepository
	customers      CustomerStore
	periods        PeriodGuard
	receivables    ReceivablesPoster
	locker         SourceLocker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	scope TransactionScope,
	docs sales.SalesDocumentRepository,
	customers CustomerStore,
	periods PeriodGuard,
	receivables ReceivablesPoster,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		scope:       scope,
		docs:        docs,
		customers:   customers,
		periods:     periods,
		receivables: receivables,
		locker:      noopLocker{},
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *DocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetSourceLocker installs a distributed lock around transfers
func (s *DocumentService) SetSourceLocker(locker SourceLocker) {
	if locker == nil {
		locker = noopLocker{}
	}
	s.locker = locker
}

// Create creates a document of docType. Invoices and cash sales are
// posted in the same transaction; invoices also get their AR mirror.
func (s *DocumentService) Create(ctx context.Context, tenantID, userID uuid.UUID, docType sales.DocumentType, req DocumentRequest) (*DocumentResponse, error) {
	if !docType.IsValid() {
		return nil, shared.NewValidationError("invalid document type %q", docType)
	}
	in, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("customerId is required")
	}

	customer, err := s.loadCustomer(ctx, tenantID, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, shared.NewValidationError("customer %s is inactive", customer.Code)
	}

	date := in.DocumentDate
	if date.IsZero() {
		date = sales.TransferDate(s.now())
	}
	if err := s.periods.Ensure(ctx, tenantID, date); err != nil {
		return nil, err
	}

	var (
		doc *sales.SalesDocument
		ar  *finance.ARInvoice
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, ar, err = s.createInTx(ctx, repos, tenantID, userID, docType, date, snapshotOf(customer), in.Header, in.Lines)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sales document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_type", doc.DocumentType.String()),
		zap.String("document_no", doc.DocumentNo),
		zap.String("net_total", doc.NetTotal.String()),
		zap.Bool("posted", doc.IsPosted),
	)
	s.publish(ctx, doc)
	if ar != nil {
		s.publish(ctx, ar)
	}

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// createInTx is the single creation path shared by Create and Transfer
func (s *DocumentService) createInTx(
	ctx context.Context,
	repos TransactionalRepositories,
	tenantID, userID uuid.UUID,
	docType sales.DocumentType,
	date time.Time,
	customer sales.CustomerSnapshot,
	header sales.HeaderInput,
	lines []sales.LineInput,
) (*sales.SalesDocument, *finance.ARInvoice, error) {
	number, err := repos.Numbering().Next(ctx, tenantID, docType)
	if err != nil {
		return nil, nil, fmt.Errorf("allocate %s number: %w", docType, err)
	}

	doc, err := sales.NewSalesDocument(tenantID, docType, number, date, customer, header, lines)
	if err != nil {
		return nil, nil, err
	}
	doc.CreatedBy = &userID

	var ar *finance.ARInvoice
	if docType.AutoPosts() {
		if docType.PostsToReceivables() {
			ar, err = s.receivables.PostInvoice(ctx, repos.Receivables(), doc)
			if err != nil {
				return nil, nil, err
			}
		}
		if err := doc.MarkPosted(); err != nil {
			return nil, nil, err
		}
	}

	if err := repos.Documents().Save(ctx, doc); err != nil {
		return nil, nil, fmt.Errorf("save %s %s: %w", docType, number, err)
	}
	return doc, ar, nil
}

// Update revises header and lines. Lines are reconciled by ID so that
// transfer history survives the edit.
func (s *DocumentService) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req DocumentRequest) (*DocumentResponse, error) {
	in, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	var (
		doc *sales.SalesDocument
		ar  *finance.ARInvoice
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.Documents().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if in.ExpectedVersion != nil && *in.ExpectedVersion != doc.Version {
			return shared.ErrConcurrencyConflict
		}
		if in.CustomerID != uuid.Nil && in.CustomerID != doc.CustomerID {
			return shared.NewValidationError("customer of %s %s cannot be changed", doc.DocumentType, doc.DocumentNo)
		}
		if err := doc.EnsureEditable(); err != nil {
			return err
		}

		dates := []time.Time{doc.DocumentDate}
		if !in.DocumentDate.IsZero() {
			dates = append(dates, in.DocumentDate)
		}
		if err := s.periods.Ensure(ctx, tenantID, dates...); err != nil {
			return err
		}

		if err := doc.Revise(in.DocumentDate, in.Header, in.Lines); err != nil {
			return err
		}
		if err := repos.Documents().SaveWithLock(ctx, doc); err != nil {
			return err
		}

		if doc.DocumentType.PostsToReceivables() && doc.IsPosted {
			ar, err = s.receivables.SyncOnUpdate(ctx, repos.Receivables(), doc)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sales document updated",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_no", doc.DocumentNo),
		zap.String("user_id", userID.String()),
		zap.Int("version", doc.Version),
	)
	s.publish(ctx, doc)
	if ar != nil {
		s.publish(ctx, ar)
	}

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// Delete hard-deletes a document that never moved downstream. A
// transferred document is voided instead; a posted one is rejected.
func (s *DocumentService) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) (*DeleteResponse, error) {
	var (
		doc    *sales.SalesDocument
		ar     *finance.ARInvoice
		action sales.DeleteAction
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.Documents().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		action, err = doc.ResolveDelete()
		if err != nil {
			return err
		}

		if action == sales.DeleteActionVoid {
			ar, err = s.voidInTx(ctx, repos, doc, "deleted after transfer")
			return err
		}
		if err := s.periods.Ensure(ctx, tenantID, doc.DocumentDate); err != nil {
			return err
		}
		if err := repos.Documents().Delete(ctx, tenantID, doc.ID); err != nil {
			return err
		}
		doc.AddDomainEvent(sales.NewDocumentDeletedEvent(doc))
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &DeleteResponse{ID: doc.ID}
	if action == sales.DeleteActionVoid {
		resp.Voided = true
	} else {
		resp.Deleted = true
	}
	s.logger.Info("sales document delete processed",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_no", doc.DocumentNo),
		zap.String("user_id", userID.String()),
		zap.Bool("deleted", resp.Deleted),
		zap.Bool("voided", resp.Voided),
	)
	s.publish(ctx, doc)
	if ar != nil {
		s.publish(ctx, ar)
	}
	return resp, nil
}

// Void marks the document VOID and cascades to its AR mirror.
// Voiding a void document returns it unchanged.
func (s *DocumentService) Void(ctx context.Context, tenantID, userID, id uuid.UUID, req VoidRequest) (_ *DocumentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_document", "void",
		telemetry.SpanAttrTenantID, tenantID,
		telemetry.SpanAttrDocumentID, id,
	)
	defer telemetry.EndSpan(span, &err)

	var (
		doc *sales.SalesDocument
		ar  *finance.ARInvoice
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.Documents().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		ar, err = s.voidInTx(ctx, repos, doc, req.Reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sales document voided",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_no", doc.DocumentNo),
		zap.String("user_id", userID.String()),
	)
	s.publish(ctx, doc)
	if ar != nil {
		s.publish(ctx, ar)
	}

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// voidInTx cascades to AR before touching the document so that a
// blocked AR void leaves nothing written.
func (s *DocumentService) voidInTx(ctx context.Context, repos TransactionalRepositories, doc *sales.SalesDocument, reason string) (*finance.ARInvoice, error) {
	if doc.IsVoid {
		return nil, nil
	}
	if err := s.periods.Ensure(ctx, doc.TenantID, doc.DocumentDate); err != nil {
		return nil, err
	}

	var ar *finance.ARInvoice
	if doc.DocumentType.PostsToReceivables() {
		var err error
		ar, _, err = s.receivables.VoidCascade(ctx, repos.Receivables(), doc)
		if err != nil {
			return nil, err
		}
	}

	changed, err := doc.Void(reason)
	if err != nil || !changed {
		return ar, err
	}
	if err := repos.Documents().SaveWithLock(ctx, doc); err != nil {
		return nil, err
	}
	return ar, nil
}

// Transfer moves outstanding quantity from a source document into a new
// document of the requested type. Everything happens in one transaction.
func (s *DocumentService) Transfer(ctx context.Context, tenantID, userID, sourceID uuid.UUID, req TransferRequest) (_ *TransferResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_document", "transfer",
		telemetry.SpanAttrTenantID, tenantID,
		telemetry.SpanAttrDocumentID, sourceID,
		telemetry.SpanAttrTargetType, req.TargetType,
		telemetry.SpanAttrLineCount, len(req.LineTransfers),
	)
	defer telemetry.EndSpan(span, &err)

	release, err := s.locker.Lock(ctx, tenantID, sourceID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release transfer lock",
				zap.String("source_id", sourceID.String()),
				zap.Error(err),
			)
		}
	}()

	var out transferOutcome
	telemetry.WithProfilingLabels(ctx, telemetry.SalesOperationLabels("transfer", req.TargetType), func(ctx context.Context) {
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			out, err = s.transferInTx(ctx, repos, tenantID, userID, sourceID, req)
			return err
		})
	})
	if err != nil {
		s.logger.Warn("sales document transfer rolled back",
			zap.String("source_id", sourceID.String()),
			zap.String("target_type", req.TargetType),
			zap.Error(err),
		)
		return nil, err
	}

	source, target := out.source, out.target
	s.logger.Info("sales document transferred",
		zap.String("source_id", source.ID.String()),
		zap.String("source_no", source.DocumentNo),
		zap.String("target_id", target.ID.String()),
		zap.String("target_no", target.DocumentNo),
		zap.String("transfer_status", source.TransferStatus.String()),
	)
	s.publish(ctx, target)
	if out.ar != nil {
		s.publish(ctx, out.ar)
	}
	s.publish(ctx, source)

	return &TransferResponse{
		Source: ToDocumentResponse(source),
		Target: ToDocumentResponse(target),
	}, nil
}

// transferOutcome carries the aggregates written by one transfer
type transferOutcome struct {
	source, target *sales.SalesDocument
	ar             *finance.ARInvoice
}

func (s *DocumentService) transferInTx(
	ctx context.Context,
	repos TransactionalRepositories,
	tenantID, userID, sourceID uuid.UUID,
	req TransferRequest,
) (transferOutcome, error) {
	var out transferOutcome
	source, err := repos.Documents().FindByID(ctx, tenantID, sourceID)
	if err != nil {
		return out, err
	}
	targetType, err := sales.ResolveTransferTarget(source.DocumentType, req.TargetType)
	if err != nil {
		return out, err
	}
	plan, err := source.PlanTransfer(req.lineTransfers())
	if err != nil {
		return out, err
	}
	lines, err := sales.TransferLineInputs(plan)
	if err != nil {
		return out, err
	}

	customer := source.CustomerSnapshot()
	if c, err := s.customers.FindByID(ctx, tenantID, source.CustomerID); err == nil {
		customer.CreditTermDays = c.CreditTermDays
	} else if !errors.Is(err, shared.ErrNotFound) {
		return out, err
	}

	date := sales.TransferDate(s.now())
	if err := s.periods.Ensure(ctx, tenantID, date); err != nil {
		return out, err
	}

	target, ar, err := s.createInTx(ctx, repos, tenantID, userID, targetType, date, customer, source.TransferHeader(), lines)
	if err != nil {
		return out, err
	}

	for _, tl := range plan {
		if err := repos.Documents().DecrementOutstanding(ctx, tenantID, tl.Line.ID, tl.Quantity); err != nil {
			return out, err
		}
	}
	if err := source.ApplyTransfer(target.ID, targetType, plan); err != nil {
		return out, err
	}
	if err := repos.Documents().SaveWithLock(ctx, source); err != nil {
		return out, err
	}
	return transferOutcome{source: source, target: target, ar: ar}, nil
}

// TransferableLines returns the lines that still have outstanding quantity
func (s *DocumentService) TransferableLines(ctx context.Context, tenantID, id uuid.UUID) ([]LineResponse, error) {
	doc, err := s.docs.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if doc.IsVoid {
		return []LineResponse{}, nil
	}
	return ToLineResponses(doc.TransferableLines()), nil
}

// GetByID retrieves a document with its lines. The type guards against
// reading an invoice through the orders route.
func (s *DocumentService) GetByID(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.docs.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if docType != "" && doc.DocumentType != docType {
		return nil, shared.NewNotFoundError(fmt.Sprintf("%s %s", docType, id))
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// List retrieves documents of one type with filtering and pagination
func (s *DocumentService) List(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, filter DocumentListFilter) ([]DocumentResponse, int64, error) {
	domainFilter, err := toDomainFilter(docType, filter)
	if err != nil {
		return nil, 0, err
	}
	docs, err := s.docs.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.docs.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = ToDocumentListItem(&docs[i])
	}
	return out, total, nil
}

// ExportRows returns every document matching filter, up to MaxExportRows
func (s *DocumentService) ExportRows(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, filter DocumentListFilter) ([]DocumentResponse, error) {
	filter.Page = 1
	filter.PageSize = 0
	domainFilter, err := toDomainFilter(docType, filter)
	if err != nil {
		return nil, err
	}
	domainFilter.PageSize = MaxExportRows

	docs, err := s.docs.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = ToDocumentListItem(&docs[i])
	}
	return out, nil
}

func toDomainFilter(docType sales.DocumentType, filter DocumentListFilter) (sales.DocumentFilter, error) {
	f := sales.DocumentFilter{
		Filter:       shared.DefaultFilter().Override(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		DocumentType: docType,
		CustomerID:   filter.CustomerID,
	}
	f.Search = filter.Search

	if filter.Status != "" {
		f.Status = sales.DocumentStatus(filter.Status)
		if !f.Status.IsValid() {
			return f, shared.NewValidationError("invalid status %q", filter.Status)
		}
	}
	if filter.TransferStatus != "" {
		f.TransferStatus = sales.TransferStatus(filter.TransferStatus)
		if !f.TransferStatus.IsValid() {
			return f, shared.NewValidationError("invalid transfer status %q", filter.TransferStatus)
		}
	}
	var err error
	if f.DateFrom, err = parseFilterDate("dateFrom", filter.DateFrom); err != nil {
		return f, err
	}
	if f.DateTo, err = parseFilterDate("dateTo", filter.DateTo); err != nil {
		return f, err
	}
	return f, nil
}

func parseFilterDate(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, shared.NewValidationError("%s must be YYYY-MM-DD", name)
	}
	return &t, nil
}

func (s *DocumentService) loadCustomer(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	customer, err := s.customers.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("customer %s", id))
		}
		return nil, err
	}
	return customer, nil
}

func snapshotOf(c *partner.Customer) sales.CustomerSnapshot {
	return sales.CustomerSnapshot{
		ID:             c.ID,
		Code:           c.Code,
		Name:           c.Name,
		BillingAddress: c.BillingAddress,
		CurrencyCode:   c.CurrencyCode,
		CreditTermDays: c.CreditTermDays,
	}
}

// publish sends the aggregate's events after commit. Failures are logged;
// the write already succeeded.
func (s *DocumentService) publish(ctx context.Context, agg shared.EventSource) {
	if err := shared.PublishPending(ctx, s.eventPublisher, agg); err != nil {
		s.logger.Warn("failed to publish sales document events", zap.Error(err))
	}
}
