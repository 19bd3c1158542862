package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks sales document activity and receivable health.
// It subscribes to the event bus so the services never call it directly.
type BusinessMetrics struct {
	logger *zap.Logger

	documentsCreated   metric.Int64Counter
	documentAmount     metric.Int64Counter
	documentTransfers  metric.Int64Counter
	documentVoids      metric.Int64Counter
	receivablesPosted  metric.Int64Counter
	receivableBalances metric.Float64Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	receivableProvider ReceivableMetricsProvider
}

// ReceivableMetricsProvider reports receivable balances for periodic collection.
type ReceivableMetricsProvider interface {
	// GetOutstandingByStatus returns the summed outstanding amount per AR status
	GetOutstandingByStatus(ctx context.Context, tenantID uuid.UUID) (map[finance.ARInvoiceStatus]decimal.Decimal, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter              metric.Meter
	Logger             *zap.Logger
	ReceivableProvider ReceivableMetricsProvider
}

// ErrMeterNil is returned by NewBusinessMetrics without a meter
var ErrMeterNil = errors.New("telemetry: business metrics need a meter")

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	in := NewInstruments(cfg.Meter)
	bm := &BusinessMetrics{
		logger: logger,
		documentsCreated: in.Counter("erp_sales_document_created_total",
			"Sales documents created", "{document}"),
		documentAmount: in.Counter("erp_sales_document_amount_total",
			"Net amount of created sales documents in cents", "{cent}"),
		documentTransfers: in.Counter("erp_sales_document_transfer_total",
			"Source to target document transfers", "{transfer}"),
		documentVoids: in.Counter("erp_sales_document_void_total",
			"Voided sales documents", "{document}"),
		receivablesPosted: in.Counter("erp_ar_invoice_posted_total",
			"AR invoices posted from sales documents", "{invoice}"),
		receivableBalances: in.FloatGauge("erp_ar_outstanding_amount",
			"Outstanding receivable amount per status", "{currency}"),
		stopChan:           make(chan struct{}),
		receivableProvider: cfg.ReceivableProvider,
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordDocumentCreated records a created document and its net amount.
func (bm *BusinessMetrics) RecordDocumentCreated(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, netTotal decimal.Decimal) {
	attrs := metric.WithAttributes(
		AttrTenantID.String(tenantID.String()),
		AttrDocumentType.String(string(docType)),
	)
	bm.documentsCreated.Add(ctx, 1, attrs)
	bm.documentAmount.Add(ctx, netTotal.Shift(2).IntPart(), attrs)
}

// RecordTransfer records a source to target transfer.
func (bm *BusinessMetrics) RecordTransfer(ctx context.Context, tenantID uuid.UUID, sourceType, targetType sales.DocumentType) {
	bm.documentTransfers.Add(ctx, 1, metric.WithAttributes(
		AttrTenantID.String(tenantID.String()),
		AttrDocumentType.String(string(sourceType)),
		AttrTargetType.String(string(targetType)),
	))
}

// RecordVoid records a voided document.
func (bm *BusinessMetrics) RecordVoid(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType) {
	bm.documentVoids.Add(ctx, 1, metric.WithAttributes(
		AttrTenantID.String(tenantID.String()),
		AttrDocumentType.String(string(docType)),
	))
}

// RecordARPosted records a posted AR invoice.
func (bm *BusinessMetrics) RecordARPosted(ctx context.Context, tenantID uuid.UUID) {
	bm.receivablesPosted.Add(ctx, 1, metric.WithAttributes(AttrTenantID.String(tenantID.String())))
}

// RecordOutstanding records the outstanding receivable balance for one status.
func (bm *BusinessMetrics) RecordOutstanding(ctx context.Context, tenantID uuid.UUID, status finance.ARInvoiceStatus, amount decimal.Decimal) {
	bm.receivableBalances.Record(ctx, amount.InexactFloat64(), metric.WithAttributes(
		AttrTenantID.String(tenantID.String()),
		AttrARStatus.String(string(status)),
	))
}

// EventTypes lists the domain events that feed the counters.
func (bm *BusinessMetrics) EventTypes() []string {
	return []string{
		sales.EventTypeDocumentCreated,
		sales.EventTypeDocumentTransferred,
		sales.EventTypeDocumentVoided,
		finance.EventTypeARInvoiceCreated,
	}
}

// Handle updates the counters for one domain event. Unknown events are ignored.
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *sales.DocumentCreatedEvent:
		bm.RecordDocumentCreated(ctx, e.TenantID(), e.DocumentType, e.NetTotal)
	case *sales.DocumentTransferredEvent:
		bm.RecordTransfer(ctx, e.TenantID(), e.DocumentType, e.TargetType)
	case *sales.DocumentVoidedEvent:
		bm.RecordVoid(ctx, e.TenantID(), e.DocumentType)
	case *finance.ARInvoiceCreatedEvent:
		bm.RecordARPosted(ctx, e.TenantID())
	}
	return nil
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectReceivableMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectReceivableMetrics(ctx, tenantProvider)
		}
	}
}

func (bm *BusinessMetrics) collectReceivableMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.receivableProvider == nil {
		bm.logger.Debug("No receivable provider configured, skipping receivable metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		byStatus, err := bm.receivableProvider.GetOutstandingByStatus(ctx, tenantID)
		if err != nil {
			bm.logger.Warn("Failed to get outstanding receivables for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		for status, amount := range byStatus {
			bm.RecordOutstanding(ctx, tenantID, status, amount)
		}
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}
