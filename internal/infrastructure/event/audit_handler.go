package event

import (
	"context"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/erp/salescore/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes every domain event as a structured audit log
// line carrying the serialized payload
type AuditLogHandler struct {
	catalog *Catalog
	logger     *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(catalog *Catalog, logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{catalog: catalog, logger: logger.Named("audit")}
}

// EventTypes returns nil; the handler receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.catalog.Encode(event)
	if err != nil {
		return err
	}
	logger.FromContextOr(ctx, h.logger).Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("event_tenant_id", event.TenantID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

// Ensure AuditLogHandler implements EventHandler
var _ shared.EventHandler = (*AuditLogHandler)(nil)
