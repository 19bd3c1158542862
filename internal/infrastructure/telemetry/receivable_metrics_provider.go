package telemetry

import (
	"context"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReceivableMetricsProvider aggregates ar_invoices for the outstanding
// receivables gauge.
type GormReceivableMetricsProvider struct {
	db *gorm.DB
}

// NewGormReceivableMetricsProvider creates a new GormReceivableMetricsProvider.
func NewGormReceivableMetricsProvider(db *gorm.DB) *GormReceivableMetricsProvider {
	return &GormReceivableMetricsProvider{db: db}
}

// GetOutstandingByStatus sums outstanding_amount per status, skipping void
// invoices.
func (p *GormReceivableMetricsProvider) GetOutstandingByStatus(ctx context.Context, tenantID uuid.UUID) (map[finance.ARInvoiceStatus]decimal.Decimal, error) {
	type row struct {
		Status      finance.ARInvoiceStatus `gorm:"column:status"`
		Outstanding decimal.Decimal         `gorm:"column:outstanding"`
	}

	var rows []row
	err := p.db.WithContext(ctx).
		Table("ar_invoices").
		Select("status, COALESCE(SUM(outstanding_amount), 0) AS outstanding").
		Where("tenant_id = ? AND status <> ?", tenantID, finance.ARInvoiceStatusVoid).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[finance.ARInvoiceStatus]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Outstanding
	}
	return out, nil
}

// GormTenantProvider lists tenants that own at least one AR invoice.
// There is no tenants table in this service; tenancy comes from tokens.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns the distinct tenant ids found in ar_invoices.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("ar_invoices").
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}
