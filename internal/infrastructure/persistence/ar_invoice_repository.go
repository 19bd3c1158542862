package persistence

import (
	"context"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/erp/salescore/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormARInvoiceRepository implements ARInvoiceRepository using GORM
type GormARInvoiceRepository struct {
	db *gorm.DB
}

// NewGormARInvoiceRepository creates a new GormARInvoiceRepository
func NewGormARInvoiceRepository(db *gorm.DB) *GormARInvoiceRepository {
	return &GormARInvoiceRepository{db: db}
}

// FindByID finds an AR invoice by ID within a tenant
func (r *GormARInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.ARInvoice, error) {
	var model models.ARInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindBySource finds the mirror of a source document
func (r *GormARInvoiceRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) (*finance.ARInvoice, error) {
	var model models.ARInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindAll finds AR invoices matching the filter
func (r *GormARInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.ARInvoiceFilter) ([]finance.ARInvoice, error) {
	var arModels []models.ARInvoiceModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.ARInvoiceModel{}), tenantID, filter),
		filter.Filter, arInvoiceSort)
	if err := query.Find(&arModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]finance.ARInvoice, 0, len(arModels))
	for i := range arModels {
		ar, err := arModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *ar)
	}
	return invoices, nil
}

// Count counts AR invoices matching the filter
func (r *GormARInvoiceRepository) Count(ctx context.Context, tenantID uuid.UUID, filter finance.ARInvoiceFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ARInvoiceModel{}), tenantID, filter).
		Count(&count).Error
	return count, err
}

// Save inserts or fully updates an AR invoice
func (r *GormARInvoiceRepository) Save(ctx context.Context, invoice *finance.ARInvoice) error {
	var model models.ARInvoiceModel
	if err := model.FromDomain(invoice); err != nil {
		return err
	}
	return translateError(r.db.WithContext(ctx).Save(&model).Error)
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormARInvoiceRepository) SaveWithLock(ctx context.Context, invoice *finance.ARInvoice) error {
	var model models.ARInvoiceModel
	if err := model.FromDomain(invoice); err != nil {
		return err
	}
	model.Version = invoice.Version + 1

	db := r.db.WithContext(ctx)
	result := db.Model(&model).
		Where("tenant_id = ? AND version = ?", invoice.TenantID, invoice.Version).
		Select("*").
		Omit("id", "tenant_id", "created_at", "created_by").
		Updates(&model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.ARInvoiceModel{}).
			Where("tenant_id = ? AND id = ?", invoice.TenantID, invoice.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	invoice.Version = model.Version
	return nil
}

func (r *GormARInvoiceRepository) applyFilter(query *gorm.DB, tenantID uuid.UUID, filter finance.ARInvoiceFilter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(invoice_no) LIKE LOWER(?) OR LOWER(customer_name) LIKE LOWER(?)", pattern, pattern)
	}
	return query
}

// Ensure GormARInvoiceRepository implements ARInvoiceRepository
var _ finance.ARInvoiceRepository = (*GormARInvoiceRepository)(nil)
