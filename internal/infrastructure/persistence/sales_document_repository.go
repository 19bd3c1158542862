package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/erp/salescore/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesDocumentRepository implements SalesDocumentRepository using GORM
type GormSalesDocumentRepository struct {
	db *gorm.DB
}

// NewGormSalesDocumentRepository creates a new GormSalesDocumentRepository
func NewGormSalesDocumentRepository(db *gorm.DB) *GormSalesDocumentRepository {
	return &GormSalesDocumentRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByID finds a document with its lines
func (r *GormSalesDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesDocument, error) {
	var model models.SalesDocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a document by its number within a type
func (r *GormSalesDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, documentNo string) (*sales.SalesDocument, error) {
	var model models.SalesDocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("tenant_id = ? AND document_type = ? AND document_no = ?", tenantID, docType, documentNo).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds documents matching the filter, newest first by default
func (r *GormSalesDocumentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter sales.DocumentFilter) ([]sales.SalesDocument, error) {
	var docModels []models.SalesDocumentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SalesDocumentModel{}), tenantID, filter)
	query = paginate(query, filter.Filter, salesDocumentSort)

	if err := query.Preload("Lines", preloadLines).Find(&docModels).Error; err != nil {
		return nil, err
	}

	docs := make([]sales.SalesDocument, len(docModels))
	for i := range docModels {
		docs[i] = *docModels[i].ToDomain()
	}
	return docs, nil
}

// Count counts documents matching the filter
func (r *GormSalesDocumentRepository) Count(ctx context.Context, tenantID uuid.UUID, filter sales.DocumentFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.SalesDocumentModel{}), tenantID, filter).
		Count(&count).Error
	return count, err
}

// FindBySource finds the documents created from a source document
func (r *GormSalesDocumentRepository) FindBySource(ctx context.Context, tenantID, sourceID uuid.UUID) ([]sales.SalesDocument, error) {
	var docModels []models.SalesDocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("tenant_id = ? AND source_id = ?", tenantID, sourceID).
		Order("created_at ASC").
		Find(&docModels).Error; err != nil {
		return nil, err
	}
	docs := make([]sales.SalesDocument, len(docModels))
	for i := range docModels {
		docs[i] = *docModels[i].ToDomain()
	}
	return docs, nil
}

// Save inserts or updates the header and synchronizes its lines
func (r *GormSalesDocumentRepository) Save(ctx context.Context, doc *sales.SalesDocument) error {
	var model models.SalesDocumentModel
	model.FromDomain(doc)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(&model).Error; err != nil {
			return translateError(err)
		}
		return r.syncLines(tx, &model)
	})
}

// SaveWithLock updates the header only if the stored version still
// matches doc.Version, then bumps the version on success
func (r *GormSalesDocumentRepository) SaveWithLock(ctx context.Context, doc *sales.SalesDocument) error {
	var model models.SalesDocumentModel
	model.FromDomain(doc)
	model.Version = doc.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model).
			Where("tenant_id = ? AND version = ?", doc.TenantID, doc.Version).
			Select("*").
			Omit(clause.Associations, "id", "tenant_id", "created_at", "created_by").
			Updates(&model)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return r.missingOrStale(tx, doc.TenantID, doc.ID)
		}
		return r.syncLines(tx, &model)
	})
	if err != nil {
		return err
	}
	doc.Version = model.Version
	return nil
}

func (r *GormSalesDocumentRepository) missingOrStale(tx *gorm.DB, tenantID, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.SalesDocumentModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// syncLines removes stored lines missing from the model and upserts the rest
func (r *GormSalesDocumentRepository) syncLines(tx *gorm.DB, model *models.SalesDocumentModel) error {
	keep := make([]uuid.UUID, 0, len(model.Lines))
	for i := range model.Lines {
		keep = append(keep, model.Lines[i].ID)
	}

	del := tx.Where("tenant_id = ? AND document_id = ?", model.TenantID, model.ID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	if err := del.Delete(&models.SalesDocumentLineModel{}).Error; err != nil {
		return err
	}

	for i := range model.Lines {
		if err := tx.Save(&model.Lines[i]).Error; err != nil {
			return translateError(err)
		}
	}
	return nil
}

// Delete removes a document and its lines
func (r *GormSalesDocumentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND document_id = ?", tenantID, id).
			Delete(&models.SalesDocumentLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.SalesDocumentModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// DecrementOutstanding moves qty from outstanding to transferred with a
// single conditional UPDATE, so two transfers racing for the same line
// cannot both succeed
func (r *GormSalesDocumentRepository) DecrementOutstanding(ctx context.Context, tenantID, lineID uuid.UUID, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewValidationError("transfer quantity must be positive")
	}
	db := r.db.WithContext(ctx)
	result := db.Model(&models.SalesDocumentLineModel{}).
		Where("tenant_id = ? AND id = ? AND outstanding_qty >= ?", tenantID, lineID, qty).
		Updates(map[string]any{
			"outstanding_qty": gorm.Expr("outstanding_qty - ?", qty),
			"transferred_qty": gorm.Expr("transferred_qty + ?", qty),
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var line models.SalesDocumentLineModel
	if err := db.Where("tenant_id = ? AND id = ?", tenantID, lineID).First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}
	return shared.NewConflictError("line %d has only %s outstanding", line.LineNo, line.OutstandingQty)
}

func (r *GormSalesDocumentRepository) applyFilter(query *gorm.DB, tenantID uuid.UUID, filter sales.DocumentFilter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if filter.DocumentType != "" {
		query = query.Where("document_type = ?", filter.DocumentType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TransferStatus != "" {
		query = query.Where("transfer_status = ?", filter.TransferStatus)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.DateFrom != nil {
		query = query.Where("document_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("document_date <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(document_no) LIKE LOWER(?) OR LOWER(customer_name) LIKE LOWER(?) OR LOWER(reference) LIKE LOWER(?)",
			pattern, pattern, pattern)
	}
	return query
}

// Ensure GormSalesDocumentRepository implements SalesDocumentRepository
var _ sales.SalesDocumentRepository = (*GormSalesDocumentRepository)(nil)
