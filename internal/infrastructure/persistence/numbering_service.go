package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/salescore/internal/domain/sales"
	"github.com/erp/salescore/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormNumberingService issues document numbers from a counter row per
// tenant, type and year. The increment is a single UPDATE, so the row
// lock serializes concurrent callers and a rolled back transaction
// gives its number back.
type GormNumberingService struct {
	db      *gorm.DB
	padding int
	now     func() time.Time
}

// NewGormNumberingService creates a new GormNumberingService
func NewGormNumberingService(db *gorm.DB, padding int) *GormNumberingService {
	return &GormNumberingService{db: db, padding: padding, now: time.Now}
}

// Next returns the next number for the tenant and document type
func (s *GormNumberingService) Next(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType) (string, error) {
	now := s.now().UTC()
	year := now.Year()
	var seq models.DocumentSequenceModel

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.DocumentSequenceModel{
			TenantID:     tenantID,
			DocumentType: docType.String(),
			Year:         year,
			UpdatedAt:    now,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}

		where := tx.Where("tenant_id = ? AND document_type = ? AND year = ?", tenantID, docType.String(), year)
		if err := where.Model(&models.DocumentSequenceModel{}).
			Updates(map[string]any{
				"last_value": gorm.Expr("last_value + 1"),
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		return tx.Where("tenant_id = ? AND document_type = ? AND year = ?", tenantID, docType.String(), year).
			First(&seq).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", docType, err)
	}
	return sales.FormatDocumentNumber(docType, year, seq.LastValue, s.padding), nil
}

// Ensure GormNumberingService implements NumberingService
var _ sales.NumberingService = (*GormNumberingService)(nil)
