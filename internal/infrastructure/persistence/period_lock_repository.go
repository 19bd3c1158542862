package persistence

import (
	"context"
	"errors"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/erp/salescore/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPeriodLockRepository implements PeriodLockRepository using GORM
type GormPeriodLockRepository struct {
	db *gorm.DB
}

// NewGormPeriodLockRepository creates a new GormPeriodLockRepository
func NewGormPeriodLockRepository(db *gorm.DB) *GormPeriodLockRepository {
	return &GormPeriodLockRepository{db: db}
}

// Get returns the tenant's lock, or an unlocked value if none is stored
func (r *GormPeriodLockRepository) Get(ctx context.Context, tenantID uuid.UUID) (*finance.PeriodLock, error) {
	var model models.PeriodLockModel
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &finance.PeriodLock{TenantID: tenantID}, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the tenant's lock
func (r *GormPeriodLockRepository) Save(ctx context.Context, lock *finance.PeriodLock) error {
	var model models.PeriodLockModel
	model.FromDomain(lock)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"locked_until", "updated_by", "updated_at"}),
		}).
		Create(&model).Error
}

// Ensure GormPeriodLockRepository implements PeriodLockRepository
var _ finance.PeriodLockRepository = (*GormPeriodLockRepository)(nil)
