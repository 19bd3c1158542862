package persistence

import (
	"context"

	"github.com/erp/salescore/internal/domain/identity"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/erp/salescore/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserGroupRepository implements UserGroupRepository using GORM
type GormUserGroupRepository struct {
	db *gorm.DB
}

// NewGormUserGroupRepository creates a new GormUserGroupRepository
func NewGormUserGroupRepository(db *gorm.DB) *GormUserGroupRepository {
	return &GormUserGroupRepository{db: db}
}

// FindByID finds a group by ID within a tenant
func (r *GormUserGroupRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.UserGroup, error) {
	var model models.UserGroupModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a group by code within a tenant
func (r *GormUserGroupRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*identity.UserGroup, error) {
	var model models.UserGroupModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists the tenant's groups
func (r *GormUserGroupRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.UserGroup, error) {
	var groupModels []models.UserGroupModel
	query := r.db.WithContext(ctx).Model(&models.UserGroupModel{}).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(code) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?)", pattern, pattern)
	}
	if err := paginate(query, filter, userGroupSort).Find(&groupModels).Error; err != nil {
		return nil, err
	}

	groups := make([]identity.UserGroup, len(groupModels))
	for i := range groupModels {
		groups[i] = *groupModels[i].ToDomain()
	}
	return groups, nil
}

// ExistsByCode checks if a group code is taken in the tenant
func (r *GormUserGroupRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserGroupModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Count(&count).Error
	return count > 0, err
}

// Save inserts or updates a group
func (r *GormUserGroupRepository) Save(ctx context.Context, group *identity.UserGroup) error {
	var model models.UserGroupModel
	model.FromDomain(group)
	return translateError(r.db.WithContext(ctx).Save(&model).Error)
}

// GormAccessRightRepository implements AccessRightRepository using GORM
type GormAccessRightRepository struct {
	db *gorm.DB
}

// NewGormAccessRightRepository creates a new GormAccessRightRepository
func NewGormAccessRightRepository(db *gorm.DB) *GormAccessRightRepository {
	return &GormAccessRightRepository{db: db}
}

// FindByGroup returns every right of a group ordered by module
func (r *GormAccessRightRepository) FindByGroup(ctx context.Context, tenantID, groupID uuid.UUID) ([]identity.AccessRight, error) {
	var rightModels []models.AccessRightModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND group_id = ?", tenantID, groupID).
		Order("module_code ASC").
		Find(&rightModels).Error; err != nil {
		return nil, err
	}

	rights := make([]identity.AccessRight, 0, len(rightModels))
	for i := range rightModels {
		right, err := rightModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		rights = append(rights, right)
	}
	return rights, nil
}

// ReplaceForGroup deletes every right of the group and inserts rights in
// one transaction
func (r *GormAccessRightRepository) ReplaceForGroup(ctx context.Context, tenantID, groupID uuid.UUID, rights []identity.AccessRight) error {
	rightModels := make([]models.AccessRightModel, len(rights))
	for i := range rights {
		if err := rightModels[i].FromDomain(&rights[i]); err != nil {
			return err
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND group_id = ?", tenantID, groupID).
			Delete(&models.AccessRightModel{}).Error; err != nil {
			return err
		}
		if len(rightModels) == 0 {
			return nil
		}
		return translateError(tx.Create(&rightModels).Error)
	})
}

// Create inserts one right; a duplicate (group, module) returns
// shared.ErrAlreadyExists
func (r *GormAccessRightRepository) Create(ctx context.Context, right *identity.AccessRight) error {
	var model models.AccessRightModel
	if err := model.FromDomain(right); err != nil {
		return err
	}
	return translateError(r.db.WithContext(ctx).Create(&model).Error)
}

var (
	_ identity.UserGroupRepository   = (*GormUserGroupRepository)(nil)
	_ identity.AccessRightRepository = (*GormAccessRightRepository)(nil)
)
