package models

import (
	"encoding/json"
	"time"

	"github.com/erp/salescore/internal/domain/identity"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserGroupModel is the persistence model for a user group
type UserGroupModel struct {
	AggregateModel
	TenantID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_user_group_code,priority:1"`
	Code        string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_user_group_code,priority:2"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:varchar(500)"`
	IsAdmin     bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UserGroupModel) TableName() string {
	return "user_groups"
}

// ToDomain converts the persistence model to a domain UserGroup
func (m *UserGroupModel) ToDomain() *identity.UserGroup {
	return &identity.UserGroup{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(m.TenantID),
		Code:                m.Code,
		Name:                m.Name,
		Description:         m.Description,
		IsAdmin:             m.IsAdmin,
	}
}

// FromDomain populates the persistence model from a domain UserGroup
func (m *UserGroupModel) FromDomain(g *identity.UserGroup) {
	m.FromDomainTenantAggregateRoot(g.TenantAggregateRoot)
	m.TenantID = g.TenantID
	m.Code = g.Code
	m.Name = g.Name
	m.Description = g.Description
	m.IsAdmin = g.IsAdmin
}

// AccessRightModel stores one group's flags for one module. Custom actions
// are kept as a JSON object of action name to allowed.
type AccessRightModel struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey"`
	TenantID      uuid.UUID `gorm:"type:char(36);not null;index"`
	GroupID       uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_access_right_module,priority:1"`
	ModuleCode    string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_access_right_module,priority:2"`
	CanView       bool      `gorm:"not null;default:false"`
	CanAdd        bool      `gorm:"not null;default:false"`
	CanEdit       bool      `gorm:"not null;default:false"`
	CanDelete     bool      `gorm:"not null;default:false"`
	CustomActions datatypes.JSON
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccessRightModel) TableName() string {
	return "access_rights"
}

// ToDomain converts the persistence model to a domain AccessRight
func (m *AccessRightModel) ToDomain() (identity.AccessRight, error) {
	custom := map[string]bool{}
	if len(m.CustomActions) > 0 {
		if err := json.Unmarshal(m.CustomActions, &custom); err != nil {
			return identity.AccessRight{}, err
		}
	}
	return identity.AccessRight{
		ID:            m.ID,
		TenantID:      m.TenantID,
		GroupID:       m.GroupID,
		ModuleCode:    m.ModuleCode,
		CanView:       m.CanView,
		CanAdd:        m.CanAdd,
		CanEdit:       m.CanEdit,
		CanDelete:     m.CanDelete,
		CustomActions: custom,
		CreatedAt:     m.CreatedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain AccessRight
func (m *AccessRightModel) FromDomain(r *identity.AccessRight) error {
	custom := r.CustomActions
	if custom == nil {
		custom = map[string]bool{}
	}
	raw, err := json.Marshal(custom)
	if err != nil {
		return err
	}
	m.ID = r.ID
	m.TenantID = r.TenantID
	m.GroupID = r.GroupID
	m.ModuleCode = r.ModuleCode
	m.CanView = r.CanView
	m.CanAdd = r.CanAdd
	m.CanEdit = r.CanEdit
	m.CanDelete = r.CanDelete
	m.CustomActions = datatypes.JSON(raw)
	m.CreatedAt = r.CreatedAt
	return nil
}
