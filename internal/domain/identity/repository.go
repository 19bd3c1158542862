package identity

import (
	"context"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
)

// UserGroupRepository persists user groups
type UserGroupRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*UserGroup, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*UserGroup, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]UserGroup, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, group *UserGroup) error
}

// AccessRightRepository persists access rights
type AccessRightRepository interface {
	FindByGroup(ctx context.Context, tenantID, groupID uuid.UUID) ([]AccessRight, error)

	// ReplaceForGroup deletes every right of the group and inserts rights
	ReplaceForGroup(ctx context.Context, tenantID, groupID uuid.UUID, rights []AccessRight) error

	// Create inserts one right; a duplicate (group, module) returns
	// shared.ErrAlreadyExists
	Create(ctx context.Context, right *AccessRight) error
}
