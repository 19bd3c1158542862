package identity

import (
	"sort"
	"time"

	"github.com/erp/salescore/internal/domain/identity"
	"github.com/google/uuid"
)

// AccessRightInput is the flag set of one module
type AccessRightInput struct {
	ModuleCode    string          `json:"moduleCode" binding:"required,max=50"`
	CanView       bool            `json:"canView"`
	CanAdd        bool            `json:"canAdd"`
	CanEdit       bool            `json:"canEdit"`
	CanDelete     bool            `json:"canDelete"`
	CustomActions map[string]bool `json:"customActions"`
}

// ReplaceAccessRightsRequest replaces every right of a group
type ReplaceAccessRightsRequest struct {
	Rights []AccessRightInput `json:"rights" binding:"dive"`
}

// AccessRightResponse represents an access right in API responses
type AccessRightResponse struct {
	ID            uuid.UUID       `json:"id"`
	GroupID       uuid.UUID       `json:"groupId"`
	ModuleCode    string          `json:"moduleCode"`
	CanView       bool            `json:"canView"`
	CanAdd        bool            `json:"canAdd"`
	CanEdit       bool            `json:"canEdit"`
	CanDelete     bool            `json:"canDelete"`
	CustomActions map[string]bool `json:"customActions"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// CreateGroupRequest creates a user group
type CreateGroupRequest struct {
	Code        string `json:"code" binding:"required,min=1,max=50"`
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
	IsAdmin     bool   `json:"isAdmin"`
}

// UserGroupResponse represents a user group in API responses
type UserGroupResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsAdmin     bool      `json:"isAdmin"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SeedResult reports the outcome of a bulk seed
type SeedResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// EffectivePermissionsResponse lists the actions a group may perform per module
type EffectivePermissionsResponse struct {
	GroupID uuid.UUID           `json:"groupId"`
	IsAdmin bool                `json:"isAdmin"`
	Modules map[string][]string `json:"modules"`
}

// ToAccessRightResponse converts a domain access right to a response
func ToAccessRightResponse(r *identity.AccessRight) AccessRightResponse {
	custom := make(map[string]bool, len(r.CustomActions))
	for k, v := range r.CustomActions {
		custom[k] = v
	}
	return AccessRightResponse{
		ID:            r.ID,
		GroupID:       r.GroupID,
		ModuleCode:    r.ModuleCode,
		CanView:       r.CanView,
		CanAdd:        r.CanAdd,
		CanEdit:       r.CanEdit,
		CanDelete:     r.CanDelete,
		CustomActions: custom,
		CreatedAt:     r.CreatedAt,
	}
}

// ToAccessRightResponses converts rights sorted by module code
func ToAccessRightResponses(rights []identity.AccessRight) []AccessRightResponse {
	out := make([]AccessRightResponse, len(rights))
	for i := range rights {
		out[i] = ToAccessRightResponse(&rights[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleCode < out[j].ModuleCode })
	return out
}

// ToUserGroupResponse converts a domain group to a response
func ToUserGroupResponse(g *identity.UserGroup) UserGroupResponse {
	return UserGroupResponse{
		ID:          g.ID,
		Code:        g.Code,
		Name:        g.Name,
		Description: g.Description,
		IsAdmin:     g.IsAdmin,
		CreatedAt:   g.CreatedAt,
	}
}
