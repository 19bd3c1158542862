package identity

import (
	"regexp"
	"strings"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
)

var groupCodePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,49}$`)

// UserGroup is a role group. Members of an admin group bypass every check.
type UserGroup struct {
	shared.TenantAggregateRoot
	Code        string
	Name        string
	Description string
	IsAdmin     bool
}

// NewUserGroup creates a new user group
func NewUserGroup(tenantID uuid.UUID, code, name string, isAdmin bool) (*UserGroup, error) {
	code = strings.TrimSpace(code)
	if !groupCodePattern.MatchString(code) {
		return nil, shared.NewValidationError("invalid group code %q", code)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("group name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewValidationError("group name cannot exceed 100 characters")
	}
	return &UserGroup{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(code),
		Name:                name,
		IsAdmin:             isAdmin,
	}, nil
}

// Rename changes the display name and description
func (g *UserGroup) Rename(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("group name cannot be empty")
	}
	g.Name = name
	g.Description = description
	g.Touch()
	return nil
}
