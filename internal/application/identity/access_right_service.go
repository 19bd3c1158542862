package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/salescore/internal/domain/identity"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccessRightService manages user groups and their access rights
type AccessRightService struct {
	groups    identity.UserGroupRepository
	rights    identity.AccessRightRepository
	evaluator *PermissionEvaluator
	logger    *zap.Logger
}

// NewAccessRightService creates a new AccessRightService
func NewAccessRightService(
	groups identity.UserGroupRepository,
	rights identity.AccessRightRepository,
	evaluator *PermissionEvaluator,
	logger *zap.Logger,
) *AccessRightService {
	return &AccessRightService{
		groups:    groups,
		rights:    rights,
		evaluator: evaluator,
		logger:    logger,
	}
}

// CreateGroup creates a group and seeds a view right for every default module
func (s *AccessRightService) CreateGroup(ctx context.Context, tenantID uuid.UUID, req CreateGroupRequest) (*UserGroupResponse, error) {
	group, err := identity.NewUserGroup(tenantID, req.Code, req.Name, req.IsAdmin)
	if err != nil {
		return nil, err
	}
	exists, err := s.groups.ExistsByCode(ctx, tenantID, group.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError("user group with code %s already exists", group.Code)
	}
	group.Description = req.Description
	if err := s.groups.Save(ctx, group); err != nil {
		return nil, err
	}

	defaults := make([]AccessRightInput, 0, len(identity.DefaultModules()))
	for _, m := range identity.DefaultModules() {
		defaults = append(defaults, AccessRightInput{ModuleCode: m, CanView: true})
	}
	if _, err := s.SeedAccessRights(ctx, tenantID, group.ID, defaults); err != nil {
		return nil, err
	}

	resp := ToUserGroupResponse(group)
	return &resp, nil
}

// ListGroups lists the tenant's user groups
func (s *AccessRightService) ListGroups(ctx context.Context, tenantID uuid.UUID) ([]UserGroupResponse, error) {
	groups, err := s.groups.FindAll(ctx, tenantID, shared.DefaultFilter().Override(1, 100, "code", "asc"))
	if err != nil {
		return nil, err
	}
	out := make([]UserGroupResponse, len(groups))
	for i := range groups {
		out[i] = ToUserGroupResponse(&groups[i])
	}
	return out, nil
}

// GetGroupRights returns the stored rights of a group
func (s *AccessRightService) GetGroupRights(ctx context.Context, tenantID, groupID uuid.UUID) ([]AccessRightResponse, error) {
	if _, err := s.groups.FindByID(ctx, tenantID, groupID); err != nil {
		return nil, err
	}
	rights, err := s.rights.FindByGroup(ctx, tenantID, groupID)
	if err != nil {
		return nil, err
	}
	return ToAccessRightResponses(rights), nil
}

// EffectivePermissions returns the actions a group may perform, with
// derived actions included
func (s *AccessRightService) EffectivePermissions(ctx context.Context, tenantID, groupID uuid.UUID) (*EffectivePermissionsResponse, error) {
	group, err := s.groups.FindByID(ctx, tenantID, groupID)
	if err != nil {
		return nil, err
	}
	set, err := s.evaluator.PermissionSet(ctx, tenantID, groupID)
	if err != nil {
		return nil, err
	}
	resp := &EffectivePermissionsResponse{
		GroupID: groupID,
		IsAdmin: group.IsAdmin,
		Modules: make(map[string][]string),
	}
	for _, m := range identity.DefaultModules() {
		if actions := set.Actions(m); len(actions) > 0 {
			resp.Modules[m] = actions
		}
	}
	return resp, nil
}

// ReplaceGroupRights replaces every right of the group. The cached
// permission set is invalidated before returning.
func (s *AccessRightService) ReplaceGroupRights(ctx context.Context, tenantID, groupID uuid.UUID, req ReplaceAccessRightsRequest) ([]AccessRightResponse, error) {
	if _, err := s.groups.FindByID(ctx, tenantID, groupID); err != nil {
		return nil, err
	}

	rights := make([]identity.AccessRight, 0, len(req.Rights))
	seen := make(map[string]bool, len(req.Rights))
	for _, in := range req.Rights {
		right, err := identity.NewAccessRight(tenantID, groupID, in.ModuleCode, in.CanView, in.CanAdd, in.CanEdit, in.CanDelete, in.CustomActions)
		if err != nil {
			return nil, err
		}
		if seen[right.ModuleCode] {
			return nil, shared.NewValidationError("module %s is listed twice", right.ModuleCode)
		}
		seen[right.ModuleCode] = true
		rights = append(rights, *right)
	}

	if err := s.rights.ReplaceForGroup(ctx, tenantID, groupID, rights); err != nil {
		return nil, fmt.Errorf("replace access rights: %w", err)
	}
	s.evaluator.Invalidate(ctx, groupID)

	s.logger.Info("access rights replaced",
		zap.String("group_id", groupID.String()),
		zap.Int("modules", len(rights)),
	)
	return ToAccessRightResponses(rights), nil
}

// SeedAccessRights inserts rights one by one. Rows that already exist are
// skipped and counted; any other error aborts the seed.
func (s *AccessRightService) SeedAccessRights(ctx context.Context, tenantID, groupID uuid.UUID, inputs []AccessRightInput) (SeedResult, error) {
	var result SeedResult
	for _, in := range inputs {
		right, err := identity.NewAccessRight(tenantID, groupID, in.ModuleCode, in.CanView, in.CanAdd, in.CanEdit, in.CanDelete, in.CustomActions)
		if err != nil {
			return result, err
		}
		if err := s.rights.Create(ctx, right); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				result.Skipped++
				continue
			}
			return result, err
		}
		result.Created++
	}
	if result.Created > 0 {
		s.evaluator.Invalidate(ctx, groupID)
	}
	if result.Skipped > 0 {
		s.logger.Debug("skipped existing access rights during seed",
			zap.String("group_id", groupID.String()),
			zap.Int("skipped", result.Skipped),
		)
	}
	return result, nil
}
