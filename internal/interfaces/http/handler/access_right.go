package handler

import (
	"context"

	"github.com/erp/salescore/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccessRightUseCases is the access right service as seen by the HTTP layer
type AccessRightUseCases interface {
	CreateGroup(ctx context.Context, tenantID uuid.UUID, req identity.CreateGroupRequest) (*identity.UserGroupResponse, error)
	ListGroups(ctx context.Context, tenantID uuid.UUID) ([]identity.UserGroupResponse, error)
	GetGroupRights(ctx context.Context, tenantID, groupID uuid.UUID) ([]identity.AccessRightResponse, error)
	EffectivePermissions(ctx context.Context, tenantID, groupID uuid.UUID) (*identity.EffectivePermissionsResponse, error)
	ReplaceGroupRights(ctx context.Context, tenantID, groupID uuid.UUID, req identity.ReplaceAccessRightsRequest) ([]identity.AccessRightResponse, error)
}

// AccessRightHandler manages user groups and their module rights
type AccessRightHandler struct {
	BaseHandler
	rights AccessRightUseCases
}

// NewAccessRightHandler creates a new AccessRightHandler
func NewAccessRightHandler(rights AccessRightUseCases) *AccessRightHandler {
	return &AccessRightHandler{rights: rights}
}

// CreateGroup godoc
// @ID           createUserGroup
// @Summary      Create a user group
// @Description  New groups may view every module until their rights are replaced.
// @Tags         identity
// @Accept       json
// @Produce      json
// @Param        request body identity.CreateGroupRequest true "Group"
// @Success      201 {object} Envelope[identity.UserGroupResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      409 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /identity/groups [post]
func (h *AccessRightHandler) CreateGroup(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req identity.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	group, err := h.rights.CreateGroup(c.Request.Context(), p.TenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, group)
}

// ListGroups godoc
// @ID           listUserGroups
// @Summary      List user groups
// @Tags         identity
// @Produce      json
// @Success      200 {object} Envelope[[]identity.UserGroupResponse]
// @Security     BearerAuth
// @Router       /identity/groups [get]
func (h *AccessRightHandler) ListGroups(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	groups, err := h.rights.ListGroups(c.Request.Context(), p.TenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, groups)
}

// GetRights godoc
// @ID           getGroupAccessRights
// @Summary      Get a group's access rights
// @Tags         identity
// @Produce      json
// @Param        id path string true "Group ID" format(uuid)
// @Success      200 {object} Envelope[[]identity.AccessRightResponse]
// @Failure      404 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /identity/groups/{id}/access-rights [get]
func (h *AccessRightHandler) GetRights(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	groupID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	rights, err := h.rights.GetGroupRights(c.Request.Context(), p.TenantID, groupID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rights)
}

// ReplaceRights godoc
// @ID           replaceGroupAccessRights
// @Summary      Replace a group's access rights
// @Description  The new rights apply to the next request of every member.
// @Tags         identity
// @Accept       json
// @Produce      json
// @Param        id path string true "Group ID" format(uuid)
// @Param        request body identity.ReplaceAccessRightsRequest true "Rights"
// @Success      200 {object} Envelope[[]identity.AccessRightResponse]
// @Failure      400 {object} ErrorEnvelope
// @Failure      404 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /identity/groups/{id}/access-rights [put]
func (h *AccessRightHandler) ReplaceRights(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	groupID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req identity.ReplaceAccessRightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	rights, err := h.rights.ReplaceGroupRights(c.Request.Context(), p.TenantID, groupID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rights)
}

// EffectivePermissions godoc
// @ID           getGroupEffectivePermissions
// @Summary      Get the actions a group may perform
// @Description  Includes derived actions, e.g. print and export for view.
// @Tags         identity
// @Produce      json
// @Param        id path string true "Group ID" format(uuid)
// @Success      200 {object} Envelope[identity.EffectivePermissionsResponse]
// @Failure      404 {object} ErrorEnvelope
// @Security     BearerAuth
// @Router       /identity/groups/{id}/permissions [get]
func (h *AccessRightHandler) EffectivePermissions(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	groupID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	perms, err := h.rights.EffectivePermissions(c.Request.Context(), p.TenantID, groupID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, perms)
}

// MyPermissions godoc
// @ID           getMyPermissions
// @Summary      Get the caller's effective permissions
// @Tags         identity
// @Produce      json
// @Success      200 {object} Envelope[identity.EffectivePermissionsResponse]
// @Security     BearerAuth
// @Router       /identity/me/permissions [get]
func (h *AccessRightHandler) MyPermissions(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	if p.IsAdmin {
		h.Success(c, identity.EffectivePermissionsResponse{GroupID: p.GroupID, IsAdmin: true, Modules: map[string][]string{}})
		return
	}

	perms, err := h.rights.EffectivePermissions(c.Request.Context(), p.TenantID, p.GroupID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, perms)
}
