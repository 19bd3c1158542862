package identity

import (
	"context"
	"fmt"

	"github.com/erp/salescore/internal/domain/identity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Principal is the caller a permission check is made for
type Principal struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	GroupID  uuid.UUID
	IsAdmin  bool
}

// PermissionCache holds immutable permission sets per group.
//
// Load returns the cached set (nil on miss) together with a generation.
// Store must drop the set if the group was invalidated after that
// generation was observed, so a set built from stale rights never
// replaces a fresh invalidation.
type PermissionCache interface {
	Load(groupID uuid.UUID) (set *identity.PermissionSet, generation uint64)
	Store(set *identity.PermissionSet, generation uint64) bool
	Invalidate(groupID uuid.UUID)
}

// InvalidationBroadcaster tells other processes to drop a group's set
type InvalidationBroadcaster interface {
	Broadcast(ctx context.Context, groupID uuid.UUID) error
}

// PermissionEvaluator answers whether a principal may perform an action
type PermissionEvaluator struct {
	rights      identity.AccessRightRepository
	cache       PermissionCache
	broadcaster InvalidationBroadcaster
	rules       map[string][]string
	logger      *zap.Logger
}

// NewPermissionEvaluator creates a new PermissionEvaluator
func NewPermissionEvaluator(rights identity.AccessRightRepository, cache PermissionCache, logger *zap.Logger) *PermissionEvaluator {
	return &PermissionEvaluator{
		rights: rights,
		cache:  cache,
		rules:  identity.DerivedActions,
		logger: logger,
	}
}

// SetBroadcaster enables cross-process invalidation
func (e *PermissionEvaluator) SetBroadcaster(b InvalidationBroadcaster) {
	e.broadcaster = b
}

// Check reports whether p may perform action on module. Admins bypass.
func (e *PermissionEvaluator) Check(ctx context.Context, p Principal, module, action string) (bool, error) {
	if p.IsAdmin {
		return true, nil
	}
	if p.GroupID == uuid.Nil {
		return false, nil
	}
	set, err := e.PermissionSet(ctx, p.TenantID, p.GroupID)
	if err != nil {
		return false, err
	}
	return set.Allows(module, action), nil
}

// PermissionSet returns the group's set, building it on a cache miss
func (e *PermissionEvaluator) PermissionSet(ctx context.Context, tenantID, groupID uuid.UUID) (*identity.PermissionSet, error) {
	set, generation := e.cache.Load(groupID)
	if set != nil {
		return set, nil
	}

	rights, err := e.rights.FindByGroup(ctx, tenantID, groupID)
	if err != nil {
		return nil, fmt.Errorf("load access rights for group %s: %w", groupID, err)
	}
	set = identity.BuildPermissionSet(groupID, rights, e.rules)
	if !e.cache.Store(set, generation) {
		e.logger.Debug("permission set invalidated while building, not cached",
			zap.String("group_id", groupID.String()))
	}
	return set, nil
}

// Invalidate drops the group's cached set synchronously; the next check
// rebuilds it. Other processes are notified when a broadcaster is set.
func (e *PermissionEvaluator) Invalidate(ctx context.Context, groupID uuid.UUID) {
	e.cache.Invalidate(groupID)
	if e.broadcaster == nil {
		return
	}
	if err := e.broadcaster.Broadcast(ctx, groupID); err != nil {
		e.logger.Warn("failed to broadcast permission invalidation",
			zap.String("group_id", groupID.String()),
			zap.Error(err))
	}
}
