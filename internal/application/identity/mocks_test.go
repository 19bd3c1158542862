package identity

import (
	"context"
	"sync"

	"github.com/erp/salescore/internal/domain/identity"
	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAccessRightRepository struct {
	mock.Mock
}

func (m *MockAccessRightRepository) FindByGroup(ctx context.Context, tenantID, groupID uuid.UUID) ([]identity.AccessRight, error) {
	args := m.Called(ctx, tenantID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.AccessRight), args.Error(1)
}

func (m *MockAccessRightRepository) ReplaceForGroup(ctx context.Context, tenantID, groupID uuid.UUID, rights []identity.AccessRight) error {
	args := m.Called(ctx, tenantID, groupID, rights)
	return args.Error(0)
}

func (m *MockAccessRightRepository) Create(ctx context.Context, right *identity.AccessRight) error {
	args := m.Called(ctx, right)
	return args.Error(0)
}

type MockUserGroupRepository struct {
	mock.Mock
}

func (m *MockUserGroupRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.UserGroup, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserGroup), args.Error(1)
}

func (m *MockUserGroupRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*identity.UserGroup, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserGroup), args.Error(1)
}

func (m *MockUserGroupRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.UserGroup, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]identity.UserGroup), args.Error(1)
}

func (m *MockUserGroupRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserGroupRepository) Save(ctx context.Context, group *identity.UserGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

// mapCache is a minimal PermissionCache for tests
type mapCache struct {
	mu          sync.Mutex
	sets        map[uuid.UUID]*identity.PermissionSet
	generations map[uuid.UUID]uint64
}

func newMapCache() *mapCache {
	return &mapCache{
		sets:        make(map[uuid.UUID]*identity.PermissionSet),
		generations: make(map[uuid.UUID]uint64),
	}
}

func (c *mapCache) Load(groupID uuid.UUID) (*identity.PermissionSet, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets[groupID], c.generations[groupID]
}

func (c *mapCache) Store(set *identity.PermissionSet, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[set.GroupID()] != generation {
		return false
	}
	c.sets[set.GroupID()] = set
	return true
}

func (c *mapCache) Invalidate(groupID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[groupID]++
	delete(c.sets, groupID)
}

type recordingBroadcaster struct {
	groups []uuid.UUID
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, groupID uuid.UUID) error {
	b.groups = append(b.groups, groupID)
	return nil
}
