package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/erp/salescore/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSet(groupID uuid.UUID) *identity.PermissionSet {
	right := identity.AccessRight{GroupID: groupID, ModuleCode: "SALES_ORDER", CanView: true}
	return identity.BuildPermissionSet(groupID, []identity.AccessRight{right}, identity.DerivedActions)
}

func TestInMemoryPermissionCache_LoadStore(t *testing.T) {
	c := NewInMemoryPermissionCache()
	groupID := uuid.New()

	set, gen := c.Load(groupID)
	assert.Nil(t, set)
	assert.Equal(t, uint64(0), gen)

	require.True(t, c.Store(buildSet(groupID), gen))

	set, _ = c.Load(groupID)
	require.NotNil(t, set)
	assert.True(t, set.Allows("SALES_ORDER", "print"))

	stats := c.Stats()
	assert.Equal(t, 1, stats.Groups)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestInMemoryPermissionCache_StaleStoreRejected(t *testing.T) {
	c := NewInMemoryPermissionCache()
	groupID := uuid.New()

	_, gen := c.Load(groupID)
	c.Invalidate(groupID) // rights edited while the set was being built

	assert.False(t, c.Store(buildSet(groupID), gen))
	set, newGen := c.Load(groupID)
	assert.Nil(t, set)
	assert.Equal(t, gen+1, newGen)

	assert.True(t, c.Store(buildSet(groupID), newGen))
}

func TestInMemoryPermissionCache_InvalidateEvicts(t *testing.T) {
	c := NewInMemoryPermissionCache()
	groupID := uuid.New()
	other := uuid.New()

	require.True(t, c.Store(buildSet(groupID), 0))
	require.True(t, c.Store(buildSet(other), 0))

	c.Invalidate(groupID)

	set, _ := c.Load(groupID)
	assert.Nil(t, set)
	set, _ = c.Load(other)
	assert.NotNil(t, set, "other groups are untouched")
}

func TestInMemoryPermissionCache_TTL(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	c := NewInMemoryPermissionCache(WithPermissionTTL(time.Minute))
	c.now = func() time.Time { return now }
	groupID := uuid.New()

	require.True(t, c.Store(buildSet(groupID), 0))
	now = now.Add(2 * time.Minute)

	set, gen := c.Load(groupID)
	assert.Nil(t, set)
	assert.True(t, c.Store(buildSet(groupID), gen), "expired entries can be rebuilt")
}

func TestInMemoryPermissionCache_Concurrent(t *testing.T) {
	c := NewInMemoryPermissionCache()
	groupID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, gen := c.Load(groupID)
			c.Store(buildSet(groupID), gen)
		}()
		go func() {
			defer wg.Done()
			c.Invalidate(groupID)
		}()
	}
	wg.Wait()

	c.Invalidate(groupID)
	set, _ := c.Load(groupID)
	assert.Nil(t, set, "the last invalidation wins")
}
