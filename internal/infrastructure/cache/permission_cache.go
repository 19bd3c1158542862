package cache

import (
	"sync"
	"sync/atomic"
	"time"

	appidentity "github.com/erp/salescore/internal/application/identity"
	"github.com/erp/salescore/internal/domain/identity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPermissionTTL bounds how long a set lives without invalidation
const DefaultPermissionTTL = 5 * time.Minute

// InMemoryPermissionCache holds one immutable PermissionSet per group.
//
// Every group carries a generation counter that Invalidate bumps. Load
// hands out the current generation and Store accepts a set only while
// that generation is unchanged, so a set built from rights read before
// an invalidation is dropped instead of cached.
type InMemoryPermissionCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*permissionEntry
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	hits   int64
	misses int64
}

type permissionEntry struct {
	set        *identity.PermissionSet
	generation uint64
	expiresAt  time.Time
}

// PermissionCacheOption is a functional option for configuring the cache
type PermissionCacheOption func(*InMemoryPermissionCache)

// WithPermissionTTL sets the entry lifetime; zero disables expiry
func WithPermissionTTL(ttl time.Duration) PermissionCacheOption {
	return func(c *InMemoryPermissionCache) {
		c.ttl = ttl
	}
}

// WithPermissionCacheLogger sets the logger for the cache
func WithPermissionCacheLogger(logger *zap.Logger) PermissionCacheOption {
	return func(c *InMemoryPermissionCache) {
		c.logger = logger
	}
}

// NewInMemoryPermissionCache creates a new in-memory permission cache
func NewInMemoryPermissionCache(opts ...PermissionCacheOption) *InMemoryPermissionCache {
	c := &InMemoryPermissionCache{
		entries: make(map[uuid.UUID]*permissionEntry),
		ttl:     DefaultPermissionTTL,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached set, or nil on a miss, with the group's generation
func (c *InMemoryPermissionCache) Load(groupID uuid.UUID) (*identity.PermissionSet, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[groupID]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, 0
	}
	if e.set == nil || (c.ttl > 0 && c.now().After(e.expiresAt)) {
		e.set = nil
		atomic.AddInt64(&c.misses, 1)
		return nil, e.generation
	}
	atomic.AddInt64(&c.hits, 1)
	return e.set, e.generation
}

// Store caches set unless the group was invalidated after generation
func (c *InMemoryPermissionCache) Store(set *identity.PermissionSet, generation uint64) bool {
	if set == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[set.GroupID()]
	if !ok {
		if generation != 0 {
			return false
		}
		e = &permissionEntry{}
		c.entries[set.GroupID()] = e
	}
	if e.generation != generation {
		return false
	}
	e.set = set
	e.expiresAt = c.now().Add(c.ttl)
	return true
}

// Invalidate drops the group's set and bumps its generation
func (c *InMemoryPermissionCache) Invalidate(groupID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[groupID]
	if !ok {
		e = &permissionEntry{}
		c.entries[groupID] = e
	}
	e.set = nil
	e.generation++
	c.logger.Debug("permission set invalidated",
		zap.String("group_id", groupID.String()),
		zap.Uint64("generation", e.generation))
}

// PermissionCacheStats is a snapshot of cache counters
type PermissionCacheStats struct {
	Groups int
	Hits   int64
	Misses int64
}

// Stats returns cache statistics
func (c *InMemoryPermissionCache) Stats() PermissionCacheStats {
	c.mu.Lock()
	groups := 0
	for _, e := range c.entries {
		if e.set != nil {
			groups++
		}
	}
	c.mu.Unlock()
	return PermissionCacheStats{
		Groups: groups,
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
	}
}

// Ensure InMemoryPermissionCache implements PermissionCache
var _ appidentity.PermissionCache = (*InMemoryPermissionCache)(nil)
