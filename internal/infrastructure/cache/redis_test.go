package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/erp/salescore/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// incrStub answers INCR from memory; any other command panics
type incrStub struct {
	redis.Cmdable
	counters map[string]int64
	keys     []string
	err      error
}

func (s *incrStub) Incr(_ context.Context, key string) *redis.IntCmd {
	if s.err != nil {
		return redis.NewIntResult(0, s.err)
	}
	s.counters[key]++
	s.keys = append(s.keys, key)
	return redis.NewIntResult(s.counters[key], nil)
}

func TestRedisNumberingService_Next(t *testing.T) {
	stub := &incrStub{counters: map[string]int64{}}
	svc := NewRedisNumberingService(stub, 5)
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC) }
	tenantID := uuid.New()

	first, err := svc.Next(context.Background(), tenantID, sales.DocumentTypeDeliveryOrder)
	require.NoError(t, err)
	second, err := svc.Next(context.Background(), tenantID, sales.DocumentTypeDeliveryOrder)
	require.NoError(t, err)

	assert.Equal(t, "DO-2026-00001", first)
	assert.Equal(t, "DO-2026-00002", second)
	assert.Equal(t, "salescore:seq:"+tenantID.String()+":DELIVERY_ORDER:2026", stub.keys[0])
}

func TestRedisNumberingService_Error(t *testing.T) {
	stub := &incrStub{counters: map[string]int64{}, err: errors.New("connection refused")}
	svc := NewRedisNumberingService(stub, 5)

	_, err := svc.Next(context.Background(), uuid.New(), sales.DocumentTypeInvoice)
	assert.ErrorContains(t, err, "connection refused")
}

func TestRedisPermissionInvalidator_Handle(t *testing.T) {
	inv := NewRedisPermissionInvalidator(nil)
	c := NewInMemoryPermissionCache()
	groupID := uuid.New()
	require.True(t, c.Store(buildSet(groupID), 0))

	own, err := json.Marshal(InvalidationMessage{GroupID: groupID, Origin: inv.origin})
	require.NoError(t, err)
	inv.handle(string(own), c)
	set, _ := c.Load(groupID)
	assert.NotNil(t, set, "own broadcasts are already applied locally")

	remote, err := json.Marshal(InvalidationMessage{GroupID: groupID, Origin: "replica-2"})
	require.NoError(t, err)
	inv.handle(string(remote), c)
	set, _ = c.Load(groupID)
	assert.Nil(t, set)

	inv.handle("not json", c)
}
