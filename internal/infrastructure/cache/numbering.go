package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/salescore/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisNumberingService issues document numbers with INCR on a key per
// tenant, type and year. Unlike the database counter, numbers taken by a
// rolled back transaction are not reissued.
type RedisNumberingService struct {
	client  redis.Cmdable
	prefix  string
	padding int
	now     func() time.Time
}

// NewRedisNumberingService creates a new RedisNumberingService
func NewRedisNumberingService(client redis.Cmdable, padding int) *RedisNumberingService {
	return &RedisNumberingService{
		client:  client,
		prefix:  "salescore:seq",
		padding: padding,
		now:     time.Now,
	}
}

func (s *RedisNumberingService) key(tenantID uuid.UUID, docType sales.DocumentType, year int) string {
	return fmt.Sprintf("%s:%s:%s:%d", s.prefix, tenantID, docType, year)
}

// Next returns the next number for the tenant and document type
func (s *RedisNumberingService) Next(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType) (string, error) {
	year := s.now().UTC().Year()
	seq, err := s.client.Incr(ctx, s.key(tenantID, docType, year)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", docType, err)
	}
	return sales.FormatDocumentNumber(docType, year, seq, s.padding), nil
}

// Ensure RedisNumberingService implements NumberingService
var _ sales.NumberingService = (*RedisNumberingService)(nil)
