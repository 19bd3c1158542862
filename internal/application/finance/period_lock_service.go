package finance

import (
	"context"
	"time"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PeriodLockService reads and moves the per-tenant posting lock
type PeriodLockService struct {
	repo   finance.PeriodLockRepository
	logger *zap.Logger
}

// NewPeriodLockService creates a new PeriodLockService
func NewPeriodLockService(repo finance.PeriodLockRepository, logger *zap.Logger) *PeriodLockService {
	return &PeriodLockService{repo: repo, logger: logger}
}

// Get returns the tenant's current lock
func (s *PeriodLockService) Get(ctx context.Context, tenantID uuid.UUID) (*PeriodLockResponse, error) {
	lock, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := ToPeriodLockResponse(lock)
	return &resp, nil
}

// Set moves the lock date. A nil date unlocks every period.
func (s *PeriodLockService) Set(ctx context.Context, tenantID, userID uuid.UUID, req SetPeriodLockRequest) (*PeriodLockResponse, error) {
	lock, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	lock.TenantID = tenantID
	lock.LockUntil(req.LockedUntil, userID)
	if err := s.repo.Save(ctx, lock); err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("tenant_id", tenantID.String()), zap.String("user_id", userID.String())}
	if lock.LockedUntil != nil {
		fields = append(fields, zap.Time("locked_until", *lock.LockedUntil))
	}
	s.logger.Info("period lock updated", fields...)

	resp := ToPeriodLockResponse(lock)
	return &resp, nil
}

// Ensure fails with PERIOD_LOCKED if any of dates is in a locked period
func (s *PeriodLockService) Ensure(ctx context.Context, tenantID uuid.UUID, dates ...time.Time) error {
	lock, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, d := range dates {
		if err := lock.Check(d); err != nil {
			return err
		}
	}
	return nil
}
