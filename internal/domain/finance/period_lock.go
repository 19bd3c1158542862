package finance

import (
	"fmt"
	"time"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
)

// PeriodLock closes every date on or before LockedUntil for a tenant
type PeriodLock struct {
	TenantID    uuid.UUID
	LockedUntil *time.Time
	UpdatedBy   *uuid.UUID
	UpdatedAt   time.Time
}

// Allows reports whether documents dated on date may be written
func (p *PeriodLock) Allows(date time.Time) bool {
	if p == nil || p.LockedUntil == nil {
		return true
	}
	return dateOnly(date).After(dateOnly(*p.LockedUntil))
}

// Check returns a PERIOD_LOCKED error when date falls in a locked period
func (p *PeriodLock) Check(date time.Time) error {
	if p.Allows(date) {
		return nil
	}
	return shared.NewDomainError(shared.CodePeriodLocked,
		fmt.Sprintf("period is locked up to %s, cannot post on %s",
			p.LockedUntil.Format("2006-01-02"), date.Format("2006-01-02")))
}

// LockUntil moves the lock date; nil unlocks every period
func (p *PeriodLock) LockUntil(date *time.Time, by uuid.UUID) {
	if date != nil {
		d := dateOnly(*date)
		date = &d
	}
	p.LockedUntil = date
	p.UpdatedBy = &by
	p.UpdatedAt = time.Now()
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
