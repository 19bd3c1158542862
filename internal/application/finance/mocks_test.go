package finance

import (
	"context"

	"github.com/erp/salescore/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockARInvoiceRepository is a mock implementation of ARInvoiceRepository
type MockARInvoiceRepository struct {
	mock.Mock
}

func (m *MockARInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.ARInvoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.ARInvoice), args.Error(1)
}

func (m *MockARInvoiceRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType string, sourceID uuid.UUID) (*finance.ARInvoice, error) {
	args := m.Called(ctx, tenantID, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.ARInvoice), args.Error(1)
}

func (m *MockARInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.ARInvoiceFilter) ([]finance.ARInvoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]finance.ARInvoice), args.Error(1)
}

func (m *MockARInvoiceRepository) Count(ctx context.Context, tenantID uuid.UUID, filter finance.ARInvoiceFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockARInvoiceRepository) Save(ctx context.Context, invoice *finance.ARInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockARInvoiceRepository) SaveWithLock(ctx context.Context, invoice *finance.ARInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockPeriodLockRepository is a mock implementation of PeriodLockRepository
type MockPeriodLockRepository struct {
	mock.Mock
}

func (m *MockPeriodLockRepository) Get(ctx context.Context, tenantID uuid.UUID) (*finance.PeriodLock, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PeriodLock), args.Error(1)
}

func (m *MockPeriodLockRepository) Save(ctx context.Context, lock *finance.PeriodLock) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}
