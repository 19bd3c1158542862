package partner

import (
	"context"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Customer, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// Create inserts a new customer; a duplicate code returns shared.ErrAlreadyExists
	Create(ctx context.Context, customer *Customer) error

	// SaveWithLock updates with an optimistic version check
	SaveWithLock(ctx context.Context, customer *Customer) error
}
