package stocktaking

import (
	"context"

	"github.com/google/uuid"
)

// CountingProcessRepository defines the persistence interface for count
// submissions
type CountingProcessRepository interface {
	Create(ctx context.Context, p *CountingProcess) error
	FindByID(ctx context.Context, id uuid.UUID) (*CountingProcess, error)
	// Update persists counts and the completion marker with optimistic
	// locking on the aggregate version
	Update(ctx context.Context, p *CountingProcess) error
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*CountingProcess, error)
}
