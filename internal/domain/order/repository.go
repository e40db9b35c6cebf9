package order

import (
	"context"

	"github.com/google/uuid"
)

// OrderReadModel is the query contract against the order subsystem. The
// stock core reads orders, line items and deliveries but never writes them.
type OrderReadModel interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Order, error)
	// FindOpenByProducts returns every stock-reserving order with a line
	// item for one of the given products
	FindOpenByProducts(ctx context.Context, productIDs []uuid.UUID) ([]*Order, error)
	// FindOpenOrderIDs returns the ids of all stock-reserving orders
	FindOpenOrderIDs(ctx context.Context) ([]uuid.UUID, error)
	// FindCompletedByProducts returns completed orders for the periodic
	// sales rebuild
	FindCompletedByProducts(ctx context.Context, productIDs []uuid.UUID) ([]*Order, error)
	// ProductIDsInCompletedOrders returns the distinct products appearing
	// on any completed order
	ProductIDsInCompletedOrders(ctx context.Context) ([]uuid.UUID, error)
}
