package projection

import (
	"context"

	"github.com/google/uuid"
)

// ProductStockSummaryRepository defines the persistence interface for the
// derived per-product aggregates
type ProductStockSummaryRepository interface {
	FindByProduct(ctx context.Context, productID uuid.UUID) (*ProductStockSummary, error)
	FindByProducts(ctx context.Context, productIDs []uuid.UUID) ([]*ProductStockSummary, error)
	// LockByProducts takes pessimistic row locks on the products'
	// summary rows. Must run inside a transaction.
	LockByProducts(ctx context.Context, productIDs []uuid.UUID) error
	// UpsertBatch writes summaries keyed on product id, last write wins
	UpsertBatch(ctx context.Context, summaries []*ProductStockSummary) error
}

// OrderPickabilityRepository defines the persistence interface for the
// per-order-per-warehouse classifications
type OrderPickabilityRepository interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*OrderPickability, error)
	// UpsertBatch writes classifications keyed on (order, warehouse),
	// last write wins. Implementations chunk large batches.
	UpsertBatch(ctx context.Context, rows []*OrderPickability) error
	// DeleteByOrders removes classifications for orders leaving the open set
	DeleteByOrders(ctx context.Context, orderIDs []uuid.UUID) error
}
