package projection

import (
	"context"

	"github.com/wms/backend/internal/domain/order"
	"github.com/wms/backend/internal/domain/projection"
	"github.com/wms/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the repositories a
// recomputation reads and writes. Implementations retry on serialization
// conflicts a bounded number of times. Reads and upserts share the
// transaction, so the locks taken up front keep concurrent recomputes of
// the same products from interleaving.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories scoped to the
// current transaction
type TransactionalRepositories interface {
	SummaryRepo() projection.ProductStockSummaryRepository
	PickabilityRepo() projection.OrderPickabilityRepository
	EntryRepo() stock.StockEntryRepository
	WarehouseStockRepo() stock.WarehouseStockRepository
	Orders() order.OrderReadModel
}

// NoOpTransactionScope runs the function without a real transaction
type NoOpTransactionScope struct {
	summaryRepo        projection.ProductStockSummaryRepository
	pickabilityRepo    projection.OrderPickabilityRepository
	entryRepo          stock.StockEntryRepository
	warehouseStockRepo stock.WarehouseStockRepository
	orders             order.OrderReadModel
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories
func NewNoOpTransactionScope(
	summaryRepo projection.ProductStockSummaryRepository,
	pickabilityRepo projection.OrderPickabilityRepository,
	entryRepo stock.StockEntryRepository,
	warehouseStockRepo stock.WarehouseStockRepository,
	orders order.OrderReadModel,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		summaryRepo:        summaryRepo,
		pickabilityRepo:    pickabilityRepo,
		entryRepo:          entryRepo,
		warehouseStockRepo: warehouseStockRepo,
		orders:             orders,
	}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// SummaryRepo returns the product stock summary repository
func (s *NoOpTransactionScope) SummaryRepo() projection.ProductStockSummaryRepository {
	return s.summaryRepo
}

// PickabilityRepo returns the order pickability repository
func (s *NoOpTransactionScope) PickabilityRepo() projection.OrderPickabilityRepository {
	return s.pickabilityRepo
}

// EntryRepo returns the stock entry repository
func (s *NoOpTransactionScope) EntryRepo() stock.StockEntryRepository {
	return s.entryRepo
}

// WarehouseStockRepo returns the warehouse stock repository
func (s *NoOpTransactionScope) WarehouseStockRepo() stock.WarehouseStockRepository {
	return s.warehouseStockRepo
}

// Orders returns the order read model
func (s *NoOpTransactionScope) Orders() order.OrderReadModel {
	return s.orders
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
