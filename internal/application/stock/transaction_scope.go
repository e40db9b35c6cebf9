package stock

import (
	"context"

	"github.com/wms/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the ledger
// repositories. All repository operations inside one Execute call share a
// database transaction and commit or roll back atomically.
//
// Implementations retry the whole function a bounded number of times on
// transaction serialization conflicts before surfacing the error, so
// concurrent batches against the same product do not fail permanently.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the ledger repositories scoped to
// the current transaction
type TransactionalRepositories interface {
	EntryRepo() stock.StockEntryRepository
	MovementRepo() stock.StockMovementRepository
	WarehouseStockRepo() stock.WarehouseStockRepository
}

// NoOpTransactionScope runs the function against unscoped repositories
// without a real transaction. For wiring tests.
type NoOpTransactionScope struct {
	entryRepo          stock.StockEntryRepository
	movementRepo       stock.StockMovementRepository
	warehouseStockRepo stock.WarehouseStockRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories
func NewNoOpTransactionScope(
	entryRepo stock.StockEntryRepository,
	movementRepo stock.StockMovementRepository,
	warehouseStockRepo stock.WarehouseStockRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		entryRepo:          entryRepo,
		movementRepo:       movementRepo,
		warehouseStockRepo: warehouseStockRepo,
	}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// EntryRepo returns the stock entry repository
func (s *NoOpTransactionScope) EntryRepo() stock.StockEntryRepository {
	return s.entryRepo
}

// MovementRepo returns the stock movement repository
func (s *NoOpTransactionScope) MovementRepo() stock.StockMovementRepository {
	return s.movementRepo
}

// WarehouseStockRepo returns the warehouse stock repository
func (s *NoOpTransactionScope) WarehouseStockRepo() stock.WarehouseStockRepository {
	return s.warehouseStockRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
