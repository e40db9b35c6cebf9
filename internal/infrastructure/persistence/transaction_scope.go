package persistence

import (
	"context"

	appprojection "github.com/wms/backend/internal/application/projection"
	appstock "github.com/wms/backend/internal/application/stock"
	"github.com/wms/backend/internal/domain/order"
	"github.com/wms/backend/internal/domain/projection"
	"github.com/wms/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormStockTransactionScope implements the ledger TransactionScope. Every
// Execute call runs inside one database transaction and replays a bounded
// number of times on serialization conflicts.
type GormStockTransactionScope struct {
	db *gorm.DB
}

// NewGormStockTransactionScope creates a new GormStockTransactionScope
func NewGormStockTransactionScope(db *gorm.DB) *GormStockTransactionScope {
	return &GormStockTransactionScope{db: db}
}

// Execute runs fn against transaction-scoped ledger repositories
func (s *GormStockTransactionScope) Execute(ctx context.Context, fn func(repos appstock.TransactionalRepositories) error) error {
	return transactionWithRetry(ctx, s.db, func(tx *gorm.DB) error {
		return fn(&stockTxRepositories{tx: tx})
	})
}

// stockTxRepositories provides repositories bound to one transaction
type stockTxRepositories struct {
	tx *gorm.DB
}

func (r *stockTxRepositories) EntryRepo() stock.StockEntryRepository {
	return NewGormStockEntryRepository(r.tx)
}

func (r *stockTxRepositories) MovementRepo() stock.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *stockTxRepositories) WarehouseStockRepo() stock.WarehouseStockRepository {
	return NewGormWarehouseStockRepository(r.tx)
}

var _ appstock.TransactionScope = (*GormStockTransactionScope)(nil)
var _ appstock.TransactionalRepositories = (*stockTxRepositories)(nil)

// GormProjectionTransactionScope implements the projection
// TransactionScope
type GormProjectionTransactionScope struct {
	db *gorm.DB
}

// NewGormProjectionTransactionScope creates a new GormProjectionTransactionScope
func NewGormProjectionTransactionScope(db *gorm.DB) *GormProjectionTransactionScope {
	return &GormProjectionTransactionScope{db: db}
}

// Execute runs fn against transaction-scoped projection repositories
func (s *GormProjectionTransactionScope) Execute(ctx context.Context, fn func(repos appprojection.TransactionalRepositories) error) error {
	return transactionWithRetry(ctx, s.db, func(tx *gorm.DB) error {
		return fn(&projectionTxRepositories{tx: tx})
	})
}

// projectionTxRepositories provides repositories bound to one transaction
type projectionTxRepositories struct {
	tx *gorm.DB
}

func (r *projectionTxRepositories) SummaryRepo() projection.ProductStockSummaryRepository {
	return NewGormProductStockSummaryRepository(r.tx)
}

func (r *projectionTxRepositories) PickabilityRepo() projection.OrderPickabilityRepository {
	return NewGormOrderPickabilityRepository(r.tx)
}

func (r *projectionTxRepositories) EntryRepo() stock.StockEntryRepository {
	return NewGormStockEntryRepository(r.tx)
}

func (r *projectionTxRepositories) WarehouseStockRepo() stock.WarehouseStockRepository {
	return NewGormWarehouseStockRepository(r.tx)
}

func (r *projectionTxRepositories) Orders() order.OrderReadModel {
	return NewGormOrderReadModel(r.tx)
}

var _ appprojection.TransactionScope = (*GormProjectionTransactionScope)(nil)
var _ appprojection.TransactionalRepositories = (*projectionTxRepositories)(nil)
