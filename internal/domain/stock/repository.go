package stock

import (
	"context"

	"github.com/google/uuid"
)

// StockEntryRepository defines the persistence interface for the materialized
// ledger positions
type StockEntryRepository interface {
	// FindForUpdateByProducts loads all entries for the given products with
	// pessimistic row locks. Must run inside a transaction.
	FindForUpdateByProducts(ctx context.Context, productIDs []uuid.UUID) ([]*StockEntry, error)
	// FindByProductAndLocation returns the entry at one location, or nil
	FindByProductAndLocation(ctx context.Context, productID uuid.UUID, ref LocationRef) (*StockEntry, error)
	// FindByLocation returns every entry at one location
	FindByLocation(ctx context.Context, ref LocationRef) ([]*StockEntry, error)
	// FindInternalWithStock returns entries with a positive quantity at
	// warehouse or bin locations, scoped to the given warehouses. An empty
	// product filter means all products.
	FindInternalWithStock(ctx context.Context, warehouseIDs, productIDs []uuid.UUID) ([]*StockEntry, error)
	// SumInternalByProduct returns per-product totals over internal locations
	SumInternalByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error)
	Create(ctx context.Context, entry *StockEntry) error
	Update(ctx context.Context, entry *StockEntry) error
	// Delete removes an entry, used to prune zero-quantity rows
	Delete(ctx context.Context, id uuid.UUID) error
}

// StockMovementRepository defines the persistence interface for the
// append-only movement ledger
type StockMovementRepository interface {
	CreateBatch(ctx context.Context, movements []*StockMovement) error
	// FindAllByProduct returns a product's full movement history oldest
	// first, for ledger reconstruction
	FindAllByProduct(ctx context.Context, productID uuid.UUID) ([]*StockMovement, error)
	FindByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*StockMovement, int64, error)
	FindByLocation(ctx context.Context, ref LocationRef, role MovementRole, limit, offset int) ([]*StockMovement, int64, error)
}

// WarehouseStockRepository defines the persistence interface for the
// per-warehouse rollups
type WarehouseStockRepository interface {
	FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*WarehouseStock, error)
	FindByProducts(ctx context.Context, productIDs []uuid.UUID) ([]*WarehouseStock, error)
	// ListPaged returns rollup rows in stable order plus the total count
	ListPaged(ctx context.Context, limit, offset int) ([]*WarehouseStock, int64, error)
	// ApplyDelta upserts the rollup row and adds delta to its quantity,
	// returning the resulting quantity
	ApplyDelta(ctx context.Context, productID, warehouseID uuid.UUID, delta int) (int, error)
}

// BinLocationInfo is the read-model slice of a bin location the stock core
// needs: its enclosing warehouse and its human-readable code.
type BinLocationInfo struct {
	ID          uuid.UUID
	WarehouseID uuid.UUID
	Code        string
}

// BinLocationDirectory resolves bin location ids to their warehouse and code
type BinLocationDirectory interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]BinLocationInfo, error)
	// FindByWarehouse returns all bins of a warehouse keyed by id
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) (map[uuid.UUID]BinLocationInfo, error)
	// FindDefaultBin returns the warehouse's default putaway bin, or nil
	FindDefaultBin(ctx context.Context, warehouseID uuid.UUID) (*BinLocationInfo, error)
}

// LocationSnapshotProvider renders a human-readable description of a
// location for the movement audit trail. Best effort: implementations
// return "" when the referenced entity cannot be resolved.
type LocationSnapshotProvider interface {
	Snapshot(ctx context.Context, ref LocationRef) string
}
