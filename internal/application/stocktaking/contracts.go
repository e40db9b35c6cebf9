package stocktaking

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/job"
	"github.com/wms/backend/internal/domain/stock"
)

// ProductInfo is the read-model slice of a product the stocktake needs
type ProductInfo struct {
	ID        uuid.UUID
	VersionID uuid.UUID
	Number    string
	UnitCost  decimal.Decimal
}

// ProductDirectory resolves products by id and by their human-facing
// number
type ProductDirectory interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ProductInfo, error)
	// FindByNumber returns nil when no product carries the number
	FindByNumber(ctx context.Context, number string) (*ProductInfo, error)
}

// WarehouseInfo is the read-model slice of a warehouse the stocktake
// needs
type WarehouseInfo struct {
	ID   uuid.UUID
	Code string
}

// WarehouseDirectory resolves warehouses by id and code
type WarehouseDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*WarehouseInfo, error)
	// FindByCode returns nil when no warehouse carries the code
	FindByCode(ctx context.Context, code string) (*WarehouseInfo, error)
}

// StockMover commits correction movements against the ledger
type StockMover interface {
	MoveStock(ctx context.Context, movements []*stock.StockMovement, userID *uuid.UUID) error
}

// ImportScheduler creates and starts the reconciliation import produced
// by a completed count
type ImportScheduler interface {
	CreateImport(ctx context.Context, profileTechnicalName string) (*job.ResumableJob, error)
	ScheduleImport(ctx context.Context, id uuid.UUID, initialState job.JobState) error
}
