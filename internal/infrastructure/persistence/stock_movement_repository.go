package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements StockMovementRepository using
// GORM. Movements are append-only; there is no update path.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// movementInsertBatchSize bounds one INSERT statement
const movementInsertBatchSize = 500

// CreateBatch inserts a batch of movements
func (r *GormStockMovementRepository) CreateBatch(ctx context.Context, movements []*stock.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(movements, movementInsertBatchSize).Error
}

// FindAllByProduct returns a product's full movement history oldest first
func (r *GormStockMovementRepository) FindAllByProduct(ctx context.Context, productID uuid.UUID) ([]*stock.StockMovement, error) {
	var movements []*stock.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByProduct returns a product's movements, newest first
func (r *GormStockMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*stock.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&stock.StockMovement{}).
		Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movements []*stock.StockMovement
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// FindByLocation returns movements touching one location in the given
// role, newest first
func (r *GormStockMovementRepository) FindByLocation(ctx context.Context, ref stock.LocationRef, role stock.MovementRole, limit, offset int) ([]*stock.StockMovement, int64, error) {
	cond, args := roleCondition(ref, role)
	query := r.db.WithContext(ctx).
		Model(&stock.StockMovement{}).
		Where(cond, args...)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movements []*stock.StockMovement
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// roleCondition builds the equality predicate selecting movement rows
// whose source or destination is the given location. Warehouse-level
// references additionally require an unset bin column, matching the
// ledger's warehouse/bin distinction.
func roleCondition(ref stock.LocationRef, role stock.MovementRole) (string, []interface{}) {
	cond := ""
	var args []interface{}
	for column, value := range ref.Columns(role) {
		if cond != "" {
			cond += " AND "
		}
		cond += column + " = ?"
		args = append(args, value)
	}
	if ref.Kind == stock.LocationKindWarehouse {
		cond += fmt.Sprintf(" AND %s_bin_location_id IS NULL", role)
	}
	return cond, args
}

var _ stock.StockMovementRepository = (*GormStockMovementRepository)(nil)
