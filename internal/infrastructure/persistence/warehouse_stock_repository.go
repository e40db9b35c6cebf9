package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/stock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWarehouseStockRepository implements WarehouseStockRepository using
// GORM
type GormWarehouseStockRepository struct {
	db *gorm.DB
}

// NewGormWarehouseStockRepository creates a new GormWarehouseStockRepository
func NewGormWarehouseStockRepository(db *gorm.DB) *GormWarehouseStockRepository {
	return &GormWarehouseStockRepository{db: db}
}

// FindByProductAndWarehouse returns the rollup row, or nil
func (r *GormWarehouseStockRepository) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*stock.WarehouseStock, error) {
	var row stock.WarehouseStock
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindByProducts returns all rollup rows for the given products
func (r *GormWarehouseStockRepository) FindByProducts(ctx context.Context, productIDs []uuid.UUID) ([]*stock.WarehouseStock, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []*stock.WarehouseStock
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPaged returns rollup rows ordered by product then warehouse, with
// the total count. The stable order keeps export chunks disjoint.
func (r *GormWarehouseStockRepository) ListPaged(ctx context.Context, limit, offset int) ([]*stock.WarehouseStock, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&stock.WarehouseStock{}).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*stock.WarehouseStock
	if err := r.db.WithContext(ctx).
		Order("product_id, warehouse_id").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ApplyDelta upserts the rollup row and adds delta to its quantity,
// returning the resulting quantity
func (r *GormWarehouseStockRepository) ApplyDelta(ctx context.Context, productID, warehouseID uuid.UUID, delta int) (int, error) {
	row := stock.NewWarehouseStock(productID, warehouseID, delta)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("warehouse_stocks.quantity + ?", delta),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(row).Error; err != nil {
		return 0, err
	}

	var quantity int
	if err := r.db.WithContext(ctx).
		Model(&stock.WarehouseStock{}).
		Select("quantity").
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Scan(&quantity).Error; err != nil {
		return 0, err
	}
	return quantity, nil
}

var _ stock.WarehouseStockRepository = (*GormWarehouseStockRepository)(nil)
