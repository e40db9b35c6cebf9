package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/projection"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertBatchSize bounds one upsert statement
const upsertBatchSize = 500

// GormProductStockSummaryRepository implements ProductStockSummaryRepository
// using GORM
type GormProductStockSummaryRepository struct {
	db *gorm.DB
}

// NewGormProductStockSummaryRepository creates a new GormProductStockSummaryRepository
func NewGormProductStockSummaryRepository(db *gorm.DB) *GormProductStockSummaryRepository {
	return &GormProductStockSummaryRepository{db: db}
}

// FindByProduct returns a product's summary row, or nil
func (r *GormProductStockSummaryRepository) FindByProduct(ctx context.Context, productID uuid.UUID) (*projection.ProductStockSummary, error) {
	var summary projection.ProductStockSummary
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

// FindByProducts returns summary rows for the given products
func (r *GormProductStockSummaryRepository) FindByProducts(ctx context.Context, productIDs []uuid.UUID) ([]*projection.ProductStockSummary, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var summaries []*projection.ProductStockSummary
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

// LockByProducts takes pessimistic row locks on the products' summary
// rows. Must run inside a transaction. Products without a summary row
// yet are not lockable; the first-insert race is covered by the
// transaction retry.
func (r *GormProductStockSummaryRepository) LockByProducts(ctx context.Context, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	var locked []*projection.ProductStockSummary
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id IN ?", productIDs).
		Find(&locked).Error
}

// UpsertBatch writes summaries keyed on product id, last write wins
func (r *GormProductStockSummaryRepository) UpsertBatch(ctx context.Context, summaries []*projection.ProductStockSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"stock":           gorm.Expr("EXCLUDED.stock"),
				"reserved_stock":  gorm.Expr("EXCLUDED.reserved_stock"),
				"available_stock": gorm.Expr("EXCLUDED.available_stock"),
				"sales":           gorm.Expr("EXCLUDED.sales"),
				"updated_at":      gorm.Expr("NOW()"),
			}),
		}).
		CreateInBatches(summaries, upsertBatchSize).Error
}

var _ projection.ProductStockSummaryRepository = (*GormProductStockSummaryRepository)(nil)

// GormOrderPickabilityRepository implements OrderPickabilityRepository
// using GORM
type GormOrderPickabilityRepository struct {
	db *gorm.DB
}

// NewGormOrderPickabilityRepository creates a new GormOrderPickabilityRepository
func NewGormOrderPickabilityRepository(db *gorm.DB) *GormOrderPickabilityRepository {
	return &GormOrderPickabilityRepository{db: db}
}

// FindByOrder returns an order's classifications across warehouses
func (r *GormOrderPickabilityRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*projection.OrderPickability, error) {
	var rows []*projection.OrderPickability
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertBatch writes classifications keyed on (order, warehouse), last
// write wins
func (r *GormOrderPickabilityRepository) UpsertBatch(ctx context.Context, rows []*projection.OrderPickability) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}, {Name: "warehouse_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"class":      gorm.Expr("EXCLUDED.class"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		CreateInBatches(rows, upsertBatchSize).Error
}

// DeleteByOrders removes classifications for orders leaving the open set
func (r *GormOrderPickabilityRepository) DeleteByOrders(ctx context.Context, orderIDs []uuid.UUID) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Delete(&projection.OrderPickability{}).Error
}

var _ projection.OrderPickabilityRepository = (*GormOrderPickabilityRepository)(nil)
