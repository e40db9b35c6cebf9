package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/stock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockEntryRepository implements StockEntryRepository using GORM
type GormStockEntryRepository struct {
	db *gorm.DB
}

// NewGormStockEntryRepository creates a new GormStockEntryRepository
func NewGormStockEntryRepository(db *gorm.DB) *GormStockEntryRepository {
	return &GormStockEntryRepository{db: db}
}

// FindForUpdateByProducts loads all entries for the given products with
// pessimistic row locks. Must run inside a transaction.
func (r *GormStockEntryRepository) FindForUpdateByProducts(ctx context.Context, productIDs []uuid.UUID) ([]*stock.StockEntry, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var entries []*stock.StockEntry
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id IN ?", productIDs).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByProductAndLocation returns the entry at one location, or nil
func (r *GormStockEntryRepository) FindByProductAndLocation(ctx context.Context, productID uuid.UUID, ref stock.LocationRef) (*stock.StockEntry, error) {
	cond, args := ref.Condition()
	var entry stock.StockEntry
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Where(cond, args...).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// FindByLocation returns every entry at one location
func (r *GormStockEntryRepository) FindByLocation(ctx context.Context, ref stock.LocationRef) ([]*stock.StockEntry, error) {
	cond, args := ref.Condition()
	var entries []*stock.StockEntry
	if err := r.db.WithContext(ctx).
		Where(cond, args...).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindInternalWithStock returns entries with a positive quantity at
// warehouse or bin locations, scoped to the given warehouses. An empty
// product filter means all products.
func (r *GormStockEntryRepository) FindInternalWithStock(ctx context.Context, warehouseIDs, productIDs []uuid.UUID) ([]*stock.StockEntry, error) {
	query := r.db.WithContext(ctx).Where("quantity > 0")
	query = scopeInternal(query, r.db, warehouseIDs)
	if len(productIDs) > 0 {
		query = query.Where("product_id IN ?", productIDs)
	}

	var entries []*stock.StockEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumInternalByProduct returns per-product totals over internal locations
func (r *GormStockEntryRepository) SumInternalByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	totals := make(map[uuid.UUID]int, len(productIDs))
	if len(productIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		ProductID uuid.UUID
		Total     int
	}
	if err := r.db.WithContext(ctx).
		Model(&stock.StockEntry{}).
		Select("product_id, SUM(quantity) AS total").
		Where("product_id IN ?", productIDs).
		Where("warehouse_id IS NOT NULL OR bin_location_id IS NOT NULL").
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[row.ProductID] = row.Total
	}
	return totals, nil
}

// Create inserts a new entry
func (r *GormStockEntryRepository) Create(ctx context.Context, entry *stock.StockEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Update persists an entry's quantity
func (r *GormStockEntryRepository) Update(ctx context.Context, entry *stock.StockEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// Delete removes an entry, used to prune zero-quantity rows
func (r *GormStockEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&stock.StockEntry{}, "id = ?", id).Error
}

// scopeInternal restricts a stock entry query to internal locations,
// optionally limited to the given warehouses. Bin entries carry no
// warehouse column, so the warehouse scope goes through the bin
// location read model.
func scopeInternal(query, db *gorm.DB, warehouseIDs []uuid.UUID) *gorm.DB {
	if len(warehouseIDs) == 0 {
		return query.Where("warehouse_id IS NOT NULL OR bin_location_id IS NOT NULL")
	}
	binSubquery := db.Model(&binLocationRow{}).
		Select("id").
		Where("warehouse_id IN ?", warehouseIDs)
	return query.Where("warehouse_id IN ? OR bin_location_id IN (?)", warehouseIDs, binSubquery)
}

var _ stock.StockEntryRepository = (*GormStockEntryRepository)(nil)
