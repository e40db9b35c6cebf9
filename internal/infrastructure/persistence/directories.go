package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/application/stocktaking"
	"github.com/wms/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormBinLocationDirectory resolves bin locations from the warehouse
// subsystem's tables
type GormBinLocationDirectory struct {
	db *gorm.DB
}

// NewGormBinLocationDirectory creates a new GormBinLocationDirectory
func NewGormBinLocationDirectory(db *gorm.DB) *GormBinLocationDirectory {
	return &GormBinLocationDirectory{db: db}
}

// FindByIDs returns the given bins keyed by id. Unknown ids are absent
// from the result.
func (d *GormBinLocationDirectory) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]stock.BinLocationInfo, error) {
	result := make(map[uuid.UUID]stock.BinLocationInfo, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []binLocationRow
	if err := d.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = binLocationInfo(row)
	}
	return result, nil
}

// FindByWarehouse returns all bins of a warehouse keyed by id
func (d *GormBinLocationDirectory) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) (map[uuid.UUID]stock.BinLocationInfo, error) {
	var rows []binLocationRow
	if err := d.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]stock.BinLocationInfo, len(rows))
	for _, row := range rows {
		result[row.ID] = binLocationInfo(row)
	}
	return result, nil
}

// FindDefaultBin returns the warehouse's default putaway bin, or nil
func (d *GormBinLocationDirectory) FindDefaultBin(ctx context.Context, warehouseID uuid.UUID) (*stock.BinLocationInfo, error) {
	var row binLocationRow
	err := d.db.WithContext(ctx).
		Where("warehouse_id = ? AND is_default = ?", warehouseID, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	info := binLocationInfo(row)
	return &info, nil
}

func binLocationInfo(row binLocationRow) stock.BinLocationInfo {
	return stock.BinLocationInfo{
		ID:          row.ID,
		WarehouseID: row.WarehouseID,
		Code:        row.Code,
	}
}

var _ stock.BinLocationDirectory = (*GormBinLocationDirectory)(nil)

// GormProductDirectory resolves products from the product subsystem's
// tables
type GormProductDirectory struct {
	db *gorm.DB
}

// NewGormProductDirectory creates a new GormProductDirectory
func NewGormProductDirectory(db *gorm.DB) *GormProductDirectory {
	return &GormProductDirectory{db: db}
}

// FindByIDs returns the given products keyed by id
func (d *GormProductDirectory) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]stocktaking.ProductInfo, error) {
	result := make(map[uuid.UUID]stocktaking.ProductInfo, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []productRow
	if err := d.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = productInfo(row)
	}
	return result, nil
}

// FindByNumber returns the product carrying the number, or nil
func (d *GormProductDirectory) FindByNumber(ctx context.Context, number string) (*stocktaking.ProductInfo, error) {
	var row productRow
	err := d.db.WithContext(ctx).
		Where("number = ?", number).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	info := productInfo(row)
	return &info, nil
}

func productInfo(row productRow) stocktaking.ProductInfo {
	return stocktaking.ProductInfo{
		ID:        row.ID,
		VersionID: row.VersionID,
		Number:    row.Number,
		UnitCost:  row.UnitCost,
	}
}

var _ stocktaking.ProductDirectory = (*GormProductDirectory)(nil)

// GormWarehouseDirectory resolves warehouses from the warehouse
// subsystem's tables
type GormWarehouseDirectory struct {
	db *gorm.DB
}

// NewGormWarehouseDirectory creates a new GormWarehouseDirectory
func NewGormWarehouseDirectory(db *gorm.DB) *GormWarehouseDirectory {
	return &GormWarehouseDirectory{db: db}
}

// FindByID returns the warehouse, or nil
func (d *GormWarehouseDirectory) FindByID(ctx context.Context, id uuid.UUID) (*stocktaking.WarehouseInfo, error) {
	return d.findOne(ctx, "id = ?", id)
}

// FindByCode returns the warehouse carrying the code, or nil
func (d *GormWarehouseDirectory) FindByCode(ctx context.Context, code string) (*stocktaking.WarehouseInfo, error) {
	return d.findOne(ctx, "code = ?", code)
}

func (d *GormWarehouseDirectory) findOne(ctx context.Context, cond string, arg interface{}) (*stocktaking.WarehouseInfo, error) {
	var row warehouseRow
	err := d.db.WithContext(ctx).Where(cond, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stocktaking.WarehouseInfo{ID: row.ID, Code: row.Code}, nil
}

var _ stocktaking.WarehouseDirectory = (*GormWarehouseDirectory)(nil)

// GormLocationSnapshotProvider renders a location's human-readable
// description for the movement audit trail
type GormLocationSnapshotProvider struct {
	db *gorm.DB
}

// NewGormLocationSnapshotProvider creates a new GormLocationSnapshotProvider
func NewGormLocationSnapshotProvider(db *gorm.DB) *GormLocationSnapshotProvider {
	return &GormLocationSnapshotProvider{db: db}
}

// Snapshot returns a description like "Warehouse MAIN" or
// "Bin A-01-02 (Warehouse MAIN)". Returns "" when the referenced entity
// cannot be resolved; movements are never blocked on master data.
func (p *GormLocationSnapshotProvider) Snapshot(ctx context.Context, ref stock.LocationRef) string {
	switch ref.Kind {
	case stock.LocationKindWarehouse:
		var w warehouseRow
		if err := p.db.WithContext(ctx).First(&w, "id = ?", ref.ID).Error; err != nil {
			return ""
		}
		return fmt.Sprintf("Warehouse %s", w.Code)
	case stock.LocationKindBinLocation:
		var bin binLocationRow
		if err := p.db.WithContext(ctx).First(&bin, "id = ?", ref.ID).Error; err != nil {
			return ""
		}
		var w warehouseRow
		if err := p.db.WithContext(ctx).First(&w, "id = ?", bin.WarehouseID).Error; err != nil {
			return fmt.Sprintf("Bin %s", bin.Code)
		}
		return fmt.Sprintf("Bin %s (Warehouse %s)", bin.Code, w.Code)
	case stock.LocationKindOrder:
		return fmt.Sprintf("Order %s", ref.ID)
	case stock.LocationKindSpecial:
		return fmt.Sprintf("Special location %s", ref.Special)
	default:
		return ""
	}
}

var _ stock.LocationSnapshotProvider = (*GormLocationSnapshotProvider)(nil)
