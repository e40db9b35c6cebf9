package stock

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// WarehouseStock is the rollup of one product's quantity across a whole
// warehouse: the warehouse-level entry plus every bin entry inside it.
// Maintained alongside the ledger so list views never aggregate on read.
type WarehouseStock struct {
	shared.BaseEntity
	ProductID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_warehouse_stock_product_warehouse"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_warehouse_stock_product_warehouse"`
	Quantity    int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (WarehouseStock) TableName() string {
	return "warehouse_stocks"
}

// NewWarehouseStock creates a rollup row for a product in a warehouse
func NewWarehouseStock(productID, warehouseID uuid.UUID, quantity int) *WarehouseStock {
	return &WarehouseStock{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
	}
}

// WarehouseDelta is the per-warehouse quantity change a movement batch
// produces, keyed by product and warehouse.
type WarehouseDelta struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Delta       int
}

// WarehouseDeltas derives the rollup changes of a movement batch. A bin
// location contributes to its enclosing warehouse; resolveWarehouse maps a
// bin id to that warehouse and returns uuid.Nil when the bin is unknown.
func WarehouseDeltas(movements []*StockMovement, resolveWarehouse func(binID uuid.UUID) uuid.UUID) []WarehouseDelta {
	type key struct {
		product   uuid.UUID
		warehouse uuid.UUID
	}
	acc := make(map[key]int)
	var order []key

	add := func(productID, warehouseID uuid.UUID, delta int) {
		if warehouseID == uuid.Nil {
			return
		}
		k := key{product: productID, warehouse: warehouseID}
		if _, ok := acc[k]; !ok {
			order = append(order, k)
		}
		acc[k] += delta
	}

	warehouseOf := func(ref LocationRef) uuid.UUID {
		switch ref.Kind {
		case LocationKindWarehouse:
			return ref.ID
		case LocationKindBinLocation:
			return resolveWarehouse(ref.ID)
		}
		return uuid.Nil
	}

	for _, m := range movements {
		add(m.ProductID, warehouseOf(m.SourceRef()), -m.Quantity)
		add(m.ProductID, warehouseOf(m.DestinationRef()), m.Quantity)
	}

	deltas := make([]WarehouseDelta, 0, len(order))
	for _, k := range order {
		if acc[k] == 0 {
			continue
		}
		deltas = append(deltas, WarehouseDelta{ProductID: k.product, WarehouseID: k.warehouse, Delta: acc[k]})
	}
	return deltas
}
