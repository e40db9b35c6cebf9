package projection

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// ProductStockSummary is the derived per-product aggregate the rest of the
// platform reads: total stock over internal locations, quantity reserved
// by open orders, the resulting available stock, and cumulative sales.
// Maintained exclusively by the projector; recomputable from the ledger.
type ProductStockSummary struct {
	shared.BaseEntity
	ProductID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Stock          int       `gorm:"not null;default:0"`
	ReservedStock  int       `gorm:"not null;default:0"`
	AvailableStock int       `gorm:"not null;default:0"`
	Sales          int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductStockSummary) TableName() string {
	return "product_stock_summaries"
}

// NewProductStockSummary creates a summary row for a product
func NewProductStockSummary(productID uuid.UUID, stock, reservedStock int) *ProductStockSummary {
	return &ProductStockSummary{
		BaseEntity:     shared.NewBaseEntity(),
		ProductID:      productID,
		Stock:          stock,
		ReservedStock:  reservedStock,
		AvailableStock: stock - reservedStock,
	}
}
