package dto

import "github.com/google/uuid"

// WarehouseStockNotification is the payload of an out-of-band warehouse
// stock change reported by an external subsystem
type WarehouseStockNotification struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	Quantity    int       `json:"quantity"`
}
