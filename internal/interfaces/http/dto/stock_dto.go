package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/stock"
)

// MovementRequest is one movement of a batch booking
type MovementRequest struct {
	ProductID        uuid.UUID         `json:"product_id" binding:"required"`
	ProductVersionID uuid.UUID         `json:"product_version_id"`
	Quantity         int               `json:"quantity" binding:"required"`
	Source           stock.LocationRef `json:"source" binding:"required"`
	Destination      stock.LocationRef `json:"destination" binding:"required"`
	Comment          string            `json:"comment" binding:"omitempty,max=255"`
}

// MoveStockRequest books a batch of movements atomically
type MoveStockRequest struct {
	Movements []MovementRequest `json:"movements" binding:"required,min=1,dive"`
	UserID    *uuid.UUID        `json:"user_id"`
}

// MovementResponse renders one ledger movement
type MovementResponse struct {
	ID                  uuid.UUID         `json:"id"`
	ProductID           uuid.UUID         `json:"product_id"`
	Quantity            int               `json:"quantity"`
	Source              stock.LocationRef `json:"source"`
	Destination         stock.LocationRef `json:"destination"`
	Comment             string            `json:"comment,omitempty"`
	SourceSnapshot      string            `json:"source_snapshot,omitempty"`
	DestinationSnapshot string            `json:"destination_snapshot,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// NewMovementResponse maps a movement to its wire shape
func NewMovementResponse(m *stock.StockMovement) MovementResponse {
	return MovementResponse{
		ID:                  m.ID,
		ProductID:           m.ProductID,
		Quantity:            m.Quantity,
		Source:              m.SourceRef(),
		Destination:         m.DestinationRef(),
		Comment:             m.Comment,
		SourceSnapshot:      m.SourceSnapshot,
		DestinationSnapshot: m.DestinationSnapshot,
		CreatedAt:           m.CreatedAt,
	}
}

// ProductStockSummaryResponse renders the derived per-product aggregates
type ProductStockSummaryResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	Stock          int       `json:"stock"`
	ReservedStock  int       `json:"reserved_stock"`
	AvailableStock int       `json:"available_stock"`
	Sales          int       `json:"sales"`
}

// WarehouseStockResponse renders one per-warehouse rollup row
type WarehouseStockResponse struct {
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
}

// PickabilityResponse renders one order/warehouse classification
type PickabilityResponse struct {
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Class       string    `json:"class"`
}
