package stock

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeStockMovementsCommitted = "stock.movements_committed"
	EventTypeWarehouseStockChanged   = "stock.warehouse_stock_changed"
)

// StockMovementsCommittedEvent is published after a movement batch has been
// durably applied. Carries the distinct products, orders and warehouses the
// batch touched so downstream projections can scope their refresh.
type StockMovementsCommittedEvent struct {
	shared.BaseDomainEvent
	ProductIDs    []uuid.UUID `json:"product_ids"`
	OrderIDs      []uuid.UUID `json:"order_ids"`
	WarehouseIDs  []uuid.UUID `json:"warehouse_ids"`
	MovementCount int         `json:"movement_count"`
}

// NewStockMovementsCommittedEvent creates an event summarizing an applied
// movement batch
func NewStockMovementsCommittedEvent(batchID uuid.UUID, productIDs, orderIDs, warehouseIDs []uuid.UUID, movementCount int) *StockMovementsCommittedEvent {
	return &StockMovementsCommittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMovementsCommitted, "StockMovement", batchID),
		ProductIDs:      productIDs,
		OrderIDs:        orderIDs,
		WarehouseIDs:    warehouseIDs,
		MovementCount:   movementCount,
	}
}

// WarehouseStockChangedEvent is published when a product's per-warehouse
// rollup quantity changes
type WarehouseStockChangedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
}

// NewWarehouseStockChangedEvent creates a warehouse stock change event
func NewWarehouseStockChangedEvent(productID, warehouseID uuid.UUID, quantity int) *WarehouseStockChangedEvent {
	return &WarehouseStockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWarehouseStockChanged, "WarehouseStock", productID),
		ProductID:       productID,
		WarehouseID:     warehouseID,
		Quantity:        quantity,
	}
}
