package order

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// Event type constants. Emitted by the order subsystem whenever an
// order, one of its line items or one of its deliveries is written.
const (
	EventTypeOrderWritten     = "order.written"
	EventTypeWarehouseCreated = "warehouse.created"
)

// OrderWrittenEvent signals that an order's reservation-relevant state
// may have changed
type OrderWrittenEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewOrderWrittenEvent creates an order written event
func NewOrderWrittenEvent(orderID uuid.UUID) *OrderWrittenEvent {
	return &OrderWrittenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderWritten, "Order", orderID),
		OrderID:         orderID,
	}
}

// WarehouseCreatedEvent signals that a new warehouse exists and open
// orders need a pickability row for it
type WarehouseCreatedEvent struct {
	shared.BaseDomainEvent
	WarehouseID uuid.UUID `json:"warehouse_id"`
}

// NewWarehouseCreatedEvent creates a warehouse created event
func NewWarehouseCreatedEvent(warehouseID uuid.UUID) *WarehouseCreatedEvent {
	return &WarehouseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWarehouseCreated, "Warehouse", warehouseID),
		WarehouseID:     warehouseID,
	}
}
