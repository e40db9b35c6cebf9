package projection

import (
	"context"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/order"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// RecomputeHandler subscribes the projector to the write events that
// invalidate derived aggregates. Each event re-derives only the subset it
// names.
type RecomputeHandler struct {
	projector *ProjectorService
	orders    order.OrderReadModel
	logger    *zap.Logger
}

// NewRecomputeHandler creates the projector's event handler
func NewRecomputeHandler(projector *ProjectorService, orders order.OrderReadModel, logger *zap.Logger) *RecomputeHandler {
	return &RecomputeHandler{projector: projector, orders: orders, logger: logger}
}

// EventTypes returns the event types driving recomputation
func (h *RecomputeHandler) EventTypes() []string {
	return []string{
		stock.EventTypeStockMovementsCommitted,
		stock.EventTypeWarehouseStockChanged,
		order.EventTypeOrderWritten,
		order.EventTypeWarehouseCreated,
	}
}

// Handle dispatches one event to the matching recomputation
func (h *RecomputeHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *stock.StockMovementsCommittedEvent:
		return h.projector.RecomputeForProducts(ctx, e.ProductIDs)
	case *stock.WarehouseStockChangedEvent:
		return h.projector.RecomputeForProducts(ctx, []uuid.UUID{e.ProductID})
	case *order.OrderWrittenEvent:
		return h.projector.RecomputeForOrders(ctx, []uuid.UUID{e.OrderID})
	case *order.WarehouseCreatedEvent:
		// a new warehouse needs a pickability row for every open order
		openOrderIDs, err := h.orders.FindOpenOrderIDs(ctx)
		if err != nil {
			return err
		}
		return h.projector.RecomputeForOrders(ctx, openOrderIDs)
	default:
		if h.logger != nil {
			h.logger.Debug("projector ignoring event", zap.String("type", event.EventType()))
		}
		return nil
	}
}

var _ shared.EventHandler = (*RecomputeHandler)(nil)
