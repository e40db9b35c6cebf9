package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/order"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stock"
	"github.com/wms/backend/internal/interfaces/http/dto"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// NotificationHandler is the ingress for write notifications from the
// order and warehouse subsystems. Those subsystems own their tables;
// this service only learns about their changes through these callbacks,
// which are republished as domain events on the internal bus.
type NotificationHandler struct {
	BaseHandler
	publisher shared.EventPublisher
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(publisher shared.EventPublisher) *NotificationHandler {
	return &NotificationHandler{publisher: publisher}
}

// OrderWritten signals that an order, one of its line items or one of
// its deliveries was written
// POST /api/v1/notifications/orders/:id
func (h *NotificationHandler) OrderWritten(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	if err := h.publisher.Publish(c.Request.Context(), order.NewOrderWrittenEvent(orderID)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// WarehouseCreated signals that a new warehouse exists
// POST /api/v1/notifications/warehouses/:id
func (h *NotificationHandler) WarehouseCreated(c *gin.Context) {
	warehouseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID")
		return
	}
	if err := h.publisher.Publish(c.Request.Context(), order.NewWarehouseCreatedEvent(warehouseID)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// WarehouseStockChanged signals an out-of-band change to a product's
// per-warehouse quantity
// POST /api/v1/notifications/warehouse-stock
func (h *NotificationHandler) WarehouseStockChanged(c *gin.Context) {
	var req dto.WarehouseStockNotification
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	event := stock.NewWarehouseStockChangedEvent(req.ProductID, req.WarehouseID, req.Quantity)
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
