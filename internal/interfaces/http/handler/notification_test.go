package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms/backend/internal/domain/order"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stock"
)

// capturingPublisher records what the handler puts on the bus
type capturingPublisher struct{ events []shared.DomainEvent }

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func notificationEngine(publisher shared.EventPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewNotificationHandler(publisher)
	engine.POST("/notifications/orders/:id", h.OrderWritten)
	engine.POST("/notifications/warehouses/:id", h.WarehouseCreated)
	engine.POST("/notifications/warehouse-stock", h.WarehouseStockChanged)
	return engine
}

func TestNotificationHandler(t *testing.T) {
	t.Run("order notification publishes an order written event", func(t *testing.T) {
		publisher := &capturingPublisher{}
		engine := notificationEngine(publisher)
		orderID := uuid.New()

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/notifications/orders/"+orderID.String(), nil)
		engine.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		require.Len(t, publisher.events, 1)
		event, ok := publisher.events[0].(*order.OrderWrittenEvent)
		require.True(t, ok)
		assert.Equal(t, orderID, event.OrderID)
	})

	t.Run("warehouse notification publishes a warehouse created event", func(t *testing.T) {
		publisher := &capturingPublisher{}
		engine := notificationEngine(publisher)
		warehouseID := uuid.New()

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/notifications/warehouses/"+warehouseID.String(), nil)
		engine.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		require.Len(t, publisher.events, 1)
		event, ok := publisher.events[0].(*order.WarehouseCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, warehouseID, event.WarehouseID)
	})

	t.Run("warehouse stock notification publishes a change event", func(t *testing.T) {
		publisher := &capturingPublisher{}
		engine := notificationEngine(publisher)
		productID, warehouseID := uuid.New(), uuid.New()

		body := fmt.Sprintf(`{"product_id":%q,"warehouse_id":%q,"quantity":7}`, productID, warehouseID)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/notifications/warehouse-stock", strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		require.Len(t, publisher.events, 1)
		event, ok := publisher.events[0].(*stock.WarehouseStockChangedEvent)
		require.True(t, ok)
		assert.Equal(t, productID, event.ProductID)
		assert.Equal(t, warehouseID, event.WarehouseID)
		assert.Equal(t, 7, event.Quantity)
	})

	t.Run("malformed order id never reaches the bus", func(t *testing.T) {
		publisher := &capturingPublisher{}
		engine := notificationEngine(publisher)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/notifications/orders/not-a-uuid", nil)
		engine.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Empty(t, publisher.events)
	})
}
