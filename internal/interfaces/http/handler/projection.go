package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/projection"
	"github.com/wms/backend/internal/interfaces/http/dto"
)

// ProjectionHandler exposes the derived order classifications
type ProjectionHandler struct {
	BaseHandler
	pickabilityRepo projection.OrderPickabilityRepository
}

// NewProjectionHandler creates a new ProjectionHandler
func NewProjectionHandler(pickabilityRepo projection.OrderPickabilityRepository) *ProjectionHandler {
	return &ProjectionHandler{pickabilityRepo: pickabilityRepo}
}

// GetOrderPickability returns an order's classification per warehouse
// GET /api/v1/orders/:id/pickability
func (h *ProjectionHandler) GetOrderPickability(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	rows, err := h.pickabilityRepo.FindByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	responses := make([]dto.PickabilityResponse, len(rows))
	for i, row := range rows {
		responses[i] = dto.PickabilityResponse{
			WarehouseID: row.WarehouseID,
			Class:       string(row.Class),
		}
	}
	h.Success(c, responses)
}
