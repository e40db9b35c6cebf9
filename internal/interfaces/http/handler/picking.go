package handler

import (
	"github.com/gin-gonic/gin"
	apppicking "github.com/wms/backend/internal/application/picking"
	"github.com/wms/backend/internal/domain/picking"
	"github.com/wms/backend/internal/interfaces/http/dto"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// PickingHandler exposes the pick and putaway solvers
type PickingHandler struct {
	BaseHandler
	solver *apppicking.SolverService
}

// NewPickingHandler creates a new PickingHandler
func NewPickingHandler(solver *apppicking.SolverService) *PickingHandler {
	return &PickingHandler{solver: solver}
}

// SolvePicking ranks pick locations for the requested products across the
// given warehouses. Read-only: booking the resulting movements is a
// separate call.
// POST /api/v1/picking/solve
func (h *PickingHandler) SolvePicking(c *gin.Context) {
	var req dto.SolvePickingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	request := picking.NewPickingRequest()
	for _, p := range req.Products {
		r, err := picking.NewProductPickingRequest(p.ProductID, p.ProductVersionID, p.ProductNumber, p.Quantity)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		request.Add(r)
	}

	if err := h.solver.SolvePickingRequestInWarehouses(c.Request.Context(), request, req.WarehouseIDs); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewSolvePickingResponse(request))
}

// SolveStocking ranks putaway destinations for the requested products in
// one warehouse
// POST /api/v1/stocking/solve
func (h *PickingHandler) SolveStocking(c *gin.Context) {
	var req dto.SolveStockingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	request := picking.NewStockingRequest()
	for _, p := range req.Products {
		r, err := picking.NewProductStockingRequest(p.ProductID, p.ProductVersionID, p.ProductNumber, p.Quantity)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		request.Add(r)
	}

	if err := h.solver.SolveStockingRequestInWarehouse(c.Request.Context(), request, req.WarehouseID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewSolveStockingResponse(request))
}
