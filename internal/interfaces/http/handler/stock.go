package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstock "github.com/wms/backend/internal/application/stock"
	"github.com/wms/backend/internal/domain/projection"
	"github.com/wms/backend/internal/domain/stock"
	"github.com/wms/backend/internal/interfaces/http/dto"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// StockHandler exposes the movement booking and the derived stock reads
type StockHandler struct {
	BaseHandler
	movements     *appstock.MovementService
	movementRepo  stock.StockMovementRepository
	warehouseRepo stock.WarehouseStockRepository
	summaryRepo   projection.ProductStockSummaryRepository
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(
	movements *appstock.MovementService,
	movementRepo stock.StockMovementRepository,
	warehouseRepo stock.WarehouseStockRepository,
	summaryRepo projection.ProductStockSummaryRepository,
) *StockHandler {
	return &StockHandler{
		movements:     movements,
		movementRepo:  movementRepo,
		warehouseRepo: warehouseRepo,
		summaryRepo:   summaryRepo,
	}
}

// MoveStock books a batch of movements atomically
// POST /api/v1/stock/movements
func (h *StockHandler) MoveStock(c *gin.Context) {
	var req dto.MoveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	movements := make([]*stock.StockMovement, 0, len(req.Movements))
	for _, m := range req.Movements {
		movement, err := stock.NewStockMovement(m.ProductID, m.ProductVersionID, m.Quantity, m.Source, m.Destination)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		if m.Comment != "" {
			movement.WithComment(m.Comment)
		}
		movements = append(movements, movement)
	}

	if err := h.movements.MoveStock(c.Request.Context(), movements, req.UserID); err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.MovementResponse, len(movements))
	for i, m := range movements {
		responses[i] = dto.NewMovementResponse(m)
	}
	h.Created(c, responses)
}

// RebuildProductEntries replays a product's movement history to
// reconstruct its ledger positions
// POST /api/v1/stock/products/:id/rebuild
func (h *StockHandler) RebuildProductEntries(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	if err := h.movements.RebuildEntries(c.Request.Context(), productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"product_id": productID})
}

// ListProductMovements returns a product's movement history, newest first
// GET /api/v1/stock/products/:id/movements
func (h *StockHandler) ListProductMovements(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	list.Normalize()

	movements, total, err := h.movementRepo.FindByProduct(
		c.Request.Context(), productID, list.PageSize, (list.Page-1)*list.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.MovementResponse, len(movements))
	for i, m := range movements {
		responses[i] = dto.NewMovementResponse(m)
	}
	h.SuccessWithMeta(c, responses, total, list.Page, list.PageSize)
}

// GetProductSummary returns the derived per-product aggregates
// GET /api/v1/stock/products/:id/summary
func (h *StockHandler) GetProductSummary(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	summary, err := h.summaryRepo.FindByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if summary == nil {
		// no bookings yet: everything derives to zero
		h.Success(c, dto.ProductStockSummaryResponse{ProductID: productID})
		return
	}
	h.Success(c, dto.ProductStockSummaryResponse{
		ProductID:      summary.ProductID,
		Stock:          summary.Stock,
		ReservedStock:  summary.ReservedStock,
		AvailableStock: summary.AvailableStock,
		Sales:          summary.Sales,
	})
}

// GetProductWarehouseStock returns the per-warehouse rollups of a product
// GET /api/v1/stock/products/:id/warehouses
func (h *StockHandler) GetProductWarehouseStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	rows, err := h.warehouseRepo.FindByProducts(c.Request.Context(), []uuid.UUID{productID})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	responses := make([]dto.WarehouseStockResponse, len(rows))
	for i, row := range rows {
		responses[i] = dto.WarehouseStockResponse{
			WarehouseID: row.WarehouseID,
			Quantity:    row.Quantity,
		}
	}
	h.Success(c, responses)
}
