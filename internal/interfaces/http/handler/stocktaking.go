package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstocktaking "github.com/wms/backend/internal/application/stocktaking"
	"github.com/wms/backend/internal/interfaces/http/dto"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// StocktakingHandler exposes the counting process lifecycle
type StocktakingHandler struct {
	BaseHandler
	counting *appstocktaking.CountingService
}

// NewStocktakingHandler creates a new StocktakingHandler
func NewStocktakingHandler(counting *appstocktaking.CountingService) *StocktakingHandler {
	return &StocktakingHandler{counting: counting}
}

// CreateProcess opens a counting process
// POST /api/v1/counting-processes
func (h *StocktakingHandler) CreateProcess(c *gin.Context) {
	var req dto.CreateCountingProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	process, err := h.counting.CreateProcess(c.Request.Context(), req.WarehouseID, req.BinLocationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewCountingProcessResponse(process))
}

// SubmitCounts records counted quantities on an open process
// POST /api/v1/counting-processes/:id/counts
func (h *StocktakingHandler) SubmitCounts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid counting process ID")
		return
	}
	var req dto.SubmitCountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	lines := make([]appstocktaking.CountLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = appstocktaking.CountLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		}
	}
	if err := h.counting.SubmitCounts(c.Request.Context(), id, lines); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Complete reconciles the count against the ledger by producing and
// scheduling a correction import
// POST /api/v1/counting-processes/:id/complete
func (h *StocktakingHandler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid counting process ID")
		return
	}
	j, err := h.counting.Complete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewJobResponse(j))
}

// Valuation prices the count's differences against product unit costs
// GET /api/v1/counting-processes/:id/valuation
func (h *StocktakingHandler) Valuation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid counting process ID")
		return
	}
	items, total, err := h.counting.Valuation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"items":       items,
		"total_value": total,
	})
}
