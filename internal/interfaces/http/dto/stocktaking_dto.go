package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/stocktaking"
)

// CreateCountingProcessRequest opens a count for a warehouse's
// uncategorized stock, or for one bin when bin_location_id is given
type CreateCountingProcessRequest struct {
	WarehouseID   uuid.UUID  `json:"warehouse_id" binding:"required"`
	BinLocationID *uuid.UUID `json:"bin_location_id"`
}

// CountLineRequest is one counted product line
type CountLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=0"`
}

// SubmitCountsRequest records counted quantities on an open process
type SubmitCountsRequest struct {
	Lines []CountLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CountingProcessResponse renders one counting process
type CountingProcessResponse struct {
	ID            uuid.UUID                  `json:"id"`
	WarehouseID   uuid.UUID                  `json:"warehouse_id"`
	BinLocationID *uuid.UUID                 `json:"bin_location_id,omitempty"`
	Counts        []stocktaking.ProductCount `json:"counts"`
	ImportJobID   *uuid.UUID                 `json:"import_job_id,omitempty"`
	Completed     bool                       `json:"completed"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// NewCountingProcessResponse maps a counting process to its wire shape
func NewCountingProcessResponse(p *stocktaking.CountingProcess) CountingProcessResponse {
	return CountingProcessResponse{
		ID:            p.ID,
		WarehouseID:   p.WarehouseID,
		BinLocationID: p.BinLocationID,
		Counts:        p.Counts,
		ImportJobID:   p.ImportJobID,
		Completed:     p.IsCompleted(),
		CreatedAt:     p.CreatedAt,
	}
}
