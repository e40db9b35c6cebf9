package dto

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/picking"
	"github.com/wms/backend/internal/domain/stock"
)

// ProductRequirement is one product line of a solve request
type ProductRequirement struct {
	ProductID        uuid.UUID `json:"product_id" binding:"required"`
	ProductVersionID uuid.UUID `json:"product_version_id"`
	ProductNumber    string    `json:"product_number"`
	Quantity         int       `json:"quantity" binding:"required,gt=0"`
}

// SolvePickingRequest asks for pick allocations over the given warehouses
type SolvePickingRequest struct {
	WarehouseIDs []uuid.UUID          `json:"warehouse_ids" binding:"required,min=1"`
	Products     []ProductRequirement `json:"products" binding:"required,min=1,dive"`
}

// SolveStockingRequest asks for putaway destinations in one warehouse
type SolveStockingRequest struct {
	WarehouseID uuid.UUID            `json:"warehouse_id" binding:"required"`
	Products    []ProductRequirement `json:"products" binding:"required,min=1,dive"`
}

// AllocationResponse is one location's share of a product's allocation
type AllocationResponse struct {
	Location    stock.LocationRef `json:"location"`
	WarehouseID uuid.UUID         `json:"warehouse_id"`
	BinCode     string            `json:"bin_code,omitempty"`
	Quantity    int               `json:"quantity"`
}

// ProductAllocationResponse is the solved allocation of one product
type ProductAllocationResponse struct {
	ProductID     uuid.UUID            `json:"product_id"`
	ProductNumber string               `json:"product_number,omitempty"`
	Quantity      int                  `json:"quantity"`
	Allocations   []AllocationResponse `json:"allocations"`
	Shortage      int                  `json:"shortage"`
}

// SolvePickingResponse is the full picking solution
type SolvePickingResponse struct {
	CompletelyPickable bool                        `json:"completely_pickable"`
	Products           []ProductAllocationResponse `json:"products"`
	Shortages          []picking.ProductShortage   `json:"shortages,omitempty"`
}

// SolveStockingResponse is the full stocking solution
type SolveStockingResponse struct {
	CompletelyStockable bool                        `json:"completely_stockable"`
	Products            []ProductAllocationResponse `json:"products"`
}

// NewSolvePickingResponse maps a solved picking request to its wire shape
func NewSolvePickingResponse(request *picking.PickingRequest) SolvePickingResponse {
	products := make([]ProductAllocationResponse, len(request.Requests))
	for i, r := range request.Requests {
		allocations := make([]AllocationResponse, 0, len(r.Locations))
		for _, loc := range r.Locations {
			if loc.QuantityToPick <= 0 {
				continue
			}
			allocations = append(allocations, AllocationResponse{
				Location:    loc.Location,
				WarehouseID: loc.WarehouseID,
				BinCode:     loc.BinCode,
				Quantity:    loc.QuantityToPick,
			})
		}
		products[i] = ProductAllocationResponse{
			ProductID:     r.ProductID,
			ProductNumber: r.ProductNumber,
			Quantity:      r.Quantity,
			Allocations:   allocations,
			Shortage:      r.Shortage(),
		}
	}
	return SolvePickingResponse{
		CompletelyPickable: request.IsCompletelyPickable(),
		Products:           products,
		Shortages:          request.StockShortage(),
	}
}

// NewSolveStockingResponse maps a solved stocking request to its wire shape
func NewSolveStockingResponse(request *picking.StockingRequest) SolveStockingResponse {
	products := make([]ProductAllocationResponse, len(request.Requests))
	for i, r := range request.Requests {
		allocations := make([]AllocationResponse, 0, len(r.Locations))
		assigned := 0
		for _, loc := range r.Locations {
			if loc.QuantityToStock <= 0 {
				continue
			}
			assigned += loc.QuantityToStock
			allocations = append(allocations, AllocationResponse{
				Location:    loc.Location,
				WarehouseID: loc.WarehouseID,
				BinCode:     loc.BinCode,
				Quantity:    loc.QuantityToStock,
			})
		}
		products[i] = ProductAllocationResponse{
			ProductID:     r.ProductID,
			ProductNumber: r.ProductNumber,
			Quantity:      r.Quantity,
			Allocations:   allocations,
			Shortage:      r.Quantity - assigned,
		}
	}
	return SolveStockingResponse{
		CompletelyStockable: request.IsCompletelyStockable(),
		Products:            products,
	}
}
