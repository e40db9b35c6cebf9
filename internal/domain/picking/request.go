package picking

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stock"
)

// PickLocation is one candidate location a product can be picked from.
// Available holds the ledger quantity at lookup time; QuantityToPick is
// filled in by the strategy's allocation pass.
type PickLocation struct {
	Location       stock.LocationRef
	WarehouseID    uuid.UUID
	BinCode        string // empty for warehouse-level candidates
	Available      int
	QuantityToPick int
}

// IsBinLocation returns true when the candidate is a bin inside a warehouse
func (l *PickLocation) IsBinLocation() bool {
	return l.Location.Kind == stock.LocationKindBinLocation
}

// ProductPickingRequest is the per-product slice of a picking request:
// the needed quantity plus the ranked candidate locations.
type ProductPickingRequest struct {
	ProductID        uuid.UUID
	ProductVersionID uuid.UUID
	ProductNumber    string
	Quantity         int
	Locations        []*PickLocation
}

// NewProductPickingRequest creates a request for quantity units of a product
func NewProductPickingRequest(productID, productVersionID uuid.UUID, productNumber string, quantity int) (*ProductPickingRequest, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}
	return &ProductPickingRequest{
		ProductID:        productID,
		ProductVersionID: productVersionID,
		ProductNumber:    productNumber,
		Quantity:         quantity,
	}, nil
}

// AddLocation attaches a candidate location
func (r *ProductPickingRequest) AddLocation(loc *PickLocation) {
	r.Locations = append(r.Locations, loc)
}

// AssignedQuantity returns the total quantity allocated across locations
func (r *ProductPickingRequest) AssignedQuantity() int {
	total := 0
	for _, loc := range r.Locations {
		total += loc.QuantityToPick
	}
	return total
}

// Shortage returns the unfulfillable remainder, requested minus assigned
func (r *ProductPickingRequest) Shortage() int {
	return r.Quantity - r.AssignedQuantity()
}

// FirstBinCode returns the code of the first bin-location candidate in
// ranked order, or "" when the request has none
func (r *ProductPickingRequest) FirstBinCode() string {
	for _, loc := range r.Locations {
		if loc.IsBinLocation() {
			return loc.BinCode
		}
	}
	return ""
}

// HasBinLocation returns true when any candidate is a bin location
func (r *ProductPickingRequest) HasBinLocation() bool {
	for _, loc := range r.Locations {
		if loc.IsBinLocation() {
			return true
		}
	}
	return false
}

// ProductShortage names one product's unfulfillable quantity
type ProductShortage struct {
	ProductID     uuid.UUID `json:"product_id"`
	ProductNumber string    `json:"product_number"`
	Quantity      int       `json:"quantity"`
}

// PickingRequest is a transient allocation request over several products.
// It is constructed per fulfillment operation, mutated in place by the
// strategy passes and consumed to emit stock movements.
type PickingRequest struct {
	Requests []*ProductPickingRequest
}

// NewPickingRequest creates a picking request over the given products
func NewPickingRequest(requests ...*ProductPickingRequest) *PickingRequest {
	return &PickingRequest{Requests: requests}
}

// Add appends a product request
func (p *PickingRequest) Add(r *ProductPickingRequest) {
	p.Requests = append(p.Requests, r)
}

// StockShortage returns every product whose need could not be fully
// assigned, in request order
func (p *PickingRequest) StockShortage() []ProductShortage {
	var shortages []ProductShortage
	for _, r := range p.Requests {
		if s := r.Shortage(); s > 0 {
			shortages = append(shortages, ProductShortage{
				ProductID:     r.ProductID,
				ProductNumber: r.ProductNumber,
				Quantity:      s,
			})
		}
	}
	return shortages
}

// IsCompletelyPickable returns true iff every product's shortage is zero
func (p *PickingRequest) IsCompletelyPickable() bool {
	for _, r := range p.Requests {
		if r.Shortage() > 0 {
			return false
		}
	}
	return true
}

// CreateStockMovementsWithDestination turns every allocation into one
// movement from its location to the destination. Locations with nothing
// assigned emit no movement.
func (p *PickingRequest) CreateStockMovementsWithDestination(destination stock.LocationRef) ([]*stock.StockMovement, error) {
	var movements []*stock.StockMovement
	for _, r := range p.Requests {
		for _, loc := range r.Locations {
			if loc.QuantityToPick <= 0 {
				continue
			}
			m, err := stock.NewStockMovement(r.ProductID, r.ProductVersionID, loc.QuantityToPick, loc.Location, destination)
			if err != nil {
				return nil, err
			}
			movements = append(movements, m)
		}
	}
	return movements, nil
}
