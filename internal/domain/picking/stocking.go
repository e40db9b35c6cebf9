package picking

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stock"
)

// StockLocation is one candidate destination for incoming stock
type StockLocation struct {
	Location        stock.LocationRef
	WarehouseID     uuid.UUID
	BinCode         string
	IsDefaultBin    bool
	QuantityToStock int
}

// IsBinLocation returns true when the candidate is a bin inside a warehouse
func (l *StockLocation) IsBinLocation() bool {
	return l.Location.Kind == stock.LocationKindBinLocation
}

// ProductStockingRequest describes incoming units of one product that need
// a destination
type ProductStockingRequest struct {
	ProductID        uuid.UUID
	ProductVersionID uuid.UUID
	ProductNumber    string
	Quantity         int
	Locations        []*StockLocation
}

// NewProductStockingRequest creates a request to place quantity units
func NewProductStockingRequest(productID, productVersionID uuid.UUID, productNumber string, quantity int) (*ProductStockingRequest, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stocking quantity must be positive")
	}
	return &ProductStockingRequest{
		ProductID:        productID,
		ProductVersionID: productVersionID,
		ProductNumber:    productNumber,
		Quantity:         quantity,
	}, nil
}

// AddLocation attaches a candidate destination
func (r *ProductStockingRequest) AddLocation(loc *StockLocation) {
	r.Locations = append(r.Locations, loc)
}

// AssignedQuantity returns the total quantity placed across destinations
func (r *ProductStockingRequest) AssignedQuantity() int {
	total := 0
	for _, loc := range r.Locations {
		total += loc.QuantityToStock
	}
	return total
}

// Unplaced returns the quantity no destination was found for
func (r *ProductStockingRequest) Unplaced() int {
	return r.Quantity - r.AssignedQuantity()
}

// StockingRequest is the dual of a picking request: incoming stock that
// needs destinations
type StockingRequest struct {
	Requests []*ProductStockingRequest
}

// NewStockingRequest creates a stocking request over the given products
func NewStockingRequest(requests ...*ProductStockingRequest) *StockingRequest {
	return &StockingRequest{Requests: requests}
}

// Add appends a product request
func (s *StockingRequest) Add(r *ProductStockingRequest) {
	s.Requests = append(s.Requests, r)
}

// IsCompletelyStockable returns true iff every product found a destination
// for its full quantity
func (s *StockingRequest) IsCompletelyStockable() bool {
	for _, r := range s.Requests {
		if r.Unplaced() > 0 {
			return false
		}
	}
	return true
}

// CreateStockMovementsWithSource turns every placement into one movement
// from the external source to its destination
func (s *StockingRequest) CreateStockMovementsWithSource(source stock.LocationRef) ([]*stock.StockMovement, error) {
	var movements []*stock.StockMovement
	for _, r := range s.Requests {
		for _, loc := range r.Locations {
			if loc.QuantityToStock <= 0 {
				continue
			}
			m, err := stock.NewStockMovement(r.ProductID, r.ProductVersionID, loc.QuantityToStock, source, loc.Location)
			if err != nil {
				return nil, err
			}
			movements = append(movements, m)
		}
	}
	return movements, nil
}

// StockingStrategy ranks receiving locations and places quantities
type StockingStrategy interface {
	Apply(request *StockingRequest)
	AssignQuantityToStock(request *StockingRequest)
}

// DefaultBinStockingStrategy prefers a product's configured default bin,
// then other bins by code, with warehouse-level destinations last. The
// full quantity goes to the best-ranked destination.
type DefaultBinStockingStrategy struct{}

// NewDefaultBinStockingStrategy creates the default stocking strategy
func NewDefaultBinStockingStrategy() *DefaultBinStockingStrategy {
	return &DefaultBinStockingStrategy{}
}

// Apply sorts each product's candidate destinations in place
func (s *DefaultBinStockingStrategy) Apply(request *StockingRequest) {
	for _, r := range request.Requests {
		locations := r.Locations
		sort.SliceStable(locations, func(i, j int) bool {
			a, b := locations[i], locations[j]
			if a.IsDefaultBin != b.IsDefaultBin {
				return a.IsDefaultBin
			}
			if a.IsBinLocation() != b.IsBinLocation() {
				return a.IsBinLocation()
			}
			return strings.Compare(a.BinCode, b.BinCode) < 0
		})
	}
}

// AssignQuantityToStock places each product's full quantity at its
// best-ranked destination
func (s *DefaultBinStockingStrategy) AssignQuantityToStock(request *StockingRequest) {
	for _, r := range request.Requests {
		if len(r.Locations) == 0 {
			continue
		}
		r.Locations[0].QuantityToStock = r.Quantity
	}
}
