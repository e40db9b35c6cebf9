package picking

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// WarehouseComparator ranks two warehouses; negative means a before b.
// Supplied by deployments that prioritize certain warehouses for picking.
type WarehouseComparator func(a, b uuid.UUID) int

// PickingStrategy ranks each product's candidate locations and allocates
// quantities against them. Which implementation is active is a
// construction-time choice of the solver.
type PickingStrategy interface {
	// Apply reorders every product request's candidate locations in place
	Apply(request *PickingRequest)
	// AssignQuantityToPick fills QuantityToPick on the ranked candidates
	AssignQuantityToPick(request *PickingRequest)
}

// RoutingStrategy orders the product requests themselves into a walk order
// for a picker moving through the warehouse
type RoutingStrategy interface {
	Apply(request *PickingRequest)
}

// AlphanumericalPickingStrategy is the default ranking: with a warehouse
// comparator, candidates sort by warehouse rank first; without one,
// warehouse-level candidates go last. Bin candidates sort by code using
// byte-wise ordinal comparison, not locale-aware collation.
type AlphanumericalPickingStrategy struct {
	WarehousePriority WarehouseComparator
}

// NewAlphanumericalPickingStrategy creates the default picking strategy
func NewAlphanumericalPickingStrategy() *AlphanumericalPickingStrategy {
	return &AlphanumericalPickingStrategy{}
}

// WithWarehousePriority sets the warehouse ranking comparator
func (s *AlphanumericalPickingStrategy) WithWarehousePriority(cmp WarehouseComparator) *AlphanumericalPickingStrategy {
	s.WarehousePriority = cmp
	return s
}

// Apply sorts each product's candidates. Stable sort keeps lookup order
// for candidates the comparator considers equal, so allocation stays
// deterministic.
func (s *AlphanumericalPickingStrategy) Apply(request *PickingRequest) {
	for _, r := range request.Requests {
		locations := r.Locations
		sort.SliceStable(locations, func(i, j int) bool {
			a, b := locations[i], locations[j]
			if s.WarehousePriority != nil {
				if c := s.WarehousePriority(a.WarehouseID, b.WarehouseID); c != 0 {
					return c < 0
				}
			} else if a.IsBinLocation() != b.IsBinLocation() {
				// warehouse-level candidates sort after bins
				return a.IsBinLocation()
			}
			if a.IsBinLocation() && b.IsBinLocation() {
				return strings.Compare(a.BinCode, b.BinCode) < 0
			}
			return false
		})
	}
}

// AssignQuantityToPick consumes candidates greedily in ranked order,
// taking min(remaining need, available) from each until the need is
// exhausted or candidates run out.
func (s *AlphanumericalPickingStrategy) AssignQuantityToPick(request *PickingRequest) {
	for _, r := range request.Requests {
		remaining := r.Quantity
		for _, loc := range r.Locations {
			if remaining <= 0 {
				break
			}
			take := loc.Available
			if take > remaining {
				take = remaining
			}
			if take <= 0 {
				continue
			}
			loc.QuantityToPick = take
			remaining -= take
		}
	}
}

// AlphanumericalRoutingStrategy orders product requests for the picker's
// walk: requests without any bin candidate first, the rest by their first
// bin code, ties broken by product number.
type AlphanumericalRoutingStrategy struct{}

// NewAlphanumericalRoutingStrategy creates the default routing strategy
func NewAlphanumericalRoutingStrategy() *AlphanumericalRoutingStrategy {
	return &AlphanumericalRoutingStrategy{}
}

// Apply sorts the product requests in place
func (s *AlphanumericalRoutingStrategy) Apply(request *PickingRequest) {
	requests := request.Requests
	sort.SliceStable(requests, func(i, j int) bool {
		a, b := requests[i], requests[j]
		aHasBin, bHasBin := a.HasBinLocation(), b.HasBinLocation()
		if aHasBin != bHasBin {
			return !aHasBin
		}
		if c := strings.Compare(a.FirstBinCode(), b.FirstBinCode()); c != 0 {
			return c < 0
		}
		return strings.Compare(a.ProductNumber, b.ProductNumber) < 0
	})
}
