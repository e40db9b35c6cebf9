package stock

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// LocationPair is a source/destination combination of a movement
type LocationPair struct {
	Source      LocationRef `json:"source"`
	Destination LocationRef `json:"destination"`
}

// InvalidLocationCombinationError reports every disallowed source/destination
// pairing found in a movement batch.
type InvalidLocationCombinationError struct {
	Pairs []LocationPair `json:"pairs"`
}

// Error implements the error interface
func (e *InvalidLocationCombinationError) Error() string {
	parts := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		parts[i] = fmt.Sprintf("%s -> %s", p.Source, p.Destination)
	}
	return fmt.Sprintf("invalid stock location combination: %s", strings.Join(parts, ", "))
}

// Code returns the machine-readable error code
func (e *InvalidLocationCombinationError) Code() string {
	return "INVALID_LOCATION_COMBINATION"
}

// StockShortfall identifies one ledger position that a movement batch would
// drive below zero.
type StockShortfall struct {
	Location  LocationRef `json:"location"`
	ProductID uuid.UUID   `json:"product_id"`
	Quantity  int         `json:"quantity"` // resulting (negative) quantity
}

// InsufficientStockError reports every non-virtual source location a batch
// would leave negative. The whole batch is rolled back when this is raised.
type InsufficientStockError struct {
	Shortfalls []StockShortfall `json:"shortfalls"`
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = fmt.Sprintf("product %s at %s would drop to %d", s.ProductID, s.Location, s.Quantity)
	}
	return fmt.Sprintf("insufficient stock for movement: %s", strings.Join(parts, ", "))
}

// Code returns the machine-readable error code
func (e *InsufficientStockError) Code() string {
	return "INSUFFICIENT_STOCK_FOR_MOVEMENT"
}

// ProductIDs returns the distinct products affected by the shortfalls
func (e *InsufficientStockError) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, s := range e.Shortfalls {
		if !seen[s.ProductID] {
			seen[s.ProductID] = true
			ids = append(ids, s.ProductID)
		}
	}
	return ids
}
