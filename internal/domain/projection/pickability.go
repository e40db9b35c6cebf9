package projection

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// PickabilityClass classifies whether an order can be picked from one
// warehouse's physical stock
type PickabilityClass string

const (
	CompletelyPickable PickabilityClass = "completely_pickable"
	PartiallyPickable  PickabilityClass = "partially_pickable"
	NotPickable        PickabilityClass = "not_pickable"
	CancelledOrShipped PickabilityClass = "cancelled_or_shipped"
)

// OrderPickability is the persisted classification per order and warehouse.
// Bulk-upserted by the projector, last write wins.
type OrderPickability struct {
	shared.BaseEntity
	OrderID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_order_pickability"`
	WarehouseID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_order_pickability"`
	Class       PickabilityClass `gorm:"type:varchar(30);not null"`
}

// TableName returns the table name for GORM
func (OrderPickability) TableName() string {
	return "order_pickabilities"
}

// LineRequirement is one line item's remaining-to-ship quantity: ordered
// quantity minus what was already moved into the order location
type LineRequirement struct {
	ProductID uuid.UUID
	Remaining int
}

// Classify derives the pickability of one order against one warehouse's
// stock. Completely pickable when every line's remainder is covered;
// partially when at least one relevant line has any stock; not pickable
// otherwise. Lines already fully shipped are ignored.
func Classify(lines []LineRequirement, warehouseStock map[uuid.UUID]int) PickabilityClass {
	relevant := 0
	covered := 0
	anyStock := false
	for _, line := range lines {
		if line.Remaining <= 0 {
			continue
		}
		relevant++
		available := warehouseStock[line.ProductID]
		if available >= line.Remaining {
			covered++
		}
		if available > 0 {
			anyStock = true
		}
	}
	switch {
	case relevant == 0 || covered == relevant:
		return CompletelyPickable
	case anyStock:
		return PartiallyPickable
	default:
		return NotPickable
	}
}

// ReservedQuantity computes a product's reserved stock from its open-order
// line requirements: the sum of positive remainders
func ReservedQuantity(remainders []int) int {
	total := 0
	for _, r := range remainders {
		if r > 0 {
			total += r
		}
	}
	return total
}
