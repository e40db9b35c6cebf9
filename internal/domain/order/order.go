package order

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderState is the lifecycle state of a sales order. The schema is owned
// by the order subsystem; the stock core only reads it.
type OrderState string

const (
	OrderStateOpen       OrderState = "open"
	OrderStateInProgress OrderState = "in_progress"
	OrderStateShipped    OrderState = "shipped"
	OrderStateCompleted  OrderState = "completed"
	OrderStateCancelled  OrderState = "cancelled"
)

// IsOpen returns true for states that still reserve stock. Shipped,
// completed and cancelled orders never re-trigger reservation work.
func (s OrderState) IsOpen() bool {
	return s == OrderStateOpen || s == OrderStateInProgress
}

// DeliveryState is the lifecycle state of one shipment of an order
type DeliveryState string

const (
	DeliveryStateOpen       DeliveryState = "open"
	DeliveryStateInProgress DeliveryState = "in_progress"
	DeliveryStateShipped    DeliveryState = "shipped"
	DeliveryStateCancelled  DeliveryState = "cancelled"
)

// IsOpen returns true for deliveries that still await picking
func (s DeliveryState) IsOpen() bool {
	return s == DeliveryStateOpen || s == DeliveryStateInProgress
}

// LineItem is one ordered product position
type LineItem struct {
	ProductID        uuid.UUID
	ProductVersionID uuid.UUID
	ProductNumber    string
	Quantity         int
}

// Delivery is one shipment of an order
type Delivery struct {
	ID           uuid.UUID
	State        DeliveryState
	ShippingCost decimal.Decimal
}

// Order is the read-model slice of a sales order the stock core needs for
// reservation and pickability
type Order struct {
	ID         uuid.UUID
	VersionID  uuid.UUID
	Number     string
	State      OrderState
	LineItems  []LineItem
	Deliveries []Delivery
}

// PrimaryDelivery selects the delivery whose state drives the order's
// reservation and pickability. Highest shipping cost wins; equal costs
// fall back to the lowest delivery id, so the pick does not depend on
// slice order. This mirrors the admin UI's pick and is replicated as an
// external business rule, not redesigned.
func (o *Order) PrimaryDelivery() *Delivery {
	if len(o.Deliveries) == 0 {
		return nil
	}
	candidates := make([]*Delivery, len(o.Deliveries))
	for i := range o.Deliveries {
		candidates[i] = &o.Deliveries[i]
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].ShippingCost.Equal(candidates[j].ShippingCost) {
			return candidates[i].ShippingCost.GreaterThan(candidates[j].ShippingCost)
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})
	return candidates[0]
}

// ReservesStock returns true when the order still counts against available
// stock: order state open and primary delivery not yet shipped
func (o *Order) ReservesStock() bool {
	if !o.State.IsOpen() {
		return false
	}
	primary := o.PrimaryDelivery()
	if primary == nil {
		return true
	}
	return primary.State.IsOpen()
}

// ProductIDs returns the distinct products the order's line items name
func (o *Order) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(o.LineItems))
	var ids []uuid.UUID
	for _, li := range o.LineItems {
		if !seen[li.ProductID] {
			seen[li.ProductID] = true
			ids = append(ids, li.ProductID)
		}
	}
	return ids
}
