package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimaryDelivery(t *testing.T) {
	t.Run("no deliveries yields nil", func(t *testing.T) {
		o := &Order{ID: uuid.New()}
		assert.Nil(t, o.PrimaryDelivery())
	})

	t.Run("highest shipping cost wins", func(t *testing.T) {
		cheap := Delivery{ID: uuid.New(), State: DeliveryStateShipped, ShippingCost: decimal.NewFromFloat(2.95)}
		expensive := Delivery{ID: uuid.New(), State: DeliveryStateOpen, ShippingCost: decimal.NewFromFloat(9.90)}
		o := &Order{ID: uuid.New(), Deliveries: []Delivery{cheap, expensive}}

		primary := o.PrimaryDelivery()
		require.NotNil(t, primary)
		assert.Equal(t, expensive.ID, primary.ID)
	})

	t.Run("equal costs break ties on the lowest delivery id", func(t *testing.T) {
		low := Delivery{
			ID:           uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			ShippingCost: decimal.NewFromFloat(4.50),
		}
		high := Delivery{
			ID:           uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			ShippingCost: decimal.NewFromFloat(4.50),
		}

		// same winner regardless of slice order
		o := &Order{ID: uuid.New(), Deliveries: []Delivery{high, low}}
		assert.Equal(t, low.ID, o.PrimaryDelivery().ID)
		o = &Order{ID: uuid.New(), Deliveries: []Delivery{low, high}}
		assert.Equal(t, low.ID, o.PrimaryDelivery().ID)
	})
}

func TestReservesStock(t *testing.T) {
	openDelivery := Delivery{ID: uuid.New(), State: DeliveryStateOpen}
	shippedDelivery := Delivery{ID: uuid.New(), State: DeliveryStateShipped}

	t.Run("open order with open primary delivery reserves", func(t *testing.T) {
		o := &Order{State: OrderStateOpen, Deliveries: []Delivery{openDelivery}}
		assert.True(t, o.ReservesStock())
	})

	t.Run("shipped primary delivery releases the reservation", func(t *testing.T) {
		o := &Order{State: OrderStateInProgress, Deliveries: []Delivery{shippedDelivery}}
		assert.False(t, o.ReservesStock())
	})

	t.Run("cancelled order never reserves", func(t *testing.T) {
		o := &Order{State: OrderStateCancelled, Deliveries: []Delivery{openDelivery}}
		assert.False(t, o.ReservesStock())
	})

	t.Run("open order without deliveries reserves", func(t *testing.T) {
		o := &Order{State: OrderStateOpen}
		assert.True(t, o.ReservesStock())
	})
}

func TestProductIDs(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	o := &Order{LineItems: []LineItem{
		{ProductID: p1, Quantity: 2},
		{ProductID: p2, Quantity: 1},
		{ProductID: p1, Quantity: 3},
	}}
	assert.Equal(t, []uuid.UUID{p1, p2}, o.ProductIDs())
}
