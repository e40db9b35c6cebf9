package picking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms/backend/internal/domain/stock"
)

func binCandidate(warehouseID uuid.UUID, code string, available int) *PickLocation {
	return &PickLocation{
		Location:    stock.BinLocationRef(uuid.New()),
		WarehouseID: warehouseID,
		BinCode:     code,
		Available:   available,
	}
}

func warehouseCandidate(warehouseID uuid.UUID, available int) *PickLocation {
	return &PickLocation{
		Location:    stock.WarehouseLocation(warehouseID),
		WarehouseID: warehouseID,
		Available:   available,
	}
}

func mustProductRequest(t *testing.T, productNumber string, quantity int, locations ...*PickLocation) *ProductPickingRequest {
	t.Helper()
	r, err := NewProductPickingRequest(uuid.New(), uuid.New(), productNumber, quantity)
	require.NoError(t, err)
	r.Locations = locations
	return r
}

func TestNewProductPickingRequest(t *testing.T) {
	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewProductPickingRequest(uuid.New(), uuid.New(), "P-1", 0)
		assert.Error(t, err)
		_, err = NewProductPickingRequest(uuid.New(), uuid.New(), "P-1", -2)
		assert.Error(t, err)
	})

	t.Run("rejects empty product", func(t *testing.T) {
		_, err := NewProductPickingRequest(uuid.Nil, uuid.New(), "P-1", 1)
		assert.Error(t, err)
	})
}

func TestAlphanumericalPickingStrategyApply(t *testing.T) {
	warehouse := uuid.New()

	t.Run("bins sort byte ordinal by code, warehouse level last", func(t *testing.T) {
		r := mustProductRequest(t, "P-1", 10,
			warehouseCandidate(warehouse, 50),
			binCandidate(warehouse, "B2", 5),
			binCandidate(warehouse, "A10", 5),
			binCandidate(warehouse, "A2", 5),
		)
		NewAlphanumericalPickingStrategy().Apply(NewPickingRequest(r))

		codes := []string{r.Locations[0].BinCode, r.Locations[1].BinCode, r.Locations[2].BinCode}
		// byte-wise ordering puts "A10" before "A2"
		assert.Equal(t, []string{"A10", "A2", "B2"}, codes)
		assert.False(t, r.Locations[3].IsBinLocation())
	})

	t.Run("warehouse comparator takes precedence", func(t *testing.T) {
		preferred := uuid.New()
		other := uuid.New()
		cmp := func(a, b uuid.UUID) int {
			rank := func(id uuid.UUID) int {
				if id == preferred {
					return 0
				}
				return 1
			}
			return rank(a) - rank(b)
		}

		r := mustProductRequest(t, "P-1", 10,
			binCandidate(other, "A1", 5),
			binCandidate(preferred, "Z9", 5),
		)
		NewAlphanumericalPickingStrategy().WithWarehousePriority(cmp).Apply(NewPickingRequest(r))

		assert.Equal(t, "Z9", r.Locations[0].BinCode)
		assert.Equal(t, "A1", r.Locations[1].BinCode)
	})

	t.Run("equal candidates keep lookup order", func(t *testing.T) {
		first := warehouseCandidate(warehouse, 1)
		second := warehouseCandidate(warehouse, 2)
		r := mustProductRequest(t, "P-1", 3, first, second)
		NewAlphanumericalPickingStrategy().Apply(NewPickingRequest(r))

		assert.Same(t, first, r.Locations[0])
		assert.Same(t, second, r.Locations[1])
	})
}

func TestAssignQuantityToPick(t *testing.T) {
	warehouse := uuid.New()
	strategy := NewAlphanumericalPickingStrategy()

	t.Run("greedy first fit in ranked order", func(t *testing.T) {
		r := mustProductRequest(t, "P-1", 12,
			binCandidate(warehouse, "A1", 5),
			binCandidate(warehouse, "A2", 10),
		)
		req := NewPickingRequest(r)
		strategy.Apply(req)
		strategy.AssignQuantityToPick(req)

		assert.Equal(t, 5, r.Locations[0].QuantityToPick)
		assert.Equal(t, 7, r.Locations[1].QuantityToPick)
		assert.Equal(t, 0, r.Shortage())
		assert.True(t, req.IsCompletelyPickable())
	})

	t.Run("shortage is requested minus assigned", func(t *testing.T) {
		r := mustProductRequest(t, "P-1", 20,
			binCandidate(warehouse, "A1", 5),
			binCandidate(warehouse, "A2", 10),
		)
		req := NewPickingRequest(r)
		strategy.Apply(req)
		strategy.AssignQuantityToPick(req)

		assert.Equal(t, 15, r.AssignedQuantity())
		assert.False(t, req.IsCompletelyPickable())
		shortages := req.StockShortage()
		require.Len(t, shortages, 1)
		assert.Equal(t, r.ProductID, shortages[0].ProductID)
		assert.Equal(t, 5, shortages[0].Quantity)
	})

	t.Run("never over allocates beyond need or availability", func(t *testing.T) {
		r := mustProductRequest(t, "P-1", 3,
			binCandidate(warehouse, "A1", 100),
			binCandidate(warehouse, "A2", 100),
		)
		req := NewPickingRequest(r)
		strategy.Apply(req)
		strategy.AssignQuantityToPick(req)

		assert.Equal(t, 3, r.Locations[0].QuantityToPick)
		assert.Equal(t, 0, r.Locations[1].QuantityToPick)
	})

	t.Run("deterministic across repeated runs", func(t *testing.T) {
		build := func() *PickingRequest {
			r := mustProductRequest(t, "P-1", 8,
				binCandidate(warehouse, "B1", 4),
				binCandidate(warehouse, "A1", 3),
				warehouseCandidate(warehouse, 10),
			)
			return NewPickingRequest(r)
		}
		reference := build()
		strategy.Apply(reference)
		strategy.AssignQuantityToPick(reference)

		for i := 0; i < 10; i++ {
			req := build()
			strategy.Apply(req)
			strategy.AssignQuantityToPick(req)
			for j, loc := range req.Requests[0].Locations {
				assert.Equal(t, reference.Requests[0].Locations[j].BinCode, loc.BinCode)
				assert.Equal(t, reference.Requests[0].Locations[j].QuantityToPick, loc.QuantityToPick)
			}
		}
	})
}

func TestAlphanumericalRoutingStrategy(t *testing.T) {
	warehouse := uuid.New()

	t.Run("requests without bins first, then by first bin code", func(t *testing.T) {
		noBin := mustProductRequest(t, "P-3", 1, warehouseCandidate(warehouse, 5))
		binB := mustProductRequest(t, "P-1", 1, binCandidate(warehouse, "B1", 5))
		binA := mustProductRequest(t, "P-2", 1, binCandidate(warehouse, "A1", 5))

		req := NewPickingRequest(binB, binA, noBin)
		NewAlphanumericalRoutingStrategy().Apply(req)

		assert.Same(t, noBin, req.Requests[0])
		assert.Same(t, binA, req.Requests[1])
		assert.Same(t, binB, req.Requests[2])
	})

	t.Run("same bin code breaks ties on product number", func(t *testing.T) {
		second := mustProductRequest(t, "P-2", 1, binCandidate(warehouse, "A1", 5))
		first := mustProductRequest(t, "P-1", 1, binCandidate(warehouse, "A1", 5))

		req := NewPickingRequest(second, first)
		NewAlphanumericalRoutingStrategy().Apply(req)

		assert.Same(t, first, req.Requests[0])
		assert.Same(t, second, req.Requests[1])
	})
}

func TestCreateStockMovementsWithDestination(t *testing.T) {
	warehouse := uuid.New()
	destination := stock.OrderLocation(uuid.New(), uuid.New())
	strategy := NewAlphanumericalPickingStrategy()

	t.Run("one movement per allocated location", func(t *testing.T) {
		r := mustProductRequest(t, "P-1", 7,
			binCandidate(warehouse, "A1", 5),
			binCandidate(warehouse, "A2", 10),
			binCandidate(warehouse, "A3", 10),
		)
		req := NewPickingRequest(r)
		strategy.Apply(req)
		strategy.AssignQuantityToPick(req)

		movements, err := req.CreateStockMovementsWithDestination(destination)
		require.NoError(t, err)
		require.Len(t, movements, 2)
		assert.Equal(t, 5, movements[0].Quantity)
		assert.Equal(t, 2, movements[1].Quantity)
		for _, m := range movements {
			assert.True(t, m.DestinationRef().Equal(destination))
			assert.Equal(t, r.ProductID, m.ProductID)
		}
	})

	t.Run("unallocated request emits nothing", func(t *testing.T) {
		r := mustProductRequest(t, "P-1", 7)
		movements, err := NewPickingRequest(r).CreateStockMovementsWithDestination(destination)
		require.NoError(t, err)
		assert.Empty(t, movements)
	})
}
