package picking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms/backend/internal/domain/stock"
)

func stockBin(warehouseID uuid.UUID, code string, isDefault bool) *StockLocation {
	return &StockLocation{
		Location:     stock.BinLocationRef(uuid.New()),
		WarehouseID:  warehouseID,
		BinCode:      code,
		IsDefaultBin: isDefault,
	}
}

func TestDefaultBinStockingStrategy(t *testing.T) {
	warehouse := uuid.New()
	strategy := NewDefaultBinStockingStrategy()

	t.Run("default bin ranks before alphabetically earlier bins", func(t *testing.T) {
		r, err := NewProductStockingRequest(uuid.New(), uuid.New(), "P-1", 6)
		require.NoError(t, err)
		r.AddLocation(stockBin(warehouse, "A1", false))
		r.AddLocation(stockBin(warehouse, "Z9", true))

		req := NewStockingRequest(r)
		strategy.Apply(req)
		strategy.AssignQuantityToStock(req)

		assert.Equal(t, "Z9", r.Locations[0].BinCode)
		assert.Equal(t, 6, r.Locations[0].QuantityToStock)
		assert.Equal(t, 0, r.Locations[1].QuantityToStock)
		assert.True(t, req.IsCompletelyStockable())
	})

	t.Run("warehouse level destination ranks last", func(t *testing.T) {
		r, err := NewProductStockingRequest(uuid.New(), uuid.New(), "P-1", 3)
		require.NoError(t, err)
		r.AddLocation(&StockLocation{Location: stock.WarehouseLocation(warehouse), WarehouseID: warehouse})
		r.AddLocation(stockBin(warehouse, "B1", false))

		req := NewStockingRequest(r)
		strategy.Apply(req)

		assert.True(t, r.Locations[0].IsBinLocation())
		assert.False(t, r.Locations[1].IsBinLocation())
	})

	t.Run("no destination leaves the quantity unplaced", func(t *testing.T) {
		r, err := NewProductStockingRequest(uuid.New(), uuid.New(), "P-1", 4)
		require.NoError(t, err)

		req := NewStockingRequest(r)
		strategy.Apply(req)
		strategy.AssignQuantityToStock(req)

		assert.Equal(t, 4, r.Unplaced())
		assert.False(t, req.IsCompletelyStockable())
	})
}

func TestCreateStockMovementsWithSource(t *testing.T) {
	warehouse := uuid.New()
	source := stock.SpecialLocationRef(stock.SpecialLocationImport)
	strategy := NewDefaultBinStockingStrategy()

	r, err := NewProductStockingRequest(uuid.New(), uuid.New(), "P-1", 9)
	require.NoError(t, err)
	r.AddLocation(stockBin(warehouse, "A1", true))

	req := NewStockingRequest(r)
	strategy.Apply(req)
	strategy.AssignQuantityToStock(req)

	movements, err := req.CreateStockMovementsWithSource(source)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 9, movements[0].Quantity)
	assert.True(t, movements[0].SourceRef().Equal(source))
	assert.Equal(t, stock.LocationKindBinLocation, movements[0].DestinationRef().Kind)
}
