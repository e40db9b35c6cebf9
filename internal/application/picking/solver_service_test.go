package picking

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms/backend/internal/domain/picking"
	"github.com/wms/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// fakeEntryRepo serves canned internal entries
type fakeEntryRepo struct {
	stock.StockEntryRepository
	entries []*stock.StockEntry
}

func (r *fakeEntryRepo) FindInternalWithStock(_ context.Context, warehouseIDs, productIDs []uuid.UUID) ([]*stock.StockEntry, error) {
	wantedProducts := make(map[uuid.UUID]bool)
	for _, id := range productIDs {
		wantedProducts[id] = true
	}
	var found []*stock.StockEntry
	for _, e := range r.entries {
		if wantedProducts[e.ProductID] && e.Quantity > 0 {
			found = append(found, e)
		}
	}
	return found, nil
}

// fakeBinDirectory serves canned bin infos
type fakeBinDirectory struct {
	bins       map[uuid.UUID]stock.BinLocationInfo
	defaultBin map[uuid.UUID]stock.BinLocationInfo
}

func newFakeBinDirectory() *fakeBinDirectory {
	return &fakeBinDirectory{
		bins:       make(map[uuid.UUID]stock.BinLocationInfo),
		defaultBin: make(map[uuid.UUID]stock.BinLocationInfo),
	}
}

func (d *fakeBinDirectory) addBin(warehouseID uuid.UUID, code string, isDefault bool) uuid.UUID {
	info := stock.BinLocationInfo{ID: uuid.New(), WarehouseID: warehouseID, Code: code}
	d.bins[info.ID] = info
	if isDefault {
		d.defaultBin[warehouseID] = info
	}
	return info.ID
}

func (d *fakeBinDirectory) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]stock.BinLocationInfo, error) {
	found := make(map[uuid.UUID]stock.BinLocationInfo)
	for _, id := range ids {
		if info, ok := d.bins[id]; ok {
			found[id] = info
		}
	}
	return found, nil
}

func (d *fakeBinDirectory) FindByWarehouse(_ context.Context, warehouseID uuid.UUID) (map[uuid.UUID]stock.BinLocationInfo, error) {
	found := make(map[uuid.UUID]stock.BinLocationInfo)
	for id, info := range d.bins {
		if info.WarehouseID == warehouseID {
			found[id] = info
		}
	}
	return found, nil
}

func (d *fakeBinDirectory) FindDefaultBin(_ context.Context, warehouseID uuid.UUID) (*stock.BinLocationInfo, error) {
	if info, ok := d.defaultBin[warehouseID]; ok {
		return &info, nil
	}
	return nil, nil
}

func seedEntry(t *testing.T, repo *fakeEntryRepo, productID uuid.UUID, ref stock.LocationRef, quantity int) {
	t.Helper()
	entry, err := stock.NewStockEntry(productID, uuid.New(), ref, quantity)
	require.NoError(t, err)
	repo.entries = append(repo.entries, entry)
}

func TestSolvePickingRequestInWarehouses(t *testing.T) {
	ctx := context.Background()

	t.Run("allocates greedily across alphanumerically ranked bins", func(t *testing.T) {
		repo := &fakeEntryRepo{}
		directory := newFakeBinDirectory()
		warehouse := uuid.New()
		binA1 := directory.addBin(warehouse, "A1", false)
		binA2 := directory.addBin(warehouse, "A2", false)
		product := uuid.New()
		seedEntry(t, repo, product, stock.BinLocationRef(binA2), 10)
		seedEntry(t, repo, product, stock.BinLocationRef(binA1), 5)

		r, err := picking.NewProductPickingRequest(product, uuid.New(), "P-1", 12)
		require.NoError(t, err)
		request := picking.NewPickingRequest(r)

		service := NewSolverService(repo, directory, zap.NewNop())
		require.NoError(t, service.SolvePickingRequestInWarehouses(ctx, request, nil))

		require.Len(t, r.Locations, 2)
		assert.Equal(t, "A1", r.Locations[0].BinCode)
		assert.Equal(t, 5, r.Locations[0].QuantityToPick)
		assert.Equal(t, "A2", r.Locations[1].BinCode)
		assert.Equal(t, 7, r.Locations[1].QuantityToPick)
		assert.True(t, request.IsCompletelyPickable())
	})

	t.Run("reports shortage when availability is exhausted", func(t *testing.T) {
		repo := &fakeEntryRepo{}
		directory := newFakeBinDirectory()
		warehouse := uuid.New()
		bin := directory.addBin(warehouse, "A1", false)
		product := uuid.New()
		seedEntry(t, repo, product, stock.BinLocationRef(bin), 15)

		r, err := picking.NewProductPickingRequest(product, uuid.New(), "P-1", 20)
		require.NoError(t, err)
		request := picking.NewPickingRequest(r)

		service := NewSolverService(repo, directory, zap.NewNop())
		require.NoError(t, service.SolvePickingRequestInWarehouses(ctx, request, nil))

		assert.False(t, request.IsCompletelyPickable())
		shortages := request.StockShortage()
		require.Len(t, shortages, 1)
		assert.Equal(t, 5, shortages[0].Quantity)
		assert.Equal(t, 15, r.AssignedQuantity())
	})

	t.Run("deterministic assignment across repeated solves", func(t *testing.T) {
		repo := &fakeEntryRepo{}
		directory := newFakeBinDirectory()
		warehouse := uuid.New()
		product := uuid.New()
		for _, code := range []string{"C3", "A1", "B2"} {
			bin := directory.addBin(warehouse, code, false)
			seedEntry(t, repo, product, stock.BinLocationRef(bin), 4)
		}
		service := NewSolverService(repo, directory, zap.NewNop())

		solve := func() []int {
			r, err := picking.NewProductPickingRequest(product, uuid.New(), "P-1", 7)
			require.NoError(t, err)
			request := picking.NewPickingRequest(r)
			require.NoError(t, service.SolvePickingRequestInWarehouses(ctx, request, nil))
			var assigned []int
			for _, loc := range r.Locations {
				assigned = append(assigned, loc.QuantityToPick)
			}
			return assigned
		}

		reference := solve()
		assert.Equal(t, []int{4, 3, 0}, reference)
		for i := 0; i < 10; i++ {
			assert.Equal(t, reference, solve())
		}
	})

	t.Run("routing orders requests into a picker walk", func(t *testing.T) {
		repo := &fakeEntryRepo{}
		directory := newFakeBinDirectory()
		warehouse := uuid.New()
		binB := directory.addBin(warehouse, "B1", false)
		binA := directory.addBin(warehouse, "A1", false)
		productNoBin := uuid.New()
		productB := uuid.New()
		productA := uuid.New()
		seedEntry(t, repo, productNoBin, stock.WarehouseLocation(warehouse), 5)
		seedEntry(t, repo, productB, stock.BinLocationRef(binB), 5)
		seedEntry(t, repo, productA, stock.BinLocationRef(binA), 5)

		r1, err := picking.NewProductPickingRequest(productB, uuid.New(), "P-1", 1)
		require.NoError(t, err)
		r2, err := picking.NewProductPickingRequest(productA, uuid.New(), "P-2", 1)
		require.NoError(t, err)
		r3, err := picking.NewProductPickingRequest(productNoBin, uuid.New(), "P-3", 1)
		require.NoError(t, err)
		request := picking.NewPickingRequest(r1, r2, r3)

		service := NewSolverService(repo, directory, zap.NewNop())
		require.NoError(t, service.SolvePickingRequestInWarehouses(ctx, request, nil))

		assert.Equal(t, "P-3", request.Requests[0].ProductNumber)
		assert.Equal(t, "P-2", request.Requests[1].ProductNumber)
		assert.Equal(t, "P-1", request.Requests[2].ProductNumber)
	})

	t.Run("empty request is a no-op", func(t *testing.T) {
		service := NewSolverService(&fakeEntryRepo{}, newFakeBinDirectory(), zap.NewNop())
		require.NoError(t, service.SolvePickingRequestInWarehouses(ctx, picking.NewPickingRequest(), nil))
	})
}

func TestSolveStockingRequestInWarehouse(t *testing.T) {
	ctx := context.Background()

	t.Run("places the full quantity at the default bin", func(t *testing.T) {
		directory := newFakeBinDirectory()
		warehouse := uuid.New()
		directory.addBin(warehouse, "A1", false)
		defaultBin := directory.addBin(warehouse, "Z9", true)

		r, err := picking.NewProductStockingRequest(uuid.New(), uuid.New(), "P-1", 8)
		require.NoError(t, err)
		request := picking.NewStockingRequest(r)

		service := NewSolverService(&fakeEntryRepo{}, directory, zap.NewNop())
		require.NoError(t, service.SolveStockingRequestInWarehouse(ctx, request, warehouse))

		assert.True(t, request.IsCompletelyStockable())
		assert.Equal(t, stock.BinLocationRef(defaultBin), r.Locations[0].Location)
		assert.Equal(t, 8, r.Locations[0].QuantityToStock)
	})

	t.Run("warehouse without bins falls back to the warehouse level", func(t *testing.T) {
		directory := newFakeBinDirectory()
		warehouse := uuid.New()

		r, err := picking.NewProductStockingRequest(uuid.New(), uuid.New(), "P-1", 3)
		require.NoError(t, err)
		request := picking.NewStockingRequest(r)

		service := NewSolverService(&fakeEntryRepo{}, directory, zap.NewNop())
		require.NoError(t, service.SolveStockingRequestInWarehouse(ctx, request, warehouse))

		require.Len(t, r.Locations, 1)
		assert.Equal(t, stock.LocationKindWarehouse, r.Locations[0].Location.Kind)
		assert.Equal(t, 3, r.Locations[0].QuantityToStock)
	})

	t.Run("movements emitted from an external source", func(t *testing.T) {
		directory := newFakeBinDirectory()
		warehouse := uuid.New()
		directory.addBin(warehouse, "A1", true)

		r, err := picking.NewProductStockingRequest(uuid.New(), uuid.New(), "P-1", 6)
		require.NoError(t, err)
		request := picking.NewStockingRequest(r)

		service := NewSolverService(&fakeEntryRepo{}, directory, zap.NewNop())
		require.NoError(t, service.SolveStockingRequestInWarehouse(ctx, request, warehouse))

		movements, err := request.CreateStockMovementsWithSource(stock.SpecialLocationRef(stock.SpecialLocationImport))
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, 6, movements[0].Quantity)
	})
}
