package stocktaking

import (
	"context"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appjob "github.com/wms/backend/internal/application/job"
	"github.com/wms/backend/internal/domain/job"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stock"
	"github.com/wms/backend/internal/domain/stocktaking"
	"go.uber.org/zap"
)

type memoryProcessRepo struct {
	processes map[uuid.UUID]*stocktaking.CountingProcess
}

func newMemoryProcessRepo() *memoryProcessRepo {
	return &memoryProcessRepo{processes: make(map[uuid.UUID]*stocktaking.CountingProcess)}
}

func (r *memoryProcessRepo) Create(_ context.Context, p *stocktaking.CountingProcess) error {
	r.processes[p.ID] = p
	return nil
}

func (r *memoryProcessRepo) FindByID(_ context.Context, id uuid.UUID) (*stocktaking.CountingProcess, error) {
	return r.processes[id], nil
}

func (r *memoryProcessRepo) Update(_ context.Context, p *stocktaking.CountingProcess) error {
	if _, ok := r.processes[p.ID]; !ok {
		return shared.ErrNotFound
	}
	r.processes[p.ID] = p
	return nil
}

func (r *memoryProcessRepo) FindByWarehouse(_ context.Context, warehouseID uuid.UUID) ([]*stocktaking.CountingProcess, error) {
	var out []*stocktaking.CountingProcess
	for _, p := range r.processes {
		if p.WarehouseID == warehouseID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeEntryRepo struct {
	stock.StockEntryRepository
	entries []*stock.StockEntry
}

func (r *fakeEntryRepo) FindByLocation(_ context.Context, ref stock.LocationRef) ([]*stock.StockEntry, error) {
	var out []*stock.StockEntry
	for _, e := range r.entries {
		if e.Location().Equal(ref) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeProductDirectory struct {
	products map[uuid.UUID]ProductInfo
}

func (d *fakeProductDirectory) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]ProductInfo, error) {
	out := make(map[uuid.UUID]ProductInfo)
	for _, id := range ids {
		if p, ok := d.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (d *fakeProductDirectory) FindByNumber(_ context.Context, number string) (*ProductInfo, error) {
	for _, p := range d.products {
		if p.Number == number {
			info := p
			return &info, nil
		}
	}
	return nil, nil
}

type fakeWarehouseDirectory struct {
	warehouses map[uuid.UUID]WarehouseInfo
}

func (d *fakeWarehouseDirectory) FindByID(_ context.Context, id uuid.UUID) (*WarehouseInfo, error) {
	if w, ok := d.warehouses[id]; ok {
		info := w
		return &info, nil
	}
	return nil, nil
}

func (d *fakeWarehouseDirectory) FindByCode(_ context.Context, code string) (*WarehouseInfo, error) {
	for _, w := range d.warehouses {
		if w.Code == code {
			info := w
			return &info, nil
		}
	}
	return nil, nil
}

type fakeBinDirectory struct {
	bins map[uuid.UUID]stock.BinLocationInfo
}

func (d *fakeBinDirectory) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]stock.BinLocationInfo, error) {
	out := make(map[uuid.UUID]stock.BinLocationInfo)
	for _, id := range ids {
		if b, ok := d.bins[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

func (d *fakeBinDirectory) FindByWarehouse(_ context.Context, warehouseID uuid.UUID) (map[uuid.UUID]stock.BinLocationInfo, error) {
	out := make(map[uuid.UUID]stock.BinLocationInfo)
	for id, b := range d.bins {
		if b.WarehouseID == warehouseID {
			out[id] = b
		}
	}
	return out, nil
}

func (d *fakeBinDirectory) FindDefaultBin(_ context.Context, _ uuid.UUID) (*stock.BinLocationInfo, error) {
	return nil, nil
}

type fakeStager struct {
	rows map[uuid.UUID][]appjob.Row
}

func (s *fakeStager) Stage(_ context.Context, jobID uuid.UUID, _ int, rows []appjob.Row) error {
	s.rows[jobID] = append(s.rows[jobID], rows...)
	return nil
}

func (s *fakeStager) Fetch(_ context.Context, jobID uuid.UUID, offset, limit int) ([]appjob.Row, error) {
	return s.rows[jobID], nil
}

func (s *fakeStager) Count(_ context.Context, jobID uuid.UUID) (int, error) {
	return len(s.rows[jobID]), nil
}

func (s *fakeStager) Clear(_ context.Context, jobID uuid.UUID) error {
	delete(s.rows, jobID)
	return nil
}

type fakeScheduler struct {
	created   []*job.ResumableJob
	scheduled map[uuid.UUID]job.JobState
}

func (s *fakeScheduler) CreateImport(_ context.Context, profileTechnicalName string) (*job.ResumableJob, error) {
	j, err := job.NewResumableJob(job.JobTypeImport, profileTechnicalName)
	if err != nil {
		return nil, err
	}
	s.created = append(s.created, j)
	return j, nil
}

func (s *fakeScheduler) ScheduleImport(_ context.Context, id uuid.UUID, initialState job.JobState) error {
	s.scheduled[id] = initialState
	return nil
}

type recordingMover struct {
	movements []*stock.StockMovement
}

func (m *recordingMover) MoveStock(_ context.Context, movements []*stock.StockMovement, _ *uuid.UUID) error {
	m.movements = append(m.movements, movements...)
	return nil
}

type countingFixture struct {
	repo       *memoryProcessRepo
	entries    *fakeEntryRepo
	products   *fakeProductDirectory
	warehouses *fakeWarehouseDirectory
	bins       *fakeBinDirectory
	stager     *fakeStager
	scheduler  *fakeScheduler
	service    *CountingService

	warehouseID uuid.UUID
	binID       uuid.UUID
}

func newCountingFixture() *countingFixture {
	f := &countingFixture{
		repo:       newMemoryProcessRepo(),
		entries:    &fakeEntryRepo{},
		products:   &fakeProductDirectory{products: make(map[uuid.UUID]ProductInfo)},
		warehouses: &fakeWarehouseDirectory{warehouses: make(map[uuid.UUID]WarehouseInfo)},
		bins:       &fakeBinDirectory{bins: make(map[uuid.UUID]stock.BinLocationInfo)},
		stager:     &fakeStager{rows: make(map[uuid.UUID][]appjob.Row)},
		scheduler:  &fakeScheduler{scheduled: make(map[uuid.UUID]job.JobState)},

		warehouseID: uuid.New(),
		binID:       uuid.New(),
	}
	f.warehouses.warehouses[f.warehouseID] = WarehouseInfo{ID: f.warehouseID, Code: "WH-MAIN"}
	f.bins.bins[f.binID] = stock.BinLocationInfo{ID: f.binID, WarehouseID: f.warehouseID, Code: "A-01-02"}
	f.service = NewCountingService(f.repo, f.entries, f.products, f.warehouses, f.bins,
		f.stager, f.scheduler, zap.NewNop())
	return f
}

func (f *countingFixture) addProduct(t *testing.T, number string, unitCost string) ProductInfo {
	t.Helper()
	cost, err := decimal.NewFromString(unitCost)
	require.NoError(t, err)
	info := ProductInfo{ID: uuid.New(), VersionID: uuid.New(), Number: number, UnitCost: cost}
	f.products.products[info.ID] = info
	return info
}

func (f *countingFixture) seedEntry(t *testing.T, product ProductInfo, ref stock.LocationRef, quantity int) {
	t.Helper()
	entry, err := stock.NewStockEntry(product.ID, product.VersionID, ref, quantity)
	require.NoError(t, err)
	f.entries.entries = append(f.entries.entries, entry)
}

func TestCountingService(t *testing.T) {
	ctx := context.Background()

	t.Run("completing a bin count produces correction rows", func(t *testing.T) {
		f := newCountingFixture()
		p1 := f.addProduct(t, "P-100", "2.50")
		p2 := f.addProduct(t, "P-200", "4.00")
		f.seedEntry(t, p1, stock.BinLocationRef(f.binID), 3)
		f.seedEntry(t, p2, stock.BinLocationRef(f.binID), 5)

		binID := f.binID
		process, err := f.service.CreateProcess(ctx, f.warehouseID, &binID)
		require.NoError(t, err)
		require.NoError(t, f.service.SubmitCounts(ctx, process.ID, []CountLine{
			{ProductID: p1.ID, Quantity: 4},
		}))

		importJob, err := f.service.Complete(ctx, process.ID)
		require.NoError(t, err)
		assert.Equal(t, job.JobStateRunning, f.scheduler.scheduled[importJob.ID])

		rows := f.stager.rows[importJob.ID]
		require.Len(t, rows, 2)
		assert.Equal(t, appjob.Row{
			"product number": "P-100",
			"warehouse code": "WH-MAIN",
			"bin location":   "A-01-02",
			"change":         "1",
		}, rows[0])
		// absence on a counted bin means confirmed zero
		assert.Equal(t, "-5", rows[1]["change"])
		assert.Equal(t, "P-200", rows[1]["product number"])

		stored := f.repo.processes[process.ID]
		assert.True(t, stored.IsCompleted())
		assert.Equal(t, importJob.ID, *stored.ImportJobID)
	})

	t.Run("warehouse count only corrects listed products", func(t *testing.T) {
		f := newCountingFixture()
		counted := f.addProduct(t, "P-100", "1.00")
		untouched := f.addProduct(t, "P-200", "1.00")
		f.seedEntry(t, counted, stock.WarehouseLocation(f.warehouseID), 7)
		f.seedEntry(t, untouched, stock.WarehouseLocation(f.warehouseID), 9)

		process, err := f.service.CreateProcess(ctx, f.warehouseID, nil)
		require.NoError(t, err)
		require.NoError(t, f.service.SubmitCounts(ctx, process.ID, []CountLine{
			{ProductID: counted.ID, Quantity: 5},
		}))

		importJob, err := f.service.Complete(ctx, process.ID)
		require.NoError(t, err)

		rows := f.stager.rows[importJob.ID]
		require.Len(t, rows, 1)
		assert.Equal(t, "unknown", rows[0]["bin location"])
		assert.Equal(t, "-2", rows[0]["change"])
	})

	t.Run("a second completion is rejected", func(t *testing.T) {
		f := newCountingFixture()
		process, err := f.service.CreateProcess(ctx, f.warehouseID, nil)
		require.NoError(t, err)
		_, err = f.service.Complete(ctx, process.ID)
		require.NoError(t, err)

		_, err = f.service.Complete(ctx, process.ID)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "COUNTING_PROCESS_ALREADY_COMPLETED", de.Code)
		assert.Len(t, f.scheduler.created, 1)
	})

	t.Run("a matching count schedules an import without rows", func(t *testing.T) {
		f := newCountingFixture()
		p1 := f.addProduct(t, "P-100", "1.00")
		f.seedEntry(t, p1, stock.BinLocationRef(f.binID), 3)

		binID := f.binID
		process, err := f.service.CreateProcess(ctx, f.warehouseID, &binID)
		require.NoError(t, err)
		require.NoError(t, f.service.SubmitCounts(ctx, process.ID, []CountLine{
			{ProductID: p1.ID, Quantity: 3},
		}))

		importJob, err := f.service.Complete(ctx, process.ID)
		require.NoError(t, err)
		assert.Empty(t, f.stager.rows[importJob.ID])
		assert.True(t, f.repo.processes[process.ID].IsCompleted())
	})

	t.Run("rejects a bin from another warehouse", func(t *testing.T) {
		f := newCountingFixture()
		foreign := uuid.New()
		f.bins.bins[foreign] = stock.BinLocationInfo{ID: foreign, WarehouseID: uuid.New(), Code: "X-01"}

		_, err := f.service.CreateProcess(ctx, f.warehouseID, &foreign)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "BIN_LOCATION_MISMATCH", de.Code)
	})

	t.Run("valuation prices the pending corrections", func(t *testing.T) {
		f := newCountingFixture()
		p1 := f.addProduct(t, "P-100", "2.50")
		p2 := f.addProduct(t, "P-200", "4.00")
		f.seedEntry(t, p1, stock.BinLocationRef(f.binID), 3)
		f.seedEntry(t, p2, stock.BinLocationRef(f.binID), 5)

		binID := f.binID
		process, err := f.service.CreateProcess(ctx, f.warehouseID, &binID)
		require.NoError(t, err)
		require.NoError(t, f.service.SubmitCounts(ctx, process.ID, []CountLine{
			{ProductID: p1.ID, Quantity: 4},
		}))

		items, total, err := f.service.Valuation(ctx, process.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.True(t, items[0].Value.Equal(decimal.RequireFromString("2.50")))
		assert.True(t, items[1].Value.Equal(decimal.RequireFromString("-20.00")))
		assert.True(t, total.Equal(decimal.RequireFromString("-17.50")))
	})
}

func TestRelativeStockChangeProfile(t *testing.T) {
	ctx := context.Background()

	newProfile := func(f *countingFixture, mover *recordingMover) *RelativeStockChangeProfile {
		return NewRelativeStockChangeProfile(f.products, f.warehouses, f.bins, mover)
	}

	row := func(number, bin string, change int) appjob.Row {
		return appjob.Row{
			"product number": number,
			"warehouse code": "WH-MAIN",
			"bin location":   bin,
			"change":         strconv.Itoa(change),
		}
	}

	t.Run("positive change books stock into the bin", func(t *testing.T) {
		f := newCountingFixture()
		product := f.addProduct(t, "P-100", "1.00")
		mover := &recordingMover{}
		profile := newProfile(f, mover)

		require.NoError(t, profile.ProcessRow(ctx, row("P-100", "A-01-02", 2)))
		require.Len(t, mover.movements, 1)
		m := mover.movements[0]
		assert.Equal(t, product.ID, m.ProductID)
		assert.Equal(t, 2, m.Quantity)
		assert.Equal(t, stock.SpecialLocationRef(stock.SpecialLocationStocktaking), m.SourceRef())
		assert.Equal(t, stock.BinLocationRef(f.binID), m.DestinationRef())
	})

	t.Run("negative change books the surplus back out", func(t *testing.T) {
		f := newCountingFixture()
		f.addProduct(t, "P-100", "1.00")
		mover := &recordingMover{}
		profile := newProfile(f, mover)

		require.NoError(t, profile.ProcessRow(ctx, row("P-100", "unknown", -3)))
		require.Len(t, mover.movements, 1)
		m := mover.movements[0]
		assert.Equal(t, 3, m.Quantity)
		assert.Equal(t, stock.WarehouseLocation(f.warehouseID), m.SourceRef())
		assert.Equal(t, stock.SpecialLocationRef(stock.SpecialLocationStocktaking), m.DestinationRef())
	})

	t.Run("zero change is skipped", func(t *testing.T) {
		f := newCountingFixture()
		f.addProduct(t, "P-100", "1.00")
		mover := &recordingMover{}
		profile := newProfile(f, mover)

		require.NoError(t, profile.ProcessRow(ctx, row("P-100", "unknown", 0)))
		assert.Empty(t, mover.movements)
	})

	t.Run("unknown references are row errors", func(t *testing.T) {
		f := newCountingFixture()
		f.addProduct(t, "P-100", "1.00")
		mover := &recordingMover{}
		profile := newProfile(f, mover)

		var de *shared.DomainError
		err := profile.ProcessRow(ctx, row("P-999", "unknown", 2))
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "UNKNOWN_PRODUCT", de.Code)

		err = profile.ProcessRow(ctx, row("P-100", "NO-SUCH-BIN", 2))
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "UNKNOWN_BIN_LOCATION", de.Code)

		err = profile.ProcessRow(ctx, appjob.Row{
			"product number": "P-100",
			"warehouse code": "WH-NONE",
			"bin location":   "unknown",
			"change":         "2",
		})
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "UNKNOWN_WAREHOUSE", de.Code)
		assert.Empty(t, mover.movements)
	})
}
