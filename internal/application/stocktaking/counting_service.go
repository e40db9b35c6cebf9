package stocktaking

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appjob "github.com/wms/backend/internal/application/job"
	"github.com/wms/backend/internal/domain/job"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stock"
	"github.com/wms/backend/internal/domain/stocktaking"
	"go.uber.org/zap"
)

// CountLine is one submitted product count
type CountLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// CountingService manages count submissions and turns a completed count
// into a ledger correction import
type CountingService struct {
	processes  stocktaking.CountingProcessRepository
	entries    stock.StockEntryRepository
	products   ProductDirectory
	warehouses WarehouseDirectory
	bins       stock.BinLocationDirectory
	stager     appjob.RowStager
	scheduler  ImportScheduler
	logger     *zap.Logger
}

// NewCountingService creates a counting service
func NewCountingService(
	processes stocktaking.CountingProcessRepository,
	entries stock.StockEntryRepository,
	products ProductDirectory,
	warehouses WarehouseDirectory,
	bins stock.BinLocationDirectory,
	stager appjob.RowStager,
	scheduler ImportScheduler,
	logger *zap.Logger,
) *CountingService {
	return &CountingService{
		processes:  processes,
		entries:    entries,
		products:   products,
		warehouses: warehouses,
		bins:       bins,
		stager:     stager,
		scheduler:  scheduler,
		logger:     logger,
	}
}

// CreateProcess opens a count for a warehouse's uncategorized stock, or
// for one of its bins when binLocationID is given
func (s *CountingService) CreateProcess(ctx context.Context, warehouseID uuid.UUID, binLocationID *uuid.UUID) (*stocktaking.CountingProcess, error) {
	if binLocationID != nil {
		infos, err := s.bins.FindByIDs(ctx, []uuid.UUID{*binLocationID})
		if err != nil {
			return nil, fmt.Errorf("resolve bin location: %w", err)
		}
		info, ok := infos[*binLocationID]
		if !ok {
			return nil, shared.NewDomainError("UNKNOWN_BIN_LOCATION",
				fmt.Sprintf("Bin location %s does not exist", binLocationID))
		}
		if info.WarehouseID != warehouseID {
			return nil, shared.NewDomainError("BIN_LOCATION_MISMATCH",
				fmt.Sprintf("Bin location %s belongs to another warehouse", binLocationID))
		}
	}

	process, err := stocktaking.NewCountingProcess(warehouseID, binLocationID)
	if err != nil {
		return nil, err
	}
	if err := s.processes.Create(ctx, process); err != nil {
		return nil, fmt.Errorf("create counting process: %w", err)
	}
	return process, nil
}

// SubmitCounts records counted quantities on an open process. A product
// counted twice keeps the latest quantity.
func (s *CountingService) SubmitCounts(ctx context.Context, processID uuid.UUID, lines []CountLine) error {
	process, err := s.loadOpenProcess(ctx, processID)
	if err != nil {
		return err
	}

	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("resolve products: %w", err)
	}

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return shared.NewDomainError("UNKNOWN_PRODUCT",
				fmt.Sprintf("Product %s does not exist", line.ProductID))
		}
		if err := process.AddCount(line.ProductID, product.Number, line.Quantity); err != nil {
			return err
		}
	}
	if err := s.processes.Update(ctx, process); err != nil {
		return fmt.Errorf("persist counts: %w", err)
	}
	return nil
}

// Complete reconciles the count against the ledger snapshot and starts a
// headless correction import over the resulting rows. The process is
// marked completed before the import runs, so the same count can never
// correct the ledger twice.
func (s *CountingService) Complete(ctx context.Context, processID uuid.UUID) (*job.ResumableJob, error) {
	process, err := s.loadOpenProcess(ctx, processID)
	if err != nil {
		return nil, err
	}

	deltas, err := s.computeDeltas(ctx, process)
	if err != nil {
		return nil, err
	}

	warehouse, err := s.warehouses.FindByID(ctx, process.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("resolve warehouse: %w", err)
	}
	if warehouse == nil {
		return nil, shared.ErrNotFound
	}
	binCode := ""
	if process.BinLocationID != nil {
		infos, err := s.bins.FindByIDs(ctx, []uuid.UUID{*process.BinLocationID})
		if err != nil {
			return nil, fmt.Errorf("resolve bin location: %w", err)
		}
		if info, ok := infos[*process.BinLocationID]; ok {
			binCode = info.Code
		}
	}

	rows := stocktaking.BuildRelativeStockChangeRows(deltas, warehouse.Code, binCode)

	importJob, err := s.scheduler.CreateImport(ctx, RelativeStockChangeProfileName)
	if err != nil {
		return nil, fmt.Errorf("create correction import: %w", err)
	}
	if len(rows) > 0 {
		if err := s.stager.Stage(ctx, importJob.ID, 0, toImportRows(rows)); err != nil {
			return nil, fmt.Errorf("stage correction rows: %w", err)
		}
	}

	if err := process.MarkCompleted(importJob.ID); err != nil {
		return nil, err
	}
	if err := s.processes.Update(ctx, process); err != nil {
		return nil, fmt.Errorf("persist completion: %w", err)
	}

	if err := s.scheduler.ScheduleImport(ctx, importJob.ID, job.JobStateRunning); err != nil {
		return nil, fmt.Errorf("schedule correction import: %w", err)
	}

	s.logger.Info("counting process completed",
		zap.String("process_id", process.ID.String()),
		zap.String("import_job_id", importJob.ID.String()),
		zap.Int("corrections", len(rows)))
	return importJob, nil
}

// Valuation prices the corrections a completion would book right now,
// using each product's unit cost
func (s *CountingService) Valuation(ctx context.Context, processID uuid.UUID) ([]stocktaking.DifferenceValuationItem, decimal.Decimal, error) {
	process, err := s.processes.FindByID(ctx, processID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load counting process %s: %w", processID, err)
	}
	if process == nil {
		return nil, decimal.Zero, shared.ErrNotFound
	}

	deltas, err := s.computeDeltas(ctx, process)
	if err != nil {
		return nil, decimal.Zero, err
	}

	productIDs := make([]uuid.UUID, 0, len(deltas))
	for _, d := range deltas {
		productIDs = append(productIDs, d.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("resolve products: %w", err)
	}
	unitCosts := make(map[uuid.UUID]decimal.Decimal, len(products))
	for id, p := range products {
		unitCosts[id] = p.UnitCost
	}

	items, total := stocktaking.DifferenceValuation(deltas, unitCosts)
	return items, total, nil
}

func (s *CountingService) loadOpenProcess(ctx context.Context, processID uuid.UUID) (*stocktaking.CountingProcess, error) {
	process, err := s.processes.FindByID(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("load counting process %s: %w", processID, err)
	}
	if process == nil {
		return nil, shared.ErrNotFound
	}
	if process.IsCompleted() {
		return nil, shared.NewDomainError("COUNTING_PROCESS_ALREADY_COMPLETED",
			"Counting process has already produced a stock correction import")
	}
	return process, nil
}

// computeDeltas snapshots the ledger at the counted location and diffs
// the submission against it
func (s *CountingService) computeDeltas(ctx context.Context, process *stocktaking.CountingProcess) ([]stocktaking.CountDelta, error) {
	entries, err := s.entries.FindByLocation(ctx, process.Location())
	if err != nil {
		return nil, fmt.Errorf("snapshot expected stock: %w", err)
	}

	productIDs := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		productIDs = append(productIDs, e.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	expected := make([]stocktaking.ExpectedStock, 0, len(entries))
	for _, e := range entries {
		expected = append(expected, stocktaking.ExpectedStock{
			ProductID:     e.ProductID,
			ProductNumber: products[e.ProductID].Number,
			Quantity:      e.Quantity,
		})
	}
	return process.ComputeDeltas(expected), nil
}

// toImportRows renders correction rows in the generic importer's column
// format
func toImportRows(rows []stocktaking.RelativeStockChangeRow) []appjob.Row {
	out := make([]appjob.Row, len(rows))
	for i, r := range rows {
		out[i] = appjob.Row{
			columnProductNumber: r.ProductNumber,
			columnWarehouseCode: r.WarehouseCode,
			columnBinLocation:   r.BinLocation,
			columnChange:        strconv.Itoa(r.Change),
		}
	}
	return out
}
