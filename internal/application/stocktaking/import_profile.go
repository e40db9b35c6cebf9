package stocktaking

import (
	"context"
	"fmt"
	"strconv"

	appjob "github.com/wms/backend/internal/application/job"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stock"
	"github.com/wms/backend/internal/domain/stocktaking"
)

// RelativeStockChangeProfileName is the technical name of the generic
// correction importer
const RelativeStockChangeProfileName = "relative-stock-change"

// Column names of a relative stock change row. Part of the import
// contract, also consumed by externally produced files.
const (
	columnProductNumber = "product number"
	columnWarehouseCode = "warehouse code"
	columnBinLocation   = "bin location"
	columnChange        = "change"
)

// RelativeStockChangeProfile applies signed per-product corrections as
// movements against the stocktaking location. Stocktake completions feed
// it headless with pre-staged rows; it has no configured reader.
type RelativeStockChangeProfile struct {
	products   ProductDirectory
	warehouses WarehouseDirectory
	bins       stock.BinLocationDirectory
	mover      StockMover
}

// NewRelativeStockChangeProfile creates the correction import profile
func NewRelativeStockChangeProfile(products ProductDirectory, warehouses WarehouseDirectory, bins stock.BinLocationDirectory, mover StockMover) *RelativeStockChangeProfile {
	return &RelativeStockChangeProfile{
		products:   products,
		warehouses: warehouses,
		bins:       bins,
		mover:      mover,
	}
}

// TechnicalName identifies the profile in job rows
func (p *RelativeStockChangeProfile) TechnicalName() string {
	return RelativeStockChangeProfileName
}

// Reader returns nil, the profile only runs over pre-staged rows
func (p *RelativeStockChangeProfile) Reader() appjob.RowReader {
	return nil
}

// ValidateHeader is a no-op, headless imports carry no header
func (p *RelativeStockChangeProfile) ValidateHeader(_ []string) error {
	return nil
}

// ProcessRow turns one correction row into a ledger movement. A positive
// change moves stock out of the stocktaking location into the target, a
// negative change books the surplus back out.
func (p *RelativeStockChangeProfile) ProcessRow(ctx context.Context, row appjob.Row) error {
	change, err := strconv.Atoi(row[columnChange])
	if err != nil {
		return shared.NewDomainError("INVALID_CHANGE",
			fmt.Sprintf("Change %q is not a number", row[columnChange]))
	}
	if change == 0 {
		return nil
	}

	product, err := p.products.FindByNumber(ctx, row[columnProductNumber])
	if err != nil {
		return fmt.Errorf("resolve product: %w", err)
	}
	if product == nil {
		return shared.NewDomainError("UNKNOWN_PRODUCT",
			fmt.Sprintf("Unknown product number %q", row[columnProductNumber]))
	}

	target, err := p.resolveTarget(ctx, row[columnWarehouseCode], row[columnBinLocation])
	if err != nil {
		return err
	}

	movement, err := stock.NewStockMovement(product.ID, product.VersionID, change,
		stock.SpecialLocationRef(stock.SpecialLocationStocktaking), target)
	if err != nil {
		return err
	}
	movement.WithComment("stocktaking correction")
	return p.mover.MoveStock(ctx, []*stock.StockMovement{movement}, nil)
}

// resolveTarget maps the warehouse and bin columns to a ledger location.
// The "unknown" sentinel and an empty bin column both address the
// warehouse's uncategorized stock.
func (p *RelativeStockChangeProfile) resolveTarget(ctx context.Context, warehouseCode, binCode string) (stock.LocationRef, error) {
	warehouse, err := p.warehouses.FindByCode(ctx, warehouseCode)
	if err != nil {
		return stock.LocationRef{}, fmt.Errorf("resolve warehouse: %w", err)
	}
	if warehouse == nil {
		return stock.LocationRef{}, shared.NewDomainError("UNKNOWN_WAREHOUSE",
			fmt.Sprintf("Unknown warehouse code %q", warehouseCode))
	}

	if binCode == "" || binCode == stocktaking.UnknownBinLocationSentinel {
		return stock.WarehouseLocation(warehouse.ID), nil
	}

	bins, err := p.bins.FindByWarehouse(ctx, warehouse.ID)
	if err != nil {
		return stock.LocationRef{}, fmt.Errorf("resolve bin locations: %w", err)
	}
	for _, bin := range bins {
		if bin.Code == binCode {
			return stock.BinLocationRef(bin.ID), nil
		}
	}
	return stock.LocationRef{}, shared.NewDomainError("UNKNOWN_BIN_LOCATION",
		fmt.Sprintf("Warehouse %q has no bin location %q", warehouseCode, binCode))
}

var _ appjob.ImportProfile = (*RelativeStockChangeProfile)(nil)
