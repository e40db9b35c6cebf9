package stock

import (
	"context"
	"strconv"

	appjob "github.com/wms/backend/internal/application/job"
	"github.com/wms/backend/internal/domain/stock"
)

// WarehouseStockExportProfileName is the technical name of the
// per-warehouse stock level export
const WarehouseStockExportProfileName = "warehouse-stock"

// WarehouseStockExportProfile streams the per-warehouse rollups into a
// CSV artifact, one row per product and warehouse
type WarehouseStockExportProfile struct {
	warehouseStockRepo stock.WarehouseStockRepository
}

// NewWarehouseStockExportProfile creates the stock level export profile
func NewWarehouseStockExportProfile(warehouseStockRepo stock.WarehouseStockRepository) *WarehouseStockExportProfile {
	return &WarehouseStockExportProfile{warehouseStockRepo: warehouseStockRepo}
}

// TechnicalName identifies the profile in job rows
func (p *WarehouseStockExportProfile) TechnicalName() string {
	return WarehouseStockExportProfileName
}

// FetchChunk returns one page of rollup rows plus the total count
func (p *WarehouseStockExportProfile) FetchChunk(ctx context.Context, offset, limit int) ([]appjob.Row, int, error) {
	rows, total, err := p.warehouseStockRepo.ListPaged(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	out := make([]appjob.Row, len(rows))
	for i, row := range rows {
		out[i] = appjob.Row{
			"product id":   row.ProductID.String(),
			"warehouse id": row.WarehouseID.String(),
			"quantity":     strconv.Itoa(row.Quantity),
		}
	}
	return out, int(total), nil
}

// Header returns the output file's header record
func (p *WarehouseStockExportProfile) Header() []string {
	return []string{"product id", "warehouse id", "quantity"}
}

// FormatRow renders one rollup row as an output record
func (p *WarehouseStockExportProfile) FormatRow(row appjob.Row) []string {
	return []string{row["product id"], row["warehouse id"], row["quantity"]}
}

var _ appjob.ExportProfile = (*WarehouseStockExportProfile)(nil)
