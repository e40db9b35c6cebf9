package stocktaking

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpectedStock is one product's ledger quantity at the counted location,
// snapshotted at completion time
type ExpectedStock struct {
	ProductID     uuid.UUID
	ProductNumber string
	Quantity      int
}

// CountDelta is the reconciliation result for one product: the counted
// quantity against the snapshot, and the signed correction it implies
type CountDelta struct {
	ProductID     uuid.UUID
	ProductNumber string
	Expected      int
	Counted       int
	Delta         int
}

// ComputeDeltas diffs a submission against the expected-quantity snapshot.
// For a counted bin, a product with expected stock but no submitted count
// counts as confirmed zero. For a warehouse's uncategorized stock only the
// explicitly listed products are considered.
func (p *CountingProcess) ComputeDeltas(expected []ExpectedStock) []CountDelta {
	expectedByProduct := make(map[uuid.UUID]ExpectedStock, len(expected))
	for _, e := range expected {
		expectedByProduct[e.ProductID] = e
	}

	var deltas []CountDelta
	seen := make(map[uuid.UUID]bool, len(p.Counts))
	for _, c := range p.Counts {
		seen[c.ProductID] = true
		e := expectedByProduct[c.ProductID]
		number := c.ProductNumber
		if number == "" {
			number = e.ProductNumber
		}
		deltas = append(deltas, CountDelta{
			ProductID:     c.ProductID,
			ProductNumber: number,
			Expected:      e.Quantity,
			Counted:       c.Quantity,
			Delta:         c.Quantity - e.Quantity,
		})
	}

	if p.CountsBin() {
		// absence means confirmed empty, not unknown
		for _, e := range expected {
			if seen[e.ProductID] {
				continue
			}
			deltas = append(deltas, CountDelta{
				ProductID:     e.ProductID,
				ProductNumber: e.ProductNumber,
				Expected:      e.Quantity,
				Counted:       0,
				Delta:         -e.Quantity,
			})
		}
	}
	return deltas
}

// UnknownBinLocationSentinel marks the warehouse's uncategorized location
// in relative stock change rows
const UnknownBinLocationSentinel = "unknown"

// RelativeStockChangeRow is the row shape fed to the generic importer.
// The key names are part of the import contract and must stay verbatim.
type RelativeStockChangeRow struct {
	ProductNumber string `json:"product number"`
	WarehouseCode string `json:"warehouse code"`
	BinLocation   string `json:"bin location"`
	Change        int    `json:"change"`
}

// BuildRelativeStockChangeRows converts non-zero deltas into importer
// rows. binLocationCode is empty for warehouse-level counts, which map to
// the "unknown" sentinel.
func BuildRelativeStockChangeRows(deltas []CountDelta, warehouseCode, binLocationCode string) []RelativeStockChangeRow {
	if binLocationCode == "" {
		binLocationCode = UnknownBinLocationSentinel
	}
	var rows []RelativeStockChangeRow
	for _, d := range deltas {
		if d.Delta == 0 {
			continue
		}
		rows = append(rows, RelativeStockChangeRow{
			ProductNumber: d.ProductNumber,
			WarehouseCode: warehouseCode,
			BinLocation:   binLocationCode,
			Change:        d.Delta,
		})
	}
	return rows
}

// DifferenceValuationItem prices one correction: quantity difference times
// unit cost. Feeds the numbers for correction documents.
type DifferenceValuationItem struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductNumber string          `json:"product_number"`
	Delta         int             `json:"delta"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Value         decimal.Decimal `json:"value"`
}

// DifferenceValuation prices every non-zero delta with the given unit
// costs. Products without a known cost are valued at zero.
func DifferenceValuation(deltas []CountDelta, unitCosts map[uuid.UUID]decimal.Decimal) ([]DifferenceValuationItem, decimal.Decimal) {
	total := decimal.Zero
	var items []DifferenceValuationItem
	for _, d := range deltas {
		if d.Delta == 0 {
			continue
		}
		cost := unitCosts[d.ProductID]
		value := cost.Mul(decimal.NewFromInt(int64(d.Delta)))
		items = append(items, DifferenceValuationItem{
			ProductID:     d.ProductID,
			ProductNumber: d.ProductNumber,
			Delta:         d.Delta,
			UnitCost:      cost,
			Value:         value,
		})
		total = total.Add(value)
	}
	return items, total
}
