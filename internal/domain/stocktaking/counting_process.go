package stocktaking

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stock"
	"gorm.io/datatypes"
)

// ProductCount is one counted line of a submission
type ProductCount struct {
	ProductID     uuid.UUID `json:"product_id"`
	ProductNumber string    `json:"product_number"`
	Quantity      int       `json:"quantity"`
}

// CountingProcess is a physical inventory count for one location: either a
// specific bin inside a warehouse, or the warehouse's uncategorized stock.
// Completion reconciles the counts against the ledger exactly once.
type CountingProcess struct {
	shared.BaseAggregateRoot
	WarehouseID   uuid.UUID                         `gorm:"type:uuid;not null;index"`
	BinLocationID *uuid.UUID                        `gorm:"type:uuid;index"`
	Counts        datatypes.JSONSlice[ProductCount] `gorm:"type:jsonb"`
	// ImportJobID references the reconciliation import this process
	// produced. Set once; a second completion attempt is rejected.
	ImportJobID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CountingProcess) TableName() string {
	return "counting_processes"
}

// NewCountingProcess creates a count submission for a warehouse's
// uncategorized stock, or for one bin when binLocationID is given
func NewCountingProcess(warehouseID uuid.UUID, binLocationID *uuid.UUID) (*CountingProcess, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if binLocationID != nil && *binLocationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BIN_LOCATION", "Bin location ID cannot be empty")
	}
	return &CountingProcess{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		WarehouseID:       warehouseID,
		BinLocationID:     binLocationID,
	}, nil
}

// AddCount records a counted product quantity. A product counted twice
// keeps the latest quantity.
func (p *CountingProcess) AddCount(productID uuid.UUID, productNumber string, quantity int) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Counted quantity cannot be negative")
	}
	for i, c := range p.Counts {
		if c.ProductID == productID {
			p.Counts[i].Quantity = quantity
			return nil
		}
	}
	p.Counts = append(p.Counts, ProductCount{
		ProductID:     productID,
		ProductNumber: productNumber,
		Quantity:      quantity,
	})
	return nil
}

// CountsBin returns true when the submission targets a specific bin
func (p *CountingProcess) CountsBin() bool {
	return p.BinLocationID != nil
}

// Location returns the ledger location this process counts: the bin, or
// the warehouse-level entry holding the uncategorized stock
func (p *CountingProcess) Location() stock.LocationRef {
	if p.BinLocationID != nil {
		return stock.BinLocationRef(*p.BinLocationID)
	}
	return stock.WarehouseLocation(p.WarehouseID)
}

// IsCompleted returns true once a reconciliation import was produced
func (p *CountingProcess) IsCompleted() bool {
	return p.ImportJobID != nil
}

// MarkCompleted stores the produced import's id. Rejects a second
// completion so the same count never corrects the ledger twice.
func (p *CountingProcess) MarkCompleted(importJobID uuid.UUID) error {
	if p.ImportJobID != nil {
		return shared.NewDomainError("COUNTING_PROCESS_ALREADY_COMPLETED",
			"Counting process has already produced a stock correction import")
	}
	if importJobID == uuid.Nil {
		return shared.NewDomainError("INVALID_JOB", "Import job ID cannot be empty")
	}
	p.ImportJobID = &importJobID
	return nil
}
