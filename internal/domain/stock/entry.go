package stock

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// LocationColumns is the flattened database representation of a LocationRef.
// Exactly one kind's column group is populated. It is embedded into ledger
// rows, with a role prefix on movement rows.
type LocationColumns struct {
	WarehouseID          *uuid.UUID `gorm:"type:uuid;index"`
	BinLocationID        *uuid.UUID `gorm:"type:uuid;index"`
	OrderID              *uuid.UUID `gorm:"type:uuid;index"`
	OrderVersionID       *uuid.UUID `gorm:"type:uuid"`
	ReturnOrderID        *uuid.UUID `gorm:"type:uuid;index"`
	ReturnOrderVersionID *uuid.UUID `gorm:"type:uuid"`
	SupplierOrderID      *uuid.UUID `gorm:"type:uuid;index"`
	StockContainerID     *uuid.UUID `gorm:"type:uuid;index"`
	SpecialLocation      *string    `gorm:"type:varchar(30);index"`
}

// NewLocationColumns converts a LocationRef to its column representation
func NewLocationColumns(ref LocationRef) LocationColumns {
	var c LocationColumns
	c.SetRef(ref)
	return c
}

// SetRef populates the column group for the reference's kind and clears
// all others
func (c *LocationColumns) SetRef(ref LocationRef) {
	*c = LocationColumns{}
	switch ref.Kind {
	case LocationKindWarehouse:
		c.WarehouseID = ptrUUID(ref.ID)
	case LocationKindBinLocation:
		c.BinLocationID = ptrUUID(ref.ID)
	case LocationKindOrder:
		c.OrderID = ptrUUID(ref.ID)
		c.OrderVersionID = ptrUUID(ref.VersionID)
	case LocationKindReturnOrder:
		c.ReturnOrderID = ptrUUID(ref.ID)
		c.ReturnOrderVersionID = ptrUUID(ref.VersionID)
	case LocationKindSupplierOrder:
		c.SupplierOrderID = ptrUUID(ref.ID)
	case LocationKindStockContainer:
		c.StockContainerID = ptrUUID(ref.ID)
	case LocationKindSpecial:
		s := string(ref.Special)
		c.SpecialLocation = &s
	}
}

// Ref reconstructs the LocationRef from the populated column group
func (c LocationColumns) Ref() LocationRef {
	switch {
	case c.BinLocationID != nil:
		return BinLocationRef(*c.BinLocationID)
	case c.WarehouseID != nil:
		return WarehouseLocation(*c.WarehouseID)
	case c.OrderID != nil:
		return OrderLocation(*c.OrderID, derefUUID(c.OrderVersionID))
	case c.ReturnOrderID != nil:
		return ReturnOrderLocation(*c.ReturnOrderID, derefUUID(c.ReturnOrderVersionID))
	case c.SupplierOrderID != nil:
		return SupplierOrderLocation(*c.SupplierOrderID)
	case c.StockContainerID != nil:
		return StockContainerLocation(*c.StockContainerID)
	case c.SpecialLocation != nil:
		return SpecialLocationRef(SpecialLocation(*c.SpecialLocation))
	}
	return LocationRef{}
}

func ptrUUID(id uuid.UUID) *uuid.UUID {
	return &id
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

// StockEntry is the materialized current quantity of one product at one
// location. Entries are maintained exclusively by applying movements; the
// sum over all internal locations equals the product's total stock.
type StockEntry struct {
	shared.BaseEntity
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_entry_product"`
	ProductVersionID uuid.UUID `gorm:"type:uuid;not null"`
	LocationColumns
	Quantity int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (StockEntry) TableName() string {
	return "stock_entries"
}

// NewStockEntry creates a stock entry for a product at a location
func NewStockEntry(productID, productVersionID uuid.UUID, ref LocationRef, quantity int) (*StockEntry, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	entry := &StockEntry{
		BaseEntity:       shared.NewBaseEntity(),
		ProductID:        productID,
		ProductVersionID: productVersionID,
		Quantity:         quantity,
	}
	entry.SetRef(ref)
	return entry, nil
}

// Location returns the entry's location reference
func (e *StockEntry) Location() LocationRef {
	return e.LocationColumns.Ref()
}

// IsInternal returns true if the entry sits at a physically real location
func (e *StockEntry) IsInternal() bool {
	return e.Location().IsInternal()
}

// IsNegativeViolation returns true when the entry breaks the non-negativity
// invariant: only virtual balancing locations may go below zero.
func (e *StockEntry) IsNegativeViolation() bool {
	return e.Quantity < 0 && !e.Location().IsSpecial()
}
