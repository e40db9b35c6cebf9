package stock

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// StockMovement is an immutable ledger record: quantity Q moved from a
// source location to a destination location. Applying a movement means
// StockEntry[source] -= Q and StockEntry[destination] += Q, atomically.
// Movements are never updated or deleted; replaying all movements for a
// product fully reconstructs its stock entries.
type StockMovement struct {
	shared.BaseEntity
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_product"`
	ProductVersionID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity         int             `gorm:"not null"`
	Source           LocationColumns `gorm:"embedded;embeddedPrefix:source_"`
	Destination      LocationColumns `gorm:"embedded;embeddedPrefix:destination_"`
	Comment          string          `gorm:"type:varchar(255)"`
	UserID           *uuid.UUID      `gorm:"type:uuid"`
	// Human-readable snapshots of the locations at movement time, for
	// audit and display. Best effort: empty when resolution failed.
	SourceSnapshot      string `gorm:"type:varchar(255)"`
	DestinationSnapshot string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a movement of quantity units from source to
// destination. A negative quantity is normalized by swapping the two sides
// and negating; a zero quantity is rejected.
func NewStockMovement(productID, productVersionID uuid.UUID, quantity int, source, destination LocationRef) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	if quantity < 0 {
		source, destination = destination, source
		quantity = -quantity
	}
	if err := source.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}
	if source.Equal(destination) {
		return nil, shared.NewDomainError("INVALID_LOCATION_COMBINATION",
			"Source and destination of a movement must differ")
	}

	m := &StockMovement{
		BaseEntity:       shared.NewBaseEntity(),
		ProductID:        productID,
		ProductVersionID: productVersionID,
		Quantity:         quantity,
	}
	m.Source.SetRef(source)
	m.Destination.SetRef(destination)
	return m, nil
}

// WithComment sets the free-text comment
func (m *StockMovement) WithComment(comment string) *StockMovement {
	m.Comment = comment
	return m
}

// WithUserID records the acting user
func (m *StockMovement) WithUserID(userID uuid.UUID) *StockMovement {
	m.UserID = &userID
	return m
}

// SourceRef returns the source location reference
func (m *StockMovement) SourceRef() LocationRef {
	return m.Source.Ref()
}

// DestinationRef returns the destination location reference
func (m *StockMovement) DestinationRef() LocationRef {
	return m.Destination.Ref()
}

// ValidateCombination checks the source/destination kind pairing. The only
// restricted direction: stock landing on a return order must come from an
// order.
func (m *StockMovement) ValidateCombination() *LocationPair {
	src, dst := m.SourceRef(), m.DestinationRef()
	if dst.Kind == LocationKindReturnOrder && src.Kind != LocationKindOrder {
		return &LocationPair{Source: src, Destination: dst}
	}
	return nil
}

// TouchesOrder returns the ids of orders referenced on either side
func (m *StockMovement) TouchesOrder() []uuid.UUID {
	var ids []uuid.UUID
	if m.Source.OrderID != nil {
		ids = append(ids, *m.Source.OrderID)
	}
	if m.Destination.OrderID != nil {
		ids = append(ids, *m.Destination.OrderID)
	}
	return ids
}

// ValidateCombinations checks all movements of a batch and collects every
// offending pair. Violations are reported together, not fail-fast, so the
// caller sees the full problem in one pass.
func ValidateCombinations(movements []*StockMovement) error {
	var pairs []LocationPair
	for _, m := range movements {
		if pair := m.ValidateCombination(); pair != nil {
			pairs = append(pairs, *pair)
		}
	}
	if len(pairs) > 0 {
		return &InvalidLocationCombinationError{Pairs: pairs}
	}
	return nil
}
