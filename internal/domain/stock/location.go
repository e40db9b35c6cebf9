package stock

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// LocationKind discriminates the closed set of stock location kinds.
type LocationKind string

const (
	LocationKindWarehouse      LocationKind = "warehouse"
	LocationKindBinLocation    LocationKind = "bin_location"
	LocationKindOrder          LocationKind = "order"
	LocationKindReturnOrder    LocationKind = "return_order"
	LocationKindSupplierOrder  LocationKind = "supplier_order"
	LocationKindStockContainer LocationKind = "stock_container"
	LocationKindSpecial        LocationKind = "special_stock_location"
)

// String returns the string representation of LocationKind
func (k LocationKind) String() string {
	return string(k)
}

// IsValid returns true if the location kind is part of the closed set
func (k LocationKind) IsValid() bool {
	switch k {
	case LocationKindWarehouse, LocationKindBinLocation, LocationKindOrder,
		LocationKindReturnOrder, LocationKindSupplierOrder,
		LocationKindStockContainer, LocationKindSpecial:
		return true
	}
	return false
}

// IsInternal returns true for physically real locations. Internal locations
// carry the non-negativity invariant; all others are counterparty accounts.
func (k LocationKind) IsInternal() bool {
	return k == LocationKindWarehouse || k == LocationKindBinLocation
}

// IsVersioned returns true for kinds whose referenced entity is versioned
// (snapshot-capable) and therefore needs a version id alongside the key.
func (k LocationKind) IsVersioned() bool {
	return k == LocationKindOrder || k == LocationKindReturnOrder
}

// SpecialLocation names a virtual balancing location. Special locations are
// the counterparty for stock entering or leaving the tracked system and are
// allowed to hold negative quantities.
type SpecialLocation string

const (
	SpecialLocationUnknown         SpecialLocation = "unknown"
	SpecialLocationInitialization  SpecialLocation = "initialization"
	SpecialLocationStockCorrection SpecialLocation = "stock_correction"
	SpecialLocationImport          SpecialLocation = "import"
	SpecialLocationStocktaking     SpecialLocation = "stocktaking"
)

// String returns the string representation of SpecialLocation
func (s SpecialLocation) String() string {
	return string(s)
}

// IsValid returns true if the special location name is known
func (s SpecialLocation) IsValid() bool {
	switch s {
	case SpecialLocationUnknown, SpecialLocationInitialization,
		SpecialLocationStockCorrection, SpecialLocationImport,
		SpecialLocationStocktaking:
		return true
	}
	return false
}

// LocationRef identifies where stock sits. It is an immutable value: a kind
// tag plus the referenced entity's primary key (and, for versioned kinds,
// its version id), or a special location name. Equality is structural.
type LocationRef struct {
	Kind      LocationKind    `json:"kind"`
	ID        uuid.UUID       `json:"id,omitempty"`
	VersionID uuid.UUID       `json:"version_id,omitempty"`
	Special   SpecialLocation `json:"special,omitempty"`
}

// WarehouseLocation creates a reference to a warehouse
func WarehouseLocation(id uuid.UUID) LocationRef {
	return LocationRef{Kind: LocationKindWarehouse, ID: id}
}

// BinLocationRef creates a reference to a bin location inside a warehouse
func BinLocationRef(id uuid.UUID) LocationRef {
	return LocationRef{Kind: LocationKindBinLocation, ID: id}
}

// OrderLocation creates a reference to a (versioned) sales order
func OrderLocation(id, versionID uuid.UUID) LocationRef {
	return LocationRef{Kind: LocationKindOrder, ID: id, VersionID: versionID}
}

// ReturnOrderLocation creates a reference to a (versioned) return order
func ReturnOrderLocation(id, versionID uuid.UUID) LocationRef {
	return LocationRef{Kind: LocationKindReturnOrder, ID: id, VersionID: versionID}
}

// SupplierOrderLocation creates a reference to a supplier order
func SupplierOrderLocation(id uuid.UUID) LocationRef {
	return LocationRef{Kind: LocationKindSupplierOrder, ID: id}
}

// StockContainerLocation creates a reference to a stock container
func StockContainerLocation(id uuid.UUID) LocationRef {
	return LocationRef{Kind: LocationKindStockContainer, ID: id}
}

// SpecialLocationRef creates a reference to a named virtual location
func SpecialLocationRef(name SpecialLocation) LocationRef {
	return LocationRef{Kind: LocationKindSpecial, Special: name}
}

// Equal reports structural equality (kind + key + version)
func (l LocationRef) Equal(other LocationRef) bool {
	return l.Kind == other.Kind &&
		l.ID == other.ID &&
		l.VersionID == other.VersionID &&
		l.Special == other.Special
}

// IsInternal returns true for physically real locations
func (l LocationRef) IsInternal() bool {
	return l.Kind.IsInternal()
}

// IsSpecial returns true for virtual balancing locations
func (l LocationRef) IsSpecial() bool {
	return l.Kind == LocationKindSpecial
}

// IsZero returns true for the zero value (no location)
func (l LocationRef) IsZero() bool {
	return l.Kind == ""
}

// String returns a human-readable representation
func (l LocationRef) String() string {
	if l.IsSpecial() {
		return fmt.Sprintf("%s(%s)", l.Kind, l.Special)
	}
	if l.Kind.IsVersioned() {
		return fmt.Sprintf("%s(%s@%s)", l.Kind, l.ID, l.VersionID)
	}
	return fmt.Sprintf("%s(%s)", l.Kind, l.ID)
}

// Validate checks that the reference is structurally complete
func (l LocationRef) Validate() error {
	if !l.Kind.IsValid() {
		return shared.NewDomainError("INVALID_LOCATION_REFERENCE",
			fmt.Sprintf("Unknown location kind: %q", l.Kind))
	}
	if l.IsSpecial() {
		if !l.Special.IsValid() {
			return shared.NewDomainError("INVALID_LOCATION_REFERENCE",
				fmt.Sprintf("Unknown special location: %q", l.Special))
		}
		return nil
	}
	if l.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_LOCATION_REFERENCE",
			fmt.Sprintf("Location of kind %s requires a primary key", l.Kind))
	}
	if l.Kind.IsVersioned() && l.VersionID == uuid.Nil {
		return shared.NewDomainError("INVALID_LOCATION_REFERENCE",
			fmt.Sprintf("Location of kind %s requires a version id", l.Kind))
	}
	return nil
}

// MovementRole names the side of a movement a location plays
type MovementRole string

const (
	RoleSource      MovementRole = "source"
	RoleDestination MovementRole = "destination"
)

// Columns returns the database column/value pairs that persist this
// reference under the given role, following the `{role}_{kind}_{field}`
// naming convention.
func (l LocationRef) Columns(role MovementRole) map[string]interface{} {
	cols := make(map[string]interface{})
	switch l.Kind {
	case LocationKindWarehouse:
		cols[string(role)+"_warehouse_id"] = l.ID
	case LocationKindBinLocation:
		cols[string(role)+"_bin_location_id"] = l.ID
	case LocationKindOrder:
		cols[string(role)+"_order_id"] = l.ID
		cols[string(role)+"_order_version_id"] = l.VersionID
	case LocationKindReturnOrder:
		cols[string(role)+"_return_order_id"] = l.ID
		cols[string(role)+"_return_order_version_id"] = l.VersionID
	case LocationKindSupplierOrder:
		cols[string(role)+"_supplier_order_id"] = l.ID
	case LocationKindStockContainer:
		cols[string(role)+"_stock_container_id"] = l.ID
	case LocationKindSpecial:
		cols[string(role)+"_special_location"] = string(l.Special)
	}
	return cols
}

// Condition returns an SQL equality predicate and its arguments selecting
// ledger rows at this location. Used by repositories to filter StockEntry
// and StockMovement queries.
func (l LocationRef) Condition() (string, []interface{}) {
	switch l.Kind {
	case LocationKindWarehouse:
		return "warehouse_id = ? AND bin_location_id IS NULL", []interface{}{l.ID}
	case LocationKindBinLocation:
		return "bin_location_id = ?", []interface{}{l.ID}
	case LocationKindOrder:
		return "order_id = ? AND order_version_id = ?", []interface{}{l.ID, l.VersionID}
	case LocationKindReturnOrder:
		return "return_order_id = ? AND return_order_version_id = ?", []interface{}{l.ID, l.VersionID}
	case LocationKindSupplierOrder:
		return "supplier_order_id = ?", []interface{}{l.ID}
	case LocationKindStockContainer:
		return "stock_container_id = ?", []interface{}{l.ID}
	case LocationKindSpecial:
		return "special_location = ?", []interface{}{string(l.Special)}
	}
	return "1 = 0", nil
}

// locationPayload is the keyed-variant wire shape for non-special kinds
type locationPayload struct {
	ID        uuid.UUID `json:"id"`
	VersionID uuid.UUID `json:"version_id,omitempty"`
}

// MarshalJSON serializes to the keyed-variant representation:
// `{"warehouse": {"id": "..."}}`, or a bare string for special locations.
func (l LocationRef) MarshalJSON() ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if l.IsSpecial() {
		return json.Marshal(string(l.Special))
	}
	return json.Marshal(map[string]locationPayload{
		string(l.Kind): {ID: l.ID, VersionID: l.VersionID},
	})
}

// UnmarshalJSON parses the keyed-variant representation. An unrecognized
// shape fails with INVALID_LOCATION_REFERENCE.
func (l *LocationRef) UnmarshalJSON(data []byte) error {
	var special string
	if err := json.Unmarshal(data, &special); err == nil {
		ref := SpecialLocationRef(SpecialLocation(special))
		if err := ref.Validate(); err != nil {
			return err
		}
		*l = ref
		return nil
	}

	var variant map[string]locationPayload
	if err := json.Unmarshal(data, &variant); err != nil {
		return shared.NewDomainError("INVALID_LOCATION_REFERENCE",
			"Location reference must be a keyed variant object or a special location name")
	}
	if len(variant) != 1 {
		return shared.NewDomainError("INVALID_LOCATION_REFERENCE",
			fmt.Sprintf("Location reference must have exactly one kind key, got %d", len(variant)))
	}
	for kind, payload := range variant {
		ref := LocationRef{Kind: LocationKind(kind), ID: payload.ID, VersionID: payload.VersionID}
		if err := ref.Validate(); err != nil {
			return err
		}
		*l = ref
	}
	return nil
}
