package persistence

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Read-model rows for entities the stock core consumes but does not own.
// Their schemas are maintained by the owning subsystems; the stock core
// only queries them.

// productRow mirrors the product master data the stock core reads
type productRow struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VersionID uuid.UUID       `gorm:"type:uuid;not null"`
	Number    string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name      string          `gorm:"type:varchar(255)"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2)"`
}

func (productRow) TableName() string { return "products" }

// warehouseRow mirrors the warehouse master data
type warehouseRow struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name string    `gorm:"type:varchar(255)"`
}

func (warehouseRow) TableName() string { return "warehouses" }

// binLocationRow mirrors the bin location master data
type binLocationRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;index"`
	Code        string    `gorm:"type:varchar(50);not null"`
	IsDefault   bool      `gorm:"not null;default:false"`
}

func (binLocationRow) TableName() string { return "bin_locations" }

// orderRow mirrors the sales order header
type orderRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	VersionID uuid.UUID `gorm:"type:uuid;not null"`
	Number    string    `gorm:"type:varchar(100);not null"`
	State     string    `gorm:"type:varchar(30);not null;index"`
}

func (orderRow) TableName() string { return "orders" }

// orderLineItemRow mirrors one ordered position
type orderLineItemRow struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductVersionID uuid.UUID `gorm:"type:uuid;not null"`
	ProductNumber    string    `gorm:"type:varchar(100)"`
	Quantity         int       `gorm:"not null"`
}

func (orderLineItemRow) TableName() string { return "order_line_items" }

// orderDeliveryRow mirrors one shipment of an order
type orderDeliveryRow struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	State        string          `gorm:"type:varchar(30);not null"`
	ShippingCost decimal.Decimal `gorm:"type:decimal(12,2)"`
}

func (orderDeliveryRow) TableName() string { return "order_deliveries" }

// Rows owned by the job pipeline itself.

// stagedRow buffers one import/export row between pipeline phases
type stagedRow struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	JobID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_staged_row_job_position"`
	Position  int            `gorm:"not null;uniqueIndex:idx_staged_row_job_position"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
}

func (stagedRow) TableName() string { return "job_staged_rows" }

// jobDocumentRow stores the metadata of a file attached to a job
type jobDocumentRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Name      string    `gorm:"type:varchar(255);not null"`
	MimeType  string    `gorm:"type:varchar(100);not null"`
	CreatedAt time.Time
}

func (jobDocumentRow) TableName() string { return "job_documents" }
