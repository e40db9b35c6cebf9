package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormOrderReadModel implements OrderReadModel over the order subsystem's
// tables. Read-only: the stock core never writes orders.
type GormOrderReadModel struct {
	db *gorm.DB
}

// NewGormOrderReadModel creates a new GormOrderReadModel
func NewGormOrderReadModel(db *gorm.DB) *GormOrderReadModel {
	return &GormOrderReadModel{db: db}
}

// FindByID returns one order with its line items and deliveries, or nil
func (r *GormOrderReadModel) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	orders, err := r.FindByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return orders[0], nil
}

// FindByIDs returns the given orders with their line items and deliveries
func (r *GormOrderReadModel) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*order.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var headers []orderRow
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&headers).Error; err != nil {
		return nil, err
	}
	return r.assemble(ctx, headers)
}

// FindOpenByProducts returns every stock-reserving order with a line item
// for one of the given products
func (r *GormOrderReadModel) FindOpenByProducts(ctx context.Context, productIDs []uuid.UUID) ([]*order.Order, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var headers []orderRow
	if err := r.db.WithContext(ctx).
		Where("state IN ?", openOrderStates()).
		Where("id IN (?)", r.db.
			Model(&orderLineItemRow{}).
			Select("order_id").
			Where("product_id IN ?", productIDs)).
		Find(&headers).Error; err != nil {
		return nil, err
	}
	return r.assemble(ctx, headers)
}

// FindOpenOrderIDs returns the ids of all stock-reserving orders
func (r *GormOrderReadModel) FindOpenOrderIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&orderRow{}).
		Select("id").
		Where("state IN ?", openOrderStates()).
		Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindCompletedByProducts returns completed orders touching the given
// products, for the sales rebuild
func (r *GormOrderReadModel) FindCompletedByProducts(ctx context.Context, productIDs []uuid.UUID) ([]*order.Order, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var headers []orderRow
	if err := r.db.WithContext(ctx).
		Where("state = ?", string(order.OrderStateCompleted)).
		Where("id IN (?)", r.db.
			Model(&orderLineItemRow{}).
			Select("order_id").
			Where("product_id IN ?", productIDs)).
		Find(&headers).Error; err != nil {
		return nil, err
	}
	return r.assemble(ctx, headers)
}

// ProductIDsInCompletedOrders returns the distinct products appearing on
// any completed order
func (r *GormOrderReadModel) ProductIDsInCompletedOrders(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&orderLineItemRow{}).
		Distinct("product_id").
		Where("order_id IN (?)", r.db.
			Model(&orderRow{}).
			Select("id").
			Where("state = ?", string(order.OrderStateCompleted))).
		Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// assemble loads line items and deliveries for the given headers and maps
// the rows into the domain read model
func (r *GormOrderReadModel) assemble(ctx context.Context, headers []orderRow) ([]*order.Order, error) {
	if len(headers) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(headers))
	for i, h := range headers {
		ids[i] = h.ID
	}

	var lineItems []orderLineItemRow
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", ids).
		Order("id").
		Find(&lineItems).Error; err != nil {
		return nil, err
	}
	var deliveries []orderDeliveryRow
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", ids).
		Order("id").
		Find(&deliveries).Error; err != nil {
		return nil, err
	}

	linesByOrder := make(map[uuid.UUID][]order.LineItem)
	for _, li := range lineItems {
		linesByOrder[li.OrderID] = append(linesByOrder[li.OrderID], order.LineItem{
			ProductID:        li.ProductID,
			ProductVersionID: li.ProductVersionID,
			ProductNumber:    li.ProductNumber,
			Quantity:         li.Quantity,
		})
	}
	deliveriesByOrder := make(map[uuid.UUID][]order.Delivery)
	for _, d := range deliveries {
		deliveriesByOrder[d.OrderID] = append(deliveriesByOrder[d.OrderID], order.Delivery{
			ID:           d.ID,
			State:        order.DeliveryState(d.State),
			ShippingCost: d.ShippingCost,
		})
	}

	orders := make([]*order.Order, len(headers))
	for i, h := range headers {
		orders[i] = &order.Order{
			ID:         h.ID,
			VersionID:  h.VersionID,
			Number:     h.Number,
			State:      order.OrderState(h.State),
			LineItems:  linesByOrder[h.ID],
			Deliveries: deliveriesByOrder[h.ID],
		}
	}
	return orders, nil
}

func openOrderStates() []string {
	return []string{
		string(order.OrderStateOpen),
		string(order.OrderStateInProgress),
	}
}

var _ order.OrderReadModel = (*GormOrderReadModel)(nil)
