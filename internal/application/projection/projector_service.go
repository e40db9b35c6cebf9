package projection

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/order"
	"github.com/wms/backend/internal/domain/projection"
	"github.com/wms/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// upsertBatchSize bounds one projection write. Empirically tuned in the
// original deployment; larger batches stall the row locks too long.
const upsertBatchSize = 5000

// ProjectorService keeps the derived per-product stock aggregates and the
// per-order pickability classifications consistent with the ledger and
// the order read model. Each trigger re-derives only the affected subset,
// never the whole dataset.
type ProjectorService struct {
	scope  TransactionScope
	orders order.OrderReadModel
	logger *zap.Logger
}

// NewProjectorService creates a projector
func NewProjectorService(
	scope TransactionScope,
	orders order.OrderReadModel,
	logger *zap.Logger,
) *ProjectorService {
	return &ProjectorService{
		scope:  scope,
		orders: orders,
		logger: logger,
	}
}

// RecomputeForProducts re-derives stock, reserved stock and available
// stock for the given products, plus the pickability of every open order
// touching them.
//
// available = stock − Σ max(0, line quantity − quantity already moved
// into the order) over stock-reserving orders. Orders outside the open
// set never contribute and never re-trigger recomputation.
//
// The whole derivation runs in one transaction. Locking the summary rows
// first serializes concurrent recomputes of the same products, so a
// recompute triggered by an older ledger state cannot overwrite the
// result of a newer one.
func (s *ProjectorService) RecomputeForProducts(ctx context.Context, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}

	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.SummaryRepo().LockByProducts(ctx, productIDs); err != nil {
			return fmt.Errorf("lock stock summaries: %w", err)
		}

		stockSums, err := repos.EntryRepo().SumInternalByProduct(ctx, productIDs)
		if err != nil {
			return fmt.Errorf("sum internal stock: %w", err)
		}

		openOrders, err := repos.Orders().FindOpenByProducts(ctx, productIDs)
		if err != nil {
			return fmt.Errorf("load open orders: %w", err)
		}

		wanted := make(map[uuid.UUID]bool, len(productIDs))
		for _, id := range productIDs {
			wanted[id] = true
		}

		reserved := make(map[uuid.UUID]int, len(productIDs))
		for _, o := range openOrders {
			if !o.ReservesStock() {
				continue
			}
			moved, err := movedIntoOrder(ctx, repos, o)
			if err != nil {
				return err
			}
			for _, li := range o.LineItems {
				if !wanted[li.ProductID] {
					continue
				}
				remaining := li.Quantity - moved[li.ProductID]
				if remaining > 0 {
					reserved[li.ProductID] += remaining
				}
			}
		}

		summaries := make([]*projection.ProductStockSummary, 0, len(productIDs))
		for _, id := range productIDs {
			summaries = append(summaries, projection.NewProductStockSummary(id, stockSums[id], reserved[id]))
		}

		pickabilities, err := classifyOrders(ctx, repos, openOrders)
		if err != nil {
			return err
		}

		for _, chunk := range chunkSummaries(summaries, upsertBatchSize) {
			if err := repos.SummaryRepo().UpsertBatch(ctx, chunk); err != nil {
				return fmt.Errorf("upsert stock summaries: %w", err)
			}
		}
		for _, chunk := range chunkPickabilities(pickabilities, upsertBatchSize) {
			if err := repos.PickabilityRepo().UpsertBatch(ctx, chunk); err != nil {
				return fmt.Errorf("upsert pickabilities: %w", err)
			}
		}
		return nil
	})
}

// RecomputeForOrders re-derives the aggregates for every product the
// given orders touch. Used when an order, line item or delivery is
// written.
func (s *ProjectorService) RecomputeForOrders(ctx context.Context, orderIDs []uuid.UUID) error {
	if len(orderIDs) == 0 {
		return nil
	}
	orders, err := s.orders.FindByIDs(ctx, orderIDs)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	var productIDs []uuid.UUID
	var closedOrders []uuid.UUID
	for _, o := range orders {
		if !o.ReservesStock() {
			closedOrders = append(closedOrders, o.ID)
		}
		for _, id := range o.ProductIDs() {
			if !seen[id] {
				seen[id] = true
				productIDs = append(productIDs, id)
			}
		}
	}

	if len(closedOrders) > 0 {
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			return repos.PickabilityRepo().DeleteByOrders(ctx, closedOrders)
		})
		if err != nil {
			return fmt.Errorf("drop closed order pickabilities: %w", err)
		}
	}

	return s.RecomputeForProducts(ctx, productIDs)
}

// RebuildSales recomputes the cumulative sold quantity of the given
// products from completed orders. Runs on a schedule, not per event.
func (s *ProjectorService) RebuildSales(ctx context.Context, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.SummaryRepo().LockByProducts(ctx, productIDs); err != nil {
			return fmt.Errorf("lock stock summaries: %w", err)
		}

		completed, err := repos.Orders().FindCompletedByProducts(ctx, productIDs)
		if err != nil {
			return fmt.Errorf("load completed orders: %w", err)
		}

		wanted := make(map[uuid.UUID]bool, len(productIDs))
		for _, id := range productIDs {
			wanted[id] = true
		}
		sales := make(map[uuid.UUID]int, len(productIDs))
		for _, o := range completed {
			for _, li := range o.LineItems {
				if wanted[li.ProductID] {
					sales[li.ProductID] += li.Quantity
				}
			}
		}

		existing, err := repos.SummaryRepo().FindByProducts(ctx, productIDs)
		if err != nil {
			return fmt.Errorf("load stock summaries: %w", err)
		}
		byProduct := make(map[uuid.UUID]*projection.ProductStockSummary, len(existing))
		for _, summary := range existing {
			byProduct[summary.ProductID] = summary
		}
		var updated []*projection.ProductStockSummary
		for _, id := range productIDs {
			summary, ok := byProduct[id]
			if !ok {
				summary = projection.NewProductStockSummary(id, 0, 0)
			}
			summary.Sales = sales[id]
			updated = append(updated, summary)
		}
		for _, chunk := range chunkSummaries(updated, upsertBatchSize) {
			if err := repos.SummaryRepo().UpsertBatch(ctx, chunk); err != nil {
				return fmt.Errorf("upsert sales: %w", err)
			}
		}
		return nil
	})
}

// RebuildAllSales runs the sales rebuild over every product appearing on
// a completed order. The scheduled entrypoint.
func (s *ProjectorService) RebuildAllSales(ctx context.Context) error {
	productIDs, err := s.orders.ProductIDsInCompletedOrders(ctx)
	if err != nil {
		return fmt.Errorf("list sold products: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("rebuilding sales figures", zap.Int("products", len(productIDs)))
	}
	return s.RebuildSales(ctx, productIDs)
}

// classifyOrders derives the pickability of every reserving order against
// every warehouse carrying stock of the order's products
func classifyOrders(ctx context.Context, repos TransactionalRepositories, orders []*order.Order) ([]*projection.OrderPickability, error) {
	var rows []*projection.OrderPickability
	for _, o := range orders {
		if !o.ReservesStock() {
			continue
		}
		moved, err := movedIntoOrder(ctx, repos, o)
		if err != nil {
			return nil, err
		}
		lines := make([]projection.LineRequirement, 0, len(o.LineItems))
		for _, li := range o.LineItems {
			lines = append(lines, projection.LineRequirement{
				ProductID: li.ProductID,
				Remaining: li.Quantity - moved[li.ProductID],
			})
		}

		warehouseStocks, err := repos.WarehouseStockRepo().FindByProducts(ctx, o.ProductIDs())
		if err != nil {
			return nil, fmt.Errorf("load warehouse stocks: %w", err)
		}
		byWarehouse := make(map[uuid.UUID]map[uuid.UUID]int)
		for _, ws := range warehouseStocks {
			if byWarehouse[ws.WarehouseID] == nil {
				byWarehouse[ws.WarehouseID] = make(map[uuid.UUID]int)
			}
			byWarehouse[ws.WarehouseID][ws.ProductID] = ws.Quantity
		}

		warehouseIDs := make([]uuid.UUID, 0, len(byWarehouse))
		for warehouseID := range byWarehouse {
			warehouseIDs = append(warehouseIDs, warehouseID)
		}
		sort.Slice(warehouseIDs, func(i, j int) bool {
			return warehouseIDs[i].String() < warehouseIDs[j].String()
		})
		for _, warehouseID := range warehouseIDs {
			rows = append(rows, &projection.OrderPickability{
				OrderID:     o.ID,
				WarehouseID: warehouseID,
				Class:       projection.Classify(lines, byWarehouse[warehouseID]),
			})
		}
	}
	return rows, nil
}

// movedIntoOrder returns per product the net quantity already moved into
// the order's stock location
func movedIntoOrder(ctx context.Context, repos TransactionalRepositories, o *order.Order) (map[uuid.UUID]int, error) {
	entries, err := repos.EntryRepo().FindByLocation(ctx, stock.OrderLocation(o.ID, o.VersionID))
	if err != nil {
		return nil, fmt.Errorf("load order stock entries: %w", err)
	}
	moved := make(map[uuid.UUID]int, len(entries))
	for _, e := range entries {
		moved[e.ProductID] += e.Quantity
	}
	return moved, nil
}

func chunkSummaries(items []*projection.ProductStockSummary, size int) [][]*projection.ProductStockSummary {
	var chunks [][]*projection.ProductStockSummary
	for len(items) > 0 {
		n := size
		if len(items) < n {
			n = len(items)
		}
		chunks = append(chunks, items[:n])
		items = items[n:]
	}
	return chunks
}

func chunkPickabilities(items []*projection.OrderPickability, size int) [][]*projection.OrderPickability {
	var chunks [][]*projection.OrderPickability
	for len(items) > 0 {
		n := size
		if len(items) < n {
			n = len(items)
		}
		chunks = append(chunks, items[:n])
		items = items[n:]
	}
	return chunks
}
