package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// MovementService is the sole mutation entrypoint for physical stock. A
// batch of movements commits or aborts as one unit; partial application
// is never observable.
type MovementService struct {
	scope          TransactionScope
	binDirectory   stock.BinLocationDirectory
	snapshots      stock.LocationSnapshotProvider
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewMovementService creates a movement service
func NewMovementService(scope TransactionScope, binDirectory stock.BinLocationDirectory, logger *zap.Logger) *MovementService {
	return &MovementService{
		scope:        scope,
		binDirectory: binDirectory,
		logger:       logger,
	}
}

// SetSnapshotProvider enables human-readable location snapshots on the
// movement audit trail
func (s *MovementService) SetSnapshotProvider(provider stock.LocationSnapshotProvider) {
	s.snapshots = provider
}

// SetEventPublisher sets the publisher for commit notifications
func (s *MovementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// MoveStock validates and atomically commits a batch of movements.
//
// Invalid source/destination pairings are rejected up front, every
// offending pair listed together. Inside the transaction the affected
// products' entries are locked, movements inserted and entry deltas
// applied; afterwards any non-special entry left negative fails the whole
// batch. The check runs after the speculative write so there is no race
// window between checking availability and committing.
func (s *MovementService) MoveStock(ctx context.Context, movements []*stock.StockMovement, userID *uuid.UUID) error {
	if len(movements) == 0 {
		return nil
	}
	if err := stock.ValidateCombinations(movements); err != nil {
		return err
	}
	if userID != nil {
		for _, m := range movements {
			if m.UserID == nil {
				m.WithUserID(*userID)
			}
		}
	}

	s.attachSnapshots(ctx, movements)

	bins, defaultBins, err := s.resolveBins(ctx, movements)
	if err != nil {
		return err
	}
	resolveWarehouse := func(binID uuid.UUID) uuid.UUID {
		return bins[binID].WarehouseID
	}

	productIDs := distinctProductIDs(movements)

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entries, err := repos.EntryRepo().FindForUpdateByProducts(ctx, productIDs)
		if err != nil {
			return fmt.Errorf("lock stock entries: %w", err)
		}

		if err := repos.MovementRepo().CreateBatch(ctx, movements); err != nil {
			return fmt.Errorf("insert stock movements: %w", err)
		}

		ledger := newLedgerState(entries)
		for _, m := range movements {
			if err := ledger.apply(m); err != nil {
				return err
			}
		}

		if shortfalls := ledger.shortfalls(); len(shortfalls) > 0 {
			return &stock.InsufficientStockError{Shortfalls: shortfalls}
		}

		if err := ledger.persist(ctx, repos.EntryRepo(), defaultBins); err != nil {
			return err
		}

		for _, d := range stock.WarehouseDeltas(movements, resolveWarehouse) {
			if _, err := repos.WarehouseStockRepo().ApplyDelta(ctx, d.ProductID, d.WarehouseID, d.Delta); err != nil {
				return fmt.Errorf("apply warehouse stock delta: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishCommitted(ctx, movements, resolveWarehouse)
	return nil
}

// RebuildEntries discards a product's materialized positions and
// replays its full movement history to reconstruct them, warehouse
// rollups included. Repair path for a ledger that drifted out of sync
// with its movements.
func (s *MovementService) RebuildEntries(ctx context.Context, productID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.EntryRepo().FindForUpdateByProducts(ctx, []uuid.UUID{productID})
		if err != nil {
			return fmt.Errorf("lock stock entries: %w", err)
		}
		movements, err := repos.MovementRepo().FindAllByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("load movement history: %w", err)
		}

		bins, defaultBins, err := s.resolveBins(ctx, movements)
		if err != nil {
			return err
		}
		resolveWarehouse := func(binID uuid.UUID) uuid.UUID {
			return bins[binID].WarehouseID
		}

		ledger := newLedgerState(nil)
		for _, m := range movements {
			if err := ledger.apply(m); err != nil {
				return err
			}
		}
		// history netting negative is recorded as-is; the rebuild writes
		// what the movements imply and leaves the cleanup to a correction
		if shortfalls := ledger.shortfalls(); len(shortfalls) > 0 && s.logger != nil {
			s.logger.Warn("movement history nets negative stock",
				zap.String("product_id", productID.String()),
				zap.Int("locations", len(shortfalls)))
		}

		for _, e := range existing {
			if err := repos.EntryRepo().Delete(ctx, e.ID); err != nil {
				return fmt.Errorf("discard stock entry: %w", err)
			}
		}
		if err := ledger.persist(ctx, repos.EntryRepo(), defaultBins); err != nil {
			return err
		}

		targets := make(map[uuid.UUID]int)
		for _, d := range stock.WarehouseDeltas(movements, resolveWarehouse) {
			targets[d.WarehouseID] += d.Delta
		}
		current, err := repos.WarehouseStockRepo().FindByProducts(ctx, []uuid.UUID{productID})
		if err != nil {
			return fmt.Errorf("load warehouse stock: %w", err)
		}
		currentQty := make(map[uuid.UUID]int, len(current))
		for _, ws := range current {
			currentQty[ws.WarehouseID] = ws.Quantity
			if _, ok := targets[ws.WarehouseID]; !ok {
				targets[ws.WarehouseID] = 0
			}
		}
		for warehouseID, target := range targets {
			delta := target - currentQty[warehouseID]
			if delta == 0 {
				continue
			}
			if _, err := repos.WarehouseStockRepo().ApplyDelta(ctx, productID, warehouseID, delta); err != nil {
				return fmt.Errorf("reset warehouse stock: %w", err)
			}
		}
		return nil
	})
}

// attachSnapshots records display names for both sides of every movement.
// Best effort: a failed resolution leaves the snapshot empty and is only
// logged.
func (s *MovementService) attachSnapshots(ctx context.Context, movements []*stock.StockMovement) {
	if s.snapshots == nil {
		return
	}
	cache := make(map[string]string)
	resolve := func(ref stock.LocationRef) string {
		key := ref.String()
		if snapshot, ok := cache[key]; ok {
			return snapshot
		}
		snapshot := s.snapshots.Snapshot(ctx, ref)
		if snapshot == "" && s.logger != nil {
			s.logger.Debug("location snapshot unavailable", zap.String("location", key))
		}
		cache[key] = snapshot
		return snapshot
	}
	for _, m := range movements {
		m.SourceSnapshot = resolve(m.SourceRef())
		m.DestinationSnapshot = resolve(m.DestinationRef())
	}
}

// resolveBins loads the bin infos of every bin the batch touches plus the
// default bins of the involved warehouses. Default-bin entries survive
// pruning at quantity zero.
func (s *MovementService) resolveBins(ctx context.Context, movements []*stock.StockMovement) (map[uuid.UUID]stock.BinLocationInfo, map[uuid.UUID]bool, error) {
	var binIDs []uuid.UUID
	seenBins := make(map[uuid.UUID]bool)
	warehouseIDs := make(map[uuid.UUID]bool)
	collect := func(ref stock.LocationRef) {
		switch ref.Kind {
		case stock.LocationKindBinLocation:
			if !seenBins[ref.ID] {
				seenBins[ref.ID] = true
				binIDs = append(binIDs, ref.ID)
			}
		case stock.LocationKindWarehouse:
			warehouseIDs[ref.ID] = true
		}
	}
	for _, m := range movements {
		collect(m.SourceRef())
		collect(m.DestinationRef())
	}

	bins := make(map[uuid.UUID]stock.BinLocationInfo)
	if len(binIDs) > 0 {
		found, err := s.binDirectory.FindByIDs(ctx, binIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve bin locations: %w", err)
		}
		// an unresolvable bin would leave its warehouse rollup untouched
		// while the ledger entry is written, so the whole batch is rejected
		for _, id := range binIDs {
			if _, ok := found[id]; !ok {
				return nil, nil, shared.NewDomainError("UNKNOWN_BIN_LOCATION",
					fmt.Sprintf("Bin location %s does not exist", id))
			}
		}
		bins = found
	}
	for _, info := range bins {
		warehouseIDs[info.WarehouseID] = true
	}

	defaultBins := make(map[uuid.UUID]bool)
	for warehouseID := range warehouseIDs {
		info, err := s.binDirectory.FindDefaultBin(ctx, warehouseID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve default bin: %w", err)
		}
		if info != nil {
			defaultBins[info.ID] = true
		}
	}
	return bins, defaultBins, nil
}

func (s *MovementService) publishCommitted(ctx context.Context, movements []*stock.StockMovement, resolveWarehouse func(uuid.UUID) uuid.UUID) {
	if s.eventPublisher == nil {
		return
	}
	var orderIDs []uuid.UUID
	seenOrders := make(map[uuid.UUID]bool)
	for _, m := range movements {
		for _, id := range m.TouchesOrder() {
			if !seenOrders[id] {
				seenOrders[id] = true
				orderIDs = append(orderIDs, id)
			}
		}
	}
	var warehouseIDs []uuid.UUID
	for _, d := range stock.WarehouseDeltas(movements, resolveWarehouse) {
		warehouseIDs = append(warehouseIDs, d.WarehouseID)
	}

	event := stock.NewStockMovementsCommittedEvent(uuid.New(), distinctProductIDs(movements), orderIDs, warehouseIDs, len(movements))
	if err := s.eventPublisher.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.Error("failed to publish stock movement event", zap.Error(err))
	}
}

func distinctProductIDs(movements []*stock.StockMovement) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(movements))
	var ids []uuid.UUID
	for _, m := range movements {
		if !seen[m.ProductID] {
			seen[m.ProductID] = true
			ids = append(ids, m.ProductID)
		}
	}
	return ids
}
