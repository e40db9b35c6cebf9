package picking

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/picking"
	"github.com/wms/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// SolverService resolves picking and stocking requests against the
// current ledger. Which strategies are active is a construction-time
// choice; the alphanumerical defaults match a picker walking bins in
// code order.
type SolverService struct {
	entryRepo        stock.StockEntryRepository
	binDirectory     stock.BinLocationDirectory
	pickingStrategy  picking.PickingStrategy
	routingStrategy  picking.RoutingStrategy
	stockingStrategy picking.StockingStrategy
	logger           *zap.Logger
}

// NewSolverService creates a solver with the default strategies
func NewSolverService(entryRepo stock.StockEntryRepository, binDirectory stock.BinLocationDirectory, logger *zap.Logger) *SolverService {
	return &SolverService{
		entryRepo:        entryRepo,
		binDirectory:     binDirectory,
		pickingStrategy:  picking.NewAlphanumericalPickingStrategy(),
		routingStrategy:  picking.NewAlphanumericalRoutingStrategy(),
		stockingStrategy: picking.NewDefaultBinStockingStrategy(),
		logger:           logger,
	}
}

// SetPickingStrategy overrides the location ranking strategy
func (s *SolverService) SetPickingStrategy(strategy picking.PickingStrategy) {
	s.pickingStrategy = strategy
}

// SetRoutingStrategy overrides the picker walk ordering strategy
func (s *SolverService) SetRoutingStrategy(strategy picking.RoutingStrategy) {
	s.routingStrategy = strategy
}

// SetStockingStrategy overrides the receiving location strategy
func (s *SolverService) SetStockingStrategy(strategy picking.StockingStrategy) {
	s.stockingStrategy = strategy
}

// SolvePickingRequestInWarehouses enriches the request with candidate
// locations from the ledger, ranks them, allocates quantities greedily
// and orders the requests into a picker walk. A nil warehouse list means
// all warehouses.
func (s *SolverService) SolvePickingRequestInWarehouses(ctx context.Context, request *picking.PickingRequest, warehouseIDs []uuid.UUID) error {
	productIDs := make([]uuid.UUID, 0, len(request.Requests))
	for _, r := range request.Requests {
		productIDs = append(productIDs, r.ProductID)
	}
	if len(productIDs) == 0 {
		return nil
	}

	entries, err := s.entryRepo.FindInternalWithStock(ctx, warehouseIDs, productIDs)
	if err != nil {
		return fmt.Errorf("lookup pickable stock: %w", err)
	}

	bins, err := s.resolveBins(ctx, entries)
	if err != nil {
		return err
	}

	// candidates attach in a stable order so equal-ranked locations do
	// not depend on database row order
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Location().String() < entries[j].Location().String()
	})

	byProduct := make(map[uuid.UUID][]*stock.StockEntry)
	for _, e := range entries {
		byProduct[e.ProductID] = append(byProduct[e.ProductID], e)
	}

	for _, r := range request.Requests {
		for _, e := range byProduct[r.ProductID] {
			ref := e.Location()
			candidate := &picking.PickLocation{
				Location:  ref,
				Available: e.Quantity,
			}
			switch ref.Kind {
			case stock.LocationKindWarehouse:
				candidate.WarehouseID = ref.ID
			case stock.LocationKindBinLocation:
				info := bins[ref.ID]
				candidate.WarehouseID = info.WarehouseID
				candidate.BinCode = info.Code
			}
			r.AddLocation(candidate)
		}
	}

	s.pickingStrategy.Apply(request)
	s.pickingStrategy.AssignQuantityToPick(request)
	s.routingStrategy.Apply(request)

	if s.logger != nil && !request.IsCompletelyPickable() {
		s.logger.Info("picking request has shortages",
			zap.Int("products", len(request.Requests)),
			zap.Int("shortages", len(request.StockShortage())))
	}
	return nil
}

// SolveStockingRequestInWarehouse ranks the warehouse's receiving
// locations for every product and places the incoming quantities
func (s *SolverService) SolveStockingRequestInWarehouse(ctx context.Context, request *picking.StockingRequest, warehouseID uuid.UUID) error {
	bins, err := s.binDirectory.FindByWarehouse(ctx, warehouseID)
	if err != nil {
		return fmt.Errorf("lookup warehouse bins: %w", err)
	}
	defaultBin, err := s.binDirectory.FindDefaultBin(ctx, warehouseID)
	if err != nil {
		return fmt.Errorf("lookup default bin: %w", err)
	}

	binInfos := make([]stock.BinLocationInfo, 0, len(bins))
	for _, info := range bins {
		binInfos = append(binInfos, info)
	}
	sort.SliceStable(binInfos, func(i, j int) bool {
		return binInfos[i].Code < binInfos[j].Code
	})

	for _, r := range request.Requests {
		for _, info := range binInfos {
			r.AddLocation(&picking.StockLocation{
				Location:     stock.BinLocationRef(info.ID),
				WarehouseID:  warehouseID,
				BinCode:      info.Code,
				IsDefaultBin: defaultBin != nil && defaultBin.ID == info.ID,
			})
		}
		// warehouse-level fallback for stock without a bin
		r.AddLocation(&picking.StockLocation{
			Location:    stock.WarehouseLocation(warehouseID),
			WarehouseID: warehouseID,
		})
	}

	s.stockingStrategy.Apply(request)
	s.stockingStrategy.AssignQuantityToStock(request)
	return nil
}

func (s *SolverService) resolveBins(ctx context.Context, entries []*stock.StockEntry) (map[uuid.UUID]stock.BinLocationInfo, error) {
	var binIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, e := range entries {
		ref := e.Location()
		if ref.Kind == stock.LocationKindBinLocation && !seen[ref.ID] {
			seen[ref.ID] = true
			binIDs = append(binIDs, ref.ID)
		}
	}
	if len(binIDs) == 0 {
		return map[uuid.UUID]stock.BinLocationInfo{}, nil
	}
	bins, err := s.binDirectory.FindByIDs(ctx, binIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve bin locations: %w", err)
	}
	return bins, nil
}
