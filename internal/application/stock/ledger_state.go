package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/stock"
)

// ledgerState tracks the locked entries of one movement batch while the
// deltas are applied in memory. Touched entries are written back in one
// pass at the end; iteration follows insertion order so persistence is
// deterministic.
type ledgerState struct {
	entries map[string]*trackedEntry
	order   []string
}

type trackedEntry struct {
	entry   *stock.StockEntry
	isNew   bool
	touched bool
}

func newLedgerState(entries []*stock.StockEntry) *ledgerState {
	state := &ledgerState{entries: make(map[string]*trackedEntry, len(entries))}
	for _, e := range entries {
		key := entryKey(e.ProductID, e.Location())
		state.entries[key] = &trackedEntry{entry: e}
		state.order = append(state.order, key)
	}
	return state
}

func entryKey(productID uuid.UUID, ref stock.LocationRef) string {
	return productID.String() + "|" + ref.String()
}

// apply adjusts both sides of one movement, creating entries that do not
// exist yet
func (s *ledgerState) apply(m *stock.StockMovement) error {
	if err := s.adjust(m, m.SourceRef(), -m.Quantity); err != nil {
		return err
	}
	return s.adjust(m, m.DestinationRef(), m.Quantity)
}

func (s *ledgerState) adjust(m *stock.StockMovement, ref stock.LocationRef, delta int) error {
	key := entryKey(m.ProductID, ref)
	tracked, ok := s.entries[key]
	if !ok {
		entry, err := stock.NewStockEntry(m.ProductID, m.ProductVersionID, ref, 0)
		if err != nil {
			return fmt.Errorf("create stock entry: %w", err)
		}
		tracked = &trackedEntry{entry: entry, isNew: true}
		s.entries[key] = tracked
		s.order = append(s.order, key)
	}
	tracked.entry.Quantity += delta
	tracked.touched = true
	return nil
}

// shortfalls returns every touched entry the batch left negative at a
// location that must not go below zero
func (s *ledgerState) shortfalls() []stock.StockShortfall {
	var shortfalls []stock.StockShortfall
	for _, key := range s.order {
		tracked := s.entries[key]
		if !tracked.touched || !tracked.entry.IsNegativeViolation() {
			continue
		}
		shortfalls = append(shortfalls, stock.StockShortfall{
			Location:  tracked.entry.Location(),
			ProductID: tracked.entry.ProductID,
			Quantity:  tracked.entry.Quantity,
		})
	}
	return shortfalls
}

// persist writes every touched entry back. Rows ending at quantity zero
// are pruned, except entries at a warehouse's default bin which stay as
// the configured putaway mapping.
func (s *ledgerState) persist(ctx context.Context, repo stock.StockEntryRepository, defaultBins map[uuid.UUID]bool) error {
	for _, key := range s.order {
		tracked := s.entries[key]
		if !tracked.touched {
			continue
		}
		entry := tracked.entry
		prunable := entry.Quantity == 0 && !s.isDefaultBin(entry, defaultBins)

		switch {
		case tracked.isNew && prunable:
			// transient zero, nothing to store
		case tracked.isNew:
			if err := repo.Create(ctx, entry); err != nil {
				return fmt.Errorf("create stock entry: %w", err)
			}
		case prunable:
			if err := repo.Delete(ctx, entry.ID); err != nil {
				return fmt.Errorf("prune stock entry: %w", err)
			}
		default:
			if err := repo.Update(ctx, entry); err != nil {
				return fmt.Errorf("update stock entry: %w", err)
			}
		}
	}
	return nil
}

func (s *ledgerState) isDefaultBin(entry *stock.StockEntry, defaultBins map[uuid.UUID]bool) bool {
	ref := entry.Location()
	return ref.Kind == stock.LocationKindBinLocation && defaultBins[ref.ID]
}
