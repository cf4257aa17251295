package graphstate

import (
	"github.com/massalabs/massa-core/consensus/types"
)

// GetBlockStatus resolves the externally-queryable status of id
// (spec.md §4.F), refining StatusActive into Final /
// ActiveInBlockclique / ActiveInAlternativeCliques.
func (gs *GraphState) GetBlockStatus(id types.BlockId) types.GraphStatus {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	status, ok := gs.blockStatuses[id]
	if !ok {
		return types.GraphStatusNotFound
	}
	switch status.Kind {
	case types.StatusIncoming:
		return types.GraphStatusIncoming
	case types.StatusWaitingForSlot:
		return types.GraphStatusWaitingForSlot
	case types.StatusWaitingForDependencies:
		return types.GraphStatusWaitingForDependencies
	case types.StatusDiscarded:
		return types.GraphStatusDiscarded
	case types.StatusActive:
		if status.Active.IsFinal {
			return types.GraphStatusFinal
		}
		if _, inBlockclique := gs.blockclique().BlockIds[id]; inBlockclique {
			return types.GraphStatusActiveInBlockclique
		}
		return types.GraphStatusActiveInAlternativeCliques
	default:
		return types.GraphStatusNotFound
	}
}

// GetFullBlock returns the complete stored block body for id, including
// its payload, for callers such as the worker's AskedBlock handler that
// must send the real block rather than a header-only export.
func (gs *GraphState) GetFullBlock(id types.BlockId) (*types.Block, bool, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	guard, err := gs.storage.ReadBlocks()
	if err != nil {
		return nil, false, err
	}
	defer guard.Release()

	block, ok := guard.Get(id)
	return block, ok, nil
}

// GetBlockcliqueBlockAtSlot returns the block occupying slot in the
// current blockclique, if any, else the finalized block at slot.
func (gs *GraphState) GetBlockcliqueBlockAtSlot(slot types.Slot) (types.BlockId, bool, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	guard, err := gs.storage.ReadBlocks()
	if err != nil {
		return types.BlockId{}, false, err
	}
	ids, ok := guard.GetBlocksBySlot(slot)
	if releaseErr := guard.Release(); releaseErr != nil && err == nil {
		err = releaseErr
	}
	if err != nil {
		return types.BlockId{}, false, err
	}
	if ok {
		clique := gs.blockclique()
		for id := range ids {
			if _, inClique := clique.BlockIds[id]; inClique {
				return id, true, nil
			}
		}
	}

	for id := range gs.activeIndex {
		active, found := gs.getFullActiveBlock(id)
		if !found || !active.IsFinal {
			continue
		}
		if active.Slot == slot {
			return id, true, nil
		}
	}
	return types.BlockId{}, false, nil
}

// GetLatestBlockcliqueBlockAtSlot returns the most recent blockclique
// member in slot.Thread strictly before slot.Period, falling back to
// latest_final_blocks_periods[slot.Thread] when none qualifies. Finals
// are explicitly excluded from the blockclique membership scanned
// here (spec.md §9's resolution of the source's contradictory assert).
func (gs *GraphState) GetLatestBlockcliqueBlockAtSlot(slot types.Slot) types.BlockId {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	best := gs.latestFinalBlocksPeriods[slot.Thread]
	clique := gs.blockclique()
	for id := range clique.BlockIds {
		active, ok := gs.getFullActiveBlock(id)
		if !ok || active.IsFinal {
			continue
		}
		if active.Slot.Thread != slot.Thread {
			continue
		}
		if active.Slot.Period < slot.Period && active.Slot.Period > best.Period {
			best = types.ParentRef{Id: id, Period: active.Slot.Period}
		}
	}
	return best.Id
}
