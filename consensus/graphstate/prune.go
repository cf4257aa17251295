package graphstate

import (
	"github.com/massalabs/massa-core/consensus/types"
)

// ListRequiredActiveBlocks computes the retention set R: the block ids
// that must survive pruning, per the algorithm of
// original_source/massa-graph-2-worker/src/state.rs's
// list_required_active_blocks (spec.md §4.E). Every other Active block
// may be dropped to Discarded. Fails with a
// *types.ContainerInconsistencyError if a retained id is absent from
// the active subgraph.
func (gs *GraphState) ListRequiredActiveBlocks() (map[types.BlockId]struct{}, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.listRequiredActiveBlocksLocked()
}

func (gs *GraphState) listRequiredActiveBlocksLocked() (map[types.BlockId]struct{}, error) {
	required := make(map[types.BlockId]struct{})

	// 1. Seed: every non-final active, every best_parents entry, every
	// latest_final_blocks_periods entry, and each seeded block's direct
	// parents.
	seed := func(id types.BlockId) error {
		required[id] = struct{}{}
		active, ok := gs.getFullActiveBlock(id)
		if !ok {
			return types.NewContainerInconsistencyError(id)
		}
		for _, p := range active.Parents {
			if !p.Id.IsZero() {
				required[p.Id] = struct{}{}
			}
		}
		return nil
	}

	for id := range gs.activeIndex {
		active, ok := gs.getFullActiveBlock(id)
		if !ok {
			return nil, types.NewContainerInconsistencyError(id)
		}
		if !active.IsFinal {
			if err := seed(id); err != nil {
				return nil, err
			}
		}
	}
	for _, ref := range gs.bestParents {
		if err := seed(ref.Id); err != nil {
			return nil, err
		}
	}
	for _, ref := range gs.latestFinalBlocksPeriods {
		if err := seed(ref.Id); err != nil {
			return nil, err
		}
	}

	ovp := gs.config.OperationValidityPeriods

	// 2. Finality-window walk: for each thread, walk parent-in-thread
	// links backward from latest_final_blocks_periods[t], inserting the
	// block then checking its own period against the floor. One more
	// block than strictly required is kept because the check runs after
	// the insert (original_source/massa-graph-2-worker/src/state.rs:198-209).
	walkInsertThenCheck := func(thread int, floor func(period uint64) bool) error {
		current := gs.latestFinalBlocksPeriods[thread].Id
		for {
			active, ok := gs.getFullActiveBlock(current)
			if !ok {
				return types.NewContainerInconsistencyError(current)
			}
			required[current] = struct{}{}
			if floor(active.Slot.Period) {
				return nil
			}
			if active.IsGenesis() {
				return nil
			}
			current = active.Parents[thread].Id
		}
	}

	for thread := 0; thread < int(gs.config.ThreadCount); thread++ {
		finalPeriod := gs.latestFinalBlocksPeriods[thread].Period
		var floorPeriod uint64
		if finalPeriod > ovp {
			floorPeriod = finalPeriod - ovp
		}
		if err := walkInsertThenCheck(thread, func(period uint64) bool { return period < floorPeriod }); err != nil {
			return nil, err
		}
	}

	// 3. Closure passes, exactly twice.
	for pass := 0; pass < 2; pass++ {
		// a. insert parents of everything already in R.
		for id := range copySet(required) {
			active, ok := gs.getFullActiveBlock(id)
			if !ok {
				return nil, types.NewContainerInconsistencyError(id)
			}
			for _, p := range active.Parents {
				if !p.Id.IsZero() {
					required[p.Id] = struct{}{}
				}
			}
		}

		// b. earliest_retained_period[t], starting from
		// latest_final_blocks_periods[t].
		earliest := make([]uint64, gs.config.ThreadCount)
		for thread := range earliest {
			earliest[thread] = gs.latestFinalBlocksPeriods[thread].Period
		}
		for id := range required {
			active, ok := gs.getFullActiveBlock(id)
			if !ok {
				return nil, types.NewContainerInconsistencyError(id)
			}
			thread := int(active.Slot.Thread)
			if active.Slot.Period < earliest[thread] {
				earliest[thread] = active.Slot.Period
			}
		}

		// c. fill up from latest_final_blocks_periods[t] down to
		// earliest_retained_period[t]: here the check runs BEFORE the
		// insert (state.rs:254-258), so unlike the walk above, the
		// block that first falls below the floor is left out entirely.
		// The walk also stops at a parent that is no longer active
		// (already pruned), since that block is not part of R.
		for thread := 0; thread < int(gs.config.ThreadCount); thread++ {
			floorPeriod := earliest[thread]
			cursor := gs.latestFinalBlocksPeriods[thread].Id
			for {
				active, ok := gs.getFullActiveBlock(cursor)
				if !ok {
					break
				}
				if active.Slot.Period < floorPeriod {
					break
				}
				required[cursor] = struct{}{}
				if active.IsGenesis() {
					break
				}
				cursor = active.Parents[thread].Id
			}
		}
	}

	requiredSetSize.Set(float64(len(required)))
	return required, nil
}

func copySet(s map[types.BlockId]struct{}) map[types.BlockId]struct{} {
	out := make(map[types.BlockId]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Prune discards every Active, non-required block not present in the
// set returned by ListRequiredActiveBlocks: status becomes Discarded
// with DiscardStale and the body is released from the store.
func (gs *GraphState) Prune() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	required, err := gs.listRequiredActiveBlocksLocked()
	if err != nil {
		return err
	}

	for id := range copySet(gs.activeIndex) {
		if _, keep := required[id]; keep {
			continue
		}
		active, ok := gs.getFullActiveBlock(id)
		if !ok {
			return types.NewContainerInconsistencyError(id)
		}
		if err := gs.storage.DeleteBlock(id, active.Slot, types.DiscardStale); err != nil {
			return err
		}
		delete(gs.activeIndex, id)
		for other := range gs.giHead[id] {
			delete(gs.giHead[other], id)
		}
		delete(gs.giHead, id)
		gs.blockStatuses[id] = types.DiscardedStatus(&types.DiscardedInfo{
			Slot:    active.Slot,
			Creator: active.Creator,
			Parents: active.Parents,
			Reason:  types.DiscardStale,
		})
	}

	gs.recomputeCliques()
	return nil
}
