package graphstate

import (
	"github.com/massalabs/massa-core/consensus/types"
)

// Finalize marks an active block final (spec.md §4.D): it is removed
// from the incompatibility graph (a final block is compatible with
// everything, per invariant 4) and the clique set is recomputed so
// every clique picks it up. The per-thread latest-final-period pointer
// advances if this finalization is newer.
func (gs *GraphState) Finalize(id types.BlockId) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	active, ok := gs.getFullActiveBlock(id)
	if !ok {
		return types.NewContainerInconsistencyError(id)
	}
	if active.IsFinal {
		return nil
	}
	active.IsFinal = true

	for other := range gs.giHead[id] {
		delete(gs.giHead[other], id)
	}
	delete(gs.giHead, id)

	thread := int(active.Slot.Thread)
	if active.Slot.Period > gs.latestFinalBlocksPeriods[thread].Period {
		gs.latestFinalBlocksPeriods[thread] = types.ParentRef{Id: id, Period: active.Slot.Period}
	}

	gs.recomputeCliques()
	log.WithField("block", id.String()).Info("finalized block")
	return nil
}

// ChooseBestParents returns, for each thread, the tip of the
// blockclique's lineage: the deepest non-final active block of that
// thread which belongs to the current blockclique (spec.md §4.D's "best
// parents"). The thread's latest final block is returned for a thread
// with no non-final blockclique member.
// Kept up to date by updateBestParents on every clique recomputation.
func (gs *GraphState) ChooseBestParents() []types.ParentRef {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	out := make([]types.ParentRef, len(gs.bestParents))
	copy(out, gs.bestParents)
	return out
}
