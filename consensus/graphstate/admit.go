package graphstate

import (
	"github.com/pkg/errors"

	"github.com/massalabs/massa-core/consensus/types"
)

// Admit integrates a block into the active subgraph (spec.md §4.D's
// "Admit" operation). Every entry in block.Parents must already name
// an Active block, one per thread; deps names additional blocks this
// block is declared incompatible-aware of beyond its direct parents.
// On success the block's status becomes Active and the clique set is
// recomputed; on rejection it returns an *types.AdmissionRejectedError
// and the caller is expected to transition the block to Discarded.
func (gs *GraphState) Admit(block types.Block, deps []types.BlockId) (*types.ActiveBlock, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if len(block.Parents) != int(gs.config.ThreadCount) {
		return nil, types.NewAdmissionRejectedError(types.DiscardInvalid)
	}
	parentBlocks := make([]*types.ActiveBlock, len(block.Parents))
	for i, ref := range block.Parents {
		parent, ok := gs.getFullActiveBlock(ref.Id)
		if !ok {
			return nil, types.NewAdmissionRejectedError(types.DiscardInvalid)
		}
		parentBlocks[i] = parent
	}

	active := types.NewActiveBlock(block, gs.config.ThreadCount, deps)

	incompatible := gs.computeIncompatibilities(active, parentBlocks)

	gs.giHead[active.Id] = incompatible
	for other := range incompatible {
		if gs.giHead[other] == nil {
			gs.giHead[other] = make(map[types.BlockId]struct{})
		}
		gs.giHead[other][active.Id] = struct{}{}
	}

	for thread := range block.Parents {
		parentBlocks[thread].Children[thread][active.Id] = block.Slot.Period
	}

	gs.blockStatuses[active.Id] = types.ActiveStatus(active)
	gs.activeIndex[active.Id] = struct{}{}

	if err := gs.storage.WriteBlock(&active.Block); err != nil {
		return nil, errors.Wrapf(err, "writing admitted block %s", active.Id)
	}

	gs.recomputeCliques()
	log.WithField("block", active.Id.String()).WithField("slot", active.Slot.String()).Debug("admitted block")
	return active, nil
}

// computeIncompatibilities implements the incompatibility predicate of
// spec.md §4.D: a non-final active block that is not an ancestor of
// active is incompatible with it if (i) both sit in the same thread,
// (ii) their parents in some thread fork away from each other, or
// (iii) one names the other in its declared Dependencies. Final blocks
// are never marked incompatible. Caller must hold gs.mu.
func (gs *GraphState) computeIncompatibilities(active *types.ActiveBlock, parents []*types.ActiveBlock) map[types.BlockId]struct{} {
	incompatible := make(map[types.BlockId]struct{})

	ancestry := gs.collectAncestry(active)

	for other := range gs.activeIndex {
		if other == active.Id {
			continue
		}
		otherBlock, ok := gs.getFullActiveBlock(other)
		if !ok || otherBlock.IsFinal {
			continue
		}
		if _, isAncestor := ancestry[other]; isAncestor {
			continue
		}
		if otherBlock.Slot.Thread == active.Slot.Thread || gs.sharesConflictingThreadLineage(active, otherBlock, ancestry) || dependsOn(active, other) || dependsOn(otherBlock, active.Id) {
			incompatible[other] = struct{}{}
		}
	}
	return incompatible
}

// collectAncestry walks every thread's parent chain back to genesis
// and returns the set of ancestor ids, used to exclude ancestors from
// incompatibility (a block is always compatible with its own lineage).
func (gs *GraphState) collectAncestry(active *types.ActiveBlock) map[types.BlockId]struct{} {
	seen := make(map[types.BlockId]struct{})
	frontier := make([]types.BlockId, 0, len(active.Parents))
	for _, p := range active.Parents {
		frontier = append(frontier, p.Id)
	}
	for len(frontier) > 0 {
		id := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		parent, ok := gs.getFullActiveBlock(id)
		if !ok {
			continue
		}
		for _, p := range parent.Parents {
			if _, ok := seen[p.Id]; !ok {
				frontier = append(frontier, p.Id)
			}
		}
	}
	return seen
}

// sharesConflictingThreadLineage reports whether a and b claim
// different parents in some thread where both have advanced past a
// common ancestor, i.e. they fork the same thread.
func (gs *GraphState) sharesConflictingThreadLineage(a, b *types.ActiveBlock, aAncestry map[types.BlockId]struct{}) bool {
	bAncestry := gs.collectAncestry(b)
	for thread := range a.Parents {
		if thread >= len(b.Parents) {
			continue
		}
		ap, bp := a.Parents[thread].Id, b.Parents[thread].Id
		if ap == bp {
			continue
		}
		_, aHasB := aAncestry[bp]
		_, bHasA := bAncestry[ap]
		if !aHasB && !bHasA {
			return true
		}
	}
	return false
}

func dependsOn(active *types.ActiveBlock, id types.BlockId) bool {
	for _, d := range active.Dependencies {
		if d == id {
			return true
		}
	}
	return false
}
