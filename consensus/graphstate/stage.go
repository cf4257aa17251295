package graphstate

import (
	"github.com/massalabs/massa-core/consensus/types"
)

// MarkIncoming records a freshly received, not-yet-validated block.
func (gs *GraphState) MarkIncoming(block *types.Block) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.blockStatuses[block.Id] = types.IncomingStatus(block)
}

// MarkWaitingForDependencies records that block cannot be admitted yet
// because some of its parents are not Active.
func (gs *GraphState) MarkWaitingForDependencies(block *types.Block, missing map[types.BlockId]struct{}) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.blockStatuses[block.Id] = types.WaitingForDependenciesStatus(block, missing)
}

// MarkDiscarded records a permanent rejection; the caller is
// responsible for having already released any stored body.
func (gs *GraphState) MarkDiscarded(id types.BlockId, info types.DiscardedInfo) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.blockStatuses[id] = types.DiscardedStatus(&info)
}

// MissingParents returns the subset of block.Parents not currently
// Active, used by the block database to decide between Admit and
// WaitingForDependencies.
func (gs *GraphState) MissingParents(block *types.Block) map[types.BlockId]struct{} {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	missing := make(map[types.BlockId]struct{})
	for _, p := range block.Parents {
		if _, ok := gs.getFullActiveBlock(p.Id); !ok {
			missing[p.Id] = struct{}{}
		}
	}
	return missing
}
