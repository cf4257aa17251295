package worker

import (
	"sync"

	"github.com/massalabs/massa-core/consensus/graphstate"
	"github.com/massalabs/massa-core/consensus/types"
)

// BlockDatabase stages incoming and self-created blocks ahead of the
// active subgraph: blocks whose parents are not yet Active sit in a
// waiting set until a later Admit resolves them, mirroring
// original_source's BlockDatabase.create_block /
// acknowledge_new_block split.
type BlockDatabase struct {
	mu      sync.Mutex
	gs      *graphstate.GraphState
	waiting map[types.BlockId]*types.Block
}

// NewBlockDatabase wraps gs with the staging layer the worker drives.
func NewBlockDatabase(gs *graphstate.GraphState) *BlockDatabase {
	return &BlockDatabase{
		gs:      gs,
		waiting: make(map[types.BlockId]*types.Block),
	}
}

// CreateBlock builds a new block at slot on top of the current
// blockclique tips, for this worker's own block creator draw.
func (db *BlockDatabase) CreateBlock(slot types.Slot, creator types.NodeId, payload []byte) *types.Block {
	parents := db.gs.ChooseBestParents()
	parentIds := make([][32]byte, len(parents))
	for i, p := range parents {
		parentIds[i] = p.Id
	}
	id := types.ComputeBlockId(slot, creator, parentIds)
	return &types.Block{Id: id, Slot: slot, Creator: creator, Parents: parents, Payload: payload}
}

// AcknowledgeNewBlock admits block into the active subgraph if its
// parents are already Active, else parks it as WaitingForDependencies.
// Returns true iff the block was admitted (and should be propagated).
func (db *BlockDatabase) AcknowledgeNewBlock(block *types.Block) bool {
	missing := db.gs.MissingParents(block)
	if len(missing) > 0 {
		db.gs.MarkWaitingForDependencies(block, missing)
		db.mu.Lock()
		db.waiting[block.Id] = block
		db.mu.Unlock()
		log.WithField("block", block.Id.String()).WithField("missing", len(missing)).Debug("block waiting for dependencies")
		return false
	}

	if _, err := db.gs.Admit(*block, nil); err != nil {
		db.gs.MarkDiscarded(block.Id, types.DiscardedInfo{
			Slot:    block.Slot,
			Creator: block.Creator,
			Parents: block.Parents,
			Reason:  types.DiscardInvalid,
		})
		log.WithField("block", block.Id.String()).WithError(err).Warn("block rejected by admission")
		return false
	}

	db.retryWaiting()
	return true
}

// retryWaiting re-examines every parked block and admits those whose
// missing parents have since become Active.
func (db *BlockDatabase) retryWaiting() {
	db.mu.Lock()
	pending := make([]*types.Block, 0, len(db.waiting))
	for _, b := range db.waiting {
		pending = append(pending, b)
	}
	db.mu.Unlock()

	for _, b := range pending {
		if len(db.gs.MissingParents(b)) > 0 {
			continue
		}
		if _, err := db.gs.Admit(*b, nil); err != nil {
			continue
		}
		db.mu.Lock()
		delete(db.waiting, b.Id)
		db.mu.Unlock()
		log.WithField("block", b.Id.String()).Debug("waiting block admitted after dependency resolved")
	}
}
