// Package graphstate implements the active subgraph, clique set and
// query surface of spec.md §3–§4 (components C, D, F): the DAG of
// Active blocks, the incompatibility graph, the blockclique, and the
// retention planner. Grounded line-for-line on
// original_source/massa-graph-2-worker/src/state.rs, translated from
// Rust's Option/Result idiom to Go's (value, bool)/(value, error).
package graphstate

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/massalabs/massa-core/config/params"
	"github.com/massalabs/massa-core/consensus/storage"
	"github.com/massalabs/massa-core/consensus/types"
)

// GraphState holds every invariant described in spec.md §3: the
// incompatibility graph, the clique set, the authoritative status
// table, and the per-thread final/best-parent pointers. All mutating
// methods live in admit.go, finalize.go, cliques.go, prune.go and
// stage.go; this file has construction, the shared lock and a few
// read-only helpers.
type GraphState struct {
	mu sync.RWMutex

	config  params.GraphConfig
	storage *storage.Storage

	genesisHashes []types.BlockId

	// giHead is the incompatibility graph over active blocks only. It
	// is kept symmetric: b in giHead[a] iff a in giHead[b].
	giHead map[types.BlockId]map[types.BlockId]struct{}

	// maxCliques holds every maximal clique in the complement of
	// giHead; exactly one has IsBlockclique set.
	maxCliques []*types.Clique

	activeIndex map[types.BlockId]struct{}

	// latestFinalBlocksPeriods and bestParents are one entry per
	// thread, indexed by thread number.
	latestFinalBlocksPeriods []types.ParentRef
	bestParents              []types.ParentRef

	blockStatuses map[types.BlockId]types.BlockStatus
}

// New builds a GraphState seeded with one final genesis block per
// thread, per spec.md §4.D's genesis edge case: genesis blocks are
// Active and final from initialization, belong to every clique, and
// never appear in giHead.
func New(cfg params.GraphConfig, store *storage.Storage) (*GraphState, error) {
	gs := &GraphState{
		config:                   cfg,
		storage:                  store,
		giHead:                   make(map[types.BlockId]map[types.BlockId]struct{}),
		activeIndex:              make(map[types.BlockId]struct{}),
		blockStatuses:            make(map[types.BlockId]types.BlockStatus),
		latestFinalBlocksPeriods: make([]types.ParentRef, cfg.ThreadCount),
		bestParents:              make([]types.ParentRef, cfg.ThreadCount),
	}

	genesisClique := &types.Clique{BlockIds: make(map[types.BlockId]struct{}), IsBlockclique: true}
	for thread := uint8(0); thread < cfg.ThreadCount; thread++ {
		slot := types.NewSlot(thread, 0)
		var creator types.NodeId
		id := types.ComputeBlockId(slot, creator, nil)
		block := types.Block{Id: id, Slot: slot, Creator: creator}
		active := types.NewActiveBlock(block, cfg.ThreadCount, nil)
		active.IsFinal = true

		gs.genesisHashes = append(gs.genesisHashes, id)
		gs.blockStatuses[id] = types.ActiveStatus(active)
		gs.activeIndex[id] = struct{}{}
		gs.latestFinalBlocksPeriods[thread] = types.ParentRef{Id: id, Period: 0}
		gs.bestParents[thread] = types.ParentRef{Id: id, Period: 0}
		genesisClique.BlockIds[id] = struct{}{}

		if err := store.WriteBlock(&block); err != nil {
			return nil, errors.Wrap(err, "writing genesis block")
		}
	}
	genesisClique.Fitness = uint64(len(genesisClique.BlockIds))
	gs.maxCliques = []*types.Clique{genesisClique}

	gs.refreshMetrics()
	return gs, nil
}

// ThreadCount returns the configured thread count.
func (gs *GraphState) ThreadCount() uint8 {
	return gs.config.ThreadCount
}

// GenesisHashes returns a copy of the per-thread genesis ids.
func (gs *GraphState) GenesisHashes() []types.BlockId {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	out := make([]types.BlockId, len(gs.genesisHashes))
	copy(out, gs.genesisHashes)
	return out
}

// getFullActiveBlock returns the ActiveBlock for id if it is Active.
// Caller must hold gs.mu.
func (gs *GraphState) getFullActiveBlock(id types.BlockId) (*types.ActiveBlock, bool) {
	status, ok := gs.blockStatuses[id]
	if !ok || status.Kind != types.StatusActive {
		return nil, false
	}
	return status.Active, true
}

// blockclique returns the clique currently marked as the blockclique.
// Caller must hold gs.mu (read or write).
func (gs *GraphState) blockclique() *types.Clique {
	for _, c := range gs.maxCliques {
		if c.IsBlockclique {
			return c
		}
	}
	// invariant 3 guarantees this never happens once New has run.
	panic("graphstate: no clique marked as blockclique")
}

func (gs *GraphState) refreshMetrics() {
	activeBlockCount.Set(float64(len(gs.activeIndex)))
	cliqueCount.Set(float64(len(gs.maxCliques)))
	blockcliqueFitness.Set(float64(gs.blockclique().Fitness))
}
