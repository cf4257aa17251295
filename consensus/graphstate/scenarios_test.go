package graphstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/massalabs/massa-core/consensus/types"
)

// TestScenario1_GenesisOnly covers spec.md §8 scenario #1: with only
// genesis blocks present, ListRequiredActiveBlocks returns exactly the
// two genesis ids.
func TestScenario1_GenesisOnly(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()

	required, err := gs.ListRequiredActiveBlocks()
	require.NoError(t, err)
	require.Len(t, required, 2)
	for _, id := range genesis {
		_, ok := required[id]
		require.True(t, ok)
	}
}

// TestScenario2_BlockAtSlotResolvesThroughBlockclique covers scenario
// #2: after admitting A at (0,1) on top of genesis, the blockclique
// block at slot (0,1) is A.
func TestScenario2_BlockAtSlotResolvesThroughBlockclique(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()

	a := activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)

	id, ok, err := gs.GetBlockcliqueBlockAtSlot(a.Slot)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, a.Id, id)
}

// TestScenario3_LatestBlockcliqueBlockAtSlot covers scenario #3: from
// #2, appending B at (1,1) with parents {A, G1}, the latest blockclique
// block in thread 0 strictly before period 5 is A.
func TestScenario3_LatestBlockcliqueBlockAtSlot(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()

	a := activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)
	activeBlock(t, gs, 1, 1, []types.ParentRef{
		{Id: a.Id, Period: a.Slot.Period},
		{Id: genesis[1], Period: 0},
	}, nil)

	latest := gs.GetLatestBlockcliqueBlockAtSlot(types.NewSlot(0, 5))
	require.Equal(t, a.Id, latest)
}

// TestScenario4_FinalizeExpandsRequiredSet covers scenario #4: from
// #3, finalizing A updates latest_final_blocks_periods and
// ListRequiredActiveBlocks returns a superset including A, G1 and B.
func TestScenario4_FinalizeExpandsRequiredSet(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()

	a := activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)
	b := activeBlock(t, gs, 1, 1, []types.ParentRef{
		{Id: a.Id, Period: a.Slot.Period},
		{Id: genesis[1], Period: 0},
	}, nil)

	require.NoError(t, gs.Finalize(a.Id))
	require.Equal(t, types.GraphStatusFinal, gs.GetBlockStatus(a.Id))

	required, err := gs.ListRequiredActiveBlocks()
	require.NoError(t, err)
	for _, id := range []types.BlockId{a.Id, genesis[1], b.Id} {
		_, ok := required[id]
		require.True(t, ok, "expected %s in required set", id)
	}
}

// TestInvariant_ActiveIndexMatchesStatusTable covers invariant 1.
func TestInvariant_ActiveIndexMatchesStatusTable(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()
	a := activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	for id := range gs.activeIndex {
		status, ok := gs.blockStatuses[id]
		require.True(t, ok)
		require.Equal(t, types.StatusActive, status.Kind)
	}
	for id, status := range gs.blockStatuses {
		if status.Kind == types.StatusActive {
			_, ok := gs.activeIndex[id]
			require.True(t, ok)
		}
	}
	require.Contains(t, gs.activeIndex, a.Id)
}

// TestInvariant_GiHeadSymmetric covers invariant 2.
func TestInvariant_GiHeadSymmetric(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()
	a := activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)
	// B does not descend from A and declares A as a dependency, forcing
	// an incompatibility edge via rule (iii) of the predicate.
	b := activeBlock(t, gs, 0, 2, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, []types.BlockId{a.Id})

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	for x, peers := range gs.giHead {
		for y := range peers {
			_, ok := gs.giHead[y][x]
			require.True(t, ok, "gi_head not symmetric for %s/%s", x, y)
		}
	}
	_ = b
}

// TestInvariant_ExactlyOneBlockclique covers invariant 3.
func TestInvariant_ExactlyOneBlockclique(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()
	activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	count := 0
	var maxFitness uint64
	for _, c := range gs.maxCliques {
		if c.IsBlockclique {
			count++
		}
		if c.Fitness > maxFitness {
			maxFitness = c.Fitness
		}
	}
	require.Equal(t, 1, count)
	require.Equal(t, maxFitness, gs.blockclique().Fitness)
}

// TestListRequiredActiveBlocks_Idempotent covers invariant 6.
func TestListRequiredActiveBlocks_Idempotent(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()
	activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)

	first, err := gs.ListRequiredActiveBlocks()
	require.NoError(t, err)
	second, err := gs.ListRequiredActiveBlocks()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

// TestGetLatestBlockcliqueBlockAtSlot_BoundaryAtPeriodZero covers the
// documented boundary: querying thread t at period 0 returns
// latest_final_blocks_periods[t].
func TestGetLatestBlockcliqueBlockAtSlot_BoundaryAtPeriodZero(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()

	got := gs.GetLatestBlockcliqueBlockAtSlot(types.NewSlot(0, 0))
	require.Equal(t, genesis[0], got)
}
