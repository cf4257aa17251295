package graphstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/massalabs/massa-core/consensus/types"
)

// TestListRequiredActiveBlocks_OVPZeroRetainsFinalsAndNonFinals covers
// the documented boundary: with OVP=0, retention keeps at least the
// finals, the best parents and their parents, and every non-final
// active.
func TestListRequiredActiveBlocks_OVPZeroRetainsFinalsAndNonFinals(t *testing.T) {
	gs := openTestGraph(t, 0)
	genesis := gs.GenesisHashes()

	a := activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)

	required, err := gs.ListRequiredActiveBlocks()
	require.NoError(t, err)
	for _, id := range append(genesis, a.Id) {
		_, ok := required[id]
		require.True(t, ok)
	}
}

// TestListRequiredActiveBlocks_LargeOVPRetainsWholeThreadLineage
// covers the "OVP = infinity" boundary using a very large window: every
// active block reachable from finals via thread-t parent walks is
// retained.
func TestListRequiredActiveBlocks_LargeOVPRetainsWholeThreadLineage(t *testing.T) {
	gs := openTestGraph(t, 1<<40)
	genesis := gs.GenesisHashes()

	a := activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)
	b := activeBlock(t, gs, 0, 2, []types.ParentRef{
		{Id: a.Id, Period: a.Slot.Period},
		{Id: genesis[1], Period: 0},
	}, nil)
	require.NoError(t, gs.Finalize(a.Id))

	required, err := gs.ListRequiredActiveBlocks()
	require.NoError(t, err)
	for _, id := range append(genesis, a.Id, b.Id) {
		_, ok := required[id]
		require.True(t, ok)
	}
}

// TestPrune_DropsFinalBlocksOutsideRetentionWindow builds a ten-deep,
// fully finalized thread-0 chain with OVP=1: the finality-window walk
// plus its two closure passes reach back five blocks from the tip
// (periods 10..6), so Prune must discard the oldest entries, including
// genesis and period 5, while keeping the retained tail.
func TestPrune_DropsFinalBlocksOutsideRetentionWindow(t *testing.T) {
	gs := openTestGraph(t, 1)
	genesis := gs.GenesisHashes()

	chain := make([]*types.ActiveBlock, 0, 10)
	parent := types.ParentRef{Id: genesis[0], Period: 0}
	for period := uint64(1); period <= 10; period++ {
		b := activeBlock(t, gs, 0, period, []types.ParentRef{
			parent,
			{Id: genesis[1], Period: 0},
		}, nil)
		chain = append(chain, b)
		parent = types.ParentRef{Id: b.Id, Period: b.Slot.Period}
		require.NoError(t, gs.Finalize(b.Id))
	}

	require.NoError(t, gs.Prune())

	required, err := gs.ListRequiredActiveBlocks()
	require.NoError(t, err)
	require.Len(t, required, 6) // periods 6..10 plus genesis[1]

	for _, period := range []uint64{6, 7, 8, 9, 10} {
		_, ok := required[chain[period-1].Id]
		require.True(t, ok, "period %d should be retained", period)
	}

	require.Equal(t, types.GraphStatusDiscarded, gs.GetBlockStatus(chain[4].Id)) // period 5
	reason, ok := gs.storage.DiscardReason(chain[4].Id)
	require.True(t, ok)
	require.Equal(t, types.DiscardStale, reason)

	require.Equal(t, types.GraphStatusDiscarded, gs.GetBlockStatus(chain[0].Id))
	require.Equal(t, types.GraphStatusDiscarded, gs.GetBlockStatus(genesis[0]))
}
