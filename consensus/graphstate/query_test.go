package graphstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/massalabs/massa-core/consensus/types"
)

func TestGetBlockStatus_NotFound(t *testing.T) {
	gs := openTestGraph(t, 2)
	var unknown types.BlockId
	unknown[0] = 0x42
	require.Equal(t, types.GraphStatusNotFound, gs.GetBlockStatus(unknown))
}

func TestGetBlockStatus_FinalVsBlockcliqueVsAlternative(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()

	require.Equal(t, types.GraphStatusFinal, gs.GetBlockStatus(genesis[0]))

	a := activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)
	require.Equal(t, types.GraphStatusActiveInBlockclique, gs.GetBlockStatus(a.Id))

	// B occupies the same slot as A from a distinct creator, does not
	// descend from A, and declares A as a dependency, forcing an
	// incompatibility edge; one of the two ends up in the blockclique
	// and the other in an alternative clique.
	bSlot := types.NewSlot(0, 1)
	var bCreator types.NodeId
	bCreator[0] = 0x7
	bParents := []types.ParentRef{{Id: genesis[0], Period: 0}, {Id: genesis[1], Period: 0}}
	bBlock := types.Block{
		Id:      types.ComputeBlockId(bSlot, bCreator, [][32]byte{genesis[0], genesis[1]}),
		Slot:    bSlot,
		Creator: bCreator,
		Parents: bParents,
	}
	b, err := gs.Admit(bBlock, []types.BlockId{a.Id})
	require.NoError(t, err)

	status := gs.GetBlockStatus(b.Id)
	require.Contains(t, []types.GraphStatus{types.GraphStatusActiveInBlockclique, types.GraphStatusActiveInAlternativeCliques}, status)
	// exactly one of a/b is in the blockclique, never both, since they
	// are mutually incompatible.
	aStatus := gs.GetBlockStatus(a.Id)
	require.NotEqual(t, aStatus, status)
}

func TestExtractBlockGraphPart_RangeFiltersAndShallowSnapshot(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()

	a := activeBlock(t, gs, 0, 1, []types.ParentRef{
		{Id: genesis[0], Period: 0},
		{Id: genesis[1], Period: 0},
	}, nil)

	start := types.NewSlot(0, 1)
	end := types.NewSlot(0, 2)
	export, err := gs.ExtractBlockGraphPart(&start, &end)
	require.NoError(t, err)
	require.Len(t, export.GenesisHashes, 2)

	found := false
	for _, ab := range export.ActiveBlocks {
		if ab.Id == a.Id {
			found = true
			require.False(t, ab.IsFinal)
		}
	}
	require.True(t, found)

	for _, id := range genesis {
		for _, ab := range export.ActiveBlocks {
			require.NotEqual(t, id, ab.Id, "genesis slot 0 is out of the requested [1,2) range")
		}
	}
}

func TestExtractBlockGraphPart_NoRangeIncludesEverything(t *testing.T) {
	gs := openTestGraph(t, 2)
	genesis := gs.GenesisHashes()

	export, err := gs.ExtractBlockGraphPart(nil, nil)
	require.NoError(t, err)
	require.Len(t, export.ActiveBlocks, len(genesis))
}
