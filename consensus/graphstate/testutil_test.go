package graphstate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/massalabs/massa-core/config/params"
	"github.com/massalabs/massa-core/consensus/storage"
	"github.com/massalabs/massa-core/consensus/types"
)

func openTestGraph(t *testing.T, ovp uint64) *GraphState {
	t.Helper()
	cfg := params.GraphConfig{
		ThreadCount:              2,
		T0Millis:                 1000,
		GenesisTimestampMillis:   0,
		OperationValidityPeriods: ovp,
	}
	store, err := storage.Open(filepath.Join(t.TempDir(), "blocks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	gs, err := New(cfg, store)
	require.NoError(t, err)
	return gs
}

func activeBlock(t *testing.T, gs *GraphState, thread uint8, period uint64, parents []types.ParentRef, deps []types.BlockId) *types.ActiveBlock {
	t.Helper()
	slot := types.NewSlot(thread, period)
	var creator types.NodeId
	creator[0] = thread
	creator[1] = byte(period)
	parentIds := make([][32]byte, len(parents))
	for i, p := range parents {
		parentIds[i] = p.Id
	}
	block := types.Block{
		Id:      types.ComputeBlockId(slot, creator, parentIds),
		Slot:    slot,
		Creator: creator,
		Parents: parents,
	}
	active, err := gs.Admit(block, deps)
	require.NoError(t, err)
	return active
}
