package graphstate

import (
	"github.com/massalabs/massa-core/consensus/types"
)

// ExportedActiveBlock is the compact exported form of an Active block
// (spec.md §4.F): header fields plus per-thread children id sets and
// finality, without the full operation payload.
type ExportedActiveBlock struct {
	Id       types.BlockId
	Slot     types.Slot
	Creator  types.NodeId
	Parents  []types.ParentRef
	Children []map[types.BlockId]uint64
	IsFinal  bool
}

// ExportedDiscardedBlock is the compact exported form of a Discarded
// block: only what DiscardedInfo retains.
type ExportedDiscardedBlock struct {
	Id      types.BlockId
	Slot    types.Slot
	Creator types.NodeId
	Parents []types.ParentRef
	Reason  types.DiscardReason
}

// BlockGraphExport is a shallow snapshot of GraphState plus the
// Active/Discarded blocks whose slot falls within the requested range
// (spec.md §4.F's extract_block_graph_part).
type BlockGraphExport struct {
	GenesisHashes            []types.BlockId
	BestParents              []types.ParentRef
	LatestFinalBlocksPeriods []types.ParentRef
	GiHead                   map[types.BlockId]map[types.BlockId]struct{}
	MaxCliques               []*types.Clique

	ActiveBlocks    []ExportedActiveBlock
	DiscardedBlocks []ExportedDiscardedBlock
}

// ExtractBlockGraphPart builds a BlockGraphExport. Either bound may be
// nil to leave that side of the range open. Fails with a
// *types.MissingBlockError if an in-range Active block's body is
// absent from the store.
func (gs *GraphState) ExtractBlockGraphPart(slotStart, slotEnd *types.Slot) (*BlockGraphExport, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	guard, err := gs.storage.ReadBlocks()
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	export := &BlockGraphExport{
		GenesisHashes:            append([]types.BlockId(nil), gs.genesisHashes...),
		BestParents:              append([]types.ParentRef(nil), gs.bestParents...),
		LatestFinalBlocksPeriods: append([]types.ParentRef(nil), gs.latestFinalBlocksPeriods...),
		GiHead:                   gs.giHead,
		MaxCliques:               gs.maxCliques,
	}

	inRange := func(slot types.Slot) bool {
		if slotStart != nil && slot.Before(*slotStart) {
			return false
		}
		if slotEnd != nil && !slot.Before(*slotEnd) {
			return false
		}
		return true
	}

	for id, status := range gs.blockStatuses {
		switch status.Kind {
		case types.StatusActive:
			active := status.Active
			if !inRange(active.Slot) {
				continue
			}
			if _, ok := guard.Get(id); !ok {
				return nil, types.NewMissingBlockError(id)
			}
			export.ActiveBlocks = append(export.ActiveBlocks, ExportedActiveBlock{
				Id:       id,
				Slot:     active.Slot,
				Creator:  active.Creator,
				Parents:  active.Parents,
				Children: active.Children,
				IsFinal:  active.IsFinal,
			})
		case types.StatusDiscarded:
			info := status.Discarded
			if !inRange(info.Slot) {
				continue
			}
			export.DiscardedBlocks = append(export.DiscardedBlocks, ExportedDiscardedBlock{
				Id:      id,
				Slot:    info.Slot,
				Creator: info.Creator,
				Parents: info.Parents,
				Reason:  info.Reason,
			})
		}
	}

	return export, nil
}
