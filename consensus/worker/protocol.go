package worker

import (
	"context"

	"github.com/google/uuid"

	"github.com/massalabs/massa-core/consensus/types"
)

// NodeId identifies a protocol peer. Reuses the graph's own NodeId
// representation so block creators and peers share one id space.
type NodeId = types.NodeId

// GenerateNodeId derives a NodeId from a fresh random identifier, for
// nodes that were not assigned one by configuration.
func GenerateNodeId() NodeId {
	var id NodeId
	u := uuid.New()
	copy(id[:], u[:])
	return id
}

// ProtocolEventType distinguishes the three event shapes the protocol
// collaborator can deliver (spec.md §1, §4.G).
type ProtocolEventType int

const (
	ReceivedBlock ProtocolEventType = iota
	ReceivedTransaction
	AskedBlock
)

func (t ProtocolEventType) String() string {
	switch t {
	case ReceivedBlock:
		return "ReceivedBlock"
	case ReceivedTransaction:
		return "ReceivedTransaction"
	case AskedBlock:
		return "AskedBlock"
	default:
		return "Unknown"
	}
}

// ProtocolEvent is one inbound event from the protocol layer, tagged
// by Type with only the matching field populated.
type ProtocolEvent struct {
	Source NodeId
	Type   ProtocolEventType

	Block       *types.Block // ReceivedBlock
	Transaction []byte       // ReceivedTransaction
	AskedId     types.BlockId // AskedBlock
}

// ProtocolController is the capability set the worker is polymorphic
// over (spec.md §9): wait for the next inbound event, propagate an
// accepted block, and shut down. Out of scope are its networking
// internals; this package only depends on the interface.
type ProtocolController interface {
	WaitEvent(ctx context.Context) (ProtocolEvent, error)
	PropagateBlock(ctx context.Context, block *types.Block, excludeSource *NodeId, sendTo *NodeId) error
	Stop(ctx context.Context) error
}
