package worker

import "github.com/massalabs/massa-core/consensus/types"

// ConsensusCommandKind tags the command channel's single variant,
// left open for more (spec.md only names CreateBlock explicitly).
type ConsensusCommandKind int

const (
	CommandCreateBlock ConsensusCommandKind = iota
)

// ConsensusCommand is sent on the worker's command channel, e.g. by an
// RPC surface that is out of scope for this module.
type ConsensusCommand struct {
	Kind    ConsensusCommandKind
	Payload []byte
}

// ConsensusEventKind tags the worker's outbound event feed.
type ConsensusEventKind int

const (
	EventBlockCreated ConsensusEventKind = iota
	EventBlockFinalized
	EventForkAlert
)

// ConsensusEvent is published on the worker's event.Feed for any
// collaborator that subscribes (metrics, RPC notification, tests).
type ConsensusEvent struct {
	Kind    ConsensusEventKind
	BlockId types.BlockId
}
