package worker

import (
	"context"

	"github.com/massalabs/massa-core/consensus/types"
)

// LoopbackProtocol is a minimal ProtocolController with no networking:
// it never delivers inbound events and discards every propagated
// block. It exists so the worker is runnable standalone (spec.md §1
// treats the real protocol/network layer as an external collaborator,
// out of scope for this module); production deployments inject a real
// ProtocolController instead.
type LoopbackProtocol struct {
	stopped chan struct{}
}

// NewLoopbackProtocol builds a no-op ProtocolController.
func NewLoopbackProtocol() *LoopbackProtocol {
	return &LoopbackProtocol{stopped: make(chan struct{})}
}

func (p *LoopbackProtocol) WaitEvent(ctx context.Context) (ProtocolEvent, error) {
	select {
	case <-p.stopped:
		return ProtocolEvent{}, context.Canceled
	case <-ctx.Done():
		return ProtocolEvent{}, ctx.Err()
	}
}

func (p *LoopbackProtocol) PropagateBlock(ctx context.Context, block *types.Block, excludeSource, sendTo *NodeId) error {
	log.WithField("block", block.Id.String()).Debug("loopback protocol: block propagation discarded")
	return nil
}

func (p *LoopbackProtocol) Stop(ctx context.Context) error {
	close(p.stopped)
	return nil
}
