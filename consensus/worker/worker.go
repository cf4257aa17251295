// Package worker implements the consensus event loop of spec.md §4.G
// (component G): a single owner of the active subgraph that
// multiplexes the slot timer, protocol events and a command channel
// with a non-starving select, the way the teacher's own worker types
// drive a mainLoop off a handful of channels plus an errgroup-managed
// lifecycle.
package worker

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"golang.org/x/sync/errgroup"

	"github.com/massalabs/massa-core/config/params"
	"github.com/massalabs/massa-core/consensus/graphstate"
	"github.com/massalabs/massa-core/consensus/selector"
	slotclock "github.com/massalabs/massa-core/consensus/time"
	"github.com/massalabs/massa-core/consensus/types"
)

// ConsensusWorker owns the graph state for the lifetime of the
// process; no other goroutine is permitted to mutate it directly.
type ConsensusWorker struct {
	cfg      params.ConsensusConfig
	protocol ProtocolController
	blockDb  *BlockDatabase
	gs       *graphstate.GraphState
	selector *selector.Selector
	nodeId   NodeId

	commands chan ConsensusCommand
	events   event.Feed

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New builds a ConsensusWorker over an already-initialized GraphState.
// seed is the deterministic block-creator selection seed (spec.md
// §4.G); it is supplied by the caller, and New derives no entropy of
// its own.
func New(cfg params.ConsensusConfig, gs *graphstate.GraphState, protocol ProtocolController, nodeId NodeId, seed []byte) *ConsensusWorker {
	return &ConsensusWorker{
		cfg:      cfg,
		protocol: protocol,
		blockDb:  NewBlockDatabase(gs),
		gs:       gs,
		selector: selector.New(seed, cfg.ThreadCount, cfg.ParticipantWeights()),
		nodeId:   nodeId,
		commands: make(chan ConsensusCommand, 32),
	}
}

// Subscribe registers ch to receive every ConsensusEvent the worker
// publishes, for as long as the returned subscription is active.
func (w *ConsensusWorker) Subscribe(ch chan<- ConsensusEvent) event.Subscription {
	return w.events.Subscribe(ch)
}

// SubmitCommand enqueues a command for the worker's loop. Blocks if
// the command channel is full.
func (w *ConsensusWorker) SubmitCommand(ctx context.Context, cmd ConsensusCommand) error {
	select {
	case w.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the event loop and the protocol event pump in a
// supervised goroutine group; either returning an error cancels the
// other.
func (w *ConsensusWorker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	group, groupCtx := errgroup.WithContext(ctx)
	w.group = group

	protocolEvents := make(chan ProtocolEvent, 32)
	group.Go(func() error { return w.pumpProtocolEvents(groupCtx, protocolEvents) })
	group.Go(func() error { return w.runLoop(groupCtx, protocolEvents) })
}

// Stop cancels the loop and waits for both goroutines to exit.
func (w *ConsensusWorker) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.group.Wait()
}

// pumpProtocolEvents repeatedly calls the blocking ProtocolController
// collaborator and forwards results onto a channel, turning its
// call/return interface into something select can multiplex alongside
// the slot timer and command channel.
func (w *ConsensusWorker) pumpProtocolEvents(ctx context.Context, out chan<- ProtocolEvent) error {
	for {
		ev, err := w.protocol.WaitEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

// runLoop is the non-starving three-way multiplexer of spec.md §4.G:
// Go's select already chooses uniformly among ready cases, so no
// fairness bookkeeping is needed beyond using it directly.
func (w *ConsensusWorker) runLoop(ctx context.Context, protocolEvents <-chan ProtocolEvent) error {
	nextSlot, timer := w.armSlotTimer(w.currentOrGenesisSlot())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.protocol.Stop(context.Background())

		case cmd := <-w.commands:
			w.processCommand(ctx, cmd, nextSlot)

		case <-timer.C:
			w.onSlotTimer(ctx, nextSlot)
			nextSlot = slotclock.NextSlot(w.cfg.GraphConfig, nextSlot)
			timer.Reset(w.durationUntil(nextSlot))

		case ev := <-protocolEvents:
			w.processProtocolEvent(ctx, ev)
		}
	}
}

func (w *ConsensusWorker) currentOrGenesisSlot() types.Slot {
	now := uint64(time.Now().UnixMilli())
	current, err := slotclock.CurrentSlot(w.cfg.GraphConfig, now)
	if err != nil {
		return types.NewSlot(0, 0)
	}
	return slotclock.NextSlot(w.cfg.GraphConfig, current)
}

func (w *ConsensusWorker) armSlotTimer(next types.Slot) (types.Slot, *time.Timer) {
	return next, time.NewTimer(w.durationUntil(next))
}

func (w *ConsensusWorker) durationUntil(slot types.Slot) time.Duration {
	target := slotclock.SlotTimestamp(w.cfg.GraphConfig, slot)
	now := uint64(time.Now().UnixMilli())
	if target <= now {
		return 0
	}
	return time.Duration(target-now) * time.Millisecond
}

// onSlotTimer implements the slot-tick branch of spec.md §4.G's
// scenario #5: draw the block creator for the elapsed slot and, if it
// is this node, create and propagate a block.
func (w *ConsensusWorker) onSlotTimer(ctx context.Context, slot types.Slot) {
	creator, err := w.selector.Draw(slot.Thread, slot.Period)
	if err != nil {
		log.WithError(err).Warn("block creator draw failed")
		return
	}
	if creator != w.cfg.CurrentNodeIndex {
		return
	}
	block := w.blockDb.CreateBlock(slot, w.nodeId, nil)
	if !w.blockDb.AcknowledgeNewBlock(block) {
		return
	}
	if err := w.protocol.PropagateBlock(ctx, block, nil, nil); err != nil {
		log.WithError(err).Warn("propagating created block failed")
		return
	}
	w.events.Send(ConsensusEvent{Kind: EventBlockCreated, BlockId: block.Id})
}

func (w *ConsensusWorker) processCommand(ctx context.Context, cmd ConsensusCommand, slot types.Slot) {
	switch cmd.Kind {
	case CommandCreateBlock:
		block := w.blockDb.CreateBlock(slot, w.nodeId, cmd.Payload)
		if w.blockDb.AcknowledgeNewBlock(block) {
			if err := w.protocol.PropagateBlock(ctx, block, nil, nil); err != nil {
				log.WithError(err).Warn("propagating commanded block failed")
				return
			}
			w.events.Send(ConsensusEvent{Kind: EventBlockCreated, BlockId: block.Id})
		}
	}
}

// processProtocolEvent implements spec.md §4.G's inbound branch,
// covering scenario #6 (ReceivedBlock with a missing parent parks the
// block, with no propagation).
func (w *ConsensusWorker) processProtocolEvent(ctx context.Context, ev ProtocolEvent) {
	switch ev.Type {
	case ReceivedBlock:
		if ev.Block == nil {
			return
		}
		if w.blockDb.AcknowledgeNewBlock(ev.Block) {
			source := ev.Source
			if err := w.protocol.PropagateBlock(ctx, ev.Block, &source, nil); err != nil {
				log.WithError(err).Warn("propagating received block failed")
			}
		}
	case ReceivedTransaction:
		// transaction pool admission is out of scope (spec.md §1).
	case AskedBlock:
		w.respondToAsk(ctx, ev)
	}
}

// respondToAsk implements spec.md §4.G point 4: look up the asked
// block in the block database and, on hit, send it to the asker only.
// It fetches the full stored body rather than a header-only export, so
// the asker receives the real payload.
func (w *ConsensusWorker) respondToAsk(ctx context.Context, ev ProtocolEvent) {
	block, ok, err := w.gs.GetFullBlock(ev.AskedId)
	if err != nil {
		log.WithError(err).Warn("looking up asked block failed")
		return
	}
	if !ok {
		return
	}
	source := ev.Source
	if err := w.protocol.PropagateBlock(ctx, block, nil, &source); err != nil {
		log.WithError(err).Warn("sending asked block failed")
	}
}
