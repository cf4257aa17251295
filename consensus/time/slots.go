// Package time implements the slot clock of spec.md §4.A: pure
// functions mapping wall-clock time to and from (thread, period)
// slots, with no package-level mutable state, the way the teacher's
// own time/slots package is a set of pure functions over a config
// value rather than a stateful clock object.
package time

import (
	"github.com/pkg/errors"
	"github.com/massalabs/massa-core/config/params"
	"github.com/massalabs/massa-core/consensus/types"
)

// ErrBeforeGenesis is returned by CurrentSlot when now is earlier than
// the configured genesis timestamp.
var ErrBeforeGenesis = errors.New("timestamp is before genesis")

// SlotTimestamp returns the wall-clock millisecond timestamp at which
// s begins: genesis + (period*T + thread) * t0/T.
func SlotTimestamp(cfg params.GraphConfig, s types.Slot) uint64 {
	threadCount := uint64(cfg.ThreadCount)
	slotIndex := s.Period*threadCount + uint64(s.Thread)
	return cfg.GenesisTimestampMillis + (slotIndex*cfg.T0Millis)/threadCount
}

// CurrentSlot returns the slot active at nowMillis, or ErrBeforeGenesis
// if nowMillis precedes the genesis timestamp.
func CurrentSlot(cfg params.GraphConfig, nowMillis uint64) (types.Slot, error) {
	if nowMillis < cfg.GenesisTimestampMillis {
		return types.Slot{}, ErrBeforeGenesis
	}
	threadCount := uint64(cfg.ThreadCount)
	elapsed := nowMillis - cfg.GenesisTimestampMillis
	slotIndex := elapsed * threadCount / cfg.T0Millis
	return types.NewSlot(uint8(slotIndex%threadCount), slotIndex/threadCount), nil
}

// NextSlot returns the slot immediately following s, incrementing the
// thread and carrying into the next period when it wraps.
func NextSlot(cfg params.GraphConfig, s types.Slot) types.Slot {
	if uint64(s.Thread)+1 >= uint64(cfg.ThreadCount) {
		return types.NewSlot(0, s.Period+1)
	}
	return types.NewSlot(s.Thread+1, s.Period)
}
