// Package selector implements the deterministic block-creator draw of
// spec.md §4.G: given a seed and a (thread, period), produce a node
// index proportional to participant weights. Grounded on
// original_source's RandomSelector::new(seed, thread_count,
// participants_weights) / selector.draw(thread, period).
package selector

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/pkg/errors"
)

// ErrNoParticipants is returned when Draw is called with no weighted
// participants to choose from.
var ErrNoParticipants = errors.New("no participants to select from")

// Selector draws a deterministic block creator per slot from a fixed
// seed and a weighted participant list.
type Selector struct {
	seed    []byte
	weights []uint64
	total   uint64
}

// New builds a Selector over participantWeights, keyed by seed.
// threadCount is accepted for symmetry with the spec's constructor
// signature but does not affect the draw itself (the draw only needs
// thread and period as inputs, not the thread count).
func New(seed []byte, threadCount uint8, participantWeights []uint64) *Selector {
	_ = threadCount
	s := &Selector{
		seed:    append([]byte(nil), seed...),
		weights: append([]uint64(nil), participantWeights...),
	}
	for _, w := range s.weights {
		s.total += w
	}
	return s
}

// Draw returns the index of the node selected to produce the block at
// (thread, period). It is a pure function of (seed, thread, period):
// calling it twice with the same inputs always returns the same
// index.
func (s *Selector) Draw(thread uint8, period uint64) (uint64, error) {
	if len(s.weights) == 0 || s.total == 0 {
		return 0, ErrNoParticipants
	}
	r := rand.New(rand.NewSource(int64(s.slotSeed(thread, period))))
	target := uint64(r.Int63n(int64(s.total)))
	var cursor uint64
	for idx, w := range s.weights {
		cursor += w
		if target < cursor {
			return uint64(idx), nil
		}
	}
	// unreachable unless weights overflowed int64 range
	return uint64(len(s.weights) - 1), nil
}

// slotSeed folds the selector's seed and the target slot into a single
// uint64 PRNG seed, via a non-cryptographic hash: deterministic and
// stable across processes/platforms, which is all this needs.
func (s *Selector) slotSeed(thread uint8, period uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(s.seed)
	var buf [9]byte
	buf[0] = thread
	binary.LittleEndian.PutUint64(buf[1:], period)
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
