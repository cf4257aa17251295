package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// BlockId is an opaque, fixed-size content digest. It is hashable and
// compared by value.
type BlockId [32]byte

// String renders the id as a short hex string, for logging.
func (id BlockId) String() string {
	return hex.EncodeToString(id[:])[:12]
}

// IsZero reports whether id is the zero value (used as a "no parent"
// sentinel for genesis blocks).
func (id BlockId) IsZero() bool {
	return id == BlockId{}
}

// ComputeBlockId derives the content-addressed id of a block from its
// slot, creator and parents. Real header/signature hashing is out of
// scope (spec.md §1); this is deliberately a simple stdlib digest over
// the fields that make a block unique, not a protocol-grade hash.
func ComputeBlockId(slot Slot, creator NodeId, parents [][32]byte) BlockId {
	h := sha256.New()
	buf := make([]byte, 0, 16)
	buf = append(buf, byte(slot.Thread))
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(slot.Period>>(8*i)))
	}
	_, _ = h.Write(buf)
	_, _ = h.Write(creator[:])
	for _, p := range parents {
		_, _ = h.Write(p[:])
	}
	var out BlockId
	copy(out[:], h.Sum(nil))
	return out
}

// NodeId identifies a participant of the consensus protocol.
type NodeId [32]byte

func (id NodeId) String() string {
	return hex.EncodeToString(id[:])[:12]
}

// ParentRef is one thread's parent pointer: the parent's id and its
// period (duplicated for cheap access without a lookup).
type ParentRef struct {
	Id     BlockId
	Period uint64
}

// ChildRef is one child of an ActiveBlock in a given thread.
type ChildRef struct {
	Id     BlockId
	Period uint64
}

// Block is the wire-level payload as admitted: header fields plus an
// opaque operation payload. Transaction execution and signature
// verification are out of scope (spec.md §1); Payload is carried
// through unexamined.
type Block struct {
	Id       BlockId
	Slot     Slot
	Creator  NodeId
	Parents []ParentRef // len == ThreadCount; empty for genesis
	Payload []byte
}

// ActiveBlock is a Block integrated into the DAG: parent links are
// resolved and it participates in the incompatibility graph and
// cliques.
type ActiveBlock struct {
	Block

	// Children maps, for each thread, child block id -> child period.
	Children []map[BlockId]uint64

	// Dependencies lists other active blocks this block is declared to
	// depend on beyond its direct parents (rule (iii) of the
	// incompatibility predicate, spec.md §4.D). Supplements the
	// distillation: original_source's ActiveBlock carries "dependency
	// summaries needed for incompatibility".
	Dependencies []BlockId

	IsFinal bool
}

// NewActiveBlock wraps a Block as a freshly admitted ActiveBlock with
// per-thread children maps allocated.
func NewActiveBlock(b Block, threadCount uint8, deps []BlockId) *ActiveBlock {
	children := make([]map[BlockId]uint64, threadCount)
	for i := range children {
		children[i] = make(map[BlockId]uint64)
	}
	return &ActiveBlock{
		Block:        b,
		Children:     children,
		Dependencies: deps,
	}
}

// IsGenesis reports whether this active block has no parents.
func (a *ActiveBlock) IsGenesis() bool {
	for _, p := range a.Parents {
		if !p.Id.IsZero() {
			return false
		}
	}
	return true
}

// Clique is a maximal set of mutually compatible active blocks.
type Clique struct {
	BlockIds      map[BlockId]struct{}
	Fitness       uint64
	IsBlockclique bool
}

// SortedBlockIds returns the clique's block ids in a stable,
// deterministic order, used for fitness tie-breaking (spec.md §4.D).
func (c *Clique) SortedBlockIds() []BlockId {
	out := make([]BlockId, 0, len(c.BlockIds))
	for id := range c.BlockIds {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
