package types

// StatusKind tags which variant of BlockStatus is populated.
type StatusKind int

const (
	StatusIncoming StatusKind = iota
	StatusWaitingForSlot
	StatusWaitingForDependencies
	StatusActive
	StatusDiscarded
)

func (k StatusKind) String() string {
	switch k {
	case StatusIncoming:
		return "Incoming"
	case StatusWaitingForSlot:
		return "WaitingForSlot"
	case StatusWaitingForDependencies:
		return "WaitingForDependencies"
	case StatusActive:
		return "Active"
	case StatusDiscarded:
		return "Discarded"
	default:
		return "Unknown"
	}
}

// DiscardReason explains why a block was permanently rejected.
type DiscardReason string

const (
	DiscardInvalid            DiscardReason = "invalid"
	DiscardStale              DiscardReason = "stale"
	DiscardIncompatible       DiscardReason = "incompatible"
	DiscardAlreadyIncluded    DiscardReason = "already_included"
)

// DiscardedInfo is what survives of a block after its body is released.
type DiscardedInfo struct {
	Slot    Slot
	Creator NodeId
	Parents []ParentRef
	Reason  DiscardReason
}

// BlockStatus is the five-state lifecycle of spec.md §3. Exactly one
// of the pointer fields matching Kind is non-nil; this mirrors a Rust
// tagged enum as a Go tagged struct, the shape the corpus uses for
// status tables (prysm's BlockStatus equivalents are similarly a
// small enum resolved by field inspection).
type BlockStatus struct {
	Kind StatusKind

	// StatusIncoming / StatusWaitingForSlot
	Block *Block

	// StatusWaitingForDependencies
	WaitingBlock *Block
	Missing      map[BlockId]struct{}

	// StatusActive
	Active *ActiveBlock

	// StatusDiscarded
	Discarded *DiscardedInfo
}

func IncomingStatus(b *Block) BlockStatus {
	return BlockStatus{Kind: StatusIncoming, Block: b}
}

func WaitingForSlotStatus(b *Block) BlockStatus {
	return BlockStatus{Kind: StatusWaitingForSlot, Block: b}
}

func WaitingForDependenciesStatus(b *Block, missing map[BlockId]struct{}) BlockStatus {
	return BlockStatus{Kind: StatusWaitingForDependencies, WaitingBlock: b, Missing: missing}
}

func ActiveStatus(a *ActiveBlock) BlockStatus {
	return BlockStatus{Kind: StatusActive, Active: a}
}

func DiscardedStatus(info *DiscardedInfo) BlockStatus {
	return BlockStatus{Kind: StatusDiscarded, Discarded: info}
}

// GraphStatus is the externally-queryable status returned by
// GetBlockStatus (spec.md §4.F), which refines StatusActive into
// Final / ActiveInBlockclique / ActiveInAlternativeCliques.
type GraphStatus int

const (
	GraphStatusNotFound GraphStatus = iota
	GraphStatusIncoming
	GraphStatusWaitingForSlot
	GraphStatusWaitingForDependencies
	GraphStatusDiscarded
	GraphStatusFinal
	GraphStatusActiveInBlockclique
	GraphStatusActiveInAlternativeCliques
)

func (s GraphStatus) String() string {
	switch s {
	case GraphStatusNotFound:
		return "NotFound"
	case GraphStatusIncoming:
		return "Incoming"
	case GraphStatusWaitingForSlot:
		return "WaitingForSlot"
	case GraphStatusWaitingForDependencies:
		return "WaitingForDependencies"
	case GraphStatusDiscarded:
		return "Discarded"
	case GraphStatusFinal:
		return "Final"
	case GraphStatusActiveInBlockclique:
		return "ActiveInBlockclique"
	case GraphStatusActiveInAlternativeCliques:
		return "ActiveInAlternativeCliques"
	default:
		return "Unknown"
	}
}
