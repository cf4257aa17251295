package types

import "github.com/pkg/errors"

// Sentinel error kinds from spec.md §7. Use errors.Is/errors.As against
// these rather than string-matching; call sites wrap with
// github.com/pkg/errors for additional context.
var (
	// ErrContainerInconsistency signals that the status table and the
	// active subgraph disagree (invariant broken). Fatal: the caller
	// must halt the worker.
	ErrContainerInconsistency = errors.New("container inconsistency")

	// ErrMissingBlock signals an expected body absent from the block
	// store. Fatal for the current operation only.
	ErrMissingBlock = errors.New("missing block")

	// ErrAdmissionRejected signals a block failed admission
	// preconditions. Non-fatal: the block becomes Discarded.
	ErrAdmissionRejected = errors.New("admission rejected")

	// ErrProtocolError is surfaced by the protocol collaborator.
	ErrProtocolError = errors.New("protocol error")
)

// ContainerInconsistencyError wraps ErrContainerInconsistency with the
// offending block id, matching original_source's
// GraphError::ContainerInconsistency(String).
type ContainerInconsistencyError struct {
	MissingId BlockId
}

func (e *ContainerInconsistencyError) Error() string {
	return "container inconsistency: " + e.MissingId.String() + " missing from active subgraph"
}

func (e *ContainerInconsistencyError) Unwrap() error {
	return ErrContainerInconsistency
}

// NewContainerInconsistencyError builds a ContainerInconsistencyError
// for the given missing id.
func NewContainerInconsistencyError(id BlockId) error {
	return &ContainerInconsistencyError{MissingId: id}
}

// MissingBlockError wraps ErrMissingBlock with the offending id.
type MissingBlockError struct {
	BlockId BlockId
}

func (e *MissingBlockError) Error() string {
	return "missing block: " + e.BlockId.String()
}

func (e *MissingBlockError) Unwrap() error {
	return ErrMissingBlock
}

func NewMissingBlockError(id BlockId) error {
	return &MissingBlockError{BlockId: id}
}

// AdmissionRejectedError wraps ErrAdmissionRejected with the reason.
type AdmissionRejectedError struct {
	Reason DiscardReason
}

func (e *AdmissionRejectedError) Error() string {
	return "admission rejected: " + string(e.Reason)
}

func (e *AdmissionRejectedError) Unwrap() error {
	return ErrAdmissionRejected
}

func NewAdmissionRejectedError(reason DiscardReason) error {
	return &AdmissionRejectedError{Reason: reason}
}
