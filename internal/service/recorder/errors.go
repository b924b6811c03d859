package recorder

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientStock: the decrement would take a location below zero.
	// Raised before any write.
	ErrInsufficientStock = errors.New("recorder: insufficient stock")

	// ErrUnknownItem: the referenced catalog item does not exist.
	ErrUnknownItem = errors.New("recorder: unknown item")

	// ErrUnknownDepartment: the referenced department does not exist.
	ErrUnknownDepartment = errors.New("recorder: unknown department")

	// ErrDuplicateMovement: the idempotency key was already used for this
	// movement type; the original movement stands and nothing was re-applied.
	ErrDuplicateMovement = errors.New("recorder: duplicate movement")

	// ErrConcurrentModification: the store aborted the transaction because
	// of a conflicting concurrent writer. Safe to retry.
	ErrConcurrentModification = errors.New("recorder: concurrent modification")

	// ErrUnknownRequest: no pending transfer request with that id.
	ErrUnknownRequest = errors.New("recorder: unknown transfer request")
)

// LineFailure names one transfer-request line that could not be applied.
type LineFailure struct {
	ItemID int64
	Err    error
}

// PartialTransferError reports a transfer-request confirmation where some
// lines were applied and some were not. Each line commits atomically on its
// own, so "partial" here is always at line granularity: Applied lists item
// ids whose movements are committed, Failed the ones left untouched.
type PartialTransferError struct {
	RequestID int64
	Applied   []int64
	Failed    []LineFailure
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf("recorder: transfer request %d partially completed: %d lines applied, %d failed",
		e.RequestID, len(e.Applied), len(e.Failed))
}
