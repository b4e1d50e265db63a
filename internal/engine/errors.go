package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransactionNotFound is returned when the target transaction does
	// not exist in the log.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlreadyReversed is returned when the target transaction has
	// already been reversed. Reversal is idempotent at this boundary.
	ErrAlreadyReversed = errors.New("transaction already reversed")

	// ErrNotReversible is returned when the target transaction can never
	// be reversed, for example a compensating transaction or a
	// transaction that did not complete.
	ErrNotReversible = errors.New("transaction is not reversible")

	// ErrReversalInProgress is returned when another request holds the
	// reversal lock for the same transaction.
	ErrReversalInProgress = errors.New("reversal already in progress")
)

// ValidationError reports a malformed reversal request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// LedgerWriteError reports that a single ledger adjustment failed after
// retries were exhausted.
type LedgerWriteError struct {
	Ledger string
	Err    error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("ledger write failed on %s: %v", e.Ledger, e.Err)
}

func (e *LedgerWriteError) Unwrap() error {
	return e.Err
}

// PartialReversalError reports that the reversal completed on some ledgers
// but not all. ActionsTaken lists what did succeed so operators can see
// how far the reversal got; Failures lists what remains.
type PartialReversalError struct {
	ReversalTransactionID string
	ActionsTaken          []string
	Failures              []string
	FailedLedgers         []string
}

func (e *PartialReversalError) Error() string {
	return fmt.Sprintf("reversal partially applied (%d actions, %d failures): %s",
		len(e.ActionsTaken), len(e.Failures), strings.Join(e.Failures, "; "))
}

// PersistenceError reports that the compensating transaction itself could
// not be recorded, meaning no durable trace of the reversal exists.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
