package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransientRPC is returned when the ledger RPC endpoint is unreachable, times out or answers with an error status
	ErrTransientRPC = errors.New("transient rpc error")

	// ErrTransactionNotFound is returned when the RPC endpoint does not know a signature (yet)
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDecodeFailure is returned when a log payload is malformed or carries an unknown event tag
	ErrDecodeFailure = errors.New("decode failure")

	// ErrValidation is returned when a candidate record is rejected by the store
	ErrValidation = errors.New("validation error")

	// ErrOwnershipMismatch is returned when the claimed owner is confirmed not to hold the item
	ErrOwnershipMismatch = fmt.Errorf("%w: ownership mismatch", ErrValidation)

	// ErrStorage is returned when the database is unavailable or a query fails
	ErrStorage = errors.New("storage error")

	// ErrInvalidAddress is returned when an address is not a valid base58 public key
	ErrInvalidAddress = fmt.Errorf("%w: invalid address", ErrValidation)
)

// ProcessingError carries enough context to replay a failed signature manually
type ProcessingError struct {
	Signature string
	ProgramID string
	Attempts  int
	Err       error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("failed to process signature %s for program %s after %d attempt(s): %v",
		e.Signature, e.ProgramID, e.Attempts, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether an ingestion error may succeed on a later attempt.
// Validation and decode failures are terminal for the signature.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrValidation) && !errors.Is(err, ErrDecodeFailure)
}
