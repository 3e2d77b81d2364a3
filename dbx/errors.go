package dbx

import (
	"errors"
	"fmt"
)

// ConnectionError reports that a connection could not be opened. The wrapped
// operation was never invoked and no release was attempted.
type ConnectionError struct {
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("dbx: open connection: %v", e.Err)
}

// Unwrap returns the underlying driver error.
func (e *ConnectionError) Unwrap() error { return e.Err }

// OperationError reports that the caller-supplied operation itself failed.
// It is the boundary between driver-level errors and the typed taxonomy the
// stack exposes: raw statement errors always surface wrapped in one of these.
type OperationError struct {
	Err error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("dbx: operation failed: %v", e.Err)
}

// Unwrap returns the underlying operation error.
func (e *OperationError) Unwrap() error { return e.Err }

// TransactionError reports that commit or rollback itself failed. It is
// always surfaced and never retried automatically.
//
// When a rollback fails while unwinding an operation failure, Cause holds
// the original operation error so it is not masked by the rollback failure.
type TransactionError struct {
	// Op is the transaction verb that failed: "begin", "commit" or "rollback".
	Op string

	// Err is the error returned by the transaction verb.
	Err error

	// Cause is the operation failure that triggered the rollback, if any.
	Cause error
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dbx: transaction %s failed: %v (while handling: %v)", e.Op, e.Err, e.Cause)
	}
	return fmt.Sprintf("dbx: transaction %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the error from the failed transaction verb.
func (e *TransactionError) Unwrap() error { return e.Err }

// RetryExhaustedError reports that every retry attempt failed. It wraps the
// last underlying error and records how many attempts were made.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("dbx: retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// CompositionError reports an invalid middleware stack declared at build
// time, such as a cache layer wrapped around a transaction scope.
type CompositionError struct {
	Reason string
}

// Error implements the error interface.
func (e *CompositionError) Error() string {
	return "dbx: invalid composition: " + e.Reason
}

// WrapOperation normalizes an operation failure into the error taxonomy.
// Errors that are already typed pass through unchanged so the layers above
// can rely on errors.As without double wrapping.
func WrapOperation(err error) error {
	if err == nil {
		return nil
	}
	var (
		connErr  *ConnectionError
		opErr    *OperationError
		txErr    *TransactionError
		retryErr *RetryExhaustedError
	)
	if errors.As(err, &connErr) || errors.As(err, &opErr) || errors.As(err, &txErr) || errors.As(err, &retryErr) {
		return err
	}
	return &OperationError{Err: err}
}
