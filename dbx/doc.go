// Package dbx defines the core contracts shared by the middleware stack.
//
// # Overview
//
// This package exports the small set of types every other package in the
// module composes around:
//
//   - Client: opens Connections; implemented by database adapters
//   - Connection: an ownership-bound handle to one database session
//   - Operation[T]: a caller-supplied unit of work executed against a Connection
//   - Runnable[T]: a composed call that no longer needs a Connection
//   - Middleware[T]: wraps an Operation with cross-cutting behavior
//
// The package also owns the error taxonomy surfaced to callers. No layer in
// the stack lets a raw driver error escape: failures are always one of
// ConnectionError, OperationError, TransactionError, RetryExhaustedError, or
// CompositionError.
//
// # Composition Model
//
// Middleware is applied by building a linear chain at configuration time:
//
//	op := dbx.Chain(rawOp,
//		middleware.Retry[int](retryCfg),
//		middleware.Transactional[int](),
//	)
//	run := middleware.WithConnection(client, op)
//	result, err := run(ctx, args...)
//
// Chain applies middleware so that the first entry becomes the outermost
// layer. The connection provider converts an Operation into a Runnable and
// must always be the outermost layer that touches the connection; the query
// logger operates on the query text alone and therefore wraps the Runnable.
//
// For a declarative surface with ordering validation, see the middleware
// package's Pipeline type.
//
// # Ownership Rules
//
// A Connection is exclusively owned by one call for that call's duration.
// Middleware never mutates the wrapped Operation, only wraps it. No inner
// layer may open or close a connection of its own.
package dbx
