// Package middleware implements the resilience layers that wrap raw
// database operations.
//
// # Overview
//
// Five layers are provided, each a plain function over the dbx contracts:
//
//   - WithConnection: acquires one connection per call and guarantees release
//   - Transactional: begin on entry, commit-or-rollback on exit
//   - Retry: bounded re-invocation with a fixed delay between attempts
//   - Cached: result memoization keyed by the logical query
//   - Logged: records query text and timestamp before execution
//
// Pipeline composes them declaratively and validates the nesting order at
// build time.
//
// # Nesting Rules
//
// WithConnection must be the outermost layer that touches the connection; no
// inner layer opens or closes a connection of its own. Transactional sits
// inside WithConnection on the same connection and applies at most once per
// call. Retry may wrap either the raw operation or a transaction scope:
// wrapping a transaction scope gives per-attempt atomicity (each failed
// attempt rolls back before the next begins); wrapping the raw operation
// alone leaves partial side effects of failed attempts in place, which the
// caller must account for when choosing the order. Cached belongs as close
// to the raw operation as practical and only around reads: a cache wrapped
// around a transaction scope would skip the transaction's side effects
// entirely on a hit, so Pipeline rejects that shape at build time. Logged
// operates on the query text alone and wraps the finished Runnable outside
// the provider.
//
// # Retry Semantics
//
// Retry treats every failure as retryable. It does not distinguish transient
// from permanent errors; narrowing retryable failures is the caller's job,
// either by composing Retry around a smaller operation or by not retrying at
// all. The delay is fixed, with no backoff growth, and suspends only the
// calling goroutine.
//
// # Error Surface
//
// A composed call returns either a result or one error from the dbx
// taxonomy. WithConnection is the normalization boundary: raw driver errors
// coming out of an operation are wrapped in dbx.OperationError there, while
// errors already typed by inner layers pass through unchanged.
package middleware
