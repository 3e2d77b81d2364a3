package middleware

import (
	"context"

	"github.com/goliatone/go-db-middleware/dbx"
)

// Transactional wraps an operation in a begin/commit-or-rollback boundary on
// the connection it already holds. On normal return the boundary commits; on
// any failure it rolls back and re-returns the original error unchanged.
// Exactly one commit-or-rollback decision is made per invocation, never both.
//
// A commit failure surfaces as dbx.TransactionError. A rollback failure also
// surfaces as dbx.TransactionError, with the operation error that triggered
// the rollback preserved in its Cause field.
func Transactional[T any]() dbx.Middleware[T] {
	return func(next dbx.Operation[T]) dbx.Operation[T] {
		return func(ctx context.Context, conn dbx.Connection, args ...any) (T, error) {
			var zero T

			if err := conn.Begin(ctx); err != nil {
				return zero, &dbx.TransactionError{Op: "begin", Err: err}
			}

			result, err := next(ctx, conn, args...)
			if err != nil {
				if rbErr := conn.Rollback(); rbErr != nil {
					return zero, &dbx.TransactionError{Op: "rollback", Err: rbErr, Cause: err}
				}
				return zero, err
			}

			if err := conn.Commit(); err != nil {
				return zero, &dbx.TransactionError{Op: "commit", Err: err}
			}
			return result, nil
		}
	}
}
