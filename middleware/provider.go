package middleware

import (
	"context"
	"errors"

	"github.com/goliatone/go-db-middleware/dbx"
)

// WithConnection converts a connection-bound operation into a standalone
// Runnable. Each invocation opens exactly one connection, passes it to op,
// and releases it on every exit path. When the open itself fails the
// operation is never invoked and the error surfaces as a
// dbx.ConnectionError.
//
// This is also where the error taxonomy is enforced: a raw driver error
// returned by op leaves here wrapped in dbx.OperationError.
func WithConnection[T any](client dbx.Client, op dbx.Operation[T]) dbx.Runnable[T] {
	return func(ctx context.Context, args ...any) (T, error) {
		var zero T

		conn, err := client.Open(ctx)
		if err != nil {
			var connErr *dbx.ConnectionError
			if errors.As(err, &connErr) {
				return zero, err
			}
			return zero, &dbx.ConnectionError{Err: err}
		}
		defer conn.Close()

		result, err := op(ctx, conn, args...)
		if err != nil {
			return zero, dbx.WrapOperation(err)
		}
		return result, nil
	}
}
