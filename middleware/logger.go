package middleware

import (
	"context"
	"time"

	"github.com/goliatone/go-db-middleware/dbx"
	"github.com/goliatone/go-db-middleware/querylog"
)

// Logged records the literal query text and a timestamp to sink before each
// invocation. It operates on the query string only, needs no connection, and
// therefore wraps the Runnable outside the connection provider.
//
// Sink failures are swallowed: logging never prevents the wrapped call from
// executing or alters its result.
func Logged[T any](sink querylog.Sink, query string) func(dbx.Runnable[T]) dbx.Runnable[T] {
	return func(next dbx.Runnable[T]) dbx.Runnable[T] {
		return func(ctx context.Context, args ...any) (T, error) {
			_ = sink.Write(querylog.Record{
				Timestamp: time.Now(),
				Query:     query,
				Args:      args,
			})
			return next(ctx, args...)
		}
	}
}
