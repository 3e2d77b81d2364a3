package dbx

import "context"

// Client opens database connections. Implementations wrap a concrete driver
// or pool; the middleware stack only ever opens one connection per call.
type Client interface {
	Open(ctx context.Context) (Connection, error)
}

// Result reports the outcome of a statement that does not return rows.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Rows is a forward-only result set cursor.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Connection is an ownership-bound handle to a database session.
//
// A connection holds at most one active transaction boundary at a time:
// statements executed between Begin and Commit/Rollback run inside that
// transaction. Exactly one call owns a connection for the call's duration,
// and the owning layer releases it on every exit path.
type Connection interface {
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) (Result, error)

	// Query runs a statement that returns rows. The caller must close the cursor.
	Query(ctx context.Context, query string, args ...any) (Rows, error)

	// Begin opens a transaction boundary on this connection.
	Begin(ctx context.Context) error

	// Commit resolves the active transaction boundary as committed.
	Commit() error

	// Rollback resolves the active transaction boundary as rolled back.
	Rollback() error

	// Close releases the connection back to the underlying client.
	Close() error
}

// Operation is a caller-supplied unit of work that executes one or more
// statements against a live connection. Middleware wraps operations but
// never mutates them.
type Operation[T any] func(ctx context.Context, conn Connection, args ...any) (T, error)

// Runnable is a composed operation whose connection lifecycle is already
// managed. It is the caller-facing shape of a fully built stack.
type Runnable[T any] func(ctx context.Context, args ...any) (T, error)

// Middleware wraps an Operation with additional behavior such as
// transactional boundaries, retry, or caching.
type Middleware[T any] func(Operation[T]) Operation[T]

// Chain applies middleware around op. The first middleware in mws becomes
// the outermost layer, so reading the call site top to bottom matches the
// runtime nesting order.
func Chain[T any](op Operation[T], mws ...Middleware[T]) Operation[T] {
	for i := len(mws) - 1; i >= 0; i-- {
		op = mws[i](op)
	}
	return op
}
