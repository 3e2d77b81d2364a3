package middleware

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-db-middleware/dbx"
	"github.com/goliatone/go-db-middleware/querycache"
)

type cacheSettings struct {
	isolate bool
}

// CacheOption configures the cache layer.
type CacheOption func(*cacheSettings)

// WithEntryIsolation stores msgpack snapshots instead of live values, so a
// caller mutating a returned result cannot corrupt the entry other calls
// will observe. Costs an encode per miss and a decode per hit; requires the
// result type to round-trip through msgpack.
func WithEntryIsolation() CacheOption {
	return func(s *cacheSettings) { s.isolate = true }
}

// Cached memoizes the wrapped operation's result. The key is derived by ks
// from the logical query text plus the call arguments; on a hit the wrapped
// operation is not invoked and no connection work happens. Only successful
// results are stored.
//
// The layer belongs directly around read operations. Wrapping it around a
// transaction scope or a mutating operation is a composition error: a hit
// would skip the real side effects. Pipeline rejects that shape; when
// composing by hand the caller carries that responsibility.
func Cached[T any](store querycache.Store, ks querycache.KeySerializer, query string, opts ...CacheOption) dbx.Middleware[T] {
	var settings cacheSettings
	for _, opt := range opts {
		opt(&settings)
	}

	return func(next dbx.Operation[T]) dbx.Operation[T] {
		return func(ctx context.Context, conn dbx.Connection, args ...any) (T, error) {
			key := ks.SerializeKey(query, args...)
			if settings.isolate {
				return cachedSnapshot(ctx, store, key, next, conn, args)
			}
			return querycache.GetOrCompute(ctx, store, key, func(ctx context.Context) (T, error) {
				return next(ctx, conn, args...)
			})
		}
	}
}

// cachedSnapshot round-trips entries through msgpack so each caller gets an
// independent value.
func cachedSnapshot[T any](ctx context.Context, store querycache.Store, key string, next dbx.Operation[T], conn dbx.Connection, args []any) (T, error) {
	var zero T

	raw, err := store.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		result, err := next(ctx, conn, args...)
		if err != nil {
			return nil, err
		}
		encoded, err := msgpack.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("middleware: encode cache entry for %q: %w", key, err)
		}
		return encoded, nil
	})
	if err != nil {
		return zero, err
	}

	encoded, ok := raw.([]byte)
	if !ok {
		return zero, fmt.Errorf("middleware: cache entry for %q holds %T, expected snapshot bytes", key, raw)
	}
	var out T
	if err := msgpack.Unmarshal(encoded, &out); err != nil {
		return zero, fmt.Errorf("middleware: decode cache entry for %q: %w", key, err)
	}
	return out, nil
}
