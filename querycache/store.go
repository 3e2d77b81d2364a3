package querycache

import (
	"context"
	"fmt"
	"strings"
)

// ComputeFn is the function signature a Store invokes on a cache miss.
type ComputeFn[T any] func(ctx context.Context) (T, error)

// Store is the get-or-compute contract shared by cache backends. On a key
// hit the compute function is never invoked; on a miss the store runs it,
// memoizes a successful result under key, and returns it. Errors are never
// cached.
type Store interface {
	GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (any, error)) (any, error)
	Delete(ctx context.Context, key string) error
	Keys() []string
}

// GetOrCompute is a type-safe wrapper around Store.GetOrCompute.
func GetOrCompute[T any](ctx context.Context, store Store, key string, compute ComputeFn[T]) (T, error) {
	var zero T
	result, err := store.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		return compute(ctx)
	})
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: entry for key %q holds %T, not the requested type", key, result)
	}
	return typed, nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func DeleteByPrefix(ctx context.Context, store Store, prefix string) error {
	for _, key := range store.Keys() {
		if strings.HasPrefix(key, prefix) {
			if err := store.Delete(ctx, key); err != nil {
				return err
			}
		}
	}
	return nil
}
