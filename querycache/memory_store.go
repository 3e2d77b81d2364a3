package querycache

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

// defaultShards balances contention against per-shard overhead for typical
// read-mostly workloads.
const defaultShards = 16

// MemoryStore is the default Store: an unbounded, sharded in-process map.
// Entries never expire and are never evicted; lifetime equals the lifetime
// of the store instance. Shards are selected by xxhash of the key so
// unrelated keys rarely contend.
type MemoryStore struct {
	shards []*xsync.MapOf[string, any]
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithShards sets the shard count. Values below 1 are ignored.
func WithShards(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n >= 1 {
			s.shards = make([]*xsync.MapOf[string, any], n)
		}
	}
}

// NewMemoryStore creates an empty unbounded store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		shards: make([]*xsync.MapOf[string, any], defaultShards),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = xsync.NewMapOf[string, any]()
	}
	return s
}

func (s *MemoryStore) shard(key string) *xsync.MapOf[string, any] {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

// GetOrCompute implements Store. Two calls racing on the same missing key
// may both run compute; the first stored value wins and both callers observe
// it. A compute error leaves the key absent.
func (s *MemoryStore) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (any, error)) (any, error) {
	shard := s.shard(key)
	if value, ok := shard.Load(key); ok {
		return value, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	stored, _ := shard.LoadOrStore(key, value)
	return stored, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.shard(key).Delete(key)
	return nil
}

// Keys implements Store. The snapshot is not ordered.
func (s *MemoryStore) Keys() []string {
	var keys []string
	for _, shard := range s.shards {
		shard.Range(func(key string, _ any) bool {
			keys = append(keys, key)
			return true
		})
	}
	return keys
}

// Len reports the number of live entries across all shards.
func (s *MemoryStore) Len() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Size()
	}
	return total
}
