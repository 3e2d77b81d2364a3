// Package cacheinfra provides the sturdyc-backed bounded cache store.
//
// The default querycache.MemoryStore never evicts; this adapter is for
// callers that want a capacity bound, TTL expiry, and stampede protection
// instead. It satisfies the same querycache.Store contract so the two are
// interchangeable at composition time.
package cacheinfra

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc store.
type Config struct {
	// Capacity is the maximum number of entries the cache can store.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	NumShards int

	// TTL is the time-to-live for cached entries.
	TTL time.Duration

	// EvictionPercentage is what share of entries to evict when the cache
	// reaches capacity, between 1 and 100.
	EvictionPercentage int

	// EarlyRefresh configures background refresh of hot entries before they
	// expire. Nil disables early refresh.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage remembers keys that produced no result, so
	// repeated lookups for absent records skip the database.
	MissingRecordStorage bool

	// EvictionInterval sets how often expired entries are collected.
	// Zero uses the sturdyc default.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return err
	}
	if c.EarlyRefresh != nil {
		return validation.ValidateStruct(c.EarlyRefresh,
			validation.Field(&c.EarlyRefresh.MinAsyncRefreshTime, validation.Min(time.Duration(0))),
			validation.Field(&c.EarlyRefresh.MaxAsyncRefreshTime, validation.Min(time.Duration(0))),
			validation.Field(&c.EarlyRefresh.SyncRefreshTime, validation.Min(time.Duration(0))),
			validation.Field(&c.EarlyRefresh.RetryBaseDelay, validation.Min(time.Duration(0))),
		)
	}
	return nil
}

// toOptions maps the optional parts of the Config to sturdyc options.
// Capacity, NumShards, TTL, and EvictionPercentage go to the constructor.
func (c Config) toOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}
	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// SturdycStore implements querycache.Store over a sturdyc client.
type SturdycStore struct {
	client *sturdyc.Client[any]
}

// NewSturdycStore validates cfg and builds the bounded store.
func NewSturdycStore(cfg Config) (*SturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.toOptions()...,
	)

	return &SturdycStore{client: client}, nil
}

// GetOrCompute implements querycache.Store. Unlike MemoryStore, sturdyc
// deduplicates in-flight computations for the same key, so racing callers
// share one computation.
func (s *SturdycStore) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (any, error)) (any, error) {
	return s.client.GetOrFetch(ctx, key, compute)
}

// Delete implements querycache.Store.
func (s *SturdycStore) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// Keys implements querycache.Store.
func (s *SturdycStore) Keys() []string {
	return s.client.ScanKeys()
}
