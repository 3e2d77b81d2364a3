// Package di wires the middleware stack's collaborators together.
//
// The container manages singleton instances of the database client, cache
// store, key serializer, and query log sink, and provides factory functions
// for declaring composed operations. Since Go methods cannot have type
// parameters, the generic factories are package-level functions that take
// the container as their first argument.
package di

import (
	"github.com/goliatone/go-db-middleware/dbx"
	"github.com/goliatone/go-db-middleware/internal/cacheinfra"
	"github.com/goliatone/go-db-middleware/internal/sqlinfra"
	"github.com/goliatone/go-db-middleware/middleware"
	"github.com/goliatone/go-db-middleware/querycache"
	"github.com/goliatone/go-db-middleware/querylog"
)

// Config exposes the container's knobs without leaking internal types.
type Config struct {
	// Driver is a registered database/sql driver name.
	Driver string

	// DSN is the driver-specific data source name.
	DSN string

	// BoundedCache swaps the default unbounded memory store for the
	// sturdyc-backed bounded store with its default capacity and TTL.
	// Leave false for the process-lifetime, no-eviction default.
	BoundedCache bool

	// KeyFromQueryText keys cache entries on query text alone, ignoring
	// bound arguments. Off by default; see querycache for the collision
	// hazard this reintroduces.
	KeyFromQueryText bool

	// Retry is the default retry configuration handed to pipelines.
	Retry middleware.RetryConfig

	// QueryLogPath, when set, appends query records to a rotated JSON file.
	// When empty, query records are buffered in memory.
	QueryLogPath string

	// QueryLogMaxSizeMB bounds the query log file size before rotation.
	QueryLogMaxSizeMB int
}

// DefaultConfig returns a Config for a local sqlite database with the
// unbounded cache and default retry settings.
func DefaultConfig() Config {
	db := sqlinfra.DefaultConfig()
	return Config{
		Driver: db.Driver,
		DSN:    db.DSN,
		Retry:  middleware.DefaultRetryConfig(),
	}
}

// Container provides dependency injection for the middleware components.
type Container struct {
	client *sqlinfra.Client
	store  querycache.Store
	ks     querycache.KeySerializer
	sink   querylog.Sink
	retry  middleware.RetryConfig

	fileSink *querylog.FileSink
}

// NewContainer validates cfg and builds the singleton collaborators.
func NewContainer(cfg Config) (*Container, error) {
	dbCfg := sqlinfra.DefaultConfig()
	dbCfg.Driver = cfg.Driver
	dbCfg.DSN = cfg.DSN
	client, err := sqlinfra.NewClient(dbCfg)
	if err != nil {
		return nil, err
	}

	var store querycache.Store = querycache.NewMemoryStore()
	if cfg.BoundedCache {
		bounded, err := cacheinfra.NewSturdycStore(cacheinfra.DefaultConfig())
		if err != nil {
			return nil, err
		}
		store = bounded
	}

	var ks querycache.KeySerializer = querycache.NewQueryKeySerializer()
	if cfg.KeyFromQueryText {
		ks = querycache.NewTextKeySerializer()
	}

	c := &Container{
		client: client,
		store:  store,
		ks:     ks,
		retry:  cfg.Retry,
	}
	if cfg.QueryLogPath != "" {
		c.fileSink = querylog.NewFileSink(cfg.QueryLogPath, cfg.QueryLogMaxSizeMB)
		c.sink = c.fileSink
	} else {
		c.sink = querylog.NewMemorySink()
	}
	return c, nil
}

// NewContainerWithDefaults builds a container from DefaultConfig.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(DefaultConfig())
}

// Client returns the singleton database client.
func (c *Container) Client() dbx.Client { return c.client }

// Store returns the singleton cache store.
func (c *Container) Store() querycache.Store { return c.store }

// KeySerializer returns the singleton key serializer.
func (c *Container) KeySerializer() querycache.KeySerializer { return c.ks }

// Sink returns the singleton query log sink.
func (c *Container) Sink() querylog.Sink { return c.sink }

// RetryConfig returns the default retry configuration.
func (c *Container) RetryConfig() middleware.RetryConfig { return c.retry }

// Close releases the client pool and flushes the query log sink.
func (c *Container) Close() error {
	if c.fileSink != nil {
		_ = c.fileSink.Close()
	}
	return c.client.Close()
}

// NewPipeline starts a pipeline for query using the container's client.
// Layers are declared by the caller; see the middleware package for the
// nesting rules.
func NewPipeline[T any](c *Container, query string) *middleware.Pipeline[T] {
	return middleware.NewPipeline[T](c.client, query)
}

// NewCachedRead composes the usual read stack for op: logger outermost, then
// the connection provider, with the cache directly around the operation.
func NewCachedRead[T any](c *Container, query string, op dbx.Operation[T]) (dbx.Runnable[T], error) {
	return NewPipeline[T](c, query).
		Logged(c.sink).
		Cached(c.store, c.ks).
		Build(op)
}

// NewTransactionalWrite composes the usual write stack for op: logger, then
// retry around a per-attempt transaction scope. Each failed attempt rolls
// back before the next begins.
func NewTransactionalWrite[T any](c *Container, query string, op dbx.Operation[T]) (dbx.Runnable[T], error) {
	return NewPipeline[T](c, query).
		Logged(c.sink).
		Retry(c.retry).
		Transactional().
		Build(op)
}
