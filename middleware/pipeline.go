package middleware

import (
	"github.com/goliatone/go-db-middleware/dbx"
	"github.com/goliatone/go-db-middleware/querycache"
	"github.com/goliatone/go-db-middleware/querylog"
)

// Pipeline declares the middleware stack for one logical query. Layers are
// added outermost first, matching the runtime nesting order, and hazardous
// shapes are rejected when Build is called rather than silently allowed.
//
//	run, err := middleware.NewPipeline[int64](client, updateEmailQuery).
//		Logged(sink).
//		Retry(middleware.DefaultRetryConfig()).
//		Transactional().
//		Build(updateEmail)
//
// The connection provider is always applied by Build and is not a declared
// layer; the logger, when configured, wraps outside it.
type Pipeline[T any] struct {
	client dbx.Client
	query  string
	sink   querylog.Sink
	mws    []dbx.Middleware[T]

	hasTx    bool
	hasCache bool
	err      error
}

// NewPipeline starts a pipeline for the given client and logical query text.
// The query text feeds the logger and the cache key derivation.
func NewPipeline[T any](client dbx.Client, query string) *Pipeline[T] {
	return &Pipeline[T]{client: client, query: query}
}

func (p *Pipeline[T]) fail(reason string) *Pipeline[T] {
	if p.err == nil {
		p.err = &dbx.CompositionError{Reason: reason}
	}
	return p
}

// Logged records the query text and a timestamp to sink before every call.
func (p *Pipeline[T]) Logged(sink querylog.Sink) *Pipeline[T] {
	if sink == nil {
		return p.fail("logger requires a sink")
	}
	if p.query == "" {
		return p.fail("logger requires a query text")
	}
	p.sink = sink
	return p
}

// Retry adds the retry layer at the current nesting position.
func (p *Pipeline[T]) Retry(cfg RetryConfig) *Pipeline[T] {
	if err := cfg.Validate(); err != nil {
		return p.fail("invalid retry config: " + err.Error())
	}
	p.mws = append(p.mws, Retry[T](cfg))
	return p
}

// Transactional adds the transaction scope at the current nesting position.
// At most one scope may apply per connection lifetime, and a cache layer may
// not already sit outside it: a cached transaction would skip its side
// effects entirely on a hit.
func (p *Pipeline[T]) Transactional() *Pipeline[T] {
	if p.hasTx {
		return p.fail("transaction scope applied more than once per connection lifetime")
	}
	if p.hasCache {
		return p.fail("cache layer wraps a transaction scope; a hit would skip the transaction's side effects")
	}
	p.hasTx = true
	p.mws = append(p.mws, Transactional[T]())
	return p
}

// Cached adds the cache layer at the current nesting position, keyed from
// the pipeline's query text.
func (p *Pipeline[T]) Cached(store querycache.Store, ks querycache.KeySerializer, opts ...CacheOption) *Pipeline[T] {
	if store == nil || ks == nil {
		return p.fail("cache requires a store and a key serializer")
	}
	if p.query == "" {
		return p.fail("cache requires a query text to derive keys from")
	}
	p.hasCache = true
	p.mws = append(p.mws, Cached[T](store, ks, p.query, opts...))
	return p
}

// Use adds an arbitrary middleware at the current nesting position. Ordering
// hazards in custom middleware are the caller's responsibility.
func (p *Pipeline[T]) Use(mw dbx.Middleware[T]) *Pipeline[T] {
	if mw == nil {
		return p.fail("nil middleware")
	}
	p.mws = append(p.mws, mw)
	return p
}

// Build validates the declared stack and composes it around op. The result
// is a Runnable with the connection provider outermost among the
// connection-touching layers and the logger, if any, outside that.
func (p *Pipeline[T]) Build(op dbx.Operation[T]) (dbx.Runnable[T], error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.client == nil {
		return nil, &dbx.CompositionError{Reason: "pipeline requires a client"}
	}
	if op == nil {
		return nil, &dbx.CompositionError{Reason: "pipeline requires an operation"}
	}

	run := WithConnection(p.client, dbx.Chain(op, p.mws...))
	if p.sink != nil {
		run = Logged[T](p.sink, p.query)(run)
	}
	return run, nil
}
