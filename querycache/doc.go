// Package querycache provides result memoization for database operations.
//
// # Overview
//
// The package exports three pieces:
//
//   - Store: the get-or-compute contract shared by all cache backends
//   - MemoryStore: the default unbounded, process-lifetime store
//   - KeySerializer: derives stable cache keys from query text and arguments
//
// # Lifetime and Bounds
//
// MemoryStore never expires or evicts entries: an entry lives for the life of
// the store instance and the store grows without bound. This is a deliberate
// choice appropriate only for read-mostly workloads over a bounded set of
// distinct queries. Write-heavy or high-cardinality workloads should use the
// bounded sturdyc-backed store (see the di package) or no cache at all.
//
// # Key Derivation
//
// NewQueryKeySerializer derives keys from the query text plus every bound
// argument, so the same statement with different parameters occupies distinct
// entries. NewTextKeySerializer keys on the query text alone, reproducing the
// behavior of systems that ignore bound parameters: two calls that share a
// statement but differ in parameters will collide and the second receives the
// first call's result. It exists for compatibility and is not the default.
//
// Callers are responsible for keys being stable and collision-free across the
// process lifetime; the store does not distinguish two logically different
// queries that serialize to the same key.
//
// # Concurrency
//
// Stores are safe for concurrent use. When two calls race on a missing key
// both may compute, and the first stored value wins; duplicate computation is
// tolerated, corruption is not.
package querycache
