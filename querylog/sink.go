// Package querylog provides append-only sinks for query logging.
//
// A sink receives one Record per logged operation invocation, written before
// the operation executes. Sinks are external collaborators from the
// middleware's point of view: a sink failure never prevents the wrapped
// operation from running.
package querylog

import (
	"sync"
	"time"
)

// Record is one query log entry.
type Record struct {
	// Timestamp is when the record was produced, before execution.
	Timestamp time.Time

	// Query is the literal query text of the logged operation.
	Query string

	// Args are the bound arguments of the call, if the caller exposed them.
	Args []any
}

// Sink accepts query log records. Implementations must be safe for
// concurrent use.
type Sink interface {
	Write(rec Record) error
}

// MemorySink buffers records in memory. It is intended for tests and
// short-lived tooling.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write implements Sink.
func (s *MemorySink) Write(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of everything written so far, in write order.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}
