package middleware

import (
	"context"
	"sync"

	"github.com/goliatone/go-db-middleware/dbx"
)

// fakeConn records transaction and lifecycle calls so tests can assert on
// commit/rollback/close counts.
type fakeConn struct {
	mu        sync.Mutex
	begins    int
	commits   int
	rollbacks int
	closes    int

	beginErr    error
	commitErr   error
	rollbackErr error

	inTx bool
}

func (c *fakeConn) Exec(ctx context.Context, query string, args ...any) (dbx.Result, error) {
	return nil, nil
}

func (c *fakeConn) Query(ctx context.Context, query string, args ...any) (dbx.Rows, error) {
	return nil, nil
}

func (c *fakeConn) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.begins++
	if c.beginErr != nil {
		return c.beginErr
	}
	c.inTx = true
	return nil
}

func (c *fakeConn) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commits++
	if c.commitErr != nil {
		return c.commitErr
	}
	c.inTx = false
	return nil
}

func (c *fakeConn) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollbacks++
	if c.rollbackErr != nil {
		return c.rollbackErr
	}
	c.inTx = false
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

// fakeClient hands out fresh fakeConns and keeps them for inspection.
type fakeClient struct {
	mu      sync.Mutex
	opened  []*fakeConn
	openErr error
}

func (f *fakeClient) Open(ctx context.Context) (dbx.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	conn := &fakeConn{}
	f.opened = append(f.opened, conn)
	return conn, nil
}

func (f *fakeClient) connections() []*fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeConn(nil), f.opened...)
}
