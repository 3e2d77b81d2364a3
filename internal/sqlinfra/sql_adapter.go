// Package sqlinfra adapts database/sql to the dbx contracts.
//
// The adapter binds transaction state to a single pooled connection: after
// Begin, statements route through the open *sql.Tx until Commit or Rollback
// resolves the boundary. A connection holds at most one active transaction.
package sqlinfra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-db-middleware/dbx"
)

// ErrNoTransaction is returned by Commit or Rollback when no transaction
// boundary is active on the connection.
var ErrNoTransaction = errors.New("sqlinfra: no active transaction")

// ErrTransactionActive is returned by Begin when the connection already
// holds an active transaction boundary.
var ErrTransactionActive = errors.New("sqlinfra: transaction already active")

// Config holds the settings for the database/sql-backed client.
type Config struct {
	// Driver is a registered database/sql driver name, e.g. "sqlite3" or "postgres".
	Driver string

	// DSN is the driver-specific data source name.
	DSN string

	// MaxOpenConns limits the pool size. Zero means unlimited.
	MaxOpenConns int

	// MaxIdleConns limits idle connections retained by the pool.
	MaxIdleConns int

	// ConnMaxLifetime bounds how long a pooled connection may be reused.
	// Zero means forever.
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a Config suitable for a local sqlite database.
func DefaultConfig() Config {
	return Config{
		Driver:       "sqlite3",
		DSN:          "file:users.db",
		MaxOpenConns: 8,
		MaxIdleConns: 4,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
		validation.Field(&c.ConnMaxLifetime, validation.Min(time.Duration(0))),
	)
}

// Client implements dbx.Client over a database/sql pool.
type Client struct {
	db *sql.DB
}

// NewClient validates cfg, opens the pool, and returns a Client. The pool is
// opened lazily by database/sql; a bad DSN typically surfaces on the first
// Open call as a dbx.ConnectionError.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, &dbx.ConnectionError{Err: err}
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Client{db: db}, nil
}

// NewClientFromDB wraps an existing pool the caller manages.
func NewClientFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// Open implements dbx.Client. Each call pins one connection from the pool
// for the exclusive use of a single middleware invocation.
func (c *Client) Open(ctx context.Context) (dbx.Connection, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, &dbx.ConnectionError{Err: err}
	}
	return &sqlConn{conn: conn}, nil
}

// DB exposes the underlying pool for collaborators such as the users store.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the underlying pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// sqlConn routes statements through the active transaction when one exists.
type sqlConn struct {
	conn *sql.Conn
	tx   *sql.Tx
}

func (c *sqlConn) Exec(ctx context.Context, query string, args ...any) (dbx.Result, error) {
	if c.tx != nil {
		return c.tx.ExecContext(ctx, query, args...)
	}
	return c.conn.ExecContext(ctx, query, args...)
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) (dbx.Rows, error) {
	if c.tx != nil {
		return c.tx.QueryContext(ctx, query, args...)
	}
	return c.conn.QueryContext(ctx, query, args...)
}

func (c *sqlConn) Begin(ctx context.Context) error {
	if c.tx != nil {
		return ErrTransactionActive
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

func (c *sqlConn) Commit() error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	err := c.tx.Commit()
	c.tx = nil
	return err
}

func (c *sqlConn) Rollback() error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	err := c.tx.Rollback()
	c.tx = nil
	return err
}

// Close releases the connection back to the pool. An unresolved transaction
// is rolled back first so the pooled connection is returned clean.
func (c *sqlConn) Close() error {
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	return c.conn.Close()
}
