package sqlinfra

import (
	"context"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(Config{
		Driver:       "sqlite3",
		DSN:          "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("opening client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	conn, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("opening connection: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Exec(context.Background(), `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`); err != nil {
		t.Fatalf("creating table: %v", err)
	}
	return client
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default is valid", DefaultConfig(), false},
		{"missing driver", Config{DSN: "file:test.db"}, true},
		{"missing dsn", Config{Driver: "sqlite3"}, true},
		{"negative max open", Config{Driver: "sqlite3", DSN: "x", MaxOpenConns: -1}, true},
		{"negative lifetime", Config{Driver: "sqlite3", DSN: "x", ConnMaxLifetime: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_ExecAndQuery(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	conn, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("opening connection: %v", err)
	}
	defer conn.Close()

	result, err := conn.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "name", "alice")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if affected, _ := result.RowsAffected(); affected != 1 {
		t.Errorf("expected 1 affected row, got %d", affected)
	}

	rows, err := conn.Query(ctx, `SELECT v FROM kv WHERE k = ?`, "name")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("expected a row")
	}
	var v string
	if err := rows.Scan(&v); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if v != "alice" {
		t.Errorf("expected %q, got %q", "alice", v)
	}
}

func TestConnection_TransactionCommit(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	conn, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("opening connection: %v", err)
	}

	if err := conn.Begin(ctx); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := conn.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "a", "1"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := conn.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	conn.Close()

	conn2, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("reopening connection: %v", err)
	}
	defer conn2.Close()
	rows, err := conn2.Query(ctx, `SELECT COUNT(*) FROM kv`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()
	rows.Next()
	var count int
	_ = rows.Scan(&count)
	if count != 1 {
		t.Errorf("expected the committed row to persist, got %d rows", count)
	}
}

func TestConnection_TransactionRollback(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	conn, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("opening connection: %v", err)
	}

	if err := conn.Begin(ctx); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := conn.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "a", "1"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := conn.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	conn.Close()

	conn2, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("reopening connection: %v", err)
	}
	defer conn2.Close()
	rows, err := conn2.Query(ctx, `SELECT COUNT(*) FROM kv`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()
	rows.Next()
	var count int
	_ = rows.Scan(&count)
	if count != 0 {
		t.Errorf("expected the rolled back row to vanish, got %d rows", count)
	}
}

func TestConnection_TransactionStateErrors(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	conn, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("opening connection: %v", err)
	}
	defer conn.Close()

	if err := conn.Commit(); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("commit without begin: expected ErrNoTransaction, got %v", err)
	}
	if err := conn.Rollback(); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("rollback without begin: expected ErrNoTransaction, got %v", err)
	}

	if err := conn.Begin(ctx); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := conn.Begin(ctx); !errors.Is(err, ErrTransactionActive) {
		t.Errorf("nested begin: expected ErrTransactionActive, got %v", err)
	}
	if err := conn.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	// The boundary is resolved; a fresh one may open.
	if err := conn.Begin(ctx); err != nil {
		t.Errorf("begin after rollback: %v", err)
	}
	if err := conn.Commit(); err != nil {
		t.Errorf("commit failed: %v", err)
	}
}

func TestConnection_CloseRollsBackLeftoverTransaction(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	conn, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("opening connection: %v", err)
	}
	if err := conn.Begin(ctx); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := conn.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "a", "1"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	conn2, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("reopening connection: %v", err)
	}
	defer conn2.Close()
	rows, err := conn2.Query(ctx, `SELECT COUNT(*) FROM kv`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()
	rows.Next()
	var count int
	_ = rows.Scan(&count)
	if count != 0 {
		t.Errorf("expected the abandoned transaction rolled back on close, got %d rows", count)
	}
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected a validation error for an empty config")
	}
}
