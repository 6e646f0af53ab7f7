// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/boxoffice-pos/boxoffice/lib/sqlitepool"
)

const counterSchema = `
	CREATE TABLE IF NOT EXISTS counter (
		id INTEGER PRIMARY KEY,
		value INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO counter (id, value) VALUES (1, 0);
`

func TestOpenAppliesPragmas(t *testing.T) {
	pool := openTestPool(t, nil)

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer pool.Put(conn)

	var journalMode string
	err = sqlitex.Execute(conn, "PRAGMA journal_mode", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			journalMode = stmt.ColumnText(0)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want %q", journalMode, "wal")
	}

	var busyTimeout int
	err = sqlitex.Execute(conn, "PRAGMA busy_timeout", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			busyTimeout = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", busyTimeout)
	}
}

func TestOnConnectCreatesSchema(t *testing.T) {
	var called bool
	pool := openTestPool(t, func(conn *sqlite.Conn) error {
		called = true
		return sqlitex.ExecuteScript(conn, counterSchema, nil)
	})

	if got := readCounter(t, pool); got != 0 {
		t.Errorf("counter = %d, want 0", got)
	}
	if !called {
		t.Error("OnConnect was not called")
	}
}

func TestWriteCommitsOnSuccess(t *testing.T) {
	pool := openTestPool(t, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, counterSchema, nil)
	})

	err := pool.Write(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "UPDATE counter SET value = value + 5 WHERE id = 1", nil)
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := readCounter(t, pool); got != 5 {
		t.Errorf("counter = %d, want 5", got)
	}
}

func TestWriteRollsBackOnError(t *testing.T) {
	pool := openTestPool(t, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, counterSchema, nil)
	})

	refused := errors.New("refused")
	err := pool.Write(context.Background(), func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, "UPDATE counter SET value = 99 WHERE id = 1", nil); err != nil {
			return err
		}
		return refused
	})
	if !errors.Is(err, refused) {
		t.Fatalf("Write error = %v, want the function's error", err)
	}
	if got := readCounter(t, pool); got != 0 {
		t.Errorf("counter = %d after rollback, want 0", got)
	}
}

// TestConcurrentWritesSerialize runs read-then-write increments from
// many goroutines. Without BEGIN IMMEDIATE some increments would be
// lost to interleaving.
func TestConcurrentWritesSerialize(t *testing.T) {
	pool := openTestPool(t, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, counterSchema, nil)
	})

	const goroutineCount = 16
	var waitGroup sync.WaitGroup
	failures := make(chan error, goroutineCount)

	for range goroutineCount {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			err := pool.Write(context.Background(), func(conn *sqlite.Conn) error {
				var current int64
				err := sqlitex.Execute(conn, "SELECT value FROM counter WHERE id = 1", &sqlitex.ExecOptions{
					ResultFunc: func(stmt *sqlite.Stmt) error {
						current = stmt.ColumnInt64(0)
						return nil
					},
				})
				if err != nil {
					return err
				}
				return sqlitex.Execute(conn, "UPDATE counter SET value = ? WHERE id = 1", &sqlitex.ExecOptions{
					Args: []any{current + 1},
				})
			})
			if err != nil {
				failures <- err
			}
		}()
	}

	waitGroup.Wait()
	close(failures)
	for err := range failures {
		t.Error(err)
	}

	if got := readCounter(t, pool); got != goroutineCount {
		t.Errorf("counter = %d, want %d", got, goroutineCount)
	}
}

func TestEmptyPathRejected(t *testing.T) {
	_, err := sqlitepool.Open(sqlitepool.Config{})
	if err == nil {
		t.Fatal("expected error for empty Path")
	}
}

func TestContextCancellation(t *testing.T) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(t.TempDir(), "cancel.db"),
		PoolSize: 1,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}

	// The pool has size 1, so a second Take with a cancelled context
	// must fail rather than block.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := pool.Take(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}

	pool.Put(conn)
}

func readCounter(t *testing.T, pool *sqlitepool.Pool) int64 {
	t.Helper()
	var value int64
	err := pool.Read(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT value FROM counter WHERE id = 1", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				value = stmt.ColumnInt64(0)
				return nil
			},
		})
	})
	if err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return value
}

// openTestPool creates a pool backed by a temporary database file.
// The pool is closed automatically when the test completes.
func openTestPool(t *testing.T, onConnect func(*sqlite.Conn) error) *sqlitepool.Pool {
	t.Helper()

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:      filepath.Join(t.TempDir(), fmt.Sprintf("%s.db", sanitize(t.Name()))),
		PoolSize:  4,
		OnConnect: onConnect,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return pool
}

func sanitize(name string) string {
	out := []rune(name)
	for i, r := range out {
		if r == '/' {
			out[i] = '_'
		}
	}
	return string(out)
}
