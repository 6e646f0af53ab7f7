// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool behind the
// box office store.
//
// It wraps zombiezen.com/go/sqlite with production defaults: WAL
// journal mode, NORMAL synchronous for process-crash durability
// without fsync-per-commit overhead, and a busy timeout so that
// writers queue behind each other instead of failing with SQLITE_BUSY.
//
// The pool is built on zombiezen's sqlitex.Pool, which manages a
// fixed-size set of connections. Callers either [Pool.Take] a
// connection and [Pool.Put] it back, or use [Pool.Write] and
// [Pool.Read], which borrow a connection and run a function inside a
// transaction. Connections are NOT safe for concurrent use: each
// goroutine holds its own connection for the duration of its work.
//
// # Pragmas
//
// Every connection in the pool is initialized with these pragmas:
//
//   - journal_mode=WAL: concurrent readers and a single writer. Reads
//     never block writes; writes never block reads.
//   - synchronous=NORMAL: committed transactions survive process
//     crashes.
//   - busy_timeout (default 5000ms): wait for the write lock instead of
//     returning SQLITE_BUSY immediately.
//   - foreign_keys=OFF: the store manages the showing/sale relationship
//     explicitly according to its delete policy.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - temp_store=MEMORY: temporary tables and indexes in memory.
//
// # Transactions
//
// [Pool.Write] runs its function inside BEGIN IMMEDIATE, which takes
// the database write lock before the first statement. Two Write calls
// therefore never interleave: a read-compare-update sequence inside
// one Write observes no concurrent modification. This is what keeps
// ticket inventory from being oversold. [Pool.Read] uses a deferred
// transaction so that multi-statement reads see one snapshot.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:     "/var/lib/boxoffice/cinema.db",
//	    PoolSize: 4,
//	    Logger:   logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.Write(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, "UPDATE ...", nil)
//	})
package sqlitepool
