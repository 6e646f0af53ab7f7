// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package showstore is the transactional home of showings and sales.
//
// [Store] is the only component that mutates persistent state. Every
// operation is a single transaction, and the ticket sale (read
// inventory, compare, decrement, record the sale) commits atomically
// or not at all. Concurrency control belongs to the database, never to
// callers: no lock is held outside a transaction.
//
// Three backends are available, selected by [Config.Backend]:
//
//   - sqlite (default): a local database file through lib/sqlitepool.
//     Mutations run under BEGIN IMMEDIATE, which takes the database
//     write lock up front, so two sales never interleave.
//   - postgres: database/sql with lib/pq. The sale locks the showing
//     row with SELECT ... FOR UPDATE.
//   - mysql: database/sql with go-sql-driver/mysql, locking the same
//     way under InnoDB.
//
// Identifiers are assigned by the database and never reused, even
// after a delete.
//
// Deleting a showing that has recorded sales is governed by
// [DeletePolicy]: [DeleteOrphan] leaves the sales referencing the
// removed identifier, [DeleteRestrict] refuses the delete with a
// fault.Conflict error.
package showstore
