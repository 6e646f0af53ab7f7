// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Boxoffice-server is the cinema point-of-sale server. Box office
// terminals connect over TCP and exchange one flat JSON (or CBOR) map
// per request:
//
//	{"action": "sell_ticket", "movie_id": 1, "tickets": 2, "customer_name": "Alice"}
//	{"status": "success", "total": 240.0, "sale_id": 17}
//
// Actions:
//
//   - get_movies: list every showing
//   - add_movie, update_movie, delete_movie: manage the catalog
//   - sell_ticket: sell seats of a showing and record the sale
//   - get_sales: list recorded sales, optionally for one movie_id
//   - status: uptime and connection counters
//
// All state lives in the store (SQLite by default, PostgreSQL or MySQL
// by configuration). On startup the schema is created if needed and an
// empty catalog is seeded with seven showings. Committed sales can be
// published to RabbitMQ, and requests can be rate limited per peer
// through Redis; both are off by default.
//
// Usage:
//
//	boxoffice-server [--config boxoffice.yaml] [--listen host:port]
//
// Without --config, the path in BOXOFFICE_CONFIG is used, and without
// that the built-in defaults. SIGINT or SIGTERM stops accepting
// connections and waits for open sessions to finish.
package main
