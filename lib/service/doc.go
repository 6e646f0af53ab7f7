// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the network scaffolding of the box office
// server: a TCP socket server with action dispatch, and a client that
// speaks the same protocol.
//
// # Protocol
//
// Each request is a single flat map carrying an "action" string plus
// action-specific fields, encoded as JSON (the default) or CBOR. Each
// response is a flat map with "status" set to "success" or "error".
// Error responses carry a "message" string; success responses carry
// the action's payload fields next to "status".
//
// Framing is a fixed-size single read: the server reads at most
// MaxMessageSize bytes (4096 by default) and treats whatever one read
// returns as one complete request. Clients must therefore send one
// request and wait for its response before sending the next. A request
// larger than the buffer is split across reads and every piece is
// answered with a decode error.
//
// # Sessions
//
// [SocketServer] runs one goroutine per connection. A session
// processes its requests strictly in order and never shares state
// with other sessions; handlers reach shared state only through the
// store they close over. Failures of every kind, including panics in
// a handler, become error responses and the session continues.
//
// A connection cap (golang.org/x/sync/semaphore) bounds concurrent
// sessions, and an optional [Limiter] throttles requests per peer IP.
//
// Services compose these utilities in their own main() function rather
// than subclassing a framework. The package provides building blocks,
// not a runtime.
package service
