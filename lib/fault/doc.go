// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package fault defines the error taxonomy shared by the store, the
// action handlers, and the socket server.
//
// Every failure that reaches a client is classified by a [Kind]:
//
//   - [Validation]: a request field is missing, malformed, or out of
//     range. [Error.Field] names the offending field.
//   - [NotFound]: a referenced showing does not exist.
//   - [InsufficientInventory]: a sale asks for more tickets than remain.
//   - [Conflict]: the operation is refused because of dependent state
//     (deleting a showing with recorded sales under the restrict policy).
//   - [InvalidAction]: the request names an action nobody handles.
//   - [Decode]: the request bytes are not a well-formed message.
//   - [Transport]: the connection failed mid-exchange.
//   - [RateLimited]: the peer exceeded its request budget.
//   - [Internal]: anything else (storage I/O, bugs).
//
// Errors are values: constructors return *[Error], callers wrap with
// fmt.Errorf("...: %w", err), and [KindOf] recovers the kind through
// any number of wrapping layers. Errors that carry no kind classify as
// [Internal].
package fault
