// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package cinema defines the box office record types and their wire
// field names: showings (a scheduled movie run with room, dates,
// price, and ticket inventory), sales (an immutable record of tickets
// purchased against a showing), and the sale event published after a
// sale commits.
//
// Money is carried as [Amount], an integer number of cents, so totals
// are exact. Clients send and receive prices as plain numbers
// (120.0); conversion happens at the wire boundary.
package cinema
