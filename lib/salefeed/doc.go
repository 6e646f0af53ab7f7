// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package salefeed publishes committed ticket sales to downstream
// consumers such as accounting exports and occupancy dashboards.
//
// Publication is asynchronous and best-effort. The sale handler calls
// [Feed.Enqueue], which never blocks: when the bounded queue is full
// the event is dropped and counted. [Feed.Run] drains the queue into a
// [Sink]. A sink failure is logged and never reaches the client whose
// sale already committed.
//
// [AMQPSink] delivers events to a durable RabbitMQ queue as persistent
// JSON messages. Each message's MessageId is the event's [Fingerprint],
// a BLAKE3 hash of its deterministic CBOR encoding, so consumers can
// discard redeliveries.
package salefeed
