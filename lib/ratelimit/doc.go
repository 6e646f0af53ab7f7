// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package ratelimit throttles requests per peer with a token bucket
// stored in Redis.
//
// The bucket lives in a Redis hash and is updated by a Lua script, so
// every server instance sharing the Redis sees the same budget and the
// read-refill-consume step is atomic. Each key starts with Capacity
// tokens; RefillTokens are added every RefillInterval up to Capacity.
// Idle buckets expire after TTL.
//
// The limiter fails open: when Redis is unreachable or returns
// something unexpected, [Limiter.Allow] reports the error and the
// caller lets the request through. A nil *Limiter, a nil client, or a
// disabled config allows everything.
package ratelimit
