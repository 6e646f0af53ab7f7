// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the wall clock so that time-dependent code
// (sale timestamps, token-bucket refills, uptime reporting) can be
// tested deterministically.
//
// Production code injects [Real]; tests inject [Fake] and move time
// explicitly with [FakeClock.Advance] or [FakeClock.Set]. Code that
// records or compares times should take a [Clock] rather than calling
// time.Now directly.
//
// This package has no boxoffice-internal dependencies.
package clock
