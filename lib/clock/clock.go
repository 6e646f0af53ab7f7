// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock reports the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the time elapsed since t, measured on this clock.
	Since(t time.Time) time.Duration
}
