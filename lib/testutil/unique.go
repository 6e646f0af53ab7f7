// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"strconv"
	"sync/atomic"
)

var sequence atomic.Uint64

// UniqueID appends a process-wide sequence number to prefix, so titles
// and customer names created by concurrent tests never collide in a
// shared store.
//
//	title := testutil.UniqueID("matinee") // "matinee-1", then "matinee-2"
func UniqueID(prefix string) string {
	return prefix + "-" + strconv.FormatUint(sequence.Add(1), 10)
}
