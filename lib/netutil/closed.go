// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small helpers for connection-oriented servers.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, closed connection, broken pipe, or connection
// reset. A terminal that disconnects without a clean shutdown leaves
// the server's next read or write failing with ECONNRESET or EPIPE
// rather than EOF; none of these are server faults.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
