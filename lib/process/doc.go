// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for boxoffice binaries.
// Library packages never exit the process; main reports run's error
// through [Fatal].
package process
