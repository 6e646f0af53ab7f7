// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds the helpers shared by boxoffice tests.
//
// [RequireReceive] and [RequireClosed] bound every channel wait in a
// test, so a stuck session or feed fails the test instead of hanging
// the run. [UniqueID] names fixtures that must not collide.
package testutil
