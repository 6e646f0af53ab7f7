// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for boxoffice binaries.
//
// [GitCommit], [BuildTime] and [Version] are injected with -ldflags -X:
//
//	go build -ldflags "-X github.com/boxoffice-pos/boxoffice/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// When they are not injected, the commit and dirty state fall back to
// the VCS stamp the go command embeds in module builds.
package version
