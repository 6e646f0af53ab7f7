// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func stubBuildInfo(t *testing.T, settings ...debug.BuildSetting) {
	t.Helper()
	original := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, true
	}
	t.Cleanup(func() { readBuildInfo = original })
}

func TestInfoUsesInjectedCommit(t *testing.T) {
	originalCommit, originalDirty := GitCommit, GitDirty
	t.Cleanup(func() { GitCommit, GitDirty = originalCommit, originalDirty })

	GitCommit = "abc1234"
	GitDirty = "true"
	stubBuildInfo(t, debug.BuildSetting{Key: "vcs.revision", Value: "ffffffffffffffff"})

	info := Info()
	if !strings.Contains(info, "(abc1234-dirty, ") {
		t.Errorf("Info() = %q, want injected dirty commit", info)
	}
	if !strings.HasPrefix(info, Version) {
		t.Errorf("Info() = %q, want prefix %q", info, Version)
	}
}

func TestInfoFallsBackToVCSStamp(t *testing.T) {
	originalCommit := GitCommit
	t.Cleanup(func() { GitCommit = originalCommit })

	GitCommit = "unknown"
	stubBuildInfo(t,
		debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef"},
		debug.BuildSetting{Key: "vcs.modified", Value: "false"},
	)

	if info := Info(); !strings.Contains(info, "(0123456, ") {
		t.Errorf("Info() = %q, want shortened VCS revision", info)
	}
	if full := Full(); !strings.Contains(full, "Platform: ") {
		t.Errorf("Full() = %q, want platform line", full)
	}
}

func TestLogAttr(t *testing.T) {
	attr := LogAttr()
	if attr.Key != "build" {
		t.Errorf("LogAttr key = %q, want build", attr.Key)
	}
	group := attr.Value.Group()
	if len(group) != 4 || group[0].Key != "version" {
		t.Errorf("LogAttr group = %v", group)
	}
}
