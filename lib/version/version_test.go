// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	defer func(commit, dirty, built string) {
		GitCommit, GitDirty, BuildTime = commit, dirty, built
	}(GitCommit, GitDirty, BuildTime)

	GitCommit, GitDirty, BuildTime = "abc1234", "true", "2026-03-01T12:00:00Z"
	if got, want := Info(), Version+" (abc1234-dirty, 2026-03-01T12:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	GitDirty = "false"
	if strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q, reports a clean build as dirty", Info())
	}
	if !strings.Contains(Full(), runtime.Version()) {
		t.Errorf("Full() = %q, missing the Go version", Full())
	}
}
