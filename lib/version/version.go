// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for tunnelward.
//
// Release builds inject the variables below with -ldflags, for example:
//
//	go build -ldflags "-X github.com/tunnelward/tunnelward/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Builds without them fall back to the VCS stamps the go command
// records in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const unknown = "unknown"

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = unknown

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = unknown

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns the version, commit and build time on one line.
func Info() string {
	commit, dirty, built := GitCommit, GitDirty == "true", BuildTime
	if commit == unknown {
		commit, dirty, built = fromBuildInfo(built)
	}
	suffix := ""
	if dirty {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, suffix, built)
}

// Full returns Info plus the Go toolchain and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func fromBuildInfo(built string) (commit string, dirty bool, buildTime string) {
	commit, buildTime = unknown, built
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, false, buildTime
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 7 {
				commit = commit[:7]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		case "vcs.time":
			if buildTime == unknown {
				buildTime = setting.Value
			}
		}
	}
	return commit, dirty, buildTime
}
