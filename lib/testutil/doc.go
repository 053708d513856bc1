// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for tunnelward
// packages.
//
// [FakeRunner] stands in for lib/process.Exec. It records every
// command and answers each one from a handler, so tests can script
// external tools (and have them create the files the real tools
// would) without spawning processes.
//
// [Toolchain] is a ready-made handler emulating easy-rsa, openvpn
// --genkey and systemctl over a temporary easy-rsa directory, with
// knobs for injected failures and slow stops.
//
// [WriteFile] and [ReadFile] wrap the os calls with t.Fatalf so test
// setup stays one line per file.
//
// All helpers fail the test on error rather than returning it, since
// setup failures are not recoverable.
package testutil
