// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package render produces the text artifacts the tunnel daemon and its
// clients consume: the per-service server configuration and the
// self-contained client bundle with inline credentials.
//
// [ServiceConfig] and [ClientBundle] are pure: they never touch the
// filesystem, and identical inputs always produce byte-identical
// output. Reading credential files is a separate step
// ([LoadCredentials]) so the caller decides what a missing file means.
// [ReadServiceConfig] goes the other way and recovers the settings a
// client bundle needs from a rendered server configuration.
package render
