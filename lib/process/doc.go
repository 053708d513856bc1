// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package process runs the external tools tunnelward orchestrates
// (easyrsa, openvpn, systemctl) and provides the binary entrypoint
// error helper.
//
// [Runner] is the single seam between tunnelward and the outside
// world. [Exec] is the production implementation: it blocks until the
// child exits and returns stdout and stderr interleaved in one buffer.
//
// The success contract is deliberately weak. Run returns an error only
// when the process could not be launched or its output could not be
// drained. A tool that starts and then exits non-zero is still a
// successful Run; the exit status travels in [Result.ExitCode] and the
// caller decides whether the captured output indicates failure. This
// mirrors how the managed tools report problems: easyrsa prints
// "Easy-RSA error" and systemctl is-active prints "inactive", and the
// callers in lib/easyrsa and lib/systemd match on that text.
//
// [Fatal] and [FatalCode] write "error: err" to stderr and exit. They exist for
// main() paths where the structured logger is not yet available.
package process
