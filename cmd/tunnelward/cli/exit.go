// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError requests a non-zero exit without an "error:" line. The
// command has already explained itself on stdout or stderr, as
// "service verify" does when it lists modified files.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the requested exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}
