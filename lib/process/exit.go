// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors that occur before the command logger exists.
func Fatal(err error) {
	FatalCode(err, 1)
}

// FatalCode is [Fatal] with a caller-chosen exit code.
func FatalCode(err error, code int) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(code)
}
