// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"os"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
	"github.com/tunnelward/tunnelward/cmd/tunnelward/commands"
	"github.com/tunnelward/tunnelward/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own diagnosis (like service verify)
		// return an ExitError with the desired exit code. Don't print a
		// redundant "error:" line for those.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		process.FatalCode(err, cli.ExitCodeFor(err))
	}
}

func run() error {
	args, err := translateLegacy(os.Args[1:])
	if err != nil {
		return err
	}
	return commands.Root().Execute(context.Background(), args)
}
