// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
)

type verifyParams struct {
	cli.Globals
	cli.JSONOutput
}

// verifyMismatchExitCode is returned when provisioned files changed.
const verifyMismatchExitCode = 1

func verifyCommand() *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Check a service's files against its manifest",
		Description: `Recompute the digest of every file recorded in the service's manifest
and report files that are missing or modified. Exits 1 when any are.`,
		Usage:  "tunnelward service verify <name> [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			name, err := requireName(args)
			if err != nil {
				return err
			}
			env, err := params.Open(logger)
			if err != nil {
				return err
			}

			problems, err := env.Services.Verify(name)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(problems); done {
				if err != nil {
					return err
				}
			} else {
				for _, problem := range problems {
					fmt.Fprintf(cli.Stdout(), "%-9s %s\n", problem.Reason, problem.Path)
				}
				if len(problems) == 0 {
					fmt.Fprintf(cli.Stdout(), "service %s: all files match the manifest\n", name)
				}
			}
			if len(problems) > 0 {
				return &cli.ExitError{Code: verifyMismatchExitCode}
			}
			return nil
		},
	}
}
