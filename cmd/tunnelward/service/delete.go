// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
	"github.com/tunnelward/tunnelward/lib/fleet"
)

type deleteParams struct {
	cli.Globals
	cli.JSONOutput
}

func deleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Tear a service down",
		Description: `Stop and disable the service, remove its files, revoke its server
certificate and republish the CRL.

Every step runs even when an earlier one fails. The command prints the
outcome of each step and exits with the partial-failure status if any
failed.`,
		Usage:  "tunnelward service delete <name> [flags]",
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

			report, err := env.Services.Delete(ctx, name)
			if report == nil {
				return err
			}
			if done, jsonErr := params.EmitJSON(report); done {
				if jsonErr != nil {
					return jsonErr
				}
				return err
			}
			writeReport(cli.Stdout(), report)
			return err
		},
	}
}

// writeReport prints one line per step.
func writeReport(w io.Writer, report *fleet.Report) {
	for _, step := range report.Steps {
		if step.Err != nil {
			fmt.Fprintf(w, "FAILED  %s: %v\n", step.Step, step.Err)
			continue
		}
		fmt.Fprintf(w, "ok      %s\n", step.Step)
	}
}
