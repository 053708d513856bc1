// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
)

type revokeParams struct {
	cli.Globals
	cli.JSONOutput
}

func revokeCommand() *cli.Command {
	var params revokeParams

	return &cli.Command{
		Name:    "revoke",
		Summary: "Revoke a client identity",
		Description: `Revoke the client's certificate, regenerate and publish the CRL,
restart the service so it drops the client, and remove the client's
key material and bundle.

Every step runs even when an earlier one fails. The command prints the
outcome of each step and exits with the partial-failure status if any
failed.`,
		Usage:  "tunnelward client revoke <service> <client> [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			service, client, err := requireServiceAndClient(args)
			if err != nil {
				return err
			}
			env, err := params.Open(logger)
			if err != nil {
				return err
			}

			report, err := env.Clients.Revoke(ctx, service, client)
			if report == nil {
				return err
			}
			if done, jsonErr := params.EmitJSON(report); done {
				if jsonErr != nil {
					return jsonErr
				}
				return err
			}
			for _, step := range report.Steps {
				if step.Err != nil {
					fmt.Fprintf(cli.Stdout(), "FAILED  %s: %v\n", step.Step, step.Err)
				} else {
					fmt.Fprintf(cli.Stdout(), "ok      %s\n", step.Step)
				}
			}
			return err
		},
	}
}
