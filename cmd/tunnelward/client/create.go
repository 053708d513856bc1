// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
)

type createParams struct {
	cli.Globals
	cli.JSONOutput
	Remote string `json:"remote" flag:"remote" desc:"public address written into the bundle (default: server.remote_host)"`
}

type createResult struct {
	Service string `json:"service"`
	Client  string `json:"client"`
	Bundle  string `json:"bundle"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Issue a client identity and write its bundle",
		Description: `Issue a certificate for the client from the local easy-rsa authority
and write a bundle connecting to the service's port and protocol, as
read back from the service's config.

The bundle directory is created mode 0700 and the bundle mode 0600.
A client that already has a bundle for the service is rejected.`,
		Usage:  "tunnelward client create <service> <client> [flags]",
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

			remote := params.Remote
			if remote == "" {
				remote = env.Config.Server.RemoteHost
			}
			if remote == "" {
				return cli.Validation("no remote host for the bundle").
					WithHint("Pass --remote or set server.remote_host in the configuration.")
			}

			path, err := env.Clients.Create(ctx, service, client, remote)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(createResult{Service: service, Client: client, Bundle: path}); done {
				return err
			}
			fmt.Fprintf(cli.Stdout(), "client %s issued for service %s\nbundle: %s\n", client, service, path)
			return nil
		},
	}
}
