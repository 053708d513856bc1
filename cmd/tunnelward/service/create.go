// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
)

type createParams struct {
	cli.Globals
	cli.JSONOutput
	Port   int    `json:"port" flag:"port" desc:"listen port (default: server.default_port)"`
	Subnet string `json:"subnet" flag:"subnet" desc:"IPv4 /24 network address handed to clients (default: server.default_subnet)"`
}

type createResult struct {
	Name       string `json:"name"`
	ConfigPath string `json:"config_path"`
	Port       int    `json:"port"`
	Subnet     string `json:"subnet"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Provision and start a service",
		Description: `Provision a service: issue its server certificate, ensure DH
parameters, copy key material into the service directory, generate the
shared TLS secret, render the config and manifest, then start and enable
the systemd unit.

Steps run in order and stop at the first failure. Completed steps are
not undone; run "tunnelward service delete" to clean up.

A name that already has a config file or directory is rejected before
any tool runs.`,
		Usage:  "tunnelward service create <name> [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{Command: "tunnelward service create vpn1"},
			{Command: "tunnelward service create office --port 443 --subnet 10.20.30.0"},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			name, err := requireName(args)
			if err != nil {
				return err
			}
			env, err := params.Open(logger)
			if err != nil {
				return err
			}

			port := params.Port
			if port == 0 {
				port = env.Config.Server.DefaultPort
			}
			subnet := params.Subnet
			if subnet == "" {
				subnet = env.Config.Server.DefaultSubnet
			}

			if err := env.Services.Create(ctx, name, subnet, port); err != nil {
				return err
			}

			result := createResult{
				Name:       name,
				ConfigPath: env.Services.Layout().ServiceConfig(name),
				Port:       port,
				Subnet:     subnet,
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Fprintf(cli.Stdout(), "service %s created on port %d (subnet %s/24)\n", name, port, subnet)
			fmt.Fprintf(cli.Stdout(), "config: %s\n", result.ConfigPath)
			return nil
		},
	}
}
