// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete tunnelward command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	clientcmd "github.com/tunnelward/tunnelward/cmd/tunnelward/client"
	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
	servicecmd "github.com/tunnelward/tunnelward/cmd/tunnelward/service"
	"github.com/tunnelward/tunnelward/lib/version"
)

// Root builds and returns the complete tunnelward command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "tunnelward",
		Description: `tunnelward: provision and operate tunnel services on this host.

Each service is a tunnel daemon instance with its own certificate,
config, port and subnet, supervised by systemd. Client identities are
issued from a local easy-rsa authority and delivered as single-file
bundles.

Configuration is read from --config, then $TUNNELWARD_CONFIG, then
built-in defaults matching a stock install under /etc/openvpn.`,
		Subcommands: []*cli.Command{
			servicecmd.Command(),
			clientcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					if len(args) > 0 {
						return cli.Validation("unexpected argument: %s", args[0])
					}
					fmt.Fprintf(cli.Stdout(), "tunnelward %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Provision a service and issue a client",
				Command:     "tunnelward service create vpn1 && tunnelward client create vpn1 alice --remote 203.0.113.10",
			},
			{
				Description: "See who is connected",
				Command:     "tunnelward client list vpn1",
			},
			{
				Description: "Legacy flag form, still accepted",
				Command:     "tunnelward service -c vpn1,1194,10.8.0.0",
			},
		},
	}
}
