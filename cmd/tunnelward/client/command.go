// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements the "tunnelward client" commands.
package client

import (
	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
)

// Command returns the "client" parent command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "client",
		Summary: "Manage client identities and bundles",
		Description: `Issue and revoke client identities for a service, read their bundles,
and list the sessions currently connected.

A bundle is a single self-contained config file with the CA
certificate, the client certificate and key, and the service's shared
TLS secret inlined. "show --recipient" encrypts it with age for
distribution over untrusted channels.`,
		Subcommands: []*cli.Command{
			createCommand(),
			revokeCommand(),
			listCommand(),
			showCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Issue a client pointing at the configured public address",
				Command:     "tunnelward client create vpn1 alice",
			},
			{
				Description: "Send alice her bundle encrypted to her age key",
				Command:     "tunnelward client show vpn1 alice --recipient age1... --out alice.ovpn.age",
			},
			{
				Description: "Watch connected sessions",
				Command:     "tunnelward client list vpn1 --watch",
			},
		},
	}
}

// requireServiceAndClient checks that args is exactly a service and a
// client name.
func requireServiceAndClient(args []string) (service, client string, err error) {
	switch {
	case len(args) < 2:
		return "", "", cli.Validation("service and client names are required")
	case len(args) > 2:
		return "", "", cli.Validation("unexpected argument: %s", args[2])
	}
	return args[0], args[1], nil
}
