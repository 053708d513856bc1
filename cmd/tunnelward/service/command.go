// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements the "tunnelward service" commands.
package service

import (
	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
)

// Command returns the "service" parent command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "service",
		Summary: "Manage tunnel services",
		Description: `Manage tunnel services: provisioning, lifecycle control, listing and
teardown.

"create" issues a server certificate from the local easy-rsa authority,
renders a daemon config and starts the service under systemd. "delete"
undoes all of that on a best-effort basis and reports every step.

"show" and "verify" read the provisioning manifest written by create.
verify exits non-zero when a provisioned file is missing or has changed.

Every mutating subcommand requires root.`,
		Subcommands: []*cli.Command{
			listCommand(),
			createCommand(),
			deleteCommand(),
			startCommand(),
			stopCommand(),
			restartCommand(),
			showCommand(),
			verifyCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Provision a service on the default port and subnet",
				Command:     "tunnelward service create vpn1",
			},
			{
				Description: "Provision a second service alongside it",
				Command:     "tunnelward service create vpn2 --port 1195 --subnet 10.9.0.0",
			},
			{
				Description: "List services as JSON",
				Command:     "tunnelward service list --json",
			},
		},
	}
}

// requireName checks that args is exactly one service name.
func requireName(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", cli.Validation("service name is required")
	case 1:
		return args[0], nil
	default:
		return "", cli.Validation("unexpected argument: %s", args[1])
	}
}
