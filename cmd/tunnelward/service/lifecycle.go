// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
	"github.com/tunnelward/tunnelward/lib/fleet"
)

type lifecycleParams struct {
	cli.Globals
}

// lifecycleCommand builds start, stop and restart, which differ only
// in the manager method they call.
func lifecycleCommand(verb, summary, description string, action func(*fleet.ServiceManager, context.Context, string) error) *cli.Command {
	var params lifecycleParams

	return &cli.Command{
		Name:        verb,
		Summary:     summary,
		Description: description,
		Usage:       fmt.Sprintf("tunnelward service %s <name> [flags]", verb),
		Params:      func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			name, err := requireName(args)
			if err != nil {
				return err
			}
			env, err := params.Open(logger)
			if err != nil {
				return err
			}
			if err := action(env.Services, ctx, name); err != nil {
				return err
			}
			logger.Info("service "+verb+" requested", "service", name)
			return nil
		},
	}
}

func startCommand() *cli.Command {
	return lifecycleCommand("start", "Start a service",
		"Ask systemd to start the service's unit.",
		(*fleet.ServiceManager).Start)
}

func stopCommand() *cli.Command {
	return lifecycleCommand("stop", "Stop a service",
		`Ask systemd to stop the service's unit, then poll until the unit
reports inactive. Fails if it is still active after stop_poll.attempts
checks.`,
		(*fleet.ServiceManager).Stop)
}

func restartCommand() *cli.Command {
	return lifecycleCommand("restart", "Restart a service",
		"Ask systemd to restart the service's unit.",
		(*fleet.ServiceManager).Restart)
}
