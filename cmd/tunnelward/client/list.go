// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
	"github.com/tunnelward/tunnelward/lib/fleet"
	"github.com/tunnelward/tunnelward/lib/statuslog"
)

type listParams struct {
	cli.Globals
	cli.JSONOutput
	Watch    bool          `json:"-" flag:"watch,w" desc:"keep running and reprint whenever the daemon rewrites its status log"`
	Debounce time.Duration `json:"-" flag:"debounce" desc:"quiet period after a status log write before reprinting" default:"200ms"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List connected sessions",
		Description: `List the sessions currently connected to a service, as recorded in the
daemon's status log, ordered by connection start.

With --watch the command keeps running and reprints the list each time
the daemon rewrites the log, until interrupted. With --json each
refresh is one JSON array.`,
		Usage:  "tunnelward client list <service> [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("exactly one service name is required")
			}
			service := args[0]
			env, err := params.Open(logger)
			if err != nil {
				return err
			}

			emit := func(sessions []statuslog.Session) error {
				if done, err := params.EmitJSON(sessions); done {
					return err
				}
				return writeSessions(cli.Stdout(), sessions)
			}

			if !params.Watch {
				sessions, err := env.Clients.ListOnline(service)
				if err != nil {
					return err
				}
				return emit(sessions)
			}

			if err := fleet.ValidateServiceName(service); err != nil {
				return cli.Validation("%w", err)
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := env.Services.Layout().StatusLog(service)
			return watchStatusLog(ctx, path, params.Debounce, logger, func() error {
				sessions, err := env.Clients.ListOnline(service)
				if err != nil && !errors.Is(err, statuslog.ErrNotFound) {
					return err
				}
				if !params.OutputJSON {
					fmt.Fprintf(cli.Stdout(), "-- %s --\n", time.Now().Format(time.TimeOnly))
				}
				return emit(sessions)
			})
		},
	}
}

// writeSessions prints sessions as an aligned table.
func writeSessions(w io.Writer, sessions []statuslog.Session) error {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "no sessions")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLIENT\tTUNNEL\tPUBLIC\tSINCE\tRECEIVED\tSENT")
	for _, session := range sessions {
		tunnel := session.TunnelAddress
		if tunnel == "" {
			tunnel = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			session.CommonName,
			tunnel,
			session.PublicAddress,
			session.Since,
			humanize.IBytes(session.BytesReceived),
			humanize.IBytes(session.BytesSent),
		)
	}
	return tw.Flush()
}

// watchStatusLog calls refresh once, then again each time path is
// written or replaced, after debounce of quiet. It watches the parent
// directory so a log created or replaced by rename is still seen. It
// returns nil when ctx is done.
func watchStatusLog(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, refresh func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Debug("watching status log", "path", path)

	if err := refresh(); err != nil {
		return err
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(debounce)

		case <-pending:
			pending = nil
			if err := refresh(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("status log watcher error", "error", err)
		}
	}
}
