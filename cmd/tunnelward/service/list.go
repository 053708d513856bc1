// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
	"github.com/tunnelward/tunnelward/lib/fleet"
)

type listParams struct {
	cli.Globals
	cli.JSONOutput
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List configured services",
		Description: `List every service with a config file in the server directory, with
its port, protocol and subnet as read back from the config and its
current systemd state.`,
		Usage:  "tunnelward service list [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := params.Open(logger)
			if err != nil {
				return err
			}

			services, err := env.Services.List(ctx)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(services); done {
				return err
			}
			return writeTable(cli.Stdout(), services)
		},
	}
}

// writeTable prints services as an aligned table. STATE is the last
// column so its color escapes do not disturb alignment.
func writeTable(w io.Writer, services []fleet.ServiceInfo) error {
	if len(services) == 0 {
		fmt.Fprintln(w, "no services configured")
		return nil
	}

	styles := newStateStyles(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPORT\tPROTO\tSUBNET\tENABLED\tSTATE")
	for _, service := range services {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			service.Name,
			service.Port,
			service.Protocol,
			service.Subnet,
			yesNo(service.Enabled),
			styles.render(service.Active),
		)
	}
	return tw.Flush()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

type stateStyles struct {
	active   lipgloss.Style
	inactive lipgloss.Style
}

// newStateStyles colors states only when w is a terminal and NO_COLOR
// is unset.
func newStateStyles(w io.Writer) stateStyles {
	renderer := lipgloss.NewRenderer(w)
	if !colorEnabled(w) {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return stateStyles{
		active:   renderer.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		inactive: renderer.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func (s stateStyles) render(active bool) string {
	if active {
		return s.active.Render("active")
	}
	return s.inactive.Render("inactive")
}

func colorEnabled(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
