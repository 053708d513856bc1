// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
)

type showParams struct {
	cli.Globals
	cli.JSONOutput
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show a service's provisioning manifest",
		Description: `Print the manifest written when the service was created: its port,
protocol, subnet, creation time and a keyed digest of every provisioned
file.`,
		Usage:  "tunnelward service show <name> [flags]",
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

			record, err := env.Services.Manifest(name)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(record); done {
				return err
			}

			w := cli.Stdout()
			fmt.Fprintf(w, "service:  %s\n", record.Service)
			fmt.Fprintf(w, "port:     %d/%s\n", record.Port, record.Protocol)
			fmt.Fprintf(w, "subnet:   %s/24\n", record.Subnet)
			fmt.Fprintf(w, "created:  %s (%s)\n", record.Created.Format(time.RFC3339), humanize.Time(record.Created))
			fmt.Fprintln(w)

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tSIZE\tDIGEST")
			for _, file := range record.Files {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", file.Path, humanize.IBytes(uint64(file.Size)), shortDigest(file.Digest))
			}
			return tw.Flush()
		},
	}
}

func shortDigest(digest string) string {
	if len(digest) > 16 {
		return digest[:16]
	}
	return digest
}
