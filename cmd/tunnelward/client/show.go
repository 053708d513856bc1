// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
	"github.com/tunnelward/tunnelward/lib/sealed"
)

type showParams struct {
	cli.Globals
	Out        string   `json:"out" flag:"out,o" desc:"write the bundle to this file (mode 0600) instead of stdout"`
	Recipients []string `json:"recipients" flag:"recipient,r" desc:"encrypt to this age public key (repeatable); output is ASCII-armored"`
	MaxBytes   uint64   `json:"max_bytes" flag:"max-bytes" desc:"fail if the output is larger than this many bytes (0: no limit)"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Print a client's bundle",
		Description: `Print the client's bundle exactly as written by "client create".

--recipient encrypts the bundle with age to one or more public keys,
producing armored text safe to paste into chat or mail. --max-bytes
fails instead of truncating when the output, encrypted or not, exceeds
a fixed destination size.`,
		Usage:  "tunnelward client show <service> <client> [flags]",
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

			bundle, err := env.Clients.ConfigContent(service, client)
			if err != nil {
				return err
			}
			output := bundle
			if len(params.Recipients) > 0 {
				output, err = sealed.Encrypt(bundle, params.Recipients)
				if err != nil {
					return cli.Validation("encrypting bundle: %w", err)
				}
			}
			if err := checkSize(len(output), params.MaxBytes); err != nil {
				return err
			}

			if params.Out == "" {
				_, err := cli.Stdout().Write(output)
				return err
			}
			if err := os.WriteFile(params.Out, output, 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", params.Out, err)
			}
			logger.Info("bundle written", "path", params.Out, "encrypted", len(params.Recipients) > 0)
			return nil
		},
	}
}

// checkSize enforces limit on output of size bytes. Zero means no
// limit.
func checkSize(size int, limit uint64) error {
	if limit == 0 || uint64(size) <= limit {
		return nil
	}
	return cli.Validation("buffer too small: output is %d bytes, limit %d", size, limit)
}
