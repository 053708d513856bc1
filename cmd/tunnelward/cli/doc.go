// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind the tunnelward binary.
//
// A [Command] is a node in the command tree. Leaf commands declare a
// parameter struct whose tagged fields become pflag flags (see
// [BindFlags]) and a Run function that receives a context, the
// positional arguments left after flag parsing, and a logger scoped to
// the invocation:
//
//	var params createParams
//	return &cli.Command{
//	    Name:   "create",
//	    Params: func() any { return &params },
//	    Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
//	        ...
//	    },
//	}
//
// Every invocation logs to stderr with command=<path> and a fresh
// operation=<uuid> attribute so that the many log lines of one
// multi-step create or revoke can be correlated. Results go to stdout,
// as text tables or, with --json, as indented JSON.
//
// Errors returned from Run are classified into [ToolError] categories.
// [ExitCodeFor] maps a category to the process exit status, so scripts
// can tell "bad input" from "not found" from "tool failed" without
// parsing messages.
package cli
