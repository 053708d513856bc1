// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is a CLI command or command group.
type Command struct {
	// Name is the word typed on the command line.
	Name string

	// Summary is the one-line description in the parent's listing.
	Summary string

	// Description is the long help text.
	Description string

	// Usage overrides the synthesized usage line.
	Usage string

	Examples []Example

	// Params returns a pointer to the command's parameter struct. Its
	// tagged fields are bound as flags before Run is called.
	Params func() any

	// Flags returns a hand-built flag set. Used only when Params is nil.
	Flags func() *pflag.FlagSet

	// Subcommands are dispatched by the first positional argument.
	Subcommands []*Command

	// Run executes the command. Exactly one of Run or Subcommands is
	// normally set; with both, Run handles the no-match case.
	Run func(ctx context.Context, args []string, logger *slog.Logger) error

	parent *Command
}

// Example is a usage example shown in help output.
type Example struct {
	Description string
	Command     string
}

// LogLeveler is implemented by parameter structs that choose the
// invocation's log level, normally by embedding [Globals].
type LogLeveler interface {
	LogLevel() slog.Level
}

// Execute dispatches args through the command tree.
func (c *Command) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(os.Stderr)
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name := args[0]
		for _, sub := range c.Subcommands {
			if sub.Name == name {
				sub.parent = c
				return sub.Execute(ctx, args[1:])
			}
		}

		if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
			return Validation("unknown command %q (did you mean %q?)", name, suggestion).
				WithHint(fmt.Sprintf("Run '%s --help' for usage.", c.fullName()))
		}
		return Validation("unknown command %q", name).
			WithHint(fmt.Sprintf("Run '%s --help' for usage.", c.fullName()))
	}

	if len(c.Subcommands) > 0 && c.Run == nil {
		c.PrintHelp(os.Stderr)
		if len(args) == 0 {
			return Validation("subcommand required")
		}
		return Validation("subcommand required (got flag %q)", args[0])
	}

	var params any
	var flagSet *pflag.FlagSet
	switch {
	case c.Params != nil:
		params = c.Params()
		flagSet = FlagsFromParams(c.Name, params)
	case c.Flags != nil:
		flagSet = c.Flags()
	}

	if flagSet != nil {
		flagSet.SetOutput(io.Discard)
		if err := flagSet.Parse(args); err != nil {
			if err == pflag.ErrHelp {
				c.PrintHelp(os.Stderr)
				return nil
			}
			hint := fmt.Sprintf("Run '%s --help' for usage.", c.fullName())
			if strings.Contains(err.Error(), "unknown") {
				if suggestion := suggestFlag(args, flagSet); suggestion != "" {
					return Validation("%s (did you mean %s?)", err, suggestion).WithHint(hint)
				}
			}
			return Validation("%s", err).WithHint(hint)
		}
		args = flagSet.Args()
	}

	if c.Run == nil {
		c.PrintHelp(os.Stderr)
		return Internal("no action defined for %q", c.fullName())
	}

	level := slog.LevelInfo
	if leveler, ok := params.(LogLeveler); ok {
		level = leveler.LogLevel()
	}
	logger := NewCommandLogger(level).With(
		"command", c.fullName(),
		"operation", NewOperationID(),
	)
	return c.Run(ctx, args, logger)
}

// PrintHelp writes help for c to w.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	var flagSet *pflag.FlagSet
	switch {
	case c.Params != nil:
		flagSet = FlagsFromParams(c.Name, c.Params())
	case c.Flags != nil:
		flagSet = c.Flags()
	}
	if flagSet != nil {
		if usage := flagSet.FlagUsages(); usage != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", usage)
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
			if example.Description != "" {
				fmt.Fprintln(w)
			}
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

// fullName is the command path, e.g. "tunnelward service create".
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
