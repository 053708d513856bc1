// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string
	root := &Command{
		Name: "tunnelward",
		Subcommands: []*Command{
			{Name: "service", Run: func(context.Context, []string, *slog.Logger) error { called = "service"; return nil }},
			{Name: "client", Run: func(context.Context, []string, *slog.Logger) error { called = "client"; return nil }},
		},
	}

	if err := root.Execute(t.Context(), []string{"client"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "client" {
		t.Errorf("dispatched to %q, want client", called)
	}
}

func TestCommand_Execute_ParsesParams(t *testing.T) {
	type params struct {
		Globals
		Port int    `flag:"port" default:"1194"`
		Name string `flag:"name"`
	}
	var p params
	var received []string

	root := &Command{
		Name: "tunnelward",
		Subcommands: []*Command{{
			Name:   "create",
			Params: func() any { return &p },
			Run: func(_ context.Context, args []string, _ *slog.Logger) error {
				received = args
				return nil
			},
		}},
	}

	if err := root.Execute(t.Context(), []string{"create", "vpn1", "--name", "x", "-v"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if p.Port != 1194 || p.Name != "x" || !p.Verbose {
		t.Errorf("params = %+v", p)
	}
	if len(received) != 1 || received[0] != "vpn1" {
		t.Errorf("args = %q, want [vpn1]", received)
	}
}

func TestCommand_Execute_UnknownCommandSuggests(t *testing.T) {
	root := &Command{
		Name:        "tunnelward",
		Subcommands: []*Command{{Name: "service"}, {Name: "client"}},
	}

	err := root.Execute(t.Context(), []string{"servce"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "service"`) {
		t.Errorf("Execute() error = %v, want suggestion", err)
	}
	if ExitCodeFor(err) != 2 {
		t.Errorf("exit code = %d, want 2", ExitCodeFor(err))
	}
}

func TestCommand_Execute_UnknownFlagSuggests(t *testing.T) {
	type params struct {
		Recipient []string `flag:"recipient"`
	}
	var p params
	command := &Command{
		Name:   "show",
		Params: func() any { return &p },
		Run:    func(context.Context, []string, *slog.Logger) error { return nil },
	}

	err := command.Execute(t.Context(), []string{"--recipent", "age1x"})
	if err == nil || !strings.Contains(err.Error(), "did you mean --recipient") {
		t.Errorf("Execute() error = %v, want flag suggestion", err)
	}
}

func TestCommand_Execute_GroupWithoutSubcommand(t *testing.T) {
	root := &Command{Name: "tunnelward", Subcommands: []*Command{{Name: "service"}}}

	err := root.Execute(t.Context(), nil)
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != CategoryValidation {
		t.Errorf("Execute() error = %v, want validation", err)
	}
}

func TestCommand_Execute_RunErrorPassesThrough(t *testing.T) {
	sentinel := errors.New("boom")
	command := &Command{
		Name: "fail",
		Run:  func(context.Context, []string, *slog.Logger) error { return sentinel },
	}
	if err := command.Execute(t.Context(), nil); !errors.Is(err, sentinel) {
		t.Errorf("Execute() error = %v, want sentinel", err)
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	type params struct {
		Port int `flag:"port" desc:"listen port"`
	}
	var p params
	root := &Command{Name: "tunnelward"}
	child := &Command{
		Name:        "create",
		Description: "Provision a service.",
		Params:      func() any { return &p },
		Examples:    []Example{{Description: "Default port", Command: "tunnelward service create vpn1"}},
		parent:      root,
	}

	var buffer bytes.Buffer
	child.PrintHelp(&buffer)
	output := buffer.String()
	for _, fragment := range []string{"Provision a service.", "tunnelward create [flags]", "--port", "listen port", "# Default port"} {
		if !strings.Contains(output, fragment) {
			t.Errorf("help missing %q:\n%s", fragment, output)
		}
	}
}
