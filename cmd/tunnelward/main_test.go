// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
	"github.com/tunnelward/tunnelward/cmd/tunnelward/commands"
)

// TestCommandTree checks that every command is reachable and
// documented: groups have subcommands and no Run, leaves have Run and
// a summary, and names are unique among siblings.
func TestCommandTree(t *testing.T) {
	walkCommands(commands.Root(), nil, func(command *cli.Command, path []string) {
		name := strings.Join(path, " ")
		if len(path) > 1 && command.Summary == "" {
			t.Errorf("%s: missing Summary", name)
		}
		if len(command.Subcommands) == 0 && command.Run == nil {
			t.Errorf("%s: leaf command without Run", name)
		}
		seen := make(map[string]bool)
		for _, sub := range command.Subcommands {
			if seen[sub.Name] {
				t.Errorf("%s: duplicate subcommand %q", name, sub.Name)
			}
			seen[sub.Name] = true
		}
	})
}

// TestLegacyFormsResolve checks that every legacy rewrite lands on a
// command that exists.
func TestLegacyFormsResolve(t *testing.T) {
	root := commands.Root()
	for group, forms := range legacyForms {
		for flag, form := range forms {
			operands := make([]string, len(form.operands))
			for i := range operands {
				operands[i] = "x"
			}
			rewritten := form.rewrite(operands)
			if find(root, rewritten[:2]) == nil {
				t.Errorf("%s %s rewrites to unknown command %q", group, flag, rewritten[:2])
			}
		}
	}
}

func find(command *cli.Command, path []string) *cli.Command {
	if len(path) == 0 {
		return command
	}
	for _, sub := range command.Subcommands {
		if sub.Name == path[0] {
			return find(sub, path[1:])
		}
	}
	return nil
}

// walkCommands recursively visits every command in the tree,
// calling visit for each node with the accumulated command path.
func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := make([]string, len(path)+1)
	copy(current, path)
	current[len(path)] = command.Name
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}
