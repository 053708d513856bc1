// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
)

// legacyForm describes one flag-style invocation of the older command
// surface, e.g. "service -c vpn1,1194,10.8.0.0".
type legacyForm struct {
	// operands is the comma-separated operand list the flag takes.
	// Empty means the flag takes no operand.
	operands []string

	// rewrite builds the subcommand arguments from the split operands.
	rewrite func(operands []string) []string
}

var legacyForms = map[string]map[string]legacyForm{
	"service": {
		"-l": {rewrite: func([]string) []string { return []string{"service", "list"} }},
		"-c": {
			operands: []string{"name", "port", "subnet"},
			rewrite: func(o []string) []string {
				return []string{"service", "create", o[0], "--port", o[1], "--subnet", o[2]}
			},
		},
		"-d":       {operands: []string{"name"}, rewrite: func(o []string) []string { return []string{"service", "delete", o[0]} }},
		"-start":   {operands: []string{"name"}, rewrite: func(o []string) []string { return []string{"service", "start", o[0]} }},
		"-stop":    {operands: []string{"name"}, rewrite: func(o []string) []string { return []string{"service", "stop", o[0]} }},
		"-restart": {operands: []string{"name"}, rewrite: func(o []string) []string { return []string{"service", "restart", o[0]} }},
	},
	"client": {
		"-c": {
			operands: []string{"service", "name", "wanip"},
			rewrite: func(o []string) []string {
				return []string{"client", "create", o[0], o[1], "--remote", o[2]}
			},
		},
		"-d": {
			operands: []string{"service", "name"},
			rewrite:  func(o []string) []string { return []string{"client", "revoke", o[0], o[1]} },
		},
		"-l": {operands: []string{"service"}, rewrite: func(o []string) []string { return []string{"client", "list", o[0]} }},
	},
}

// translateLegacy rewrites a legacy flag-style invocation into the
// subcommand tree. Anything else is returned unchanged. Arguments
// after the legacy operand are kept, so global flags such as --config
// still apply.
func translateLegacy(args []string) ([]string, error) {
	if len(args) < 2 {
		return args, nil
	}
	form, ok := legacyForms[args[0]][args[1]]
	if !ok {
		return args, nil
	}

	rest := args[2:]
	var operands []string
	if len(form.operands) > 0 {
		usage := args[0] + " " + args[1] + " " + strings.Join(form.operands, ",")
		if len(rest) == 0 || strings.HasPrefix(rest[0], "-") {
			return nil, cli.Validation("missing operand: usage is %s", usage)
		}
		operands = strings.Split(rest[0], ",")
		if len(operands) != len(form.operands) {
			return nil, cli.Validation("%s: got %d comma-separated values, want %d (usage is %s)",
				args[0]+" "+args[1], len(operands), len(form.operands), usage)
		}
		rest = rest[1:]
	}
	return append(form.rewrite(operands), rest...), nil
}
