// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package systemd controls tunnel daemon units through systemctl.
//
// Mutating operations (start, stop, restart, enable, disable) succeed
// when systemctl could be run; see lib/process for why the exit code is
// not consulted. State queries read systemctl's printed state and are
// translated by [ActiveFromOutput] and [EnabledFromOutput], the only
// two places in tunnelward that interpret supervisor output.
package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tunnelward/tunnelward/lib/process"
)

// Options configures a [Supervisor].
type Options struct {
	// Binary is the systemctl executable.
	Binary string

	// UnitName maps a service name to its unit.
	UnitName func(service string) string

	Runner process.Runner
	Logger *slog.Logger
}

// Supervisor starts, stops and inspects service units.
type Supervisor struct {
	binary   string
	unitName func(string) string
	runner   process.Runner
	logger   *slog.Logger
}

// New returns a Supervisor. Runner and UnitName are required.
func New(options Options) *Supervisor {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{
		binary:   options.Binary,
		unitName: options.UnitName,
		runner:   options.Runner,
		logger:   logger,
	}
}

// Unit returns the unit name for service.
func (s *Supervisor) Unit(service string) string { return s.unitName(service) }

// Start starts the service unit.
func (s *Supervisor) Start(ctx context.Context, service string) error {
	return s.control(ctx, "start", service)
}

// Stop stops the service unit. It does not wait for the daemon to
// exit; callers poll [Supervisor.IsActive].
func (s *Supervisor) Stop(ctx context.Context, service string) error {
	return s.control(ctx, "stop", service)
}

// Restart restarts the service unit.
func (s *Supervisor) Restart(ctx context.Context, service string) error {
	return s.control(ctx, "restart", service)
}

// Enable marks the service unit to start at boot.
func (s *Supervisor) Enable(ctx context.Context, service string) error {
	return s.control(ctx, "enable", service)
}

// Disable clears the start-at-boot mark.
func (s *Supervisor) Disable(ctx context.Context, service string) error {
	return s.control(ctx, "disable", service)
}

// IsActive reports whether the unit is running. See
// [ActiveFromOutput] for the exact rule.
func (s *Supervisor) IsActive(ctx context.Context, service string) (bool, error) {
	output, err := s.query(ctx, "is-active", service)
	if err != nil {
		return false, err
	}
	return ActiveFromOutput(output), nil
}

// IsEnabled reports whether the unit starts at boot. See
// [EnabledFromOutput] for the exact rule.
func (s *Supervisor) IsEnabled(ctx context.Context, service string) (bool, error) {
	output, err := s.query(ctx, "is-enabled", service)
	if err != nil {
		return false, err
	}
	return EnabledFromOutput(output), nil
}

// ActiveFromOutput translates "systemctl is-active" output. A unit is
// active unless the output contains "inactive", so transitional states
// such as "activating", "deactivating" and "reloading" count as
// active, and so does "failed".
func ActiveFromOutput(output string) bool {
	return !strings.Contains(output, "inactive")
}

// EnabledFromOutput translates "systemctl is-enabled" output. A unit is
// enabled only if the output contains "enabled", which also matches
// "enabled-runtime".
func EnabledFromOutput(output string) bool {
	return strings.Contains(output, "enabled")
}

func (s *Supervisor) control(ctx context.Context, verb, service string) error {
	command := process.Command{Name: s.binary, Args: []string{verb, s.unitName(service)}}
	result, err := s.runner.Run(ctx, command)
	if err != nil {
		return fmt.Errorf("%s %s: %w", verb, service, err)
	}
	if result.ExitCode != 0 {
		s.logger.Warn("supervisor command exited non-zero",
			"command", command.String(),
			"exit_code", result.ExitCode,
			"output", strings.TrimSpace(result.Output),
		)
	}
	return nil
}

func (s *Supervisor) query(ctx context.Context, verb, service string) (string, error) {
	command := process.Command{Name: s.binary, Args: []string{verb, s.unitName(service)}}
	result, err := s.runner.Run(ctx, command)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", verb, service, err)
	}
	return result.Output, nil
}
