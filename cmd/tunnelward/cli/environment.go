// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/tunnelward/tunnelward/lib/config"
	"github.com/tunnelward/tunnelward/lib/fleet"
	"github.com/tunnelward/tunnelward/lib/process"
)

// Globals are the flags every leaf command accepts. Embed it in a
// parameter struct.
type Globals struct {
	ConfigPath string `json:"-" flag:"config" desc:"configuration file (default: $TUNNELWARD_CONFIG, then built-in defaults)"`
	Verbose    bool   `json:"-" flag:"verbose,v" desc:"log debug detail, including captured tool output"`
}

// LogLevel implements [LogLeveler].
func (g *Globals) LogLevel() slog.Level {
	if g.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Environment is what a command needs to act on the fleet.
type Environment struct {
	Config   *config.Config
	Services *fleet.ServiceManager
	Clients  *fleet.ClientManager
}

// Opener builds an Environment from a resolved configuration.
type Opener func(cfg *config.Config, logger *slog.Logger) *Environment

var opener Opener = openExec

func openExec(cfg *config.Config, logger *slog.Logger) *Environment {
	managers := fleet.FromConfig(cfg, process.NewExec(logger), logger, fleet.Overrides{})
	return &Environment{Config: cfg, Services: managers.Services, Clients: managers.Clients}
}

// SetOpener replaces how environments are built, for tests, and
// returns a function restoring the previous opener.
func SetOpener(o Opener) (restore func()) {
	previous := opener
	opener = o
	return func() { opener = previous }
}

// Open resolves the configuration named by the flags and wires the
// fleet managers to it.
func (g *Globals) Open(logger *slog.Logger) (*Environment, error) {
	cfg, err := config.Resolve(g.ConfigPath)
	if err != nil {
		return nil, Validation("%w", err).WithHint("Check the file passed with --config or $" + config.EnvironmentVariable + ".")
	}
	logger.Debug("configuration resolved",
		"server_dir", cfg.Paths.ServerDir,
		"easyrsa_dir", cfg.Paths.EasyRSA,
	)
	return opener(cfg, logger), nil
}
