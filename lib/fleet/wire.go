// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"log/slog"

	"github.com/tunnelward/tunnelward/lib/clock"
	"github.com/tunnelward/tunnelward/lib/config"
	"github.com/tunnelward/tunnelward/lib/easyrsa"
	"github.com/tunnelward/tunnelward/lib/process"
	"github.com/tunnelward/tunnelward/lib/systemd"
)

var _ Supervisor = (*systemd.Supervisor)(nil)

// Managers bundles the two managers built from one configuration.
type Managers struct {
	Services *ServiceManager
	Clients  *ClientManager
}

// Overrides replaces collaborators that FromConfig would otherwise
// create. Zero fields keep the defaults.
type Overrides struct {
	Clock      clock.Clock
	Privileged func() bool
	Chown      func(path string, uid, gid int) error
}

// FromConfig wires managers to the external tools named in cfg,
// running every command through runner.
func FromConfig(cfg *config.Config, runner process.Runner, logger *slog.Logger, overrides Overrides) *Managers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	authority := easyrsa.New(easyrsa.Options{
		Dir:     cfg.Paths.EasyRSA,
		Binary:  cfg.Binaries.EasyRSA,
		OpenVPN: cfg.Binaries.OpenVPN,
		Runner:  runner,
		Logger:  logger.With("component", "easyrsa"),
	})
	supervisor := systemd.New(systemd.Options{
		Binary:   cfg.Binaries.Systemctl,
		UnitName: cfg.UnitName,
		Runner:   runner,
		Logger:   logger.With("component", "systemd"),
	})
	services := NewServiceManager(ServiceOptions{
		Layout: Layout{
			ServerDir: cfg.Paths.ServerDir,
			ClientDir: cfg.Paths.ClientDir,
			CRL:       cfg.Paths.CRL,
		},
		Authority:  authority,
		Supervisor: supervisor,
		Protocol:   cfg.Server.Protocol,
		Device:     cfg.Server.Device,
		StopPoll:   StopPoll{Attempts: cfg.StopPoll.Attempts, Interval: cfg.StopPoll.Interval},
		Clock:      overrides.Clock,
		Privileged: overrides.Privileged,
		Chown:      overrides.Chown,
		Logger:     logger,
	})
	clients := NewClientManager(ClientOptions{
		Services:  services,
		Authority: authority,
		Logger:    logger,
	})
	return &Managers{Services: services, Clients: clients}
}
