// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package clitest runs tunnelward commands against an emulated
// toolchain in a temporary directory tree.
package clitest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
	"github.com/tunnelward/tunnelward/lib/clock"
	"github.com/tunnelward/tunnelward/lib/config"
	"github.com/tunnelward/tunnelward/lib/fleet"
	"github.com/tunnelward/tunnelward/lib/testutil"
)

// RemoteHost is the server.remote_host written to the fixture config.
const RemoteHost = "vpn.example.com"

// Fixture is a configured fleet rooted in a temporary directory. It
// redirects command output and the environment opener for the
// duration of the test.
type Fixture struct {
	*testutil.Toolchain

	t          *testing.T
	Root       string
	ConfigPath string
	Runner     *testutil.FakeRunner
	Clock      *clock.FakeClock
	Stdout     *bytes.Buffer

	// Privileged is what the managers see as the caller's privilege.
	Privileged bool
}

// New writes a config file under a fresh temporary directory and
// points every command opened during the test at the emulated tools.
func New(t *testing.T) *Fixture {
	t.Helper()
	root := t.TempDir()

	f := &Fixture{
		Toolchain:  testutil.NewToolchain(t, filepath.Join(root, "easy-rsa")),
		t:          t,
		Root:       root,
		ConfigPath: filepath.Join(root, "tunnelward.yaml"),
		Clock:      clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Stdout:     &bytes.Buffer{},
		Privileged: true,
	}
	f.Runner = f.Toolchain.Runner()

	testutil.WriteFile(t, f.ConfigPath, fmt.Sprintf(`paths:
  root: %s
  easyrsa_dir: %s
binaries:
  easyrsa: %s
  openvpn: %s
  systemctl: %s
server:
  remote_host: %s
`, filepath.Join(root, "etc", "openvpn"), filepath.Join(root, "easy-rsa"),
		testutil.EasyRSABinary, testutil.OpenVPNBinary, testutil.SystemctlBinary, RemoteHost))

	t.Cleanup(cli.SetStdout(f.Stdout))
	t.Cleanup(cli.SetOpener(func(cfg *config.Config, logger *slog.Logger) *cli.Environment {
		managers := fleet.FromConfig(cfg, f.Runner, logger, fleet.Overrides{
			Clock:      f.Clock,
			Privileged: func() bool { return f.Privileged },
			Chown:      func(string, int, int) error { return nil },
		})
		return &cli.Environment{Config: cfg, Services: managers.Services, Clients: managers.Clients}
	}))
	return f
}

// Run executes command with args followed by --config, clearing
// Stdout first.
func (f *Fixture) Run(command *cli.Command, args ...string) error {
	return f.RunContext(f.t.Context(), command, args...)
}

// RunContext is Run with an explicit context.
func (f *Fixture) RunContext(ctx context.Context, command *cli.Command, args ...string) error {
	f.Stdout.Reset()
	return command.Execute(ctx, append(args, "--config", f.ConfigPath))
}

// ServerDir is the configured service directory.
func (f *Fixture) ServerDir() string {
	return filepath.Join(f.Root, "etc", "openvpn", "server")
}

// ClientDir is the configured bundle directory.
func (f *Fixture) ClientDir() string {
	return filepath.Join(f.Root, "etc", "openvpn", "client-configs")
}

// Bundle is the bundle path of client under service.
func (f *Fixture) Bundle(service, client string) string {
	return filepath.Join(f.ClientDir(), service, client+".ovpn")
}

// StatusLog is the status log path of service.
func (f *Fixture) StatusLog(service string) string {
	return filepath.Join(f.ServerDir(), service, "status.log")
}

// MustRun runs command and fails the test on error.
func (f *Fixture) MustRun(command *cli.Command, args ...string) string {
	f.t.Helper()
	if err := f.Run(command, args...); err != nil {
		f.t.Fatalf("%v: %v", args, err)
	}
	return f.Stdout.String()
}

// Remove deletes path, failing the test on error.
func (f *Fixture) Remove(path string) {
	f.t.Helper()
	if err := os.Remove(path); err != nil {
		f.t.Fatal(err)
	}
}
