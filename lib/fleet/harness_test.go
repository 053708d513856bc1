// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tunnelward/tunnelward/lib/clock"
	"github.com/tunnelward/tunnelward/lib/config"
	"github.com/tunnelward/tunnelward/lib/testutil"
)

// harness wires managers to an emulated toolchain on top of a
// temporary directory tree.
type harness struct {
	*testutil.Toolchain

	t        *testing.T
	root     string
	config   *config.Config
	runner   *testutil.FakeRunner
	clock    *clock.FakeClock
	managers *Managers

	privileged bool
	chowned    []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Paths.Root = filepath.Join(root, "etc", "openvpn")
	cfg.Paths.EasyRSA = filepath.Join(root, "easy-rsa")
	cfg.Paths.ServerDir = filepath.Join(cfg.Paths.Root, "server")
	cfg.Paths.ClientDir = filepath.Join(cfg.Paths.Root, "client-configs")
	cfg.Paths.CRL = filepath.Join(cfg.Paths.Root, "crl.pem")
	cfg.Binaries = config.BinariesConfig{
		EasyRSA:   testutil.EasyRSABinary,
		OpenVPN:   testutil.OpenVPNBinary,
		Systemctl: testutil.SystemctlBinary,
	}

	h := &harness{
		Toolchain:  testutil.NewToolchain(t, cfg.Paths.EasyRSA),
		t:          t,
		root:       root,
		config:     cfg,
		clock:      clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		privileged: true,
	}
	h.runner = h.Runner()
	h.managers = FromConfig(cfg, h.runner, nil, Overrides{
		Clock:      h.clock,
		Privileged: func() bool { return h.privileged },
		Chown: func(path string, uid, gid int) error {
			if uid != 0 || gid != 0 {
				t.Errorf("chown %s to %d:%d, want root", path, uid, gid)
			}
			h.chowned = append(h.chowned, path)
			return nil
		},
	})
	return h
}

func (h *harness) services() *ServiceManager { return h.managers.Services }
func (h *harness) clients() *ClientManager   { return h.managers.Clients }
func (h *harness) layout() Layout            { return h.managers.Services.Layout() }

func (h *harness) pki(parts ...string) string { return h.PKI(parts...) }

func (h *harness) mustCreate(name, subnet string, port int) {
	h.t.Helper()
	if err := h.services().Create(h.t.Context(), name, subnet, port); err != nil {
		h.t.Fatalf("Create(%s) error: %v", name, err)
	}
}

func fileMode(t *testing.T, path string) os.FileMode {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return info.Mode().Perm()
}

func removeFile(path string) error { return os.Remove(path) }
