// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	t.Setenv("HOME", "/home/operator")
	cfg := Default()
	cfg.expandVariables()

	checks := []struct {
		name, got, want string
	}{
		{"paths.root", cfg.Paths.Root, "/etc/openvpn"},
		{"paths.easyrsa_dir", cfg.Paths.EasyRSA, "/home/operator/easy-rsa"},
		{"paths.server_dir", cfg.Paths.ServerDir, "/etc/openvpn/server"},
		{"paths.client_dir", cfg.Paths.ClientDir, "/etc/openvpn/client-configs"},
		{"paths.crl_path", cfg.Paths.CRL, "/etc/openvpn/crl.pem"},
		{"binaries.easyrsa", cfg.Binaries.EasyRSA, "/home/operator/easy-rsa/easyrsa"},
		{"unit", cfg.UnitName("vpn1"), "openvpn-server@vpn1"},
	}
	for _, check := range checks {
		if check.got != check.want {
			t.Errorf("%s = %q, want %q", check.name, check.got, check.want)
		}
	}

	if cfg.StopPoll.Attempts != 5 || cfg.StopPoll.Interval != time.Second {
		t.Errorf("stop_poll = %+v, want 5 attempts at 1s", cfg.StopPoll)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestResolve_FallsBackToDefaults(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	t.Setenv("HOME", "/root")

	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cfg.Paths.EasyRSA != "/root/easy-rsa" {
		t.Errorf("easyrsa_dir = %q, want /root/easy-rsa", cfg.Paths.EasyRSA)
	}
}

func TestResolve_EnvironmentVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunnelward.yaml")
	writeFile(t, path, `
paths:
  root: /srv/openvpn
  easyrsa_dir: /srv/pki
server:
  remote_host: vpn.example.com
  protocol: tcp
stop_poll:
  attempts: 3
  interval: 250ms
`)
	t.Setenv(EnvironmentVariable, path)

	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if cfg.Paths.ServerDir != "/srv/openvpn/server" {
		t.Errorf("server_dir = %q, want derived from root", cfg.Paths.ServerDir)
	}
	if cfg.Binaries.EasyRSA != "/srv/pki/easyrsa" {
		t.Errorf("binaries.easyrsa = %q, want /srv/pki/easyrsa", cfg.Binaries.EasyRSA)
	}
	if cfg.Server.RemoteHost != "vpn.example.com" || cfg.Server.Protocol != "tcp" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.DefaultPort != 1194 {
		t.Errorf("default_port = %d, want untouched default 1194", cfg.Server.DefaultPort)
	}
	if cfg.StopPoll.Attempts != 3 || cfg.StopPoll.Interval != 250*time.Millisecond {
		t.Errorf("stop_poll = %+v", cfg.StopPoll)
	}
}

func TestResolve_FlagWinsOverEnvironment(t *testing.T) {
	directory := t.TempDir()
	fromEnv := filepath.Join(directory, "env.yaml")
	fromFlag := filepath.Join(directory, "flag.yaml")
	writeFile(t, fromEnv, "paths:\n  root: /from/env\n")
	writeFile(t, fromFlag, "paths:\n  root: /from/flag\n")
	t.Setenv(EnvironmentVariable, fromEnv)

	cfg, err := Resolve(fromFlag)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cfg.Paths.Root != "/from/flag" {
		t.Errorf("root = %q, want /from/flag", cfg.Paths.Root)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunnelward.jsonc")
	writeFile(t, path, `{
  // operator overrides
  "paths": {
    "root": "/opt/openvpn", /* trailing comment */
  },
  "supervisor": {"unit_template": "openvpn@%s-server"},
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Paths.CRL != "/opt/openvpn/crl.pem" {
		t.Errorf("crl_path = %q, want /opt/openvpn/crl.pem", cfg.Paths.CRL)
	}
	if got := cfg.UnitName("vpn1"); got != "openvpn@vpn1-server" {
		t.Errorf("UnitName = %q, want openvpn@vpn1-server", got)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("TUNNELWARD_TEST_DIR", "/from/env")
	vars := map[string]string{"TUNNELWARD_ROOT": "/etc/openvpn"}

	tests := []struct {
		input, want string
	}{
		{"${TUNNELWARD_ROOT}/server", "/etc/openvpn/server"},
		{"${TUNNELWARD_TEST_DIR}/x", "/from/env/x"},
		{"${TUNNELWARD_UNSET_VAR:-/fallback}/x", "/fallback/x"},
		{"/plain/path", "/plain/path"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.expandVariables()
	cfg.Paths.ServerDir = "relative/server"
	cfg.Supervisor.UnitTemplate = "openvpn-server"
	cfg.Server.Protocol = "sctp"
	cfg.Server.DefaultPort = 70000
	cfg.StopPoll.Attempts = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() accepted an invalid config")
	}
	for _, fragment := range []string{
		"paths.server_dir must be absolute",
		"unit_template",
		`"sctp"`,
		"default_port 70000",
		"stop_poll.attempts",
	} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q missing %q", err, fragment)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
