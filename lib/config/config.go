// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable consulted when no --config
// flag is given.
const EnvironmentVariable = "TUNNELWARD_CONFIG"

// Config is the complete tunnelward configuration.
type Config struct {
	// Paths configures where tunnelward reads and writes files.
	Paths PathsConfig `yaml:"paths"`

	// Binaries locates the external tools.
	Binaries BinariesConfig `yaml:"binaries"`

	// Supervisor configures how services map to supervisor units.
	Supervisor SupervisorConfig `yaml:"supervisor"`

	// Server holds defaults for rendered service and client configs.
	Server ServerConfig `yaml:"server"`

	// StopPoll bounds the wait for a stopped service to go inactive.
	StopPoll StopPollConfig `yaml:"stop_poll"`
}

// PathsConfig configures directory and file locations.
type PathsConfig struct {
	// Root is the tunnel daemon's configuration root.
	// Default: /etc/openvpn
	Root string `yaml:"root"`

	// EasyRSA is the easy-rsa working directory holding pki/.
	// Default: ${HOME}/easy-rsa
	EasyRSA string `yaml:"easyrsa_dir"`

	// ServerDir holds one <name>.conf and one <name>/ directory per
	// service.
	// Default: ${TUNNELWARD_ROOT}/server
	ServerDir string `yaml:"server_dir"`

	// ClientDir holds one directory per service with one bundle per
	// issued client.
	// Default: ${TUNNELWARD_ROOT}/client-configs
	ClientDir string `yaml:"client_dir"`

	// CRL is where the revocation list is published for the daemon.
	// Default: ${TUNNELWARD_ROOT}/crl.pem
	CRL string `yaml:"crl_path"`
}

// BinariesConfig locates external executables.
type BinariesConfig struct {
	// EasyRSA is the easyrsa script. Default: ${EASYRSA_DIR}/easyrsa
	EasyRSA string `yaml:"easyrsa"`

	// OpenVPN is the tunnel daemon binary, used for key generation.
	// Default: /usr/sbin/openvpn
	OpenVPN string `yaml:"openvpn"`

	// Systemctl is the supervisor control tool. Default: /bin/systemctl
	Systemctl string `yaml:"systemctl"`
}

// SupervisorConfig configures unit naming.
type SupervisorConfig struct {
	// UnitTemplate is a fmt template with exactly one %s, replaced by
	// the service name. Default: openvpn-server@%s
	UnitTemplate string `yaml:"unit_template"`
}

// ServerConfig holds rendering defaults.
type ServerConfig struct {
	// RemoteHost is the public address written into client bundles
	// when the caller does not supply one.
	RemoteHost string `yaml:"remote_host"`

	// Protocol is the transport protocol. Default: udp
	Protocol string `yaml:"protocol"`

	// Device is the virtual device type. Default: tun
	Device string `yaml:"device"`

	// DefaultPort is used by "service create" without --port.
	// Default: 1194
	DefaultPort int `yaml:"default_port"`

	// DefaultSubnet is used by "service create" without --subnet.
	// Default: 10.8.0.0
	DefaultSubnet string `yaml:"default_subnet"`
}

// StopPollConfig bounds the stop confirmation loop.
type StopPollConfig struct {
	// Attempts is the number of is-active checks after a stop.
	// Default: 5
	Attempts int `yaml:"attempts"`

	// Interval separates consecutive checks. Default: 1s
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration, before variable
// expansion.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Root:      "/etc/openvpn",
			EasyRSA:   "${HOME}/easy-rsa",
			ServerDir: "${TUNNELWARD_ROOT}/server",
			ClientDir: "${TUNNELWARD_ROOT}/client-configs",
			CRL:       "${TUNNELWARD_ROOT}/crl.pem",
		},
		Binaries: BinariesConfig{
			EasyRSA:   "${EASYRSA_DIR}/easyrsa",
			OpenVPN:   "/usr/sbin/openvpn",
			Systemctl: "/bin/systemctl",
		},
		Supervisor: SupervisorConfig{
			UnitTemplate: "openvpn-server@%s",
		},
		Server: ServerConfig{
			Protocol:      "udp",
			Device:        "tun",
			DefaultPort:   1194,
			DefaultSubnet: "10.8.0.0",
		},
		StopPoll: StopPollConfig{
			Attempts: 5,
			Interval: time.Second,
		},
	}
}

// Resolve picks the configuration source: flagPath when non-empty,
// then TUNNELWARD_CONFIG, then the built-in defaults. The returned
// config is expanded and validated.
func Resolve(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}

	var cfg *Config
	if path == "" {
		cfg = Default()
		cfg.expandVariables()
	} else {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile loads configuration from path on top of [Default] and
// expands variables. It does not validate.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// UnitName returns the supervisor unit for a service.
func (c *Config) UnitName(service string) string {
	return fmt.Sprintf(c.Supervisor.UnitTemplate, service)
}

// expandVariables expands ${VAR} and ${VAR:-default} in every path.
// Root is expanded first so dependent paths see its final value.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["TUNNELWARD_ROOT"] = c.Paths.Root
	c.Paths.EasyRSA = expandVars(c.Paths.EasyRSA, vars)
	vars["EASYRSA_DIR"] = c.Paths.EasyRSA

	c.Paths.ServerDir = expandVars(c.Paths.ServerDir, vars)
	c.Paths.ClientDir = expandVars(c.Paths.ClientDir, vars)
	c.Paths.CRL = expandVars(c.Paths.CRL, vars)
	c.Binaries.EasyRSA = expandVars(c.Binaries.EasyRSA, vars)
	c.Binaries.OpenVPN = expandVars(c.Binaries.OpenVPN, vars)
	c.Binaries.Systemctl = expandVars(c.Binaries.Systemctl, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var validProtocols = map[string]bool{
	"udp": true, "udp4": true, "udp6": true,
	"tcp": true, "tcp4": true, "tcp6": true,
	"tcp-server": true,
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	requireAbsolute := func(field, value string) {
		switch {
		case value == "":
			errs = append(errs, fmt.Errorf("%s is required", field))
		case !filepath.IsAbs(value):
			errs = append(errs, fmt.Errorf("%s must be absolute, got %q", field, value))
		}
	}
	requireAbsolute("paths.root", c.Paths.Root)
	requireAbsolute("paths.easyrsa_dir", c.Paths.EasyRSA)
	requireAbsolute("paths.server_dir", c.Paths.ServerDir)
	requireAbsolute("paths.client_dir", c.Paths.ClientDir)
	requireAbsolute("paths.crl_path", c.Paths.CRL)

	if c.Binaries.EasyRSA == "" {
		errs = append(errs, errors.New("binaries.easyrsa is required"))
	}
	if c.Binaries.OpenVPN == "" {
		errs = append(errs, errors.New("binaries.openvpn is required"))
	}
	if c.Binaries.Systemctl == "" {
		errs = append(errs, errors.New("binaries.systemctl is required"))
	}

	if strings.Count(c.Supervisor.UnitTemplate, "%s") != 1 || strings.Count(c.Supervisor.UnitTemplate, "%") != 1 {
		errs = append(errs, fmt.Errorf("supervisor.unit_template must contain exactly one %%s, got %q", c.Supervisor.UnitTemplate))
	}

	if !validProtocols[c.Server.Protocol] {
		errs = append(errs, fmt.Errorf("server.protocol %q is not supported", c.Server.Protocol))
	}
	if c.Server.Device != "tun" && c.Server.Device != "tap" {
		errs = append(errs, fmt.Errorf("server.device must be tun or tap, got %q", c.Server.Device))
	}
	if c.Server.DefaultPort < 1 || c.Server.DefaultPort > 65535 {
		errs = append(errs, fmt.Errorf("server.default_port %d out of range", c.Server.DefaultPort))
	}

	if c.StopPoll.Attempts < 1 {
		errs = append(errs, fmt.Errorf("stop_poll.attempts must be at least 1, got %d", c.StopPoll.Attempts))
	}
	if c.StopPoll.Interval < 0 {
		errs = append(errs, fmt.Errorf("stop_poll.interval must not be negative, got %s", c.StopPoll.Interval))
	}

	return errors.Join(errs...)
}
