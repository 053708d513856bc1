// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Fixed daemon settings shared by every service.
const (
	SubnetMask        = "255.255.255.0"
	KeepaliveInterval = 10
	KeepaliveTimeout  = 120
	Verbosity         = 3
)

// ServiceFiles are the absolute paths a service config references.
type ServiceFiles struct {
	CA      string
	Cert    string
	Key     string
	DH      string
	TLSAuth string
	Status  string

	// CRL is optional. When set, the daemon rejects revoked clients at
	// handshake time.
	CRL string
}

// ServiceParams are the inputs to [ServiceConfig].
type ServiceParams struct {
	Port     int
	Protocol string
	Device   string
	Subnet   string
	Files    ServiceFiles
}

// ServiceConfig renders a server configuration.
func ServiceConfig(params ServiceParams) string {
	var builder strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&builder, format, args...)
		builder.WriteByte('\n')
	}

	line("port %d", params.Port)
	line("proto %s", params.Protocol)
	line("dev %s", params.Device)
	line("ca %s", params.Files.CA)
	line("cert %s", params.Files.Cert)
	line("key %s", params.Files.Key)
	line("dh %s", params.Files.DH)
	line("tls-auth %s 0", params.Files.TLSAuth)
	line("server %s %s", params.Subnet, SubnetMask)
	line("keepalive %d %d", KeepaliveInterval, KeepaliveTimeout)
	line("persist-key")
	line("persist-tun")
	line("status %s", params.Files.Status)
	if params.Files.CRL != "" {
		line("crl-verify %s", params.Files.CRL)
	}
	line("verb %d", Verbosity)

	return builder.String()
}

// ServiceSettings are the values recovered from a rendered config.
type ServiceSettings struct {
	Port     int
	Protocol string
	Device   string
	Subnet   string
	Status   string
}

// ParseServiceConfig extracts [ServiceSettings] from config text.
// Unknown directives and comments are ignored. A config without a
// valid port directive is an error.
func ParseServiceConfig(reader io.Reader) (ServiceSettings, error) {
	var settings ServiceSettings
	portSeen := false

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") || strings.HasPrefix(fields[0], ";") {
			continue
		}
		switch fields[0] {
		case "port":
			port, err := strconv.Atoi(fields[1])
			if err != nil || port < 1 || port > 65535 {
				return ServiceSettings{}, fmt.Errorf("invalid port directive %q", fields[1])
			}
			settings.Port = port
			portSeen = true
		case "proto":
			settings.Protocol = fields[1]
		case "dev":
			settings.Device = fields[1]
		case "server":
			settings.Subnet = fields[1]
		case "status":
			settings.Status = fields[1]
		}
	}
	if err := scanner.Err(); err != nil {
		return ServiceSettings{}, fmt.Errorf("reading service config: %w", err)
	}
	if !portSeen {
		return ServiceSettings{}, fmt.Errorf("service config has no port directive")
	}
	return settings, nil
}

// ReadServiceConfig parses the config file at path. Errors from
// opening the file are returned unwrapped by fs semantics, so callers
// can test them with errors.Is(err, fs.ErrNotExist).
func ReadServiceConfig(path string) (ServiceSettings, error) {
	file, err := os.Open(path)
	if err != nil {
		return ServiceSettings{}, err
	}
	defer file.Close()

	settings, err := ParseServiceConfig(file)
	if err != nil {
		return ServiceSettings{}, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}
