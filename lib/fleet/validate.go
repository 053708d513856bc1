// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"
)

var (
	// Service names become file and unit names.
	serviceNamePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

	// Client names are easy-rsa common names.
	clientNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
)

// ValidateServiceName checks that name is a non-empty alphanumeric
// string.
func ValidateServiceName(name string) error {
	if !serviceNamePattern.MatchString(name) {
		return fmt.Errorf("service name %q must be non-empty and alphanumeric", name)
	}
	return nil
}

// ValidateClientName checks that name is usable as a common name and
// as a file name.
func ValidateClientName(name string) error {
	if !clientNamePattern.MatchString(name) {
		return fmt.Errorf("client name %q must start with a letter or digit and contain only letters, digits, '.', '_' or '-'", name)
	}
	return nil
}

// ValidatePort checks that port is in 1-65535.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", port)
	}
	return nil
}

// ValidateSubnet checks that subnet is the network address of an IPv4
// /24, the only mask rendered configs use.
func ValidateSubnet(subnet string) error {
	addr, err := netip.ParseAddr(subnet)
	if err != nil || !addr.Is4() {
		return fmt.Errorf("subnet %q is not an IPv4 address", subnet)
	}
	prefix := netip.PrefixFrom(addr, 24)
	if prefix.Masked().Addr() != addr {
		return fmt.Errorf("subnet %q is not a /24 network address (want %s)", subnet, prefix.Masked().Addr())
	}
	return nil
}

// ValidateRemoteHost checks that host can be written into a bundle's
// remote directive.
func ValidateRemoteHost(host string) error {
	if host == "" {
		return fmt.Errorf("remote host is required")
	}
	if strings.ContainsAny(host, " \t\r\n") {
		return fmt.Errorf("remote host %q contains whitespace", host)
	}
	return nil
}
