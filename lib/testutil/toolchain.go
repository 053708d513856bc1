// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/tunnelward/tunnelward/lib/process"
)

// Binary paths the Toolchain answers for. Configurations under test
// must point their binaries here.
const (
	EasyRSABinary   = "/opt/easy-rsa/easyrsa"
	OpenVPNBinary   = "/usr/sbin/openvpn"
	SystemctlBinary = "/bin/systemctl"
)

// Toolchain emulates easy-rsa, openvpn --genkey and systemctl on top
// of a real easy-rsa directory under a test's temporary tree. Its
// Handle method is a [FakeRunner] handler.
type Toolchain struct {
	t       testing.TB
	easyrsa string

	// FailOn makes every command whose rendering contains any of these
	// fragments print easy-rsa's error banner.
	FailOn []string

	// StopLag is how many is-active queries keep reporting a stopped
	// unit as deactivating.
	StopLag int

	// Active and Enabled hold unit state, keyed by unit name.
	Active  map[string]bool
	Enabled map[string]bool

	// Stopping counts the remaining deactivating replies per unit.
	Stopping map[string]int

	// Revoked lists revoked identities in order.
	Revoked []string
}

// NewToolchain returns a Toolchain issuing into easyrsaDir. It seeds
// pki/ca.crt, which a real authority would already hold.
func NewToolchain(t testing.TB, easyrsaDir string) *Toolchain {
	toolchain := &Toolchain{
		t:        t,
		easyrsa:  easyrsaDir,
		Active:   make(map[string]bool),
		Enabled:  make(map[string]bool),
		Stopping: make(map[string]int),
	}
	WriteFile(t, toolchain.PKI("ca.crt"), "CA CERTIFICATE\n")
	return toolchain
}

// PKI joins parts under the authority's pki directory.
func (tc *Toolchain) PKI(parts ...string) string {
	return filepath.Join(append([]string{tc.easyrsa, "pki"}, parts...)...)
}

// Runner returns a FakeRunner answered by tc.
func (tc *Toolchain) Runner() *FakeRunner {
	return NewFakeRunner(tc.Handle)
}

// Handle answers one command.
func (tc *Toolchain) Handle(command process.Command) (process.Result, error) {
	rendered := command.String()
	for _, fragment := range tc.FailOn {
		if strings.Contains(rendered, fragment) {
			return process.Result{Output: "\nEasy-RSA error:\n\nsimulated failure for " + fragment + "\n", ExitCode: 1}, nil
		}
	}

	switch command.Name {
	case EasyRSABinary:
		return tc.handleEasyRSA(command)
	case OpenVPNBinary:
		// --genkey secret <path>
		WriteFile(tc.t, command.Args[2], "OpenVPN Static key V1\n")
		return process.Result{}, nil
	case SystemctlBinary:
		return tc.handleSystemctl(command)
	}
	tc.t.Fatalf("unexpected command %s", rendered)
	return process.Result{}, nil
}

func (tc *Toolchain) handleEasyRSA(command process.Command) (process.Result, error) {
	if command.Dir != tc.easyrsa {
		tc.t.Errorf("easyrsa ran in %q, want %q", command.Dir, tc.easyrsa)
	}
	args := command.Args[1:] // drop --batch
	switch args[0] {
	case "gen-req":
		WriteFile(tc.t, tc.PKI("private", args[1]+".key"), "KEY "+args[1]+"\n")
		WriteFile(tc.t, tc.PKI("reqs", args[1]+".req"), "REQ "+args[1]+"\n")
	case "sign-req":
		WriteFile(tc.t, tc.PKI("issued", args[2]+".crt"), "CERT "+args[2]+"\n")
	case "build-client-full":
		WriteFile(tc.t, tc.PKI("private", args[1]+".key"), "KEY "+args[1]+"\n")
		WriteFile(tc.t, tc.PKI("reqs", args[1]+".req"), "REQ "+args[1]+"\n")
		WriteFile(tc.t, tc.PKI("issued", args[1]+".crt"), "CERT "+args[1]+"\n")
	case "gen-dh":
		WriteFile(tc.t, tc.PKI("dh.pem"), "DH PARAMETERS\n")
	case "revoke":
		tc.Revoked = append(tc.Revoked, args[1])
	case "gen-crl":
		WriteFile(tc.t, tc.PKI("crl.pem"), "CRL "+strings.Join(tc.Revoked, ",")+"\n")
	default:
		tc.t.Fatalf("unexpected easyrsa command %s", command)
	}
	return process.Result{Output: "Notice\n"}, nil
}

func (tc *Toolchain) handleSystemctl(command process.Command) (process.Result, error) {
	verb, unit := command.Args[0], command.Args[1]
	switch verb {
	case "start", "restart":
		tc.Active[unit] = true
		delete(tc.Stopping, unit)
	case "stop":
		if tc.Active[unit] {
			tc.Active[unit] = false
			tc.Stopping[unit] = tc.StopLag
		}
	case "enable":
		tc.Enabled[unit] = true
	case "disable":
		tc.Enabled[unit] = false
	case "is-active":
		if tc.Active[unit] {
			return process.Result{Output: "active\n"}, nil
		}
		if tc.Stopping[unit] > 0 {
			tc.Stopping[unit]--
			return process.Result{Output: "deactivating\n", ExitCode: 3}, nil
		}
		return process.Result{Output: "inactive\n", ExitCode: 3}, nil
	case "is-enabled":
		if tc.Enabled[unit] {
			return process.Result{Output: "enabled\n"}, nil
		}
		return process.Result{Output: "disabled\n", ExitCode: 1}, nil
	default:
		tc.t.Fatalf("unexpected systemctl command %s", command)
	}
	return process.Result{}, nil
}
