// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tunnelward/tunnelward/lib/testutil"
)

func TestClientRevoke_EnforcedOnFirstService(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	h.mustCreate("vpn1", "10.8.0.0", 1194)
	if _, err := h.clients().Create(ctx, "vpn1", "alice", "203.0.113.7"); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := h.clients().Revoke(ctx, "vpn1", "alice"); err != nil {
		t.Fatalf("Revoke() error: %v", err)
	}

	config := testutil.ReadFile(t, h.layout().ServiceConfig("vpn1"))
	if !strings.Contains(config, "crl-verify "+h.layout().CRL+"\n") {
		t.Errorf("restarted service does not read the CRL:\n%s", config)
	}
	if got := testutil.ReadFile(t, h.layout().CRL); got != "CRL alice\n" {
		t.Errorf("published CRL = %q", got)
	}
}

func TestClientLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	h.mustCreate("vpn1", "10.8.0.0", 1194)

	path, err := h.clients().Create(ctx, "vpn1", "alice", "203.0.113.7")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if path != h.layout().ClientBundle("vpn1", "alice") {
		t.Errorf("bundle path = %s", path)
	}
	if got := fileMode(t, path); got != 0o600 {
		t.Errorf("bundle mode = %o, want 600", got)
	}

	bundle := testutil.ReadFile(t, path)
	for _, fragment := range []string{
		"remote 203.0.113.7 1194\n",
		"proto udp\n",
		"<ca>\nCA CERTIFICATE\n</ca>\n",
		"<cert>\nCERT alice\n</cert>\n",
		"<key>\nKEY alice\n</key>\n",
		"<tls-auth>\nOpenVPN Static key V1\n</tls-auth>\n",
	} {
		if !strings.Contains(bundle, fragment) {
			t.Errorf("bundle missing %q:\n%s", fragment, bundle)
		}
	}
	if !strings.HasSuffix(bundle, "key-direction 1\n") {
		t.Errorf("bundle does not end with key-direction:\n%s", bundle)
	}

	content, err := h.clients().ConfigContent("vpn1", "alice")
	if err != nil || string(content) != bundle {
		t.Errorf("ConfigContent() = %q, %v", content, err)
	}

	h.runner.Reset()
	report, err := h.clients().Revoke(ctx, "vpn1", "alice")
	if err != nil {
		t.Fatalf("Revoke() error: %v", err)
	}
	if !report.OK() {
		t.Errorf("report not OK: %+v", report.Steps)
	}
	want := []string{
		"/opt/easy-rsa/easyrsa --batch revoke alice",
		"/opt/easy-rsa/easyrsa --batch gen-crl",
		"/bin/systemctl restart openvpn-server@vpn1",
	}
	if got := h.runner.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %q, want %q", got, want)
	}
	if testutil.Exists(t, path) {
		t.Error("bundle survived revoke")
	}
	for _, artifact := range []string{h.pki("issued", "alice.crt"), h.pki("private", "alice.key"), h.pki("reqs", "alice.req")} {
		if testutil.Exists(t, artifact) {
			t.Errorf("%s survived revoke", artifact)
		}
	}
	if got := testutil.ReadFile(t, h.layout().CRL); got != "CRL alice\n" {
		t.Errorf("published CRL = %q", got)
	}
	if _, err := h.clients().ConfigContent("vpn1", "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ConfigContent() after revoke error = %v, want NotFound", err)
	}
}

func TestClientCreate_UsesServicePortAndProtocol(t *testing.T) {
	h := newHarness(t)
	h.mustCreate("vpn1", "10.8.0.0", 1194)
	testutil.WriteFile(t, h.layout().ServiceConfig("vpn1"), "port 443\nproto tcp-server\ndev tap\n")

	path, err := h.clients().Create(t.Context(), "vpn1", "bob", "vpn.example.com")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	bundle := testutil.ReadFile(t, path)
	for _, fragment := range []string{"remote vpn.example.com 443\n", "proto tcp-client\n", "dev tap\n"} {
		if !strings.Contains(bundle, fragment) {
			t.Errorf("bundle missing %q:\n%s", fragment, bundle)
		}
	}
}

func TestClientCreate_UnknownService(t *testing.T) {
	h := newHarness(t)

	_, err := h.clients().Create(t.Context(), "ghost", "alice", "203.0.113.7")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Create() error = %v, want NotFound", err)
	}
	if len(h.runner.Commands()) != 0 {
		t.Errorf("commands ran for an unknown service: %q", h.runner.Commands())
	}
}

func TestClientCreate_InvalidArguments(t *testing.T) {
	h := newHarness(t)
	h.mustCreate("vpn1", "10.8.0.0", 1194)
	ctx := t.Context()

	for _, args := range [][3]string{
		{"vpn-1", "alice", "203.0.113.7"},
		{"vpn1", "", "203.0.113.7"},
		{"vpn1", "../alice", "203.0.113.7"},
		{"vpn1", "alice", ""},
		{"vpn1", "alice", "host name"},
	} {
		if _, err := h.clients().Create(ctx, args[0], args[1], args[2]); KindOf(err) != InvalidArgument {
			t.Errorf("Create(%q) error = %v, want InvalidArgument", args, err)
		}
	}
}

func TestClientCreate_ExistingBundleIsRejected(t *testing.T) {
	h := newHarness(t)
	h.mustCreate("vpn1", "10.8.0.0", 1194)
	if _, err := h.clients().Create(t.Context(), "vpn1", "alice", "203.0.113.7"); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	h.runner.Reset()

	_, err := h.clients().Create(t.Context(), "vpn1", "alice", "203.0.113.7")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("second Create() error = %v, want ErrAlreadyExists", err)
	}
	if len(h.runner.Commands()) != 0 {
		t.Errorf("second Create() ran commands: %q", h.runner.Commands())
	}
}

func TestClientCreate_IssueFailure(t *testing.T) {
	h := newHarness(t)
	h.mustCreate("vpn1", "10.8.0.0", 1194)
	h.FailOn = []string{"build-client-full"}

	_, err := h.clients().Create(t.Context(), "vpn1", "alice", "203.0.113.7")
	if KindOf(err) != ExternalToolFailure {
		t.Errorf("Create() error = %v, want ExternalToolFailure", err)
	}
	if testutil.Exists(t, h.layout().ClientBundle("vpn1", "alice")) {
		t.Error("bundle written although issuance failed")
	}
}

func TestClientCreate_MissingCredentialsAreOmitted(t *testing.T) {
	h := newHarness(t)
	h.mustCreate("vpn1", "10.8.0.0", 1194)
	testutil.WriteFile(t, h.layout().ServiceConfig("vpn1"), "port 1194\n")
	if err := removeFile(h.layout().ServiceFiles("vpn1").TLSAuth); err != nil {
		t.Fatal(err)
	}

	path, err := h.clients().Create(t.Context(), "vpn1", "alice", "203.0.113.7")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	bundle := testutil.ReadFile(t, path)
	if strings.Contains(bundle, "<tls-auth>") {
		t.Error("bundle contains a tls-auth block for a missing secret")
	}
	if !strings.Contains(bundle, "<cert>") {
		t.Error("bundle lost the certificate block")
	}
}

func TestClientRevoke_ContinuesPastFailures(t *testing.T) {
	h := newHarness(t)
	h.mustCreate("vpn1", "10.8.0.0", 1194)
	if _, err := h.clients().Create(t.Context(), "vpn1", "alice", "203.0.113.7"); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	h.FailOn = []string{"revoke alice"}
	h.runner.Reset()

	report, err := h.clients().Revoke(t.Context(), "vpn1", "alice")
	if !errors.Is(err, ErrPartialFailure) {
		t.Fatalf("Revoke() error = %v, want PartialFailure", err)
	}
	if !reflect.DeepEqual(report.Failed(), []string{"revoke"}) {
		t.Errorf("failed steps = %q", report.Failed())
	}
	if h.runner.CountContaining("restart openvpn-server@vpn1") != 1 {
		t.Error("service was not restarted after the failed revoke")
	}
	if testutil.Exists(t, h.layout().ClientBundle("vpn1", "alice")) {
		t.Error("bundle survived revoke")
	}
}

func TestClientRevoke_RequiresPrivilege(t *testing.T) {
	h := newHarness(t)
	h.privileged = false

	if _, err := h.clients().Revoke(t.Context(), "vpn1", "alice"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Revoke() error = %v, want PermissionDenied", err)
	}
}

func TestClientListOnline(t *testing.T) {
	h := newHarness(t)

	sessions, err := h.clients().ListOnline("vpn1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ListOnline() without status log error = %v, want NotFound", err)
	}
	if sessions == nil || len(sessions) != 0 {
		t.Errorf("ListOnline() = %#v, want empty non-nil", sessions)
	}

	testutil.WriteFile(t, h.layout().StatusLog("vpn1"), strings.Join([]string{
		"OpenVPN CLIENT LIST",
		"CLIENT_LIST",
		"bob,198.51.100.2:5000,10,20,2024-01-02 09:00:00,x",
		"alice,198.51.100.1:4000,30,40,2024-01-01 08:00:00,x",
		"ROUTING_TABLE",
		"10.8.0.6,alice,198.51.100.1:4000,2024-01-01 08:00:00",
		"GLOBAL_STATS",
		"",
	}, "\n"))

	sessions, err = h.clients().ListOnline("vpn1")
	if err != nil {
		t.Fatalf("ListOnline() error: %v", err)
	}
	if len(sessions) != 2 || sessions[0].CommonName != "alice" || sessions[0].TunnelAddress != "10.8.0.6" || sessions[1].CommonName != "bob" {
		t.Errorf("ListOnline() = %+v", sessions)
	}
}
