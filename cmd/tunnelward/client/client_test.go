// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli"
	"github.com/tunnelward/tunnelward/cmd/tunnelward/cli/clitest"
	"github.com/tunnelward/tunnelward/cmd/tunnelward/service"
	"github.com/tunnelward/tunnelward/lib/sealed"
	"github.com/tunnelward/tunnelward/lib/statuslog"
	"github.com/tunnelward/tunnelward/lib/testutil"
)

const statusLog = `OpenVPN CLIENT LIST
CLIENT_LIST
Updated,2026-03-01 12:00:00
Common Name,Real Address,Bytes Received,Bytes Sent,Connected Since
bob,203.0.113.7:51000,2048,1048576,2026-03-01 11:00:00,x
alice,198.51.100.4:40000,100,200,2026-03-01 10:00:00,x
ROUTING_TABLE
Virtual Address,Common Name,Real Address,Last Ref
10.8.0.6,bob,203.0.113.7:51000,2026-03-01 11:00:05
GLOBAL_STATS
`

// newFleet returns a fixture with service vpn1 provisioned.
func newFleet(t *testing.T) *clitest.Fixture {
	t.Helper()
	fixture := clitest.New(t)
	fixture.MustRun(service.Command(), "create", "vpn1")
	fixture.Runner.Reset()
	return fixture
}

func TestCreate_DefaultRemote(t *testing.T) {
	fixture := newFleet(t)

	output := fixture.MustRun(Command(), "create", "vpn1", "alice")
	bundlePath := fixture.Bundle("vpn1", "alice")
	if !strings.Contains(output, "bundle: "+bundlePath) {
		t.Errorf("output = %q", output)
	}

	bundle := testutil.ReadFile(t, bundlePath)
	for _, fragment := range []string{"remote " + clitest.RemoteHost + " 1194\n", "<ca>", "<cert>", "<key>", "<tls-auth>"} {
		if !strings.Contains(bundle, fragment) {
			t.Errorf("bundle missing %q", fragment)
		}
	}
}

func TestCreate_RemoteFlagAndJSON(t *testing.T) {
	fixture := newFleet(t)

	output := fixture.MustRun(Command(), "create", "vpn1", "bob", "--remote", "203.0.113.1", "--json")
	var result createResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("decoding %q: %v", output, err)
	}
	if result.Service != "vpn1" || result.Client != "bob" || result.Bundle != fixture.Bundle("vpn1", "bob") {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(testutil.ReadFile(t, result.Bundle), "remote 203.0.113.1 1194\n") {
		t.Error("bundle does not use --remote")
	}
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
	}{
		{name: "missing client", args: []string{"create", "vpn1"}, exitCode: 2},
		{name: "extra argument", args: []string{"create", "vpn1", "alice", "bob"}, exitCode: 2},
		{name: "bad client name", args: []string{"create", "vpn1", "al/ice"}, exitCode: 2},
		{name: "unknown service", args: []string{"create", "ghost", "alice"}, exitCode: 3},
		{name: "remote with whitespace", args: []string{"create", "vpn1", "alice", "--remote", "a b"}, exitCode: 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fixture := newFleet(t)
			err := fixture.Run(Command(), test.args...)
			if code := cli.ExitCodeFor(err); code != test.exitCode {
				t.Errorf("exit code = %d (%v), want %d", code, err, test.exitCode)
			}
		})
	}
}

func TestCreate_ExistingBundleRejected(t *testing.T) {
	fixture := newFleet(t)
	fixture.MustRun(Command(), "create", "vpn1", "alice")
	fixture.Runner.Reset()

	err := fixture.Run(Command(), "create", "vpn1", "alice")
	if cli.ExitCodeFor(err) != 2 {
		t.Errorf("exit code = %d (%v), want 2", cli.ExitCodeFor(err), err)
	}
	if fixture.Runner.CountContaining("build-client-full") != 0 {
		t.Error("identity reissued for an existing bundle")
	}
}

func TestRevoke(t *testing.T) {
	fixture := newFleet(t)
	fixture.MustRun(Command(), "create", "vpn1", "alice")

	output := fixture.MustRun(Command(), "revoke", "vpn1", "alice")
	for _, step := range []string{"revoke", "generate-crl", "publish-crl", "restart-service", "remove-identity-files", "remove-bundle"} {
		if !strings.Contains(output, "ok      "+step+"\n") {
			t.Errorf("output missing step %s:\n%s", step, output)
		}
	}
	if _, err := os.Stat(fixture.Bundle("vpn1", "alice")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("bundle survived revoke: %v", err)
	}
	if fixture.Runner.CountContaining("restart openvpn-server@vpn1") != 1 {
		t.Errorf("service not restarted: %q", fixture.Runner.Commands())
	}
}

func TestRevoke_PartialFailure(t *testing.T) {
	fixture := newFleet(t)
	fixture.MustRun(Command(), "create", "vpn1", "alice")
	fixture.FailOn = []string{"revoke alice"}

	err := fixture.Run(Command(), "revoke", "vpn1", "alice")
	if cli.ExitCodeFor(err) != 6 {
		t.Fatalf("exit code = %d (%v), want 6", cli.ExitCodeFor(err), err)
	}
	if !strings.Contains(fixture.Stdout.String(), "FAILED  revoke:") {
		t.Errorf("output = %q", fixture.Stdout.String())
	}
	if !strings.Contains(fixture.Stdout.String(), "ok      remove-bundle\n") {
		t.Error("later steps did not run")
	}
}

func TestList(t *testing.T) {
	fixture := newFleet(t)
	testutil.WriteFile(t, fixture.StatusLog("vpn1"), statusLog)

	output := fixture.MustRun(Command(), "list", "vpn1")
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("list output:\n%s", output)
	}
	if !strings.HasPrefix(lines[1], "alice") || !strings.HasPrefix(lines[2], "bob") {
		t.Errorf("rows not ordered by connection start:\n%s", output)
	}
	if fields := strings.Fields(lines[2]); fields[1] != "10.8.0.6" || !strings.Contains(lines[2], "1.0 MiB") {
		t.Errorf("bob row = %q", lines[2])
	}
	if fields := strings.Fields(lines[1]); fields[1] != "-" {
		t.Errorf("alice row = %q, want no tunnel address", lines[1])
	}
}

func TestList_JSON(t *testing.T) {
	fixture := newFleet(t)
	testutil.WriteFile(t, fixture.StatusLog("vpn1"), statusLog)

	output := fixture.MustRun(Command(), "list", "vpn1", "--json")
	var sessions []statuslog.Session
	if err := json.Unmarshal([]byte(output), &sessions); err != nil {
		t.Fatalf("decoding %q: %v", output, err)
	}
	if len(sessions) != 2 || sessions[1].BytesSent != 1048576 {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestList_MissingStatusLog(t *testing.T) {
	fixture := newFleet(t)
	err := fixture.Run(Command(), "list", "vpn1")
	if cli.ExitCodeFor(err) != 3 || !errors.Is(err, statuslog.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestShow(t *testing.T) {
	fixture := newFleet(t)
	fixture.MustRun(Command(), "create", "vpn1", "alice")
	want := testutil.ReadFile(t, fixture.Bundle("vpn1", "alice"))

	if output := fixture.MustRun(Command(), "show", "vpn1", "alice"); output != want {
		t.Errorf("show output differs from the bundle:\n%s", output)
	}

	out := filepath.Join(t.TempDir(), "alice.ovpn")
	fixture.MustRun(Command(), "show", "vpn1", "alice", "--out", out)
	if testutil.ReadFile(t, out) != want {
		t.Error("--out content differs from the bundle")
	}
	if info, err := os.Stat(out); err != nil || info.Mode().Perm() != 0o600 {
		t.Errorf("--out file mode = %v, %v", info, err)
	}
}

func TestShow_Encrypted(t *testing.T) {
	fixture := newFleet(t)
	fixture.MustRun(Command(), "create", "vpn1", "alice")
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}

	output := fixture.MustRun(Command(), "show", "vpn1", "alice", "--recipient", keypair.PublicKey)
	if !strings.HasPrefix(output, "-----BEGIN AGE ENCRYPTED FILE-----") {
		t.Fatalf("output is not armored age:\n%s", output)
	}
	plaintext, err := sealed.Decrypt([]byte(output), keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if string(plaintext) != testutil.ReadFile(t, fixture.Bundle("vpn1", "alice")) {
		t.Error("decrypted bundle differs")
	}

	err = fixture.Run(Command(), "show", "vpn1", "alice", "--recipient", "not-a-key")
	if cli.ExitCodeFor(err) != 2 {
		t.Errorf("bad recipient exit code = %d (%v), want 2", cli.ExitCodeFor(err), err)
	}
}

func TestShow_MaxBytes(t *testing.T) {
	fixture := newFleet(t)
	fixture.MustRun(Command(), "create", "vpn1", "alice")
	size := len(testutil.ReadFile(t, fixture.Bundle("vpn1", "alice")))

	fixture.MustRun(Command(), "show", "vpn1", "alice", "--max-bytes", "100000")

	err := fixture.Run(Command(), "show", "vpn1", "alice", "--max-bytes", "16")
	if err == nil || !strings.Contains(err.Error(), "buffer too small") || cli.ExitCodeFor(err) != 2 {
		t.Fatalf("error = %v, want buffer too small", err)
	}
	if fixture.Stdout.Len() != 0 {
		t.Error("a truncated bundle was written")
	}
	if checkSize(size, uint64(size)) != nil {
		t.Error("a bundle exactly at the limit was rejected")
	}
}

func TestShow_MaxBytesAppliesToEncryptedOutput(t *testing.T) {
	fixture := newFleet(t)
	fixture.MustRun(Command(), "create", "vpn1", "alice")
	size := len(testutil.ReadFile(t, fixture.Bundle("vpn1", "alice")))
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	limit := strconv.Itoa(size)

	fixture.MustRun(Command(), "show", "vpn1", "alice", "--max-bytes", limit)

	err = fixture.Run(Command(), "show", "vpn1", "alice", "--recipient", keypair.PublicKey, "--max-bytes", limit)
	if err == nil || !strings.Contains(err.Error(), "buffer too small") {
		t.Fatalf("error = %v, want buffer too small for armored output", err)
	}
	if fixture.Stdout.Len() != 0 {
		t.Error("oversized armored output was written")
	}
}

func TestShow_UnknownClient(t *testing.T) {
	fixture := newFleet(t)
	err := fixture.Run(Command(), "show", "vpn1", "nobody")
	if cli.ExitCodeFor(err) != 3 {
		t.Errorf("exit code = %d (%v), want 3", cli.ExitCodeFor(err), err)
	}
}
