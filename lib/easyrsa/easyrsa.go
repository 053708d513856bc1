// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package easyrsa drives the easy-rsa certificate authority and the
// tunnel daemon's key generator.
//
// Every operation formats one external command, runs it through a
// [process.Runner] inside the easy-rsa working directory, and reports
// failure when the command could not be launched or printed easy-rsa's
// error banner. Exit codes are not consulted (see lib/process).
//
// File locations follow easy-rsa's PKI layout under <dir>/pki:
// ca.crt, dh.pem, crl.pem, issued/<name>.crt, private/<name>.key and
// reqs/<name>.req.
package easyrsa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tunnelward/tunnelward/lib/process"
)

// failureBanner is printed by easy-rsa on every fatal error.
const failureBanner = "Easy-RSA error"

// ErrCommandFailed is wrapped by every error caused by a CA command
// that ran but reported failure.
var ErrCommandFailed = errors.New("certificate authority command failed")

// Options configures an [Authority].
type Options struct {
	// Dir is the easy-rsa working directory (the parent of pki/).
	Dir string

	// Binary is the easyrsa script.
	Binary string

	// OpenVPN is the tunnel daemon binary, used for --genkey.
	OpenVPN string

	Runner process.Runner
	Logger *slog.Logger
}

// Authority is a handle on one easy-rsa PKI.
type Authority struct {
	dir     string
	binary  string
	openvpn string
	runner  process.Runner
	logger  *slog.Logger
}

// New returns an Authority. Runner is required.
func New(options Options) *Authority {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Authority{
		dir:     options.Dir,
		binary:  options.Binary,
		openvpn: options.OpenVPN,
		runner:  options.Runner,
		logger:  logger,
	}
}

// Dir returns the easy-rsa working directory.
func (a *Authority) Dir() string { return a.dir }

// CACert is the authority certificate.
func (a *Authority) CACert() string { return filepath.Join(a.dir, "pki", "ca.crt") }

// DHParams is the shared Diffie-Hellman parameter file.
func (a *Authority) DHParams() string { return filepath.Join(a.dir, "pki", "dh.pem") }

// CRL is the most recently generated revocation list.
func (a *Authority) CRL() string { return filepath.Join(a.dir, "pki", "crl.pem") }

// IssuedCert is the signed certificate for name.
func (a *Authority) IssuedCert(name string) string {
	return filepath.Join(a.dir, "pki", "issued", name+".crt")
}

// PrivateKey is the private key for name.
func (a *Authority) PrivateKey(name string) string {
	return filepath.Join(a.dir, "pki", "private", name+".key")
}

// Request is the certificate signing request for name.
func (a *Authority) Request(name string) string {
	return filepath.Join(a.dir, "pki", "reqs", name+".req")
}

// IssueServer creates a key and request for name, then signs it as a
// server certificate. The signing step is skipped if the request
// step fails.
func (a *Authority) IssueServer(ctx context.Context, name string) error {
	if err := a.easyrsa(ctx, "gen-req", name, "nopass"); err != nil {
		return fmt.Errorf("generating server request %s: %w", name, err)
	}
	if err := a.easyrsa(ctx, "sign-req", "server", name); err != nil {
		return fmt.Errorf("signing server certificate %s: %w", name, err)
	}
	return nil
}

// IssueClient creates and signs a client key pair in one step.
func (a *Authority) IssueClient(ctx context.Context, name string) error {
	if err := a.easyrsa(ctx, "build-client-full", name, "nopass"); err != nil {
		return fmt.Errorf("issuing client certificate %s: %w", name, err)
	}
	return nil
}

// EnsureDHParams generates the shared DH parameters unless they
// already exist. Generation is slow and the result is reused by every
// service.
func (a *Authority) EnsureDHParams(ctx context.Context) error {
	if _, err := os.Stat(a.DHParams()); err == nil {
		a.logger.Debug("reusing DH parameters", "path", a.DHParams())
		return nil
	}
	a.logger.Info("generating DH parameters; this can take several minutes")
	if err := a.easyrsa(ctx, "gen-dh"); err != nil {
		return fmt.Errorf("generating DH parameters: %w", err)
	}
	return nil
}

// GenerateSharedSecret writes a fresh static key to path, replacing
// any existing key.
func (a *Authority) GenerateSharedSecret(ctx context.Context, path string) error {
	command := process.Command{
		Name: a.openvpn,
		Args: []string{"--genkey", "secret", path},
	}
	if err := a.run(ctx, command); err != nil {
		return fmt.Errorf("generating shared secret %s: %w", path, err)
	}
	return nil
}

// Revoke revokes the certificate issued to name.
func (a *Authority) Revoke(ctx context.Context, name string) error {
	if err := a.easyrsa(ctx, "revoke", name); err != nil {
		return fmt.Errorf("revoking %s: %w", name, err)
	}
	return nil
}

// GenerateCRL regenerates the revocation list from the current
// revocation state.
func (a *Authority) GenerateCRL(ctx context.Context) error {
	if err := a.easyrsa(ctx, "gen-crl"); err != nil {
		return fmt.Errorf("generating CRL: %w", err)
	}
	return nil
}

// PublishCRL copies the current revocation list to destination,
// world-readable so the daemon can read it after dropping privileges.
func (a *Authority) PublishCRL(destination string) error {
	if err := copyFile(a.CRL(), destination, 0o644); err != nil {
		return fmt.Errorf("publishing CRL to %s: %w", destination, err)
	}
	return nil
}

// RemoveIdentityFiles deletes the certificate, key and request easy-rsa
// keeps for name. Files that are already gone are not an error.
func (a *Authority) RemoveIdentityFiles(name string) error {
	var errs []error
	for _, path := range []string{a.IssuedCert(name), a.PrivateKey(name), a.Request(name)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Authority) easyrsa(ctx context.Context, args ...string) error {
	return a.run(ctx, process.Command{
		Name: a.binary,
		Args: append([]string{"--batch"}, args...),
		Dir:  a.dir,
	})
}

func (a *Authority) run(ctx context.Context, command process.Command) error {
	result, err := a.runner.Run(ctx, command)
	if err != nil {
		return err
	}
	if strings.Contains(result.Output, failureBanner) {
		a.logger.Debug("certificate authority reported failure",
			"command", command.String(),
			"output", strings.TrimSpace(result.Output),
		)
		return fmt.Errorf("%w: %s: %s", ErrCommandFailed, command, lastLine(result.Output))
	}
	return nil
}

// lastLine returns the last non-empty line of output, which is where
// easy-rsa puts its error detail.
func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func copyFile(source, destination string, mode fs.FileMode) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}
	output, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(output, input); err != nil {
		output.Close()
		return err
	}
	return output.Close()
}
