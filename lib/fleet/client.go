// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tunnelward/tunnelward/lib/render"
	"github.com/tunnelward/tunnelward/lib/statuslog"
)

// ClientOptions configures a [ClientManager].
type ClientOptions struct {
	Services  *ServiceManager
	Authority CertificateAuthority
	Logger    *slog.Logger
}

// ClientManager issues and revokes client identities.
type ClientManager struct {
	services  *ServiceManager
	layout    Layout
	authority CertificateAuthority
	logger    *slog.Logger
}

// NewClientManager returns a ClientManager. Services and Authority are
// required; revocation restarts services through Services.
func NewClientManager(options ClientOptions) *ClientManager {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ClientManager{
		services:  options.Services,
		layout:    options.Services.Layout(),
		authority: options.Authority,
		logger:    logger,
	}
}

func validateClientArgs(op, service, client string) error {
	if err := ValidateServiceName(service); err != nil {
		return newError(InvalidArgument, op, err)
	}
	if err := ValidateClientName(client); err != nil {
		return newError(InvalidArgument, op, err)
	}
	return nil
}

// Create issues an identity for client and writes its bundle for
// service, pointing at remoteHost on the service's port and protocol.
// It returns the bundle path.
//
// Credential files missing after issuance are left out of the bundle
// and logged; they do not fail the call.
func (c *ClientManager) Create(ctx context.Context, service, client, remoteHost string) (string, error) {
	op := fmt.Sprintf("create client %s/%s", service, client)
	if err := c.services.requirePrivilege(op); err != nil {
		return "", err
	}
	if err := validateClientArgs(op, service, client); err != nil {
		return "", err
	}
	if err := ValidateRemoteHost(remoteHost); err != nil {
		return "", newError(InvalidArgument, op, err)
	}

	settings, err := c.services.Settings(service)
	if err != nil {
		return "", err
	}
	bundlePath := c.layout.ClientBundle(service, client)
	if _, err := os.Stat(bundlePath); err == nil {
		return "", errorf(InvalidArgument, op, "client %q of service %q: %w", client, service, ErrAlreadyExists)
	}

	logger := c.logger.With("service", service, "client", client)
	if err := c.authority.IssueClient(ctx, client); err != nil {
		return "", newError(ExternalToolFailure, op, err)
	}

	credentials, missing, err := render.LoadCredentials(render.CredentialPaths{
		CA:      c.authority.CACert(),
		Cert:    c.authority.IssuedCert(client),
		Key:     c.authority.PrivateKey(client),
		TLSAuth: c.layout.ServiceFiles(service).TLSAuth,
	})
	if err != nil {
		return "", newError(PermissionDenied, op, err)
	}
	for _, path := range missing {
		logger.Warn("credential missing; bundle will omit it", "path", path)
	}

	device := settings.Device
	if device == "" {
		device = c.services.device
	}
	protocol := settings.Protocol
	if protocol == "" {
		protocol = c.services.protocol
	}
	if protocol == "tcp-server" {
		protocol = "tcp-client"
	}
	bundle := render.ClientBundle(render.ClientParams{
		RemoteHost:  remoteHost,
		RemotePort:  settings.Port,
		Protocol:    protocol,
		Device:      device,
		Credentials: credentials,
	})

	if err := os.MkdirAll(filepath.Dir(bundlePath), 0o700); err != nil {
		return "", newError(PermissionDenied, op, err)
	}
	if err := os.WriteFile(bundlePath, []byte(bundle), 0o600); err != nil {
		return "", newError(PermissionDenied, op, err)
	}
	logger.Info("client bundle written", "path", bundlePath, "remote", remoteHost, "port", settings.Port)
	return bundlePath, nil
}

// Revoke revokes client, republishes the CRL and restarts service so
// the daemon drops the identity, then deletes the authority's copy of
// the client's key material and the bundle. Every step runs even when
// an earlier one fails.
func (c *ClientManager) Revoke(ctx context.Context, service, client string) (*Report, error) {
	op := fmt.Sprintf("revoke client %s/%s", service, client)
	if err := c.services.requirePrivilege(op); err != nil {
		return nil, err
	}
	if err := validateClientArgs(op, service, client); err != nil {
		return nil, err
	}

	report := newReport(op, c.logger.With("service", service, "client", client))
	report.record("revoke", c.authority.Revoke(ctx, client))
	report.record("generate-crl", c.authority.GenerateCRL(ctx))
	report.record("publish-crl", c.authority.PublishCRL(c.layout.CRL))
	report.record("restart-service", c.services.Restart(ctx, service))
	report.record("remove-identity-files", c.authority.RemoveIdentityFiles(client))

	bundlePath := c.layout.ClientBundle(service, client)
	removeErr := os.Remove(bundlePath)
	if errors.Is(removeErr, fs.ErrNotExist) {
		removeErr = nil
	}
	report.record("remove-bundle", removeErr)

	return report, report.Err()
}

// ConfigContent returns the client's bundle verbatim.
func (c *ClientManager) ConfigContent(service, client string) ([]byte, error) {
	op := fmt.Sprintf("read bundle %s/%s", service, client)
	if err := validateClientArgs(op, service, client); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(c.layout.ClientBundle(service, client))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errorf(NotFound, op, "no bundle for client %q of service %q", client, service)
	}
	if err != nil {
		return nil, newError(KindUnknown, op, err)
	}
	return data, nil
}

// ListOnline returns the sessions currently connected to service,
// parsed from its status log.
func (c *ClientManager) ListOnline(service string) ([]statuslog.Session, error) {
	op := "list sessions " + service
	if err := ValidateServiceName(service); err != nil {
		return nil, newError(InvalidArgument, op, err)
	}
	sessions, err := statuslog.ParseFile(c.layout.StatusLog(service))
	if errors.Is(err, statuslog.ErrNotFound) {
		return sessions, newError(NotFound, op, err)
	}
	if err != nil {
		return sessions, newError(KindUnknown, op, err)
	}
	return sessions, nil
}
