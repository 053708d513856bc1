// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tunnelward/tunnelward/lib/clock"
	"github.com/tunnelward/tunnelward/lib/easyrsa"
	"github.com/tunnelward/tunnelward/lib/manifest"
	"github.com/tunnelward/tunnelward/lib/render"
)

// CertificateAuthority is the subset of [easyrsa.Authority] the
// managers drive.
type CertificateAuthority interface {
	CACert() string
	DHParams() string
	IssuedCert(name string) string
	PrivateKey(name string) string
	IssueServer(ctx context.Context, name string) error
	IssueClient(ctx context.Context, name string) error
	EnsureDHParams(ctx context.Context) error
	GenerateSharedSecret(ctx context.Context, path string) error
	Revoke(ctx context.Context, name string) error
	GenerateCRL(ctx context.Context) error
	PublishCRL(destination string) error
	RemoveIdentityFiles(name string) error
}

// Supervisor is the subset of [systemd.Supervisor] the managers drive.
type Supervisor interface {
	Start(ctx context.Context, service string) error
	Stop(ctx context.Context, service string) error
	Restart(ctx context.Context, service string) error
	Enable(ctx context.Context, service string) error
	Disable(ctx context.Context, service string) error
	IsActive(ctx context.Context, service string) (bool, error)
	IsEnabled(ctx context.Context, service string) (bool, error)
}

var _ CertificateAuthority = (*easyrsa.Authority)(nil)

// StopPoll bounds the wait after a stop command.
type StopPoll struct {
	Attempts int
	Interval time.Duration
}

// ServiceOptions configures a [ServiceManager].
type ServiceOptions struct {
	Layout     Layout
	Authority  CertificateAuthority
	Supervisor Supervisor

	// Protocol and Device are written into every new service config.
	Protocol string
	Device   string

	StopPoll StopPoll

	// Clock paces the stop poll and stamps manifests. Default: real.
	Clock clock.Clock

	// Privileged reports whether mutating operations may run.
	// Default: effective UID is 0.
	Privileged func() bool

	// Chown assigns ownership of provisioned files. Default: unix.Chown.
	Chown func(path string, uid, gid int) error

	Logger *slog.Logger
}

// ServiceManager provisions and controls services.
type ServiceManager struct {
	layout     Layout
	authority  CertificateAuthority
	supervisor Supervisor
	protocol   string
	device     string
	stopPoll   StopPoll
	clock      clock.Clock
	privileged func() bool
	chown      func(string, int, int) error
	logger     *slog.Logger
}

// NewServiceManager returns a ServiceManager. Layout, Authority and
// Supervisor are required.
func NewServiceManager(options ServiceOptions) *ServiceManager {
	manager := &ServiceManager{
		layout:     options.Layout,
		authority:  options.Authority,
		supervisor: options.Supervisor,
		protocol:   options.Protocol,
		device:     options.Device,
		stopPoll:   options.StopPoll,
		clock:      options.Clock,
		privileged: options.Privileged,
		chown:      options.Chown,
		logger:     options.Logger,
	}
	if manager.protocol == "" {
		manager.protocol = "udp"
	}
	if manager.device == "" {
		manager.device = "tun"
	}
	if manager.stopPoll.Attempts < 1 {
		manager.stopPoll = StopPoll{Attempts: 5, Interval: time.Second}
	}
	if manager.clock == nil {
		manager.clock = clock.Real()
	}
	if manager.privileged == nil {
		manager.privileged = func() bool { return unix.Geteuid() == 0 }
	}
	if manager.chown == nil {
		manager.chown = unix.Chown
	}
	if manager.logger == nil {
		manager.logger = slog.New(slog.DiscardHandler)
	}
	return manager
}

// Layout returns the manager's path layout.
func (m *ServiceManager) Layout() Layout { return m.layout }

// ServiceInfo describes one configured service.
type ServiceInfo struct {
	Name       string `json:"name"`
	ConfigPath string `json:"config_path"`
	Port       int    `json:"port"`
	Protocol   string `json:"protocol"`
	Subnet     string `json:"subnet"`
	Active     bool   `json:"active"`
	Enabled    bool   `json:"enabled"`
}

// requirePrivilege fails with PermissionDenied unless the process may
// mutate the fleet.
func (m *ServiceManager) requirePrivilege(op string) error {
	if !m.privileged() {
		return newError(PermissionDenied, op, ErrNotPrivileged)
	}
	return nil
}

// Exists reports whether any trace of the service's provisioning is on
// disk: its config file or its directory.
func (m *ServiceManager) Exists(name string) bool {
	for _, path := range []string{m.layout.ServiceConfig(name), m.layout.ServiceDir(name)} {
		if _, err := os.Lstat(path); err == nil {
			return true
		}
	}
	return false
}

// Create provisions a service and starts it. The caller must be
// privileged. Steps run in order and the first failure aborts the
// rest; completed steps are not undone.
//
// A name whose config file or directory already exists is rejected
// with InvalidArgument wrapping [ErrAlreadyExists] before any external
// command runs.
func (m *ServiceManager) Create(ctx context.Context, name, subnet string, port int) error {
	op := "create service " + name
	if err := m.requirePrivilege(op); err != nil {
		return err
	}
	for _, check := range []error{ValidateServiceName(name), ValidateSubnet(subnet), ValidatePort(port)} {
		if check != nil {
			return newError(InvalidArgument, op, check)
		}
	}
	if m.Exists(name) {
		return errorf(InvalidArgument, op, "service %q: %w", name, ErrAlreadyExists)
	}

	logger := m.logger.With("service", name)
	files := m.layout.ServiceFiles(name)
	identity := ServerIdentity(name)

	steps := []struct {
		name string
		kind Kind
		run  func() error
	}{
		{"issue-server-identity", ExternalToolFailure, func() error {
			return m.authority.IssueServer(ctx, identity)
		}},
		{"ensure-dh-parameters", ExternalToolFailure, func() error {
			return m.authority.EnsureDHParams(ctx)
		}},
		{"provision-directory", PermissionDenied, func() error {
			return m.provision(name, identity)
		}},
		{"ensure-crl", ExternalToolFailure, func() error {
			return m.ensureCRL(ctx)
		}},
		{"generate-shared-secret", ExternalToolFailure, func() error {
			return m.authority.GenerateSharedSecret(ctx, files.TLSAuth)
		}},
		{"write-config", PermissionDenied, func() error {
			return m.writeConfig(name, subnet, port)
		}},
		{"start", ExternalToolFailure, func() error {
			return m.supervisor.Start(ctx, name)
		}},
		{"enable", ExternalToolFailure, func() error {
			return m.supervisor.Enable(ctx, name)
		}},
	}

	for _, step := range steps {
		logger.Info("create step", "step", step.name)
		if err := step.run(); err != nil {
			logger.Error("create failed; completed steps are left in place",
				"step", step.name,
				"error", err,
			)
			kind := step.kind
			if errors.Is(err, errMissingMaterial) {
				kind = ExternalToolFailure
			}
			return errorf(kind, op, "%s: %w", step.name, err)
		}
	}
	logger.Info("service created", "port", port, "subnet", subnet)
	return nil
}

// errMissingMaterial marks provisioning failures caused by an external
// tool not producing a file it reported as written.
var errMissingMaterial = errors.New("certificate authority did not produce file")

// provision creates the service directory and copies the authority's
// material into it, owned by root. Keys are 0600; certificates and DH
// parameters are 0644.
func (m *ServiceManager) provision(name, identity string) error {
	dir := m.layout.ServiceDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := m.chown(dir, 0, 0); err != nil {
		return fmt.Errorf("chown %s: %w", dir, err)
	}

	files := m.layout.ServiceFiles(name)
	copies := []struct {
		source, destination string
		mode                fs.FileMode
	}{
		{m.authority.CACert(), files.CA, 0o644},
		{m.authority.IssuedCert(identity), files.Cert, 0o644},
		{m.authority.PrivateKey(identity), files.Key, 0o600},
		{m.authority.DHParams(), files.DH, 0o644},
	}
	for _, entry := range copies {
		if err := copyFile(entry.source, entry.destination, entry.mode); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", errMissingMaterial, entry.source)
			}
			return err
		}
		if err := m.chown(entry.destination, 0, 0); err != nil {
			return fmt.Errorf("chown %s: %w", entry.destination, err)
		}
	}
	return nil
}

// ensureCRL publishes an initial revocation list when none exists, so
// every service config can enforce it from its first start.
func (m *ServiceManager) ensureCRL(ctx context.Context) error {
	if _, err := os.Stat(m.layout.CRL); err == nil {
		return nil
	}
	if err := m.authority.GenerateCRL(ctx); err != nil {
		return err
	}
	return m.authority.PublishCRL(m.layout.CRL)
}

// writeConfig renders the service config and records the manifest.
func (m *ServiceManager) writeConfig(name, subnet string, port int) error {
	files := m.layout.ServiceFiles(name)
	if err := os.Chmod(files.TLSAuth, 0o600); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", errMissingMaterial, files.TLSAuth)
		}
		return fmt.Errorf("restricting %s: %w", files.TLSAuth, err)
	}
	if err := m.chown(files.TLSAuth, 0, 0); err != nil {
		return fmt.Errorf("chown %s: %w", files.TLSAuth, err)
	}
	files.CRL = m.layout.CRL

	text := render.ServiceConfig(render.ServiceParams{
		Port:     port,
		Protocol: m.protocol,
		Device:   m.device,
		Subnet:   subnet,
		Files:    files,
	})
	path := m.layout.ServiceConfig(name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := m.chown(path, 0, 0); err != nil {
		return fmt.Errorf("chown %s: %w", path, err)
	}

	digests, err := manifest.DigestFiles([]string{path, files.CA, files.Cert, files.Key, files.DH, files.TLSAuth})
	if err != nil {
		return fmt.Errorf("digesting provisioned files: %w", err)
	}
	record := &manifest.Manifest{
		Service:  name,
		Port:     port,
		Subnet:   subnet,
		Protocol: m.protocol,
		Created:  m.clock.Now().UTC(),
		Files:    digests,
	}
	return manifest.Write(m.layout.Manifest(name), record)
}

// requireConfig returns NotFound unless the service config exists.
func (m *ServiceManager) requireConfig(op, name string) error {
	if err := ValidateServiceName(name); err != nil {
		return newError(InvalidArgument, op, err)
	}
	if _, err := os.Stat(m.layout.ServiceConfig(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errorf(NotFound, op, "service %q is not configured", name)
		}
		return newError(KindUnknown, op, err)
	}
	return nil
}

// Start starts a configured service.
func (m *ServiceManager) Start(ctx context.Context, name string) error {
	return m.control(ctx, "start", name, m.supervisor.Start)
}

// Restart restarts a configured service.
func (m *ServiceManager) Restart(ctx context.Context, name string) error {
	return m.control(ctx, "restart", name, m.supervisor.Restart)
}

func (m *ServiceManager) control(ctx context.Context, verb, name string, call func(context.Context, string) error) error {
	op := verb + " service " + name
	if err := m.requirePrivilege(op); err != nil {
		return err
	}
	if err := m.requireConfig(op, name); err != nil {
		return err
	}
	if err := call(ctx, name); err != nil {
		return newError(ExternalToolFailure, op, err)
	}
	m.logger.Info("service "+verb+" issued", "service", name)
	return nil
}

// Stop stops a configured service and polls until the supervisor
// reports it inactive, up to the configured number of attempts. Stop
// fails with [ErrStillActive] if the final poll still sees it active.
func (m *ServiceManager) Stop(ctx context.Context, name string) error {
	op := "stop service " + name
	if err := m.requirePrivilege(op); err != nil {
		return err
	}
	if err := m.requireConfig(op, name); err != nil {
		return err
	}
	return m.stop(ctx, op, name)
}

func (m *ServiceManager) stop(ctx context.Context, op, name string) error {
	if err := m.supervisor.Stop(ctx, name); err != nil {
		return newError(ExternalToolFailure, op, err)
	}
	for attempt := 1; attempt <= m.stopPoll.Attempts; attempt++ {
		active, err := m.supervisor.IsActive(ctx, name)
		if err != nil {
			return newError(ExternalToolFailure, op, err)
		}
		if !active {
			m.logger.Info("service stopped", "service", name, "attempts", attempt)
			return nil
		}
		if attempt < m.stopPoll.Attempts {
			m.clock.Sleep(m.stopPoll.Interval)
		}
	}
	return errorf(ExternalToolFailure, op, "%w (checked %d times)", ErrStillActive, m.stopPoll.Attempts)
}

// Delete tears a service down. Every step runs even when an earlier
// one fails: stop (only if active), disable, remove the service's
// files, revoke the server identity, regenerate and publish the CRL,
// and remove the authority's copy of the server key material.
//
// The returned Report lists every step. The error is nil only if all
// steps succeeded, and is otherwise a PartialFailure.
func (m *ServiceManager) Delete(ctx context.Context, name string) (*Report, error) {
	op := "delete service " + name
	if err := m.requirePrivilege(op); err != nil {
		return nil, err
	}
	if err := ValidateServiceName(name); err != nil {
		return nil, newError(InvalidArgument, op, err)
	}

	report := newReport(op, m.logger.With("service", name))

	active, err := m.supervisor.IsActive(ctx, name)
	switch {
	case err != nil:
		report.record("stop", err)
	case active:
		report.record("stop", m.stop(ctx, op, name))
	}

	report.record("disable", m.supervisor.Disable(ctx, name))
	report.record("remove-files", m.removeOwnedFiles(name))

	identity := ServerIdentity(name)
	report.record("revoke-server-identity", m.authority.Revoke(ctx, identity))
	report.record("generate-crl", m.authority.GenerateCRL(ctx))
	report.record("publish-crl", m.authority.PublishCRL(m.layout.CRL))
	report.record("remove-identity-files", m.authority.RemoveIdentityFiles(identity))

	return report, report.Err()
}

// removeOwnedFiles removes every service-owned file. Missing files are
// skipped; other failures are collected.
func (m *ServiceManager) removeOwnedFiles(name string) error {
	var errs []error
	for _, path := range m.layout.ownedFiles(name) {
		err := os.Remove(path)
		switch {
		case err == nil:
			m.logger.Debug("removed", "path", path)
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// List returns every configured service, sorted by name, with its
// state freshly queried from the supervisor. A missing server
// directory yields an empty list.
func (m *ServiceManager) List(ctx context.Context) ([]ServiceInfo, error) {
	entries, err := os.ReadDir(m.layout.ServerDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []ServiceInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.layout.ServerDir, err)
	}

	services := []ServiceInfo{}
	for _, entry := range entries {
		name, isConfig := strings.CutSuffix(entry.Name(), ".conf")
		if !isConfig || entry.IsDir() || ValidateServiceName(name) != nil {
			continue
		}
		info := ServiceInfo{Name: name, ConfigPath: filepath.Join(m.layout.ServerDir, entry.Name())}
		settings, err := render.ReadServiceConfig(info.ConfigPath)
		if err != nil {
			m.logger.Warn("unreadable service config", "path", info.ConfigPath, "error", err)
		} else {
			info.Port = settings.Port
			info.Protocol = settings.Protocol
			info.Subnet = settings.Subnet
		}
		if info.Active, err = m.supervisor.IsActive(ctx, name); err != nil {
			return nil, newError(ExternalToolFailure, "list services", err)
		}
		if info.Enabled, err = m.supervisor.IsEnabled(ctx, name); err != nil {
			return nil, newError(ExternalToolFailure, "list services", err)
		}
		services = append(services, info)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services, nil
}

// Settings returns the values recovered from a service's config.
func (m *ServiceManager) Settings(name string) (render.ServiceSettings, error) {
	op := "read service " + name
	if err := ValidateServiceName(name); err != nil {
		return render.ServiceSettings{}, newError(InvalidArgument, op, err)
	}
	settings, err := render.ReadServiceConfig(m.layout.ServiceConfig(name))
	if errors.Is(err, fs.ErrNotExist) {
		return render.ServiceSettings{}, errorf(NotFound, op, "service %q is not configured", name)
	}
	if err != nil {
		return render.ServiceSettings{}, newError(KindUnknown, op, err)
	}
	return settings, nil
}

// Manifest returns the provisioning manifest of a service.
func (m *ServiceManager) Manifest(name string) (*manifest.Manifest, error) {
	op := "read manifest " + name
	if err := ValidateServiceName(name); err != nil {
		return nil, newError(InvalidArgument, op, err)
	}
	record, err := manifest.Read(m.layout.Manifest(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errorf(NotFound, op, "service %q has no manifest", name)
	}
	if err != nil {
		return nil, newError(KindUnknown, op, err)
	}
	return record, nil
}

// Verify compares a service's files against its manifest.
func (m *ServiceManager) Verify(name string) ([]manifest.Problem, error) {
	record, err := m.Manifest(name)
	if err != nil {
		return nil, err
	}
	problems, err := manifest.Verify(record)
	if err != nil {
		return nil, newError(KindUnknown, "verify service "+name, err)
	}
	return problems, nil
}

func copyFile(source, destination string, mode fs.FileMode) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(output, input); err != nil {
		output.Close()
		return err
	}
	if err := output.Close(); err != nil {
		return err
	}
	// OpenFile's mode is filtered by umask and ignored for existing
	// files.
	return os.Chmod(destination, mode)
}
