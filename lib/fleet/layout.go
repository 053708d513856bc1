// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"path/filepath"

	"github.com/tunnelward/tunnelward/lib/manifest"
	"github.com/tunnelward/tunnelward/lib/render"
)

// Layout maps services and clients to paths.
type Layout struct {
	// ServerDir holds <name>.conf and <name>/ per service.
	ServerDir string
	// ClientDir holds <service>/<client>.ovpn.
	ClientDir string
	// CRL is the revocation list path the daemon trusts.
	CRL string
}

// ServiceConfig is the rendered config path for a service.
func (l Layout) ServiceConfig(service string) string {
	return filepath.Join(l.ServerDir, service+".conf")
}

// ServiceDir holds a service's certificate material and status log.
func (l Layout) ServiceDir(service string) string {
	return filepath.Join(l.ServerDir, service)
}

// ServiceFiles returns the files a service config references. CRL is
// left empty since it lives outside the service directory.
func (l Layout) ServiceFiles(service string) render.ServiceFiles {
	dir := l.ServiceDir(service)
	return render.ServiceFiles{
		CA:      filepath.Join(dir, "ca.crt"),
		Cert:    filepath.Join(dir, "server.crt"),
		Key:     filepath.Join(dir, "server.key"),
		DH:      filepath.Join(dir, "dh.pem"),
		TLSAuth: filepath.Join(dir, "ta.key"),
		Status:  filepath.Join(dir, "status.log"),
	}
}

// Manifest is the provisioning manifest path for a service.
func (l Layout) Manifest(service string) string {
	return manifest.Path(l.ServiceDir(service))
}

// StatusLog is the daemon's status file for a service.
func (l Layout) StatusLog(service string) string {
	return l.ServiceFiles(service).Status
}

// ClientBundle is the bundle path for one client of a service.
func (l Layout) ClientBundle(service, client string) string {
	return filepath.Join(l.ClientDir, service, client+".ovpn")
}

// ownedFiles lists every file delete removes for a service, the
// directory itself last.
func (l Layout) ownedFiles(service string) []string {
	files := l.ServiceFiles(service)
	return []string{
		l.ServiceConfig(service),
		files.CA,
		files.Cert,
		files.Key,
		files.DH,
		files.TLSAuth,
		files.Status,
		l.Manifest(service),
		l.ServiceDir(service),
	}
}

// ServerIdentity is the CA common name of a service's server
// certificate.
func ServerIdentity(service string) string {
	return service + "-server"
}
