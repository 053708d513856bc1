// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package fleet orchestrates tunnel services and the client identities
// authorized to reach them.
//
// A [ServiceManager] provisions a service end to end: it has the
// certificate authority issue a server identity, copies certificate
// material into the service directory, renders the daemon config and
// hands the unit to the supervisor. A [ClientManager] issues and
// revokes client identities and renders their bundles.
//
// Managers are stateless. All state lives on disk or in the external
// tools and is re-read on every call, so whether a service is running
// is always a fresh supervisor query. Nothing in this package locks:
// callers must serialize mutating operations (create, delete, revoke)
// themselves, typically by running one tunnelward process at a time.
// Read-only queries may run concurrently but can observe a half-built
// service if they race a create.
//
// Creation is fail-fast without rollback: the first failing step
// aborts and earlier steps are left in place. Deletion and revocation
// are best-effort: every step runs, each outcome lands in a [Report],
// and the operation succeeds only if every step did.
//
// On-disk layout under the configured server directory:
//
//	<name>.conf                 rendered daemon config
//	<name>/ca.crt               authority certificate
//	<name>/server.crt           server certificate
//	<name>/server.key           server private key (0600)
//	<name>/dh.pem               shared DH parameters (copy)
//	<name>/ta.key               per-service shared secret (0600)
//	<name>/status.log           written by the daemon
//	<name>/manifest.cbor        provisioning manifest
//
// Client bundles live at <client dir>/<service>/<client>.ovpn.
package fleet
