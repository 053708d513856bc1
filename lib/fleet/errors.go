// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"errors"
	"fmt"
)

// Kind classifies fleet failures.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from this
	// package.
	KindUnknown Kind = iota

	// InvalidArgument: a malformed name, port, subnet or host, or a
	// service or client that already exists.
	InvalidArgument

	// NotFound: a missing service, client, bundle, manifest or status
	// file.
	NotFound

	// PermissionDenied: the caller is not privileged, or a privileged
	// filesystem step (ownership, restrictive writes) failed.
	PermissionDenied

	// ExternalToolFailure: the certificate authority, key generator or
	// supervisor could not be run or reported failure.
	ExternalToolFailure

	// PartialFailure: a best-effort operation in which at least one
	// step failed.
	PartialFailure
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	InvalidArgument:     "invalid_argument",
	NotFound:            "not_found",
	PermissionDenied:    "permission_denied",
	ExternalToolFailure: "external_tool_failure",
	PartialFailure:      "partial_failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels matching every [Error] of the corresponding kind through
// errors.Is.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrExternalToolFailure = errors.New("external tool failure")
	ErrPartialFailure      = errors.New("partial failure")
)

// Causes wrapped inside an [Error] for the cases callers single out.
var (
	// ErrAlreadyExists is an InvalidArgument cause: create was asked
	// for a service or client that is already provisioned.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotPrivileged is a PermissionDenied cause: the process is not
	// running as root.
	ErrNotPrivileged = errors.New("this operation requires root privileges")

	// ErrStillActive is an ExternalToolFailure cause: a stopped service
	// was still active when the confirmation poll gave up.
	ErrStillActive = errors.New("service still active after stop")
)

func (k Kind) sentinel() error {
	switch k {
	case InvalidArgument:
		return ErrInvalidArgument
	case NotFound:
		return ErrNotFound
	case PermissionDenied:
		return ErrPermissionDenied
	case ExternalToolFailure:
		return ErrExternalToolFailure
	case PartialFailure:
		return ErrPartialFailure
	}
	return nil
}

// Error is a classified fleet failure.
type Error struct {
	Kind Kind
	// Op is the fleet operation, e.g. "create service vpn1".
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

// KindOf returns the kind of the outermost [Error] in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var fleetErr *Error
	if errors.As(err, &fleetErr) {
		return fleetErr.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}
