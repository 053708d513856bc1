// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/tunnelward/tunnelward/lib/fleet"
)

// ErrorCategory classifies command failures for scripts.
type ErrorCategory string

const (
	// CategoryValidation: bad arguments or flags. Fix the input.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: a named service, client, bundle or file does
	// not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden: not running as root, or a privileged
	// filesystem step failed.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryExternal: easyrsa, openvpn or systemctl failed.
	CategoryExternal ErrorCategory = "external"

	// CategoryPartial: a delete or revoke finished with some steps
	// failed. The log names them.
	CategoryPartial ErrorCategory = "partial"

	// CategoryInternal: anything else.
	CategoryInternal ErrorCategory = "internal"
)

var categoryExitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   3,
	CategoryForbidden:  4,
	CategoryExternal:   5,
	CategoryPartial:    6,
	CategoryInternal:   1,
}

// ExitCode is the process exit status for the category.
func (c ErrorCategory) ExitCode() int {
	if code, ok := categoryExitCodes[c]; ok {
		return code
	}
	return 1
}

// ToolError is a categorized command error.
type ToolError struct {
	Category ErrorCategory
	Err      error

	// Hint is an optional next step shown after the message.
	Hint string
}

func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns e.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// Validation reports bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound reports a missing resource.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Internal reports an unexpected failure.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

var kindCategories = map[fleet.Kind]ErrorCategory{
	fleet.InvalidArgument:     CategoryValidation,
	fleet.NotFound:            CategoryNotFound,
	fleet.PermissionDenied:    CategoryForbidden,
	fleet.ExternalToolFailure: CategoryExternal,
	fleet.PartialFailure:      CategoryPartial,
}

// Classify returns err as a ToolError: the ToolError already in its
// chain, one derived from a fleet error kind, or an internal error.
// Classify(nil) is nil.
func Classify(err error) *ToolError {
	if err == nil {
		return nil
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	if category, ok := kindCategories[fleet.KindOf(err)]; ok {
		return &ToolError{Category: category, Err: err}
	}
	return &ToolError{Category: CategoryInternal, Err: err}
}

// ExitCodeFor returns the exit status for err: 0 for nil, otherwise
// the code of its category.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return Classify(err).Category.ExitCode()
}
