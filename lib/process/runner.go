// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external process invocation.
type Command struct {
	// Name is the executable, resolved through PATH when not absolute.
	Name string

	// Args are passed to the executable verbatim. No shell is involved,
	// so arguments never need quoting.
	Args []string

	// Dir is the working directory. Empty means the caller's directory.
	Dir string

	// Env holds extra KEY=value pairs appended to the inherited
	// environment.
	Env []string
}

// String renders the command for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is what a finished process left behind.
type Result struct {
	// Output is stdout and stderr interleaved in arrival order.
	Output string

	// ExitCode is the process exit status. -1 when the process was
	// terminated by a signal.
	ExitCode int
}

// Runner executes external commands synchronously. Implementations
// must block until the process exits and its output is drained.
type Runner interface {
	Run(ctx context.Context, command Command) (Result, error)
}

// Exec is the os/exec backed Runner.
type Exec struct {
	logger *slog.Logger
}

// NewExec returns an Exec that logs each invocation at debug level.
// A nil logger disables logging.
func NewExec(logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exec{logger: logger}
}

// Run starts command, waits for it, and returns its combined output.
// A non-zero exit is not an error; see the package documentation.
func (e *Exec) Run(ctx context.Context, command Command) (Result, error) {
	child := exec.CommandContext(ctx, command.Name, command.Args...)
	child.Dir = command.Dir
	if len(command.Env) > 0 {
		child.Env = append(os.Environ(), command.Env...)
	}

	var output bytes.Buffer
	child.Stdout = &output
	child.Stderr = &output

	err := child.Run()
	result := Result{Output: output.String()}

	var exitError *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitError):
		result.ExitCode = exitError.ExitCode()
	default:
		return result, fmt.Errorf("running %s: %w", command, err)
	}

	e.logger.Debug("external command finished",
		"command", command.String(),
		"dir", command.Dir,
		"exit_code", result.ExitCode,
		"output", strings.TrimSpace(result.Output),
	)
	return result, nil
}
