// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"
)

// NewCommandLogger returns the stderr logger for one invocation: text
// when stderr is a terminal, JSON otherwise (scripts, CI, journald).
func NewCommandLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// NewOperationID returns a random identifier for one invocation.
func NewOperationID() string {
	return uuid.NewString()
}
