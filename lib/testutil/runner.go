// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/tunnelward/tunnelward/lib/process"
)

// FakeRunner is a scripted process.Runner.
type FakeRunner struct {
	mu       sync.Mutex
	commands []process.Command
	handler  func(command process.Command) (process.Result, error)
}

// NewFakeRunner returns a FakeRunner answering every command with
// handler. A nil handler answers with empty successful output.
func NewFakeRunner(handler func(command process.Command) (process.Result, error)) *FakeRunner {
	return &FakeRunner{handler: handler}
}

// Run records command and delegates to the handler.
func (f *FakeRunner) Run(_ context.Context, command process.Command) (process.Result, error) {
	f.mu.Lock()
	f.commands = append(f.commands, command)
	handler := f.handler
	f.mu.Unlock()

	if handler == nil {
		return process.Result{}, nil
	}
	return handler(command)
}

// Commands returns every recorded command rendered with its String
// method, in call order.
func (f *FakeRunner) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	rendered := make([]string, len(f.commands))
	for i, command := range f.commands {
		rendered[i] = command.String()
	}
	return rendered
}

// Recorded returns a copy of every recorded command.
func (f *FakeRunner) Recorded() []process.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]process.Command(nil), f.commands...)
}

// CountContaining returns how many recorded commands contain fragment.
func (f *FakeRunner) CountContaining(fragment string) int {
	count := 0
	for _, command := range f.Commands() {
		if strings.Contains(command, fragment) {
			count++
		}
	}
	return count
}

// Reset forgets every recorded command.
func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = nil
}
