// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// FakeClock is a deterministic Clock. Time moves only through Sleep
// and Advance.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	sleeps  []time.Duration

	// onSleep, when set, runs after each Sleep with the 1-based sleep
	// count. Tests use it to change the world between poll attempts.
	onSleep func(count int)
}

// Fake returns a FakeClock starting at initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Sleep advances fake time by d, records d, and returns immediately.
// Non-positive durations are recorded but do not move time.
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	if d > 0 {
		c.current = c.current.Add(d)
	}
	c.sleeps = append(c.sleeps, d)
	count := len(c.sleeps)
	hook := c.onSleep
	c.mu.Unlock()

	if hook != nil {
		hook(count)
	}
}

// Advance moves fake time forward by d without recording a sleep.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Sleeps returns a copy of every duration passed to Sleep, in order.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// OnSleep installs a hook invoked after every Sleep.
func (c *FakeClock) OnSleep(hook func(count int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSleep = hook
}
