// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations tunnelward needs.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Real returns the standard library clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
