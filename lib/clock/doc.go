// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that waits on wall-clock time (the stop-confirmation poll in
// lib/fleet is the main one) takes a [Clock] instead of calling
// time.Now or time.Sleep directly. Production wiring passes [Real];
// tests pass a [FakeClock], whose Sleep returns immediately after
// moving fake time forward and recording the requested duration.
//
// tunnelward is single-threaded, so the fake does not need the
// timer-registration handshake a concurrent fake would: every Sleep
// happens on the caller's goroutine and advances time synchronously.
package clock
