// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts client bundles for out-of-band delivery.
//
// A client bundle embeds the client's private key, so handing it to a
// user over mail or chat exposes the key. "client show --recipient"
// instead encrypts the bundle to one or more age X25519 public keys
// (age1...) and emits ASCII-armored ciphertext that the recipient
// opens with "age -d".
package sealed
