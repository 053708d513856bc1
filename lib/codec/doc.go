// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds tunnelward's CBOR configuration.
//
// CLI output is JSON. Files tunnelward writes for itself (the service
// manifest) are CBOR with Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items. The same logical value always encodes to identical bytes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types that are only ever stored as CBOR use `cbor` struct tags.
// Types that also appear in --json output use `json` tags, which
// fxamacker/cbor reads when no `cbor` tag is present.
package codec
