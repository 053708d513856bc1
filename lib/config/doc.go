// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads tunnelward configuration.
//
// Configuration comes from a single file named by the --config flag or
// the TUNNELWARD_CONFIG environment variable. The file is YAML; files
// with a .json or .jsonc extension are JSON with comments and trailing
// commas, which are stripped before decoding. When neither the flag
// nor the variable is set, [Default] is used unchanged.
//
// Path values may reference ${HOME}, ${TUNNELWARD_ROOT} (paths.root),
// ${EASYRSA_DIR} (paths.easyrsa_dir) and any environment variable, with
// an optional ${VAR:-fallback} default.
package config
