// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Cipher is the data-channel cipher pinned in every client bundle.
const Cipher = "AES-256-CBC"

// Credentials is the inline key material of a client bundle. An empty
// field is omitted from the bundle.
type Credentials struct {
	CA      string
	Cert    string
	Key     string
	TLSAuth string
}

// ClientParams are the inputs to [ClientBundle].
type ClientParams struct {
	RemoteHost  string
	RemotePort  int
	Protocol    string
	Device      string
	Credentials Credentials
}

// ClientBundle renders a self-contained client configuration.
func ClientBundle(params ClientParams) string {
	var builder strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&builder, format, args...)
		builder.WriteByte('\n')
	}

	line("client")
	line("dev %s", params.Device)
	line("proto %s", params.Protocol)
	line("remote %s %d", params.RemoteHost, params.RemotePort)
	line("resolv-retry infinite")
	line("nobind")
	line("persist-key")
	line("persist-tun")
	line("remote-cert-tls server")
	line("cipher %s", Cipher)
	line("verb %d", Verbosity)

	writeBlock(&builder, "ca", params.Credentials.CA)
	writeBlock(&builder, "cert", params.Credentials.Cert)
	writeBlock(&builder, "key", params.Credentials.Key)
	writeBlock(&builder, "tls-auth", params.Credentials.TLSAuth)
	line("key-direction 1")

	return builder.String()
}

func writeBlock(builder *strings.Builder, tag, content string) {
	if content == "" {
		return
	}
	fmt.Fprintf(builder, "<%s>\n", tag)
	builder.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		builder.WriteByte('\n')
	}
	fmt.Fprintf(builder, "</%s>\n", tag)
}

// CredentialPaths locates the files [LoadCredentials] reads.
type CredentialPaths struct {
	CA      string
	Cert    string
	Key     string
	TLSAuth string
}

// LoadCredentials reads every credential file. Files that do not exist
// leave their field empty and are listed in missing; any other read
// failure is an error.
func LoadCredentials(paths CredentialPaths) (credentials Credentials, missing []string, err error) {
	read := func(path string, target *string) error {
		data, readErr := os.ReadFile(path)
		if errors.Is(readErr, fs.ErrNotExist) {
			missing = append(missing, path)
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("reading credential %s: %w", path, readErr)
		}
		*target = string(data)
		return nil
	}

	for _, entry := range []struct {
		path   string
		target *string
	}{
		{paths.CA, &credentials.CA},
		{paths.Cert, &credentials.Cert},
		{paths.Key, &credentials.Key},
		{paths.TLSAuth, &credentials.TLSAuth},
	} {
		if err := read(entry.path, entry.target); err != nil {
			return Credentials{}, nil, err
		}
	}
	return credentials, missing, nil
}
