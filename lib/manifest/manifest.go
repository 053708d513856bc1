// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest records what a service was provisioned with.
//
// At create time the fleet manager writes manifest.cbor into the
// service directory: the service parameters plus a BLAKE3 digest of
// every file it placed there. [Verify] later recomputes the digests so
// an operator can tell whether certificate material or the rendered
// config was changed or removed out from under tunnelward.
//
// Digests use BLAKE3 keyed mode with a fixed domain key, so a manifest
// digest never collides with a plain BLAKE3 hash of the same bytes.
package manifest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/tunnelward/tunnelward/lib/codec"
)

// FileName is the manifest's name inside a service directory.
const FileName = "manifest.cbor"

// Version is the manifest format version written by this package.
const Version = 1

// fileDomainKey is the BLAKE3 key for file digests: ASCII
// "tunnelward.manifest.file" zero-padded to 32 bytes.
var fileDomainKey = [32]byte{
	't', 'u', 'n', 'n', 'e', 'l', 'w', 'a', 'r', 'd', '.',
	'm', 'a', 'n', 'i', 'f', 'e', 's', 't', '.',
	'f', 'i', 'l', 'e',
}

// Manifest describes one provisioned service.
type Manifest struct {
	Version  int       `cbor:"version" json:"version"`
	Service  string    `cbor:"service" json:"service"`
	Port     int       `cbor:"port" json:"port"`
	Subnet   string    `cbor:"subnet" json:"subnet"`
	Protocol string    `cbor:"protocol" json:"protocol"`
	Created  time.Time `cbor:"created" json:"created"`
	Files    []File    `cbor:"files" json:"files"`
}

// File is one digested file. Path is absolute.
type File struct {
	Path   string `cbor:"path" json:"path"`
	Size   int64  `cbor:"size" json:"size"`
	Digest string `cbor:"digest" json:"digest"`
}

// Problem is a file whose current state does not match the manifest.
type Problem struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Verification reasons.
const (
	ReasonMissing  = "missing"
	ReasonModified = "modified"
)

// Digest returns the hex BLAKE3 keyed digest of data.
func Digest(data []byte) string {
	hasher, err := blake3.NewKeyed(fileDomainKey[:])
	if err != nil {
		// Only possible with a key that is not 32 bytes.
		panic("manifest: " + err.Error())
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// DigestFile streams path through the file digest.
func DigestFile(path string) (File, error) {
	file, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer file.Close()

	hasher, err := blake3.NewKeyed(fileDomainKey[:])
	if err != nil {
		return File{}, err
	}
	size, err := io.Copy(hasher, file)
	if err != nil {
		return File{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return File{Path: path, Size: size, Digest: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// DigestFiles digests every path in order.
func DigestFiles(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, path := range paths {
		file, err := DigestFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// Write encodes manifest to path with mode 0600.
func Write(path string, manifest *Manifest) error {
	if manifest.Version == 0 {
		manifest.Version = Version
	}
	data, err := codec.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Read decodes the manifest at path. A missing file is returned
// unwrapped enough for errors.Is(err, fs.ErrNotExist).
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	if manifest.Version != Version {
		return nil, fmt.Errorf("manifest %s has version %d, want %d", path, manifest.Version, Version)
	}
	return &manifest, nil
}

// Verify recomputes every recorded digest. It returns one Problem per
// missing or changed file, in manifest order; an empty result means the
// service directory matches.
func Verify(manifest *Manifest) ([]Problem, error) {
	var problems []Problem
	for _, recorded := range manifest.Files {
		current, err := DigestFile(recorded.Path)
		if errors.Is(err, fs.ErrNotExist) {
			problems = append(problems, Problem{Path: recorded.Path, Reason: ReasonMissing})
			continue
		}
		if err != nil {
			return nil, err
		}
		if current.Digest != recorded.Digest || current.Size != recorded.Size {
			problems = append(problems, Problem{Path: recorded.Path, Reason: ReasonModified})
		}
	}
	return problems, nil
}

// Path returns the manifest location inside serviceDir.
func Path(serviceDir string) string {
	return filepath.Join(serviceDir, FileName)
}
