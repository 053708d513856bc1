// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

// Package statuslog parses the tunnel daemon's live status file into
// connected-session records.
//
// The status file has three sections, each introduced by a sentinel
// line: CLIENT_LIST (one row per connected identity), ROUTING_TABLE
// (one row per assigned tunnel address) and GLOBAL_STATS, which ends
// parsing. Fields are comma separated with no escaping, and a trailing
// comma does not start another field. Sessions are
// keyed by common name, not address, so the routing section can only
// decorate identities the client section already produced.
package statuslog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Section sentinels.
const (
	clientListMarker   = "CLIENT_LIST"
	routingTableMarker = "ROUTING_TABLE"
	globalStatsMarker  = "GLOBAL_STATS"
)

// Minimum field counts for a row to be considered.
const (
	clientRowFields  = 6
	routingRowFields = 3
)

// Session is one currently connected client.
type Session struct {
	CommonName    string `json:"common_name"`
	TunnelAddress string `json:"tunnel_address,omitempty"`
	PublicAddress string `json:"public_address"`
	// Since is the connection start exactly as the daemon wrote it.
	Since         string `json:"since"`
	BytesReceived uint64 `json:"bytes_received"`
	BytesSent     uint64 `json:"bytes_sent"`
}

// ErrNotFound is returned by [ParseFile] when the status file is
// missing or cannot be opened.
var ErrNotFound = errors.New("status file not found")

type section int

const (
	sectionNone section = iota
	sectionClients
	sectionRouting
)

// Parse reads a status log and returns its sessions ordered by the
// raw Since string, ascending. Sorting is stable, so sessions with
// equal Since values keep common-name order.
func Parse(reader io.Reader) ([]Session, error) {
	sessions := make(map[string]*Session)
	current := sectionNone

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

scan:
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, clientListMarker):
			current = sectionClients
			continue
		case strings.HasPrefix(line, routingTableMarker):
			current = sectionRouting
			continue
		case strings.HasPrefix(line, globalStatsMarker):
			break scan
		}

		switch current {
		case sectionClients:
			fields := splitRow(line)
			if len(fields) < clientRowFields {
				continue
			}
			received, sent, ok := parseCounters(fields[2], fields[3])
			if !ok {
				received, sent = 0, 0
			}
			sessions[fields[0]] = &Session{
				CommonName:    fields[0],
				PublicAddress: fields[1],
				BytesReceived: received,
				BytesSent:     sent,
				Since:         fields[4],
			}

		case sectionRouting:
			fields := splitRow(line)
			if len(fields) < routingRowFields {
				continue
			}
			if session, ok := sessions[fields[1]]; ok {
				session.TunnelAddress = fields[0]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading status log: %w", err)
	}

	result := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, *session)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CommonName < result[j].CommonName
	})
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Since < result[j].Since
	})
	return result, nil
}

// splitRow splits a row on commas. A single trailing empty field is
// not a field: "a,b," has two.
func splitRow(line string) []string {
	fields := strings.Split(line, ",")
	if n := len(fields); n > 1 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	return fields
}

// parseCounters parses both byte counters. A row whose counters do not
// parse is kept with both counters zero.
func parseCounters(receivedField, sentField string) (uint64, uint64, bool) {
	received, err := strconv.ParseUint(receivedField, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	sent, err := strconv.ParseUint(sentField, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return received, sent, true
}

// ParseFile parses the status log at path. A missing or unreadable
// file yields an empty result and an error wrapping [ErrNotFound]; the
// file is never created.
func ParseFile(path string) ([]Session, error) {
	file, err := os.Open(path)
	if err != nil {
		return []Session{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer file.Close()

	return Parse(file)
}
