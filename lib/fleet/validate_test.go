// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import "testing"

func TestValidateSubnet(t *testing.T) {
	tests := []struct {
		subnet string
		valid  bool
	}{
		{"10.8.0.0", true},
		{"192.168.255.0", true},
		{"10.8.0.1", false},
		{"10.8.0", false},
		{"10.8.0.0/24", false},
		{"fd00::", false},
		{"", false},
	}
	for _, test := range tests {
		if err := ValidateSubnet(test.subnet); (err == nil) != test.valid {
			t.Errorf("ValidateSubnet(%q) = %v, want valid=%v", test.subnet, err, test.valid)
		}
	}
}

func TestValidateNames(t *testing.T) {
	for _, name := range []string{"vpn1", "VPN", "42"} {
		if err := ValidateServiceName(name); err != nil {
			t.Errorf("ValidateServiceName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "vpn-1", "vpn 1", "vpn/1", "vpñ"} {
		if err := ValidateServiceName(name); err == nil {
			t.Errorf("ValidateServiceName(%q) accepted", name)
		}
	}
	for _, name := range []string{"alice", "alice.laptop", "bob_2", "c-3"} {
		if err := ValidateClientName(name); err != nil {
			t.Errorf("ValidateClientName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", ".hidden", "-flag", "a/b", "a b"} {
		if err := ValidateClientName(name); err == nil {
			t.Errorf("ValidateClientName(%q) accepted", name)
		}
	}
}

func TestValidatePort(t *testing.T) {
	for port, valid := range map[int]bool{0: false, 1: true, 1194: true, 65535: true, 65536: false, -1: false} {
		if err := ValidatePort(port); (err == nil) != valid {
			t.Errorf("ValidatePort(%d) = %v, want valid=%v", port, err, valid)
		}
	}
}
