package main

import "testing"

func TestAllowedFor(t *testing.T) {
	cases := []struct {
		name      string
		username  string
		operators []string
		want      bool
	}{
		{"empty list allows everyone", "alice", nil, true},
		{"listed operator allowed", "alice", []string{"alice", "bob"}, true},
		{"unlisted operator denied", "mallory", []string{"alice", "bob"}, false},
		{"exact match only", "alice2", []string{"alice"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := allowedFor(tc.username, tc.operators); got != tc.want {
				t.Fatalf("allowedFor(%q, %v) = %v, want %v", tc.username, tc.operators, got, tc.want)
			}
		})
	}
}
