package util

import "testing"

func TestSanitizeFactName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Web Server 1", "web_server_1"},
		{"networkobject_ANY-IPv4", "networkobject_any_ipv4"},
		{"already_clean", "already_clean"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFactName(tt.in); got != tt.want {
			t.Errorf("SanitizeFactName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
