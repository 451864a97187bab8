package version

import "testing"

func TestStringReflectsBuildVersion(t *testing.T) {
	cleanup := ForTesting("1.2.3-test")
	t.Cleanup(cleanup)

	if got := String(); got != "1.2.3-test" {
		t.Fatalf("expected version 1.2.3-test, got %s", got)
	}
}

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.3.0", "v0.3.0"},
		{"v0.3.0", "v0.3.0"},
		{"dev", "dev"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FormatVersion(tt.in); got != tt.want {
			t.Fatalf("FormatVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
