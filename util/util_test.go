package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"1MB", 1 << 20, false},
		{" 64kb ", 64 << 10, false},
		{"2 GiB", 2 << 30, false},
		{"1.5K", 1536, false},
		{"10B", 10, false},
		{"", 0, true},
		{"MB", 0, true},
		{"12TB", 0, true},
		{"-1MB", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSize(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("b1946ac9-token", 4); got != "b194***" {
		t.Errorf("unexpected mask %q", got)
	}
	if got := MaskSecret("abc", 4); got != "***" {
		t.Errorf("short values must be fully masked, got %q", got)
	}
	if got := MaskSecret("secret", 0); got != "***" {
		t.Errorf("zero visible must mask everything, got %q", got)
	}
}
