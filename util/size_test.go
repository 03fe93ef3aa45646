package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 7},
		{"2048", 2048},
		{"10MB", 10 << 20},
		{"512kb", 512 << 10},
		{" 2 GB ", 2 << 30},
		{"100B", 100},
		{"lots", 7},
		{"-1MB", 7},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseSize(tt.in, 7); got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
