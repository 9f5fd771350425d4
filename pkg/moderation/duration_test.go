package moderation

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Duration
		wantOK bool
	}{
		{"1h", time.Hour, true},
		{"30m", 30 * time.Minute, true},
		{"45s", 45 * time.Second, true},
		{"7d", 7 * 24 * time.Hour, true},
		{"2H", 2 * time.Hour, true},
		{"10D", 10 * 24 * time.Hour, true},
		{"bogus", 0, false},
		{"", 0, false},
		{"1", 0, false},
		{"h", 0, false},
		{"1.5h", 0, false},
		{"-1h", 0, false},
		{"1h30m", 0, false},
		{" 1h", 0, false},
		{"1w", 0, false},
		{"99999999999999999999d", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDuration(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{90 * time.Second, "1m"},
		{time.Hour, "1h"},
		{36 * time.Hour, "1d"},
		{59 * time.Second, "59s"},
		{3 * 24 * time.Hour, "3d"},
		{0, "0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
