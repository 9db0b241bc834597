package sequencer

import (
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"0:15", 15},
		{"3:24", 204},
		{"6:14", 374},
		{"10:00", 600},
		{"0:00", 0},
		{"1:00:05", 3605},
		{"2:30:00", 9000},
		{" 4:30 ", 270},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.input)
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseClock(%q): expected %d, got %d", tt.input, tt.expected, got)
		}
	}
}

func TestParseClockInvalid(t *testing.T) {
	inputs := []string{"", "90", "1:60", "1:2:3:4", "1:-5", "abc", "1:ab", "0:61:00"}

	for _, input := range inputs {
		if _, err := ParseClock(input); err == nil {
			t.Errorf("ParseClock(%q): expected error, got nil", input)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "0:00"},
		{15, "0:15"},
		{204, "3:24"},
		{374, "6:14"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3661, "1:01:01"},
		{-5, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.expected {
			t.Errorf("FormatClock(%d): expected %q, got %q", tt.seconds, tt.expected, got)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, seconds := range []int{0, 59, 60, 374, 3600, 7325} {
		parsed, err := ParseClock(FormatClock(seconds))
		if err != nil {
			t.Fatalf("round trip of %d failed: %v", seconds, err)
		}
		if parsed != seconds {
			t.Errorf("Expected round trip of %d, got %d", seconds, parsed)
		}
	}
}
