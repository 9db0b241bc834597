package sequencer

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts a "m:ss" (or "h:mm:ss") duration string to seconds.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q: expected m:ss", value)
	}

	total := 0
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q: %q is not a valid component", value, part)
		}
		if i > 0 && n > 59 {
			return 0, fmt.Errorf("invalid duration %q: component %q out of range", value, part)
		}
		total = total*60 + n
	}

	return total, nil
}

// FormatClock renders seconds as "m:ss", rolling over to "h:mm:ss" past an hour.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
