package services

import (
	"strconv"
	"strings"
	"time"
)

// leadingInt reads an optionally signed run of digits from the start of raw,
// ignoring whatever follows ("30min" is 30, "45.5" is 45).
func leadingInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseDuration(raw string, strict bool) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid("Duration is required")
	}

	var (
		n  int
		ok bool
	)
	if strict {
		parsed, err := strconv.Atoi(raw)
		n, ok = parsed, err == nil
	} else {
		n, ok = leadingInt(raw)
	}
	if !ok {
		return 0, invalid("Duration must be a number")
	}
	if n <= 0 {
		return 0, invalid("Duration must be a positive number of minutes")
	}
	return n, nil
}

// resolveDate falls back to today for a missing date, and for an unparseable
// one unless strict.
func resolveDate(raw string, strict bool, now time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return CalendarDate(now.UTC()), nil
	}
	if t, ok := ParseDate(raw); ok {
		return t, nil
	}
	if strict {
		return time.Time{}, invalid("Invalid date %q", raw)
	}
	return CalendarDate(now.UTC()), nil
}

// parseBound returns nil for an absent bound, and for an unparseable one
// unless strict.
func parseBound(name, raw string, strict bool) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	if t, ok := ParseDate(raw); ok {
		return &t, nil
	}
	if strict {
		return nil, invalid("Invalid %s date %q", name, raw)
	}
	return nil, nil
}

// parseLimit returns nil when no usable limit was given. Strict mode rejects
// anything but a non-negative integer.
func parseLimit(raw string, strict bool) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if strict {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, invalid("Limit must be a non-negative integer")
		}
		return &n, nil
	}

	n, ok := leadingInt(raw)
	if !ok || n < 0 {
		return nil, nil
	}
	return &n, nil
}
