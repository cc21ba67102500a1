package ccs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Wire layout for absolute timestamps: yyyy-MM-dd'T'HH:mm:ss.SSS with a
// Z or +HH:MM zone suffix.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t as a CCS TIME string.
func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// ParseTime accepts both the wire layout and plain RFC 3339, which is what
// contest packages usually carry.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// FormatRelTime renders d as a CCS RELTIME string (H:MM:SS.mmm, hours not
// zero padded).
func FormatRelTime(d time.Duration) string {
	millis := d.Milliseconds()
	neg := ""
	if millis < 0 {
		neg = "-"
		millis = -millis
	}

	secs := millis / 1000
	return fmt.Sprintf("%s%d:%02d:%02d.%03d", neg, secs/3600, (secs%3600)/60, secs%60, millis%1000)
}

// ParseDuration parses contest package durations. Accepts H:MM:SS, M:SS or a
// bare number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")

	total := time.Duration(0)
	for _, part := range parts {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", s, err)
		}
		total = total*60 + time.Duration(n*float64(time.Second))
	}

	return total, nil
}
