// Package units converts the suffixed numeric literals found in tc output
// and download logs to canonical scales: nanoseconds for time, bytes for
// storage sizes.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeToNanos converts a tc-style time literal to nanoseconds.
// "500us" -> 500000, "20ms" -> 20000000. A bare number is taken to already
// be nanoseconds and passes through as a float.
func TimeToNanos(s string) (float64, error) {
	s = strings.TrimSpace(s)
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "us"):
		mult = 1e3
		s = strings.TrimSuffix(s, "us")
	case strings.HasSuffix(s, "ms"):
		mult = 1e6
		s = strings.TrimSuffix(s, "ms")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time literal %q: %w", s, err)
	}
	return v * mult, nil
}

// SizeToBytes converts an IEC-suffixed size literal ("64K", "1MiB", "12.5M")
// to bytes. Only the first letter of the suffix is significant, so the long
// "KiB" forms parse the same as bare "K". An unrecognized suffix leaves the
// value unscaled.
func SizeToBytes(s string) (float64, error) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size literal %q: %w", s, err)
	}
	suffix := strings.TrimSpace(s[i:])
	mult := 1.0
	if suffix != "" {
		switch suffix[0] | 0x20 { // ASCII lowercase
		case 'k':
			mult = 1 << 10
		case 'm':
			mult = 1 << 20
		case 'g':
			mult = 1 << 30
		case 't':
			mult = 1 << 40
		}
	}
	return v * mult, nil
}
