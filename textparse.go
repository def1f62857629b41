package mysql

import (
	"fmt"
	"strconv"
	"time"
)

func parseFloatValue(s string) Value {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return stringValue(s)
	}
	return float64Value(f)
}

// parseDate parses the text-protocol representation of DATE: "YYYY-MM-DD".
func parseDate(s string) (time.Time, error) {
	if s == "0000-00-00" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// parseDateTime parses DATETIME/TIMESTAMP, with or without a fractional
// seconds suffix.
func parseDateTime(s string) (time.Time, error) {
	if len(s) >= 10 && s[:10] == "0000-00-00" {
		return time.Time{}, nil
	}
	if len(s) > 19 {
		return time.Parse("2006-01-02 15:04:05.999999", s)
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

// parseDuration parses TIME, which MySQL allows to range far beyond one
// day and to be negative, e.g. "-838:59:59" or "102:00:00.5".
func parseDuration(s string) (time.Duration, error) {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg, s = true, s[1:]
	}
	var hour, min int
	var sec float64
	n, err := fmt.Sscanf(s, "%d:%d:%f", &hour, &min, &sec)
	if err != nil || n != 3 {
		return 0, fmt.Errorf("mysql: invalid TIME literal %q", s)
	}
	d := time.Duration(hour)*time.Hour +
		time.Duration(min)*time.Minute +
		time.Duration(sec*float64(time.Second))
	if neg {
		d = -d
	}
	return d, nil
}
