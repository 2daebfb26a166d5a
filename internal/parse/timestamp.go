package parse

import (
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// ErrEmptyTimestamp is returned for blank timestamp input.
var ErrEmptyTimestamp = errors.New("empty timestamp")

// exportLayouts are the formats written by the meter software, day first.
var exportLayouts = []string{
	"02-01-2006 15:04",
	"02-01-2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// isoLayouts are the ISO-8601 forms accepted from API callers. Layouts without
// an offset are read as UTC.
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp parses an export timestamp cell. Values are timezone-naive and
// returned as UTC wall-clock times; values that carry an offset are converted
// to UTC.
func Timestamp(s string) (time.Time, error) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, ErrEmptyTimestamp
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range exportLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	t, err := parseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// parseAny falls back to dateparse, which can panic on some malformed input.
func parseAny(s string) (t time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dateparse: %v", r)
		}
	}()
	return dateparse.ParseIn(s, time.UTC)
}

// ISOTimestamp parses an ISO-8601 timestamp as sent in query parameters.
func ISOTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrEmptyTimestamp
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q is not ISO-8601", s)
}
