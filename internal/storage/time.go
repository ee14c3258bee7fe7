package storage

import (
	"time"
)

// TimeLayout is the wall-clock layout of every persisted timestamp.
const TimeLayout = "2006-01-02T15:04:05"

// Time is a local wall-clock timestamp with second precision, e.g. "2024-05-01T21:03:09".
//
// It carries no zone: the date part is the writer's local date.
type Time string

// ToTime converts a time.Time to a storage.Time in its own location.
func ToTime(v time.Time) Time {
	return Time(v.Format(TimeLayout))
}

// AsTime parses the timestamp. RFC 3339 values are accepted as well.
func (t Time) AsTime() (time.Time, error) {
	if v, err := time.ParseInLocation(TimeLayout, string(t), time.Local); err == nil {
		return v, nil
	}
	return time.Parse(time.RFC3339, string(t))
}

// DayKey returns the "YYYY-MM-DD" date of the timestamp, or "" when none can be derived.
//
// The date is taken from the timestamp's own wall clock without zone conversion.
// Timestamps that do not parse fall back to their first 10 characters.
func (t Time) DayKey() string {
	if v, err := t.AsTime(); err == nil {
		return v.Format(time.DateOnly)
	}
	if len(t) >= 10 {
		return string(t[:10])
	}
	return ""
}

// FileSafe returns the timestamp with ':' replaced so it can be part of a file name.
func (t Time) FileSafe() string {
	b := []byte(t)
	for i, c := range b {
		if c == ':' {
			b[i] = '-'
		}
	}
	return string(b)
}

// Clock returns the current time. Stores take one so tests can control time.
type Clock func() time.Time

// Now returns c(), or time.Now() when c is nil.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
