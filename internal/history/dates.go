package history

import (
	"strings"
	"time"
)

// rfc3339Milli is the canonical instant format: millisecond precision,
// "Z07:00" renders as "Z" once the instant is converted to UTC.
const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"

// NormalizeDate converts a user-supplied date into a canonical UTC boundary
// instant. Inputs that already carry a time component pass through
// unchanged. Bare calendar days are anchored to local midnight (or
// 23:59:59.999 when endOfDay) in the given IANA zone, then converted to UTC.
// The zone offset is recomputed for the specific date, so boundaries stay
// correct across daylight-saving transitions.
//
// Any failure (unknown zone, unparsable day) falls back to attaching the
// UTC boundary time directly — date filtering degrades to best effort,
// it never blocks a query.
func NormalizeDate(input string, endOfDay bool, tz string) string {
	if input == "" {
		return input
	}
	if strings.ContainsAny(input, "T ") {
		// Already a full timestamp; the caller supplied a precise instant.
		return input
	}

	suffix := "T00:00:00.000Z"
	if endOfDay {
		suffix = "T23:59:59.999Z"
	}

	loc := time.Local
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return input + suffix
		}
		loc = l
	}
	if loc == time.UTC {
		return input + suffix
	}

	day, err := time.ParseInLocation("2006-01-02", input, loc)
	if err != nil {
		return input + suffix
	}

	y, m, d := day.Date()
	var t time.Time
	if endOfDay {
		t = time.Date(y, m, d, 23, 59, 59, 999_000_000, loc)
	} else {
		t = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return t.UTC().Format(rfc3339Milli)
}

// ParseTimestamp parses an RFC 3339 timestamp, tolerating missing fractional
// seconds. Returns the zero time when the input is empty or unparsable.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(rfc3339Milli, s); err == nil {
		return t
	}
	return time.Time{}
}

// ParseBounds normalizes a start/end day pair into UTC boundary instants.
// Unset or unparsable ends come back nil.
func ParseBounds(startDate, endDate, tz string) (start, end *time.Time) {
	if startDate != "" {
		if t := ParseTimestamp(NormalizeDate(startDate, false, tz)); !t.IsZero() {
			start = &t
		}
	}
	if endDate != "" {
		if t := ParseTimestamp(NormalizeDate(endDate, true, tz)); !t.IsZero() {
			end = &t
		}
	}
	return start, end
}

// InBounds reports whether t falls inside the [start, end] range. Nil bounds
// are open ends.
func InBounds(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}

// SpanIntersects reports whether the span [min, max] overlaps [start, end].
func SpanIntersects(min, max time.Time, start, end *time.Time) bool {
	if start != nil && max.Before(*start) {
		return false
	}
	if end != nil && min.After(*end) {
		return false
	}
	return true
}
