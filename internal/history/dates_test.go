package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDateUTCBoundaries(t *testing.T) {
	assert.Equal(t, "2025-06-30T00:00:00.000Z", NormalizeDate("2025-06-30", false, "UTC"))
	assert.Equal(t, "2025-06-30T23:59:59.999Z", NormalizeDate("2025-06-30", true, "UTC"))
}

func TestNormalizeDatePassesThroughFullTimestamps(t *testing.T) {
	in := "2025-06-30T10:15:00Z"
	assert.Equal(t, in, NormalizeDate(in, false, "UTC"))
	assert.Equal(t, in, NormalizeDate(in, true, "America/New_York"))
}

func TestNormalizeDateZoneOffset(t *testing.T) {
	// New York is UTC-5 in January, UTC-4 in July: the offset must be
	// recomputed per date, not fixed.
	assert.Equal(t, "2025-01-15T05:00:00.000Z", NormalizeDate("2025-01-15", false, "America/New_York"))
	assert.Equal(t, "2025-07-15T04:00:00.000Z", NormalizeDate("2025-07-15", false, "America/New_York"))
	assert.Equal(t, "2025-07-16T03:59:59.999Z", NormalizeDate("2025-07-15", true, "America/New_York"))
}

func TestNormalizeDateStartNotAfterEnd(t *testing.T) {
	zones := []string{"UTC", "America/New_York", "Asia/Tokyo", "Australia/Sydney", "Europe/London"}
	days := []string{"2025-03-09", "2025-06-30", "2025-11-02", "2024-02-29"}
	for _, tz := range zones {
		for _, day := range days {
			start := ParseTimestamp(NormalizeDate(day, false, tz))
			end := ParseTimestamp(NormalizeDate(day, true, tz))
			require.False(t, start.IsZero(), "start for %s in %s", day, tz)
			require.False(t, end.IsZero(), "end for %s in %s", day, tz)
			assert.True(t, !start.After(end), "start %v after end %v for %s in %s", start, end, day, tz)
		}
	}
}

func TestNormalizeDateFallsBackToUTCOnBadZone(t *testing.T) {
	assert.Equal(t, "2025-06-30T00:00:00.000Z", NormalizeDate("2025-06-30", false, "Not/AZone"))
	assert.Equal(t, "2025-06-30T23:59:59.999Z", NormalizeDate("2025-06-30", true, "Not/AZone"))
}

func TestParseBounds(t *testing.T) {
	start, end := ParseBounds("2025-06-29", "2025-06-29", "UTC")
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2025, 6, 29, 0, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, time.Date(2025, 6, 29, 23, 59, 59, 999_000_000, time.UTC), end.UTC())

	start, end = ParseBounds("", "", "UTC")
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestInBoundsAndSpanIntersects(t *testing.T) {
	start, end := ParseBounds("2025-06-30", "", "UTC")
	inRange := time.Date(2025, 6, 30, 10, 0, 0, 0, time.UTC)
	outOfRange := time.Date(2025, 6, 29, 15, 0, 0, 0, time.UTC)

	assert.True(t, InBounds(inRange, start, end))
	assert.False(t, InBounds(outOfRange, start, end))

	assert.True(t, SpanIntersects(outOfRange, inRange, start, end))
	assert.False(t, SpanIntersects(outOfRange, outOfRange, start, end))
}
