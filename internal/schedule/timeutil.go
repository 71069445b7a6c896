package schedule

import (
	"fmt"
	"regexp"
	"time"

	"github.com/medtrack/medtrack-api/internal/models"
)

var timeRegexp = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

const dateLayout = "2006-01-02"

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last instant of t's calendar day in loc. Timeless
// occurrences sort here so they trail clocked ones on the same day.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StepFromAnchor returns the k-th period boundary for the given frequency,
// measured from the anchor day. Month stepping keeps the anchor's day of
// month, clamped to the last valid day when the target month is shorter;
// stepping is always computed from the anchor, not the previous boundary, so
// a Jan 31 anchor yields Feb 28 then Mar 31.
func StepFromAnchor(anchor time.Time, k int, freq models.Frequency) time.Time {
	steps := k * freq.N
	switch freq.Unit {
	case models.FrequencyDay:
		return anchor.AddDate(0, 0, steps)
	case models.FrequencyWeek:
		return anchor.AddDate(0, 0, 7*steps)
	case models.FrequencyMonth:
		return addMonthsClamped(anchor, steps)
	default:
		return anchor.AddDate(0, 0, steps)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)
	if max := daysIn(target.Year(), target.Month()); day > max {
		day = max
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CombineDayTime places an HH:MM clock value on day's calendar date in loc.
func CombineDayTime(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	match := timeRegexp.FindStringSubmatch(clock)
	if match == nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q", clock)
	}
	var hours, minutes int
	fmt.Sscanf(match[1], "%d", &hours)   //nolint:errcheck
	fmt.Sscanf(match[2], "%d", &minutes) //nolint:errcheck
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hours, minutes, 0, 0, loc), nil
}

// ParseLocalDate parses a YYYY-MM-DD string as midnight in loc.
func ParseLocalDate(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}

// ValidClock reports whether the string is an HH:MM time of day.
func ValidClock(clock string) bool {
	return timeRegexp.MatchString(clock)
}

// ValidDate reports whether the string is a YYYY-MM-DD calendar date.
func ValidDate(raw string) bool {
	_, err := time.Parse(dateLayout, raw)
	return err == nil
}
