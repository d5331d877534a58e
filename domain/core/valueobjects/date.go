package valueobjects

import (
	"time"
)

// DateLayout is the calendar-day format used by vote records.
const DateLayout = "2006-01-02"

// Calendar is the zone vote dates, day windows and time slots are computed
// in, whatever the host's local zone.
var Calendar = time.UTC

// Today returns the Calendar day key of t.
func Today(t time.Time) string {
	return DateKey(t.In(Calendar))
}

// DateKey formats t as a YYYY-MM-DD day key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD key in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, value, loc)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LastNDays returns the day keys [today-days+1, today], oldest first.
func LastNDays(today time.Time, days int) []string {
	if days < 1 {
		days = 1
	}
	start := StartOfDay(today).AddDate(0, 0, -(days - 1))
	keys := make([]string, 0, days)
	for i := 0; i < days; i++ {
		keys = append(keys, DateKey(start.AddDate(0, 0, i)))
	}
	return keys
}

// DaysBetween returns every day key from start to end inclusive.
func DaysBetween(start, end time.Time) []string {
	from := StartOfDay(start)
	to := StartOfDay(end)
	keys := make([]string, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		keys = append(keys, DateKey(d))
	}
	return keys
}

// WeekStart returns the Monday of the ISO week containing t, at midnight.
func WeekStart(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
