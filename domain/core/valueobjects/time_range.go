package valueobjects

import (
	"fmt"
	"strings"
	"time"
)

// RangeName is a symbolic reporting window.
type RangeName string

const (
	RangeWeek    RangeName = "week"
	RangeMonth   RangeName = "month"
	RangeQuarter RangeName = "quarter"
	RangeYear    RangeName = "year"
)

// DefaultRange is used when no (or an unknown) range is requested.
const DefaultRange = RangeMonth

// ParseRangeName normalizes a user supplied range name.
func ParseRangeName(value string) (RangeName, error) {
	switch RangeName(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return DefaultRange, nil
	case RangeWeek:
		return RangeWeek, nil
	case RangeMonth:
		return RangeMonth, nil
	case RangeQuarter:
		return RangeQuarter, nil
	case RangeYear:
		return RangeYear, nil
	default:
		return "", fmt.Errorf("unknown range %q", value)
	}
}

// TimeRange is a concrete, inclusive reporting window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ResolveTimeRange turns a symbolic range or explicit bounds into a TimeRange.
// An explicit start always wins over the symbolic name; a missing explicit end
// means now.
func ResolveTimeRange(name RangeName, start, end *time.Time, now time.Time) TimeRange {
	if start != nil {
		to := now
		if end != nil {
			to = *end
		}
		if to.Before(*start) {
			return TimeRange{Start: to, End: *start}
		}
		return TimeRange{Start: *start, End: to}
	}

	var from time.Time
	switch name {
	case RangeWeek:
		from = now.AddDate(0, 0, -7)
	case RangeQuarter:
		from = now.AddDate(0, -3, 0)
	case RangeYear:
		from = now.AddDate(-1, 0, 0)
	default:
		from = now.AddDate(0, -1, 0)
	}
	return TimeRange{Start: from, End: now}
}
