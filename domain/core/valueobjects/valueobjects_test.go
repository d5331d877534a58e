package valueobjects

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastNDays(t *testing.T) {
	today := time.Date(2024, 3, 2, 15, 4, 0, 0, time.UTC)

	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}, LastNDays(today, 4))
	assert.Equal(t, []string{"2024-03-02"}, LastNDays(today, 0))
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2024, 1, 30, 23, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"2024-01-30", "2024-01-31", "2024-02-01"}, DaysBetween(start, end))
	assert.Empty(t, DaysBetween(end, start))
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		expected time.Time
	}{
		{"monday", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"wednesday", time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2024, 1, 7, 23, 59, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WeekStart(tt.in))
		})
	}
}

func TestParseRangeName(t *testing.T) {
	name, err := ParseRangeName(" Week ")
	require.NoError(t, err)
	assert.Equal(t, RangeWeek, name)

	name, err = ParseRangeName("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRange, name)

	_, err = ParseRangeName("decade")
	assert.Error(t, err)
}

func TestResolveTimeRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("symbolic ranges", func(t *testing.T) {
		assert.Equal(t, now.AddDate(0, 0, -7), ResolveTimeRange(RangeWeek, nil, nil, now).Start)
		assert.Equal(t, now.AddDate(0, -1, 0), ResolveTimeRange(RangeMonth, nil, nil, now).Start)
		assert.Equal(t, now.AddDate(0, -3, 0), ResolveTimeRange(RangeQuarter, nil, nil, now).Start)
		assert.Equal(t, now.AddDate(-1, 0, 0), ResolveTimeRange(RangeYear, nil, nil, now).Start)
		assert.Equal(t, now, ResolveTimeRange(RangeYear, nil, nil, now).End)
	})

	t.Run("explicit range overrides symbolic", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

		r := ResolveTimeRange(RangeWeek, &start, &end, now)

		assert.Equal(t, start, r.Start)
		assert.Equal(t, end, r.End)
		assert.True(t, r.Contains(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
		assert.False(t, r.Contains(now))
	})

	t.Run("explicit start alone ends now", func(t *testing.T) {
		start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

		r := ResolveTimeRange(RangeYear, &start, nil, now)

		assert.Equal(t, start, r.Start)
		assert.Equal(t, now, r.End)
	})
}
