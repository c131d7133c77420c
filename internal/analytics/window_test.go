package analytics

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jizhang/internal/errors"
)

var (
	shanghai = time.FixedZone("CST", 8*3600)
	// Friday 2024-03-15, 18:00 in Shanghai.
	refNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
)

func assertEndOfDay(t *testing.T, tm time.Time) {
	t.Helper()
	assert.Equal(t, 23, tm.Hour())
	assert.Equal(t, 59, tm.Minute())
	assert.Equal(t, 59, tm.Second())
	assert.Equal(t, int(999*time.Millisecond), tm.Nanosecond())
}

func assertInvalidParameter(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)
}

func TestMonthWindow(t *testing.T) {
	t.Run("leap february", func(t *testing.T) {
		w, err := MonthWindow(2, 2024, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), w.Start)
		assert.Equal(t, 29, w.End.Day())
		assert.Equal(t, time.February, w.End.Month())
		assertEndOfDay(t, w.End)
	})

	t.Run("common february", func(t *testing.T) {
		w, err := MonthWindow(2, 2023, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, 28, w.End.Day())
	})

	t.Run("december", func(t *testing.T) {
		w, err := MonthWindow(12, 2024, shanghai)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 59, int(999*time.Millisecond), shanghai), w.End)
		assert.Equal(t, ViewModeMonth, w.ViewMode)
	})

	t.Run("out of range", func(t *testing.T) {
		for _, c := range []struct{ month, year int }{{0, 2024}, {13, 2024}, {1, 1899}, {1, 10000}} {
			_, err := MonthWindow(c.month, c.year, time.UTC)
			assertInvalidParameter(t, err)
		}
	})
}

func TestResolveWindow(t *testing.T) {
	t.Run("day defaults to today", func(t *testing.T) {
		w, err := ResolveWindow(Query{ViewMode: ViewModeDay}, refNow, shanghai)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, shanghai), w.Start)
		assert.Equal(t, 15, w.End.Day())
		assertEndOfDay(t, w.End)
	})

	t.Run("day uses the local calendar", func(t *testing.T) {
		// 20:00 UTC is already the next day in Shanghai.
		late := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)
		w, err := ResolveWindow(Query{ViewMode: ViewModeDay}, late, shanghai)
		require.NoError(t, err)
		assert.Equal(t, 16, w.Start.Day())
	})

	t.Run("explicit day", func(t *testing.T) {
		w, err := ResolveWindow(Query{ViewMode: ViewModeDay, Date: "2024-02-29"}, refNow, shanghai)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, shanghai), w.Start)
	})

	t.Run("week runs sunday to saturday", func(t *testing.T) {
		w, err := ResolveWindow(Query{ViewMode: ViewModeWeek}, refNow, shanghai)
		require.NoError(t, err)
		assert.Equal(t, time.Sunday, w.Start.Weekday())
		assert.Equal(t, 10, w.Start.Day())
		assert.Equal(t, time.Saturday, w.End.Weekday())
		assert.Equal(t, 16, w.End.Day())
	})

	t.Run("week anchored on start_date", func(t *testing.T) {
		w, err := ResolveWindow(Query{ViewMode: ViewModeWeek, StartDate: "2024-03-01"}, refNow, shanghai)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 25, 0, 0, 0, 0, shanghai), w.Start)
	})

	t.Run("month is the default mode", func(t *testing.T) {
		w, err := ResolveWindow(Query{Month: 2, Year: 2024}, refNow, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, ViewModeMonth, w.ViewMode)
		assert.Equal(t, 29, w.End.Day())
	})

	t.Run("month requires month and year", func(t *testing.T) {
		_, err := ResolveWindow(Query{ViewMode: ViewModeMonth}, refNow, time.UTC)
		assertInvalidParameter(t, err)
	})

	t.Run("custom covers whole days", func(t *testing.T) {
		w, err := ResolveWindow(Query{ViewMode: ViewModeCustom, StartDate: "2024-03-01", EndDate: "2024-03-03"}, refNow, shanghai)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, shanghai), w.Start)
		assert.Equal(t, 3, w.End.Day())
		assertEndOfDay(t, w.End)
	})

	t.Run("custom accepts timestamps", func(t *testing.T) {
		w, err := ResolveWindow(Query{ViewMode: ViewModeCustom, StartDate: "2024-02-29T20:00:00Z", EndDate: "2024-03-01"}, refNow, shanghai)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, shanghai), w.Start)
	})

	t.Run("custom errors", func(t *testing.T) {
		for _, q := range []Query{
			{ViewMode: ViewModeCustom},
			{ViewMode: ViewModeCustom, StartDate: "2024-03-01"},
			{ViewMode: ViewModeCustom, StartDate: "2024-03-05", EndDate: "2024-03-01"},
			{ViewMode: ViewModeCustom, StartDate: "yesterday", EndDate: "2024-03-01"},
		} {
			_, err := ResolveWindow(q, refNow, shanghai)
			assertInvalidParameter(t, err)
		}
	})

	t.Run("unknown view mode", func(t *testing.T) {
		_, err := ResolveWindow(Query{ViewMode: "quarter"}, refNow, shanghai)
		assertInvalidParameter(t, err)
	})
}

func TestParseDate_YearRange(t *testing.T) {
	for _, s := range []string{"1900-01-01", "9999-12-31", "2024-03-15T10:00:00Z"} {
		_, err := ParseDate(s, shanghai)
		assert.NoError(t, err, s)
	}
	// The last one lands in year 10000 once moved to Shanghai.
	for _, s := range []string{"0001-01-01", "1899-12-31", "9999-12-31T20:00:00Z"} {
		_, err := ParseDate(s, shanghai)
		assertInvalidParameter(t, err)
	}
}

func TestResolveWindow_UnboundedCustomRange(t *testing.T) {
	q := Query{ViewMode: ViewModeCustom, StartDate: "0001-01-01", EndDate: "9999-12-31"}

	_, err := ResolveWindow(q, refNow, shanghai)
	assertInvalidParameter(t, err)

	buckets, err := Partition(q, refNow, shanghai)
	assertInvalidParameter(t, err)
	assert.Empty(t, buckets)
}

func TestWindowContains(t *testing.T) {
	w, err := MonthWindow(3, 2024, time.UTC)
	require.NoError(t, err)

	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
}

func TestEndOfDay_DST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Clocks spring forward on 2024-03-10.
	end := endOfDay(time.Date(2024, 3, 10, 0, 0, 0, 0, ny))
	assert.Equal(t, 10, end.Day())
	assertEndOfDay(t, end)
}
