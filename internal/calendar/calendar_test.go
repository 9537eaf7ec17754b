package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/models"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2024-01-15", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-15"), got)

	got, err = ParseDay("2024-01-15T22:30:00Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-15"), got)

	_, err = ParseDay("next tuesday", time.UTC)
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	today := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		due  string
		want int
	}{
		{"2024-01-10", 0},
		{"2024-01-15", 5},
		{"2024-01-16", 6},
		{"2024-01-09", -1},
		{"2024-03-01", 51},
	}
	for _, tt := range tests {
		t.Run(tt.due, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(today, day(tt.due)))
		})
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	assert.True(t, IsOverdue(now.Add(-time.Minute), now))
	assert.False(t, IsOverdue(now.Add(time.Hour), now))
	assert.InDelta(t, 24.0, HoursUntil(now.Add(24*time.Hour), now), 0.001)
}

func TestShift(t *testing.T) {
	assert.Equal(t, day("2024-02-29"), Shift(ViewMonth, day("2024-01-31"), 1))
	assert.Equal(t, day("2023-12-31"), Shift(ViewMonth, day("2024-01-31"), -1))
	assert.Equal(t, day("2024-01-17"), Shift(ViewWeek, day("2024-01-10"), 1))
	assert.Equal(t, day("2024-01-09"), Shift(ViewDay, day("2024-01-10"), -1))
}

func TestMonthGrid(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, DueDate: "2024-01-15"},
		{ID: 2, DueDate: "2024-01-15"},
		{ID: 3, DueDate: "2023-12-31"},
		{ID: 4, DueDate: "garbage"},
	}
	grid := MonthGrid(day("2024-01-10"), tasks)

	require.Len(t, grid, 6)
	// January 2024 starts on a Monday, so the grid opens on Sunday Dec 31.
	assert.Equal(t, day("2023-12-31"), grid[0][0].Date)
	assert.False(t, grid[0][0].InMonth)
	assert.Len(t, grid[0][0].Tasks, 1)
	assert.True(t, grid[0][1].InMonth)

	// Jan 15 is week 2, Monday
	cell := grid[2][1]
	assert.Equal(t, day("2024-01-15"), cell.Date)
	assert.Len(t, cell.Tasks, 2)
}

func TestWeekGridAndDayTasks(t *testing.T) {
	tasks := []models.Task{{ID: 1, DueDate: "2024-01-10"}, {ID: 2, DueDate: "2024-01-13"}, {ID: 3, DueDate: "2024-01-14"}}

	week := WeekGrid(day("2024-01-10"), tasks)
	require.Len(t, week, 7)
	assert.Equal(t, day("2024-01-07"), week[0].Date)
	assert.Equal(t, day("2024-01-13"), week[6].Date)
	assert.Len(t, week[3].Tasks, 1)
	assert.Len(t, week[6].Tasks, 1)

	got := DayTasks(day("2024-01-14"), tasks)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Empty(t, DayTasks(day("2024-01-11"), tasks))
}
