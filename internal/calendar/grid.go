package calendar

import (
	"time"

	"github.com/tgienger/deck/internal/models"
)

// Day is one calendar cell with the tasks due on it
type Day struct {
	Date    time.Time
	InMonth bool
	Tasks   []models.Task
}

// MonthGrid returns 6 weeks of 7 days (Sunday first) covering the cursor's month
func MonthGrid(cursor time.Time, tasks []models.Task) [][]Day {
	loc := cursor.Location()
	first := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	byDay := indexByDay(tasks, loc)

	weeks := make([][]Day, 6)
	for w := range weeks {
		week := make([]Day, 7)
		for d := range week {
			date := start.AddDate(0, 0, w*7+d)
			week[d] = Day{
				Date:    date,
				InMonth: date.Month() == cursor.Month(),
				Tasks:   byDay[FormatDay(date)],
			}
		}
		weeks[w] = week
	}
	return weeks
}

// WeekGrid returns the seven days (Sunday first) of the cursor's week
func WeekGrid(cursor time.Time, tasks []models.Task) []Day {
	loc := cursor.Location()
	start := StartOfDay(cursor).AddDate(0, 0, -int(cursor.Weekday()))
	byDay := indexByDay(tasks, loc)

	days := make([]Day, 7)
	for i := range days {
		date := start.AddDate(0, 0, i)
		days[i] = Day{Date: date, InMonth: date.Month() == cursor.Month(), Tasks: byDay[FormatDay(date)]}
	}
	return days
}

// DayTasks returns the tasks due on the cursor's day, in list order
func DayTasks(cursor time.Time, tasks []models.Task) []models.Task {
	return indexByDay(tasks, cursor.Location())[FormatDay(cursor)]
}

// indexByDay groups tasks by due day. Tasks with unparseable dates are left out.
func indexByDay(tasks []models.Task, loc *time.Location) map[string][]models.Task {
	out := make(map[string][]models.Task)
	for _, t := range tasks {
		due, err := ParseDay(t.DueDate, loc)
		if err != nil {
			continue
		}
		key := FormatDay(due)
		out[key] = append(out[key], t)
	}
	return out
}
