// Package views derives read-only projections from a task list: the calendar
// month grid, relative date labels, search filtering, and status partitions.
// Everything here is pure; nothing is persisted.
package views

import (
	"strings"
	"time"

	"taskline/internal/domain"
)

// DateLayout is the calendar-date encoding used on task records.
const DateLayout = "2006-01-02"

// MonthGrid returns the cells of a month view: one zero-valued placeholder
// per weekday before the 1st (Sunday=0), then the day numbers 1..N. There is
// no trailing padding.
func MonthGrid(year int, month time.Month) []int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	cells := make([]int, 0, int(first.Weekday())+daysInMonth)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, 0)
	}
	for day := 1; day <= daysInMonth; day++ {
		cells = append(cells, day)
	}
	return cells
}

// AddMonths navigates delta months from year/month. The result is always the
// target month itself (day-1 semantics), so navigating from Jan 31 can never
// overflow into March.
func AddMonths(year int, month time.Month, delta int) (int, time.Month) {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	return d.Year(), d.Month()
}

// TasksOnDate returns the tasks due on the given calendar date. Dates are
// compared as strings, not instants; there is no timezone normalization.
func TasksOnDate(list []domain.Task, date string) []domain.Task {
	var out []domain.Task
	for _, t := range list {
		if t.DueDate == date {
			out = append(out, t)
		}
	}
	return out
}

// CountOnDates returns per-date task counts for every due date present in
// the list.
func CountOnDates(list []domain.Task) map[string]int {
	counts := map[string]int{}
	for _, t := range list {
		if t.DueDate != "" {
			counts[t.DueDate]++
		}
	}
	return counts
}

// RelativeDateLabel renders a calendar date relative to today: "Today",
// "Tomorrow", or a long-form date such as "Saturday, June 1, 2024".
// Comparison is by calendar day, not time of day. An unparseable date is
// returned as-is.
func RelativeDateLabel(date string, today time.Time) string {
	d, err := time.ParseInLocation(DateLayout, date, today.Location())
	if err != nil {
		return date
	}
	ty, tm, td := today.Date()
	base := time.Date(ty, tm, td, 0, 0, 0, 0, today.Location())
	switch {
	case d.Equal(base):
		return "Today"
	case d.Equal(base.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return d.Format("Monday, January 2, 2006")
	}
}

// FilterBySearch returns the tasks whose title contains query, case
// insensitively. An empty query returns the full list in order.
func FilterBySearch(list []domain.Task, query string) []domain.Task {
	if query == "" {
		out := make([]domain.Task, len(list))
		copy(out, list)
		return out
	}
	q := strings.ToLower(query)
	var out []domain.Task
	for _, t := range list {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out
}

// PartitionByStatus splits the list into open and complete tasks, preserving
// the original relative order within each.
func PartitionByStatus(list []domain.Task) (open, complete []domain.Task) {
	for _, t := range list {
		if t.Status == domain.StatusComplete {
			complete = append(complete, t)
		} else {
			open = append(open, t)
		}
	}
	return open, complete
}

// CountByStatus returns how many tasks are open and complete.
func CountByStatus(list []domain.Task) (open, complete int) {
	for _, t := range list {
		if t.Status == domain.StatusComplete {
			complete++
		} else {
			open++
		}
	}
	return open, complete
}
