package service

import "time"

// dayStart truncates a timestamp to midnight UTC. All period arithmetic in the
// engine is day-granular.
func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nextDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1)
}

// billableDays counts the days in [from, to] that count toward pay.
// Sundays are skipped unless the tenant includes them.
func billableDays(from, to time.Time, includeSundays bool) int {
	from, to = dayStart(from), dayStart(to)
	count := 0
	for day := from; !day.After(to); day = nextDay(day) {
		if !includeSundays && day.Weekday() == time.Sunday {
			continue
		}
		count++
	}
	return count
}

// billableDaysInMonth counts billable days of the full calendar month
// containing day.
func billableDaysInMonth(day time.Time, includeSundays bool) int {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return billableDays(first, last, includeSundays)
}

// monthEnd returns the last day of the month containing day.
func monthEnd(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
}

func minDay(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
