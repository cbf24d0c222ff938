package membership

import "time"

// civilDate builds a UTC midnight date, clamping day into the month
func civilDate(year int, month time.Month, day int) time.Time {
	if day < 1 {
		day = 1
	}
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOf drops the clock part of t, keeping the calendar date as seen in t's location
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months, clamping the day to the target month.
// 2024-01-31 plus one month is 2024-02-29, not 2024-03-02.
func AddMonths(t time.Time, n int) time.Time {
	d := DateOf(t)
	y, m := d.Year(), int(d.Month())-1+n
	y += m / 12
	m %= 12
	if m < 0 {
		m += 12
		y--
	}
	return civilDate(y, time.Month(m+1), d.Day())
}

// DaysBetween counts whole calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
