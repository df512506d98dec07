package billing

import "time"

const monthKeyLayout = "2006-01"

// monthStart normalizes a time to the first day of its month.
func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// MonthKey renders a billing period as "YYYY-MM".
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

// MonthsThrough lists every month start from `from` through `to`, inclusive.
// Empty when `from` is after `to`.
func MonthsThrough(from, to time.Time) []time.Time {
	start, end := monthStart(from), monthStart(to)
	if start.After(end) {
		return nil
	}
	months := make([]time.Time, 0, 12)
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}
