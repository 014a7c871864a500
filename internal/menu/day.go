package menu

import "time"

// ResolveTargetDay returns the English name of the day whose menu should be shown at now.
// The weekday is taken from now's own location, so callers pass a zoned time.
// With weekendFallback, Saturday and Sunday resolve to Monday.
func ResolveTargetDay(now time.Time, weekendFallback bool) string {
	if weekendFallback && IsWeekend(now) {
		return time.Monday.String()
	}
	return now.Weekday().String()
}

// IsWeekend reports whether t falls on a Saturday or Sunday in its location.
func IsWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}
