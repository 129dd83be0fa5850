package temporal

import "time"

// monthNames maps month name tokens (full and abbreviated) to month numbers.
// Longer spellings come first in the regex alternation so that "sept" wins
// over "sep" and "january" over "jan".
var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const monthAlternation = `january|jan|february|feb|march|mar|april|apr|may|` +
	`june|jun|july|jul|august|aug|september|sept|sep|october|oct|` +
	`november|nov|december|dec`

// lastDayOfMonth returns the number of days in the given month, leap-year aware.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// makeDate builds a UTC date and reports whether the calendar components were
// valid. time.Date normalizes out-of-range values (February 30 becomes
// March 2), so validity is checked by round-tripping the components.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
