package temporal

import (
	"time"

	"github.com/sidekick-labs/sidekick/core"
)

// Boost weights applied to ranked scores based on how close a document's date
// falls to the query's date range.
const (
	// BoostInRange is the flat boost for documents dated inside the range.
	BoostInRange float32 = 0.15
	// BoostNearRange is the flat boost for documents within a week of a boundary.
	BoostNearRange float32 = 0.08
	// nearWindowDays is the width of the flat near-boundary window.
	nearWindowDays = 7
	// boostHorizonDays is the distance at which the boost reaches exactly zero.
	boostHorizonDays = 30
)

// Boost returns the additive score adjustment for a document date against a
// query date range. The value is in [0, 0.15] and monotonically non-increasing
// in the distance from the range:
//
//	inside the range          0.15
//	within 7 days of an edge  0.08
//	7 to 30 days away         a linearly decaying fraction of 0.04
//	30 days or more, or       0
//	missing date/range
func Boost(docDate time.Time, r *core.DateRange) float32 {
	if r == nil || docDate.IsZero() {
		return 0
	}
	if r.Contains(docDate) {
		return BoostInRange
	}

	days := daysOutside(docDate, *r)
	switch {
	case days <= nearWindowDays:
		return BoostNearRange
	case days >= boostHorizonDays:
		return 0
	default:
		fraction := float32(boostHorizonDays-days) / float32(boostHorizonDays-nearWindowDays)
		return BoostNearRange * 0.5 * fraction
	}
}

// Apply adds the boost for docDate to a base score, clamped to 1.0.
func Apply(baseScore float32, docDate time.Time, r *core.DateRange) float32 {
	boosted := baseScore + Boost(docDate, r)
	if boosted > 1.0 {
		return 1.0
	}
	return boosted
}

// daysOutside returns the whole days between a date and the nearest range
// boundary. The caller guarantees the date is outside the range.
func daysOutside(docDate time.Time, r core.DateRange) int {
	day := core.Day(docDate)
	if day.Before(core.Day(r.Start)) {
		return int(core.Day(r.Start).Sub(day).Hours() / 24)
	}
	return int(day.Sub(core.Day(r.End)).Hours() / 24)
}
