// Package common provides shared utilities across the application.
package common

import (
	"time"
)

// usEastern is loaded once; regular US equity sessions are defined in this zone.
var usEastern = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Fall back to a fixed offset; only hit on systems without tzdata.
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// IsMarketOpen reports whether the US equity market is in its regular session
// (weekdays 09:30-16:00 US/Eastern) at the given instant.
func IsMarketOpen(now time.Time) bool {
	eastern := now.In(usEastern)

	switch eastern.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := eastern.Hour()*60 + eastern.Minute()
	open := 9*60 + 30
	close := 16 * 60

	return minutes >= open && minutes <= close
}
