package util

import (
	"time"
)

func FloatPointer(f float64) *float64 {
	return &f
}

// FloorToInterval snaps t down to the start of its interval. Works for any
// width that divides an hour evenly (15m in practice).
func FloorToInterval(t time.Time, width time.Duration) time.Time {
	return t.Truncate(width)
}

// ReportingLocation loads the timezone interval labels are reported in.
// Falls back to UTC if the zone database is unavailable.
func ReportingLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
