package domain

import (
	"time"
)

// TimePoint is a single sample of an infeed series, power in kW.
type TimePoint struct {
	Timestamp time.Time
	ValueKW   float64
}

// Series is an ordered set of samples for one asset. Resolution is the
// nominal spacing the producer declared (1m for live measurements, 15m for
// forecasts), not something we enforce between individual points.
type Series struct {
	AssetID    string
	Resolution time.Duration
	Points     []TimePoint
}

func (s Series) Empty() bool {
	return len(s.Points) == 0
}

// Window returns the first and last sample timestamps.
func (s Series) Window() (time.Time, time.Time) {
	if s.Empty() {
		return time.Time{}, time.Time{}
	}
	return s.Points[0].Timestamp, s.Points[len(s.Points)-1].Timestamp
}

// Validate checks the ordering invariant: timestamps strictly increasing,
// no duplicates. The loader already guarantees this for anything it returns,
// the reconciler re-checks defensively.
func (s Series) Validate() error {
	for i := 1; i < len(s.Points); i++ {
		prev, cur := s.Points[i-1].Timestamp, s.Points[i].Timestamp
		if cur.Equal(prev) {
			return &InvalidSeriesError{AssetID: s.AssetID, Reason: "duplicate timestamp " + cur.UTC().Format(time.RFC3339)}
		}
		if cur.Before(prev) {
			return &InvalidSeriesError{AssetID: s.AssetID, Reason: "timestamps not increasing at " + cur.UTC().Format(time.RFC3339)}
		}
	}
	return nil
}
