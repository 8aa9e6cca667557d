// Package reconcile aligns per-asset forecast and live-measurement series
// onto the forecast interval grid and selects the best-of-infeed value per
// interval.
package reconcile

import (
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/util"
)

// Rule is the in-interval measurement reduction: arithmetic mean of the
// samples, or the last sample in the interval.
type Rule string

const (
	RuleMean Rule = "mean"
	RuleLast Rule = "last"
)

type Reconciler struct {
	// Interval overrides the forecast series resolution when non-zero.
	Interval time.Duration
	Rule     Rule
	// MinSamples is the minimum number of measurement samples an interval
	// needs before its reduction counts as a measured value. Below the
	// threshold the interval is treated as unmeasured, never as zero.
	MinSamples int
}

type bucket struct {
	sum   float64
	last  float64
	count int
}

// Align produces one record per interval of the combined coverage of the two
// series, snapped to the forecast grid. Intervals outside the overlap are
// still produced with the absent side nil; identical inputs always produce
// identical output.
func (r Reconciler) Align(forecast, measured domain.Series) ([]domain.AlignedRecord, error) {
	if err := forecast.Validate(); err != nil {
		return nil, err
	}
	if err := measured.Validate(); err != nil {
		return nil, err
	}

	assetID := forecast.AssetID
	if assetID == "" {
		assetID = measured.AssetID
	}

	width := r.Interval
	if width == 0 {
		width = forecast.Resolution
	}
	if width == 0 {
		width = 15 * time.Minute
	}
	minSamples := r.MinSamples
	if minSamples < 1 {
		minSamples = 1
	}

	forecasts := map[int64]float64{}
	for _, p := range forecast.Points {
		start := util.FloorToInterval(p.Timestamp, width)
		if _, dup := forecasts[start.UnixMilli()]; dup {
			return nil, &domain.InvalidSeriesError{AssetID: assetID, Reason: "two forecast values in interval " + start.UTC().Format(time.RFC3339)}
		}
		forecasts[start.UnixMilli()] = p.ValueKW
	}

	buckets := map[int64]*bucket{}
	for _, p := range measured.Points {
		key := util.FloorToInterval(p.Timestamp, width).UnixMilli()
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum += p.ValueKW
		b.last = p.ValueKW
		b.count++
	}

	first, last, ok := combinedWindow(forecasts, buckets)
	if !ok {
		return nil, nil
	}

	records := make([]domain.AlignedRecord, 0, (last-first)/width.Milliseconds()+1)
	for key := first; key <= last; key += width.Milliseconds() {
		start := time.UnixMilli(key).UTC()
		rec := domain.AlignedRecord{
			AssetID:       assetID,
			IntervalStart: start,
			IntervalEnd:   start.Add(width),
		}

		if v, ok := forecasts[key]; ok {
			rec.ForecastKW = util.FloatPointer(v)
		}
		if b, ok := buckets[key]; ok {
			rec.SampleCount = b.count
			if b.count >= minSamples {
				rec.MeasuredKW = util.FloatPointer(r.reduce(b))
			}
		}

		switch {
		case rec.MeasuredKW != nil:
			rec.BestKW = util.FloatPointer(*rec.MeasuredKW)
			rec.Source = domain.SourceMeasured
		case rec.ForecastKW != nil:
			rec.BestKW = util.FloatPointer(*rec.ForecastKW)
			rec.Source = domain.SourceForecast
		default:
			rec.Source = domain.SourceNoData
		}

		if rec.ForecastKW != nil && rec.MeasuredKW != nil {
			rec.DeviationKW = util.FloatPointer(*rec.MeasuredKW - *rec.ForecastKW)
			if *rec.ForecastKW != 0 {
				rec.DeviationPct = util.FloatPointer(*rec.DeviationKW / *rec.ForecastKW)
			}
		}

		records = append(records, rec)
	}
	return records, nil
}

func (r Reconciler) reduce(b *bucket) float64 {
	if r.Rule == RuleLast {
		return b.last
	}
	return b.sum / float64(b.count)
}

func combinedWindow(forecasts map[int64]float64, buckets map[int64]*bucket) (first, last int64, ok bool) {
	for key := range forecasts {
		first, last, ok = widen(first, last, key, ok)
	}
	for key := range buckets {
		first, last, ok = widen(first, last, key, ok)
	}
	return first, last, ok
}

func widen(first, last, key int64, seen bool) (int64, int64, bool) {
	if !seen {
		return key, key, true
	}
	if key < first {
		first = key
	}
	if key > last {
		last = key
	}
	return first, last, true
}
