package reconcile

import (
	"testing"
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ts(hour, minute int) time.Time {
	return time.Date(2025, 6, 8, hour, minute, 0, 0, time.UTC)
}

func series(assetID string, resolution time.Duration, points ...domain.TimePoint) domain.Series {
	return domain.Series{AssetID: assetID, Resolution: resolution, Points: points}
}

func point(t time.Time, kw float64) domain.TimePoint {
	return domain.TimePoint{Timestamp: t, ValueKW: kw}
}

func TestAlign(t *testing.T) {
	r := Reconciler{Rule: RuleMean}

	t.Run("measured preferred with mean aggregation", func(t *testing.T) {
		forecast := series("WND1", 15*time.Minute, point(ts(10, 0), 100))
		measured := series("WND1", time.Minute,
			point(ts(10, 5), 90),
			point(ts(10, 10), 110),
		)

		records, err := r.Align(forecast, measured)
		require.NoError(t, err)
		require.Len(t, records, 1)

		rec := records[0]
		require.Equal(t, ts(10, 0), rec.IntervalStart)
		require.Equal(t, ts(10, 15), rec.IntervalEnd)
		require.NotNil(t, rec.MeasuredKW)
		require.Equal(t, 100.0, *rec.MeasuredKW)
		require.NotNil(t, rec.BestKW)
		require.Equal(t, 100.0, *rec.BestKW)
		require.Equal(t, domain.SourceMeasured, rec.Source)
		require.NotNil(t, rec.DeviationKW)
		require.Equal(t, 0.0, *rec.DeviationKW)
		require.NotNil(t, rec.DeviationPct)
		require.Equal(t, 0.0, *rec.DeviationPct)
		require.Equal(t, 2, rec.SampleCount)
	})

	t.Run("forecast fallback when interval has no samples", func(t *testing.T) {
		forecast := series("WND1", 15*time.Minute, point(ts(10, 15), 50))

		records, err := r.Align(forecast, domain.Series{AssetID: "WND1"})
		require.NoError(t, err)
		require.Len(t, records, 1)

		rec := records[0]
		require.Nil(t, rec.MeasuredKW)
		require.NotNil(t, rec.BestKW)
		require.Equal(t, 50.0, *rec.BestKW)
		require.Equal(t, domain.SourceForecast, rec.Source)
		require.Nil(t, rec.DeviationKW)
		require.Nil(t, rec.DeviationPct)
	})

	t.Run("no data interval retained in the grid", func(t *testing.T) {
		// Forecast covers 10:00 and 10:30, nothing in between: the grid
		// still produces the 10:15 interval, marked no_data.
		forecast := series("WND1", 15*time.Minute,
			point(ts(10, 0), 100),
			point(ts(10, 30), 80),
		)

		records, err := r.Align(forecast, domain.Series{AssetID: "WND1"})
		require.NoError(t, err)
		require.Len(t, records, 3)

		gap := records[1]
		require.Equal(t, ts(10, 15), gap.IntervalStart)
		require.Nil(t, gap.BestKW)
		require.Equal(t, domain.SourceNoData, gap.Source)
	})

	t.Run("last rule takes the final sample", func(t *testing.T) {
		lastRule := Reconciler{Rule: RuleLast}
		forecast := series("WND1", 15*time.Minute, point(ts(10, 0), 100))
		measured := series("WND1", time.Minute,
			point(ts(10, 5), 90),
			point(ts(10, 10), 110),
		)

		records, err := lastRule.Align(forecast, measured)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, 110.0, *records[0].MeasuredKW)
	})

	t.Run("deviation pct nil when forecast is zero", func(t *testing.T) {
		forecast := series("SOL1", 15*time.Minute, point(ts(3, 0), 0))
		measured := series("SOL1", time.Minute, point(ts(3, 2), 5))

		records, err := r.Align(forecast, measured)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.NotNil(t, records[0].DeviationKW)
		require.Equal(t, 5.0, *records[0].DeviationKW)
		require.Nil(t, records[0].DeviationPct)
	})

	t.Run("measurements outside forecast coverage still produced", func(t *testing.T) {
		forecast := series("WND1", 15*time.Minute, point(ts(10, 0), 100))
		measured := series("WND1", time.Minute, point(ts(10, 20), 42))

		records, err := r.Align(forecast, measured)
		require.NoError(t, err)
		require.Len(t, records, 2)

		require.Nil(t, records[1].ForecastKW)
		require.Equal(t, 42.0, *records[1].MeasuredKW)
		require.Equal(t, domain.SourceMeasured, records[1].Source)
	})

	t.Run("min samples threshold suppresses thin intervals", func(t *testing.T) {
		thin := Reconciler{Rule: RuleMean, MinSamples: 3}
		forecast := series("WND1", 15*time.Minute, point(ts(10, 0), 100))
		measured := series("WND1", time.Minute, point(ts(10, 5), 90))

		records, err := thin.Align(forecast, measured)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Nil(t, records[0].MeasuredKW)
		require.Equal(t, domain.SourceForecast, records[0].Source)
		require.Equal(t, 1, records[0].SampleCount)
	})

	t.Run("duplicate measurement timestamps rejected", func(t *testing.T) {
		forecast := series("WND1", 15*time.Minute, point(ts(10, 0), 100))
		measured := series("WND1", time.Minute,
			point(ts(10, 5), 90),
			point(ts(10, 5), 91),
		)

		_, err := r.Align(forecast, measured)
		var invalid *domain.InvalidSeriesError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("interval width always equals forecast resolution", func(t *testing.T) {
		forecast := series("WND1", 15*time.Minute,
			point(ts(0, 0), 10),
			point(ts(6, 0), 20),
			point(ts(23, 45), 30),
		)
		measured := series("WND1", time.Minute, point(ts(12, 30), 15))

		records, err := r.Align(forecast, measured)
		require.NoError(t, err)
		for _, rec := range records {
			require.Equal(t, 15*time.Minute, rec.IntervalEnd.Sub(rec.IntervalStart))
		}
	})

	t.Run("aligning twice yields identical output", func(t *testing.T) {
		forecast := series("WND1", 15*time.Minute,
			point(ts(10, 0), 100),
			point(ts(10, 15), 50),
		)
		measured := series("WND1", time.Minute,
			point(ts(10, 1), 95),
			point(ts(10, 7), 105),
			point(ts(10, 20), 48),
		)

		first, err := r.Align(forecast, measured)
		require.NoError(t, err)
		second, err := r.Align(forecast, measured)
		require.NoError(t, err)
		require.Empty(t, cmp.Diff(first, second))
	})

	t.Run("empty inputs produce no records", func(t *testing.T) {
		records, err := r.Align(domain.Series{AssetID: "WND1"}, domain.Series{AssetID: "WND1"})
		require.NoError(t, err)
		require.Empty(t, records)
	})
}
