package reconcile

import (
	"sort"
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
)

// AggregatePortfolio rolls asset-level records up to one portfolio record per
// interval. Null values are excluded from the sums but stay visible through
// the coverage counters, so the portfolio interval set always equals the
// union of the input interval sets.
func AggregatePortfolio(records []domain.AlignedRecord) ([]domain.PortfolioRecord, error) {
	groups := map[int64][]domain.AlignedRecord{}
	for _, rec := range records {
		key := rec.IntervalStart.UnixMilli()
		groups[key] = append(groups[key], rec)
	}

	keys := make([]int64, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]domain.PortfolioRecord, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		if len(group) == 0 {
			return nil, &domain.AggregationError{Interval: time.UnixMilli(key).UTC(), Reason: "no contributing assets"}
		}
		pr := domain.PortfolioRecord{
			IntervalStart: group[0].IntervalStart,
			IntervalEnd:   group[0].IntervalEnd,
		}
		for _, rec := range group {
			if rec.ForecastKW != nil {
				pr.ForecastKW += *rec.ForecastKW
			}
			if rec.MeasuredKW != nil {
				pr.MeasuredKW += *rec.MeasuredKW
			}
			if rec.BestKW != nil {
				pr.BestKW += *rec.BestKW
				pr.ContributingAssets++
			}
			if rec.DeviationKW != nil {
				pr.DeviationKW += *rec.DeviationKW
			}
			if rec.Source == domain.SourceNoData {
				pr.NoDataAssets++
			}
		}
		out = append(out, pr)
	}
	return out, nil
}
