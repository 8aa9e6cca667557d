package domain

import "time"

// InfeedSource marks which side of the reconciliation supplied the best value.
type InfeedSource string

const (
	SourceMeasured InfeedSource = "measured"
	SourceForecast InfeedSource = "forecast"
	SourceNoData   InfeedSource = "no_data"
)

// AlignedRecord is one reconciled forecast interval for one asset. Nullable
// values are pointers; a nil MeasuredKW means no measurement fell into the
// interval, which is not the same as measuring zero.
type AlignedRecord struct {
	AssetID       string       `json:"asset_id"`
	IntervalStart time.Time    `json:"interval_start"`
	IntervalEnd   time.Time    `json:"interval_end"`
	ForecastKW    *float64     `json:"forecast_kw"`
	MeasuredKW    *float64     `json:"measured_kw"`
	BestKW        *float64     `json:"best_of_infeed_kw"`
	DeviationKW   *float64     `json:"deviation_kw"`
	DeviationPct  *float64     `json:"deviation_pct"`
	SampleCount   int          `json:"sample_count"`
	Source        InfeedSource `json:"source"`
}

// PortfolioRecord is the cross-asset rollup for one interval. Sums exclude
// null contributions; the two counters preserve coverage information.
type PortfolioRecord struct {
	IntervalStart      time.Time `json:"interval_start"`
	IntervalEnd        time.Time `json:"interval_end"`
	ForecastKW         float64   `json:"portfolio_forecast_kw"`
	MeasuredKW         float64   `json:"portfolio_measured_kw"`
	BestKW             float64   `json:"portfolio_best_of_infeed_kw"`
	DeviationKW        float64   `json:"portfolio_deviation_kw"`
	ContributingAssets int       `json:"assets_contributing"`
	NoDataAssets       int       `json:"assets_no_data"`
}
