package domain

import (
	"fmt"
	"time"
)

// DataNotFoundError means a source file or directory for an asset is missing.
// Fatal for that asset only; the run continues with reduced coverage.
type DataNotFoundError struct {
	Source string
}

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf("data not found: %s", e.Source)
}

// MalformedRecordError means a single record could not be parsed. The record
// is dropped and counted, the rest of the source is still used.
type MalformedRecordError struct {
	Source string
	Index  int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %d in %s: %s", e.Index, e.Source, e.Reason)
}

// InvalidSeriesError means a series violates the ordering/uniqueness
// invariant. Fatal for that asset.
type InvalidSeriesError struct {
	AssetID string
	Reason  string
}

func (e *InvalidSeriesError) Error() string {
	return fmt.Sprintf("invalid series for asset %s: %s", e.AssetID, e.Reason)
}

// AggregationError should not occur with non-empty input; kept as a defensive
// check in the portfolio rollup.
type AggregationError struct {
	Interval time.Time
	Reason   string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation failed for interval %s: %s", e.Interval.UTC().Format(time.RFC3339), e.Reason)
}
