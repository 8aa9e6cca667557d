package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"go.uber.org/zap"
)

// Handler reads raw sources into validated series. It never resamples or
// interpolates; that is the reconciler's job.
type Handler struct {
	Log *zap.SugaredLogger
}

// InfeedResult is the outcome of loading one source directory. Assets whose
// series violate the ordering invariant land in Failed instead of Series, so
// one broken asset does not abort the run.
type InfeedResult struct {
	Series          map[string]domain.Series
	DroppedRecords  int
	NegativeDropped int
	Failed          map[string]error
}

// sourceDocument covers both accepted JSON shapes: the canonical
// {key, resolution_minutes, records:[{timestamp,value}]} form and the vendor
// export form with parallel arrays under "values".
type sourceDocument struct {
	Key struct {
		AssetID  string `json:"asset_id"`
		EntityID string `json:"entity_id"`
	} `json:"key"`
	ResolutionMinutes int               `json:"resolution_minutes"`
	Records           []sourceRecord    `json:"records"`
	Values            []json.RawMessage `json:"values"`
}

type sourceRecord struct {
	Timestamp json.Number `json:"timestamp"`
	Value     json.Number `json:"value"`
}

func (d sourceDocument) assetID() string {
	if d.Key.AssetID != "" {
		return d.Key.AssetID
	}
	return d.Key.EntityID
}

// LoadMeasurements reads every *.json in dir into per-asset 1-minute series.
// Negative readings are physically impossible for infeed and dropped with
// their own counter.
func (h Handler) LoadMeasurements(dir string) (*InfeedResult, error) {
	return h.loadDir(dir, time.Minute, true)
}

// LoadForecasts reads every *.json in dir into per-asset forecast series.
// The declared resolution_minutes of the document wins; 15 minutes otherwise.
func (h Handler) LoadForecasts(dir string) (*InfeedResult, error) {
	return h.loadDir(dir, 15*time.Minute, false)
}

func (h Handler) loadDir(dir string, defaultResolution time.Duration, dropNegative bool) (*InfeedResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.DataNotFoundError{Source: dir}
		}
		return nil, fmt.Errorf("failed to read source dir %s: %w", dir, err)
	}

	res := &InfeedResult{
		Series: map[string]domain.Series{},
		Failed: map[string]error{},
	}
	points := map[string][]domain.TimePoint{}
	resolutions := map[string]time.Duration{}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		doc, err := readDocument(path)
		if err != nil {
			h.Log.Warnw("skipping unreadable source file", "path", path, "error", err)
			continue
		}
		assetID := doc.assetID()
		if assetID == "" {
			h.Log.Warnw("skipping source file without asset id", "path", path)
			continue
		}

		resolution := defaultResolution
		if doc.ResolutionMinutes > 0 {
			resolution = time.Duration(doc.ResolutionMinutes) * time.Minute
		}
		if existing, ok := resolutions[assetID]; ok && existing != resolution {
			res.Failed[assetID] = &domain.InvalidSeriesError{AssetID: assetID, Reason: "conflicting resolutions across source files"}
			continue
		}
		resolutions[assetID] = resolution

		pts, dropped, negative := h.decodePoints(doc, path, dropNegative)
		res.DroppedRecords += dropped
		res.NegativeDropped += negative
		points[assetID] = append(points[assetID], pts...)
	}

	for assetID, pts := range points {
		if _, failed := res.Failed[assetID]; failed {
			continue
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].Timestamp.Before(pts[j].Timestamp) })
		s := domain.Series{AssetID: assetID, Resolution: resolutions[assetID], Points: pts}
		if err := s.Validate(); err != nil {
			res.Failed[assetID] = err
			continue
		}
		if !s.Empty() {
			from, to := s.Window()
			h.Log.Debugw("loaded series", "asset", assetID, "points", len(s.Points), "from", from, "to", to)
		}
		res.Series[assetID] = s
	}

	return res, nil
}

func readDocument(path string) (*sourceDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc sourceDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &doc, nil
}

// decodePoints converts a document's records into time points, dropping
// anything unparsable and reporting how much was dropped.
func (h Handler) decodePoints(doc *sourceDocument, source string, dropNegative bool) (pts []domain.TimePoint, dropped, negative int) {
	records := doc.Records
	if len(records) == 0 && len(doc.Values) >= 2 {
		var err error
		records, err = recordsFromParallelArrays(doc.Values)
		if err != nil {
			h.Log.Warnw("skipping vendor values block", "path", source, "error", err)
			return nil, 0, 0
		}
	}

	for i, rec := range records {
		ms, err := rec.Timestamp.Int64()
		if err != nil {
			dropped++
			h.Log.Debugw("dropping record", "error", &domain.MalformedRecordError{Source: source, Index: i, Reason: "bad timestamp"})
			continue
		}
		value, err := rec.Value.Float64()
		if err != nil {
			dropped++
			h.Log.Debugw("dropping record", "error", &domain.MalformedRecordError{Source: source, Index: i, Reason: "bad value"})
			continue
		}
		if dropNegative && value < 0 {
			negative++
			continue
		}
		pts = append(pts, domain.TimePoint{
			Timestamp: time.UnixMilli(ms).UTC(),
			ValueKW:   value,
		})
	}
	return pts, dropped, negative
}

func recordsFromParallelArrays(values []json.RawMessage) ([]sourceRecord, error) {
	var timestamps, samples []json.Number
	if err := json.Unmarshal(values[0], &timestamps); err != nil {
		return nil, fmt.Errorf("failed to decode timestamp array: %w", err)
	}
	if err := json.Unmarshal(values[1], &samples); err != nil {
		return nil, fmt.Errorf("failed to decode value array: %w", err)
	}
	if len(timestamps) != len(samples) {
		return nil, fmt.Errorf("mismatched array lengths: %d timestamps, %d values", len(timestamps), len(samples))
	}
	records := make([]sourceRecord, len(timestamps))
	for i := range timestamps {
		records[i] = sourceRecord{Timestamp: timestamps[i], Value: samples[i]}
	}
	return records, nil
}
