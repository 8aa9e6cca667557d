package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testHandler() Handler {
	return Handler{Log: zap.NewNop().Sugar()}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMeasurements(t *testing.T) {
	t.Run("canonical record shape", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "wnd1.json", `{
			"key": {"asset_id": "DE_WND_001"},
			"records": [
				{"timestamp": 1749376800000, "value": 90.5},
				{"timestamp": 1749376860000, "value": 91.0}
			]
		}`)

		res, err := testHandler().LoadMeasurements(dir)
		require.NoError(t, err)
		require.Empty(t, res.Failed)
		require.Contains(t, res.Series, "DE_WND_001")

		s := res.Series["DE_WND_001"]
		require.Len(t, s.Points, 2)
		require.Equal(t, time.UnixMilli(1749376800000).UTC(), s.Points[0].Timestamp)
		require.Equal(t, 90.5, s.Points[0].ValueKW)
		require.Equal(t, time.Minute, s.Resolution)
	})

	t.Run("vendor parallel array shape", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "wnd1.json", `{
			"key": {"entity_id": "DE_WND_002"},
			"values": [[1749376800000, 1749376860000], [10.0, 12.0]]
		}`)

		res, err := testHandler().LoadMeasurements(dir)
		require.NoError(t, err)
		require.Contains(t, res.Series, "DE_WND_002")
		require.Len(t, res.Series["DE_WND_002"].Points, 2)
	})

	t.Run("negative values dropped with counter", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "wnd1.json", `{
			"key": {"asset_id": "DE_WND_003"},
			"records": [
				{"timestamp": 1749376800000, "value": -5},
				{"timestamp": 1749376860000, "value": 7}
			]
		}`)

		res, err := testHandler().LoadMeasurements(dir)
		require.NoError(t, err)
		require.Equal(t, 1, res.NegativeDropped)
		require.Len(t, res.Series["DE_WND_003"].Points, 1)
	})

	t.Run("malformed records dropped with counter", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "wnd1.json", `{
			"key": {"asset_id": "DE_WND_004"},
			"records": [
				{"timestamp": 1749376800000, "value": 5},
				{"timestamp": "not-a-number", "value": 6}
			]
		}`)

		res, err := testHandler().LoadMeasurements(dir)
		require.NoError(t, err)
		require.Equal(t, 1, res.DroppedRecords)
		require.Len(t, res.Series["DE_WND_004"].Points, 1)
	})

	t.Run("duplicate timestamps across files fail the asset only", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.json", `{"key": {"asset_id": "DE_WND_005"}, "records": [{"timestamp": 1749376800000, "value": 5}]}`)
		writeFile(t, dir, "b.json", `{"key": {"asset_id": "DE_WND_005"}, "records": [{"timestamp": 1749376800000, "value": 6}]}`)
		writeFile(t, dir, "c.json", `{"key": {"asset_id": "DE_WND_006"}, "records": [{"timestamp": 1749376800000, "value": 7}]}`)

		res, err := testHandler().LoadMeasurements(dir)
		require.NoError(t, err)
		require.Contains(t, res.Failed, "DE_WND_005")
		require.Contains(t, res.Series, "DE_WND_006")

		var invalid *domain.InvalidSeriesError
		require.ErrorAs(t, res.Failed["DE_WND_005"], &invalid)
	})

	t.Run("missing dir is DataNotFoundError", func(t *testing.T) {
		_, err := testHandler().LoadMeasurements(filepath.Join(t.TempDir(), "nope"))
		var notFound *domain.DataNotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestLoadForecasts(t *testing.T) {
	t.Run("declared resolution wins", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "f.json", `{
			"key": {"asset_id": "DE_SOL_001"},
			"resolution_minutes": 30,
			"records": [{"timestamp": 1749376800000, "value": 40}]
		}`)

		res, err := testHandler().LoadForecasts(dir)
		require.NoError(t, err)
		require.Equal(t, 30*time.Minute, res.Series["DE_SOL_001"].Resolution)
	})

	t.Run("defaults to fifteen minutes", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "f.json", `{
			"key": {"asset_id": "DE_SOL_002"},
			"records": [{"timestamp": 1749376800000, "value": 40}]
		}`)

		res, err := testHandler().LoadForecasts(dir)
		require.NoError(t, err)
		require.Equal(t, 15*time.Minute, res.Series["DE_SOL_002"].Resolution)
	})

	t.Run("negative forecast values kept", func(t *testing.T) {
		// Forecasts can legitimately go negative (consumption at the
		// connection point); only measurements get the physical filter.
		dir := t.TempDir()
		writeFile(t, dir, "f.json", `{
			"key": {"asset_id": "DE_SOL_003"},
			"records": [{"timestamp": 1749376800000, "value": -2}]
		}`)

		res, err := testHandler().LoadForecasts(dir)
		require.NoError(t, err)
		require.Len(t, res.Series["DE_SOL_003"].Points, 1)
		require.Equal(t, 0, res.NegativeDropped)
	})
}
