package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSeriesValidate(t *testing.T) {
	base := time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)

	t.Run("ordered series is valid", func(t *testing.T) {
		s := Series{AssetID: "WND1", Points: []TimePoint{
			{Timestamp: base, ValueKW: 1},
			{Timestamp: base.Add(time.Minute), ValueKW: 2},
		}}
		require.NoError(t, s.Validate())
	})

	t.Run("duplicate timestamp rejected", func(t *testing.T) {
		s := Series{AssetID: "WND1", Points: []TimePoint{
			{Timestamp: base, ValueKW: 1},
			{Timestamp: base, ValueKW: 2},
		}}
		var invalid *InvalidSeriesError
		require.ErrorAs(t, s.Validate(), &invalid)
		require.Equal(t, "WND1", invalid.AssetID)
	})

	t.Run("decreasing timestamp rejected", func(t *testing.T) {
		s := Series{AssetID: "WND1", Points: []TimePoint{
			{Timestamp: base.Add(time.Minute), ValueKW: 1},
			{Timestamp: base, ValueKW: 2},
		}}
		var invalid *InvalidSeriesError
		require.ErrorAs(t, s.Validate(), &invalid)
	})

	t.Run("empty series is valid", func(t *testing.T) {
		require.NoError(t, Series{AssetID: "WND1"}.Validate())
	})
}

func TestAssetTypeFromID(t *testing.T) {
	require.Equal(t, AssetTypeWind, AssetTypeFromID("DE_WND_0042"))
	require.Equal(t, AssetTypeSolar, AssetTypeFromID("DE_SOL_0007"))
	require.Equal(t, AssetTypeUnknown, AssetTypeFromID("DE_BAT_0001"))
}
