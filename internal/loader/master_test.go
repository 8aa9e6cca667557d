package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testDefaults() ContractDefaults {
	return ContractDefaults{
		WindPrice:  decimal.NewFromInt(45),
		WindFee:    decimal.NewFromInt(2),
		SolarPrice: decimal.NewFromInt(50),
		SolarFee:   decimal.RequireFromString("2.5"),
	}
}

func TestLoadAssetMaster(t *testing.T) {
	technicalDir := t.TempDir()
	contractDir := t.TempDir()
	writeFile(t, technicalDir, "technical_data.json", `{
		"assets": [
			{"asset_id": "WND-001", "technical_attributes": {"capacity_kw": 2000}},
			{"asset_id": "SOL-001", "technical_attributes": {"capacity_kw": 1500}}
		]
	}`)
	writeFile(t, contractDir, "contract_data.json", `[
		{"asset_id": "WND-001", "price": 47.5},
		{"asset_id": "UNKNOWN-001", "price": 1, "fee": 1}
	]`)

	assets, err := testHandler().LoadAssetMaster(technicalDir, contractDir, testDefaults())
	require.NoError(t, err)
	require.Len(t, assets, 2)

	wnd := assets["WND-001"]
	require.Equal(t, domain.AssetTypeWind, wnd.Type)
	require.Equal(t, 2000.0, wnd.CapacityKW)
	// contract overrides price, fee falls back to the wind default
	require.Equal(t, "47.5", wnd.PriceEURPerMWh.String())
	require.Equal(t, "2", wnd.FeeEURPerMWh.String())

	sol := assets["SOL-001"]
	require.Equal(t, domain.AssetTypeSolar, sol.Type)
	require.Equal(t, "50", sol.PriceEURPerMWh.String())
	require.Equal(t, "2.5", sol.FeeEURPerMWh.String())
}

func TestLoadAssetMasterMissingDir(t *testing.T) {
	_, err := testHandler().LoadAssetMaster(filepath.Join(t.TempDir(), "missing"), "", testDefaults())
	var notFound *domain.DataNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestLoadRedispatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "redispatch.json", `[
		{"asset_id": "WND-001", "delivery_start": "2025-06-08T10:00:00Z", "compensation_price": 80},
		{"asset_id": "WND-001", "delivery_start": "not-a-time", "compensation_price": 80}
	]`)

	events, err := testHandler().LoadRedispatch(dir)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "WND-001", events[0].AssetID)
	require.Equal(t, time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC), events[0].DeliveryStart)
	require.Equal(t, "80", events[0].CompensationEURPerMWh.String())
}

func TestLoadRedispatchEmptyDirPath(t *testing.T) {
	events, err := testHandler().LoadRedispatch("")
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestLoadRedispatchUnreadableFileSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))

	events, err := testHandler().LoadRedispatch(dir)
	require.NoError(t, err)
	require.Empty(t, events)
}
