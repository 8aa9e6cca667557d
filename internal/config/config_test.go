package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
run_date: "2025-06-08"
sources:
  measurements_dir: data/measurements
  forecasts_dir: data/forecasts
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "2025-06-08", c.RunDate)
	require.Equal(t, "Europe/Berlin", c.Timezone)
	require.Equal(t, "output", c.OutputDir)
	require.Equal(t, "mean", c.Reconcile.Rule)
	require.Equal(t, 15*time.Minute, c.Interval())
	require.Equal(t, 1, c.Reconcile.MinSamplesPerInterval)
	require.Equal(t, "0.19", c.Invoice.VATRate)
	require.Equal(t, 50.0, c.Report.DefaultMarketPriceEURPerMWh)
	require.Equal(t, 8080, c.API.Port)

	day, err := c.Day()
	require.NoError(t, err)
	require.Equal(t, "2025-06-08T00:00:00+02:00", day.Format(time.RFC3339))
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
run_date: "2025-06-08"
timezone: UTC
output_dir: out
sources:
  measurements_dir: m
  forecasts_dir: f
  trades_file: trades.csv
reconcile:
  rule: last
  interval_minutes: 30
  min_samples_per_interval: 3
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "last", c.Reconcile.Rule)
	require.Equal(t, 30*time.Minute, c.Interval())
	require.Equal(t, 3, c.Reconcile.MinSamplesPerInterval)
	require.Equal(t, "trades.csv", c.Sources.TradesFile)
}

func TestLoadInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"bad run_date": `
run_date: "08.06.2025"
sources:
  measurements_dir: m
  forecasts_dir: f
`,
		"missing sources": `
run_date: "2025-06-08"
`,
		"bad rule": `
run_date: "2025-06-08"
sources:
  measurements_dir: m
  forecasts_dir: f
reconcile:
  rule: max
`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
