package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the on-disk pipeline configuration (YAML).
type Config struct {
	// RunDate is the delivery day the pipeline settles, YYYY-MM-DD.
	RunDate  string `yaml:"run_date" validate:"required,datetime=2006-01-02"`
	Timezone string `yaml:"timezone" default:"Europe/Berlin"`

	Sources struct {
		MeasurementsDir  string `yaml:"measurements_dir" validate:"required"`
		ForecastsDir     string `yaml:"forecasts_dir" validate:"required"`
		TradesFile       string `yaml:"trades_file"`
		TechnicalDataDir string `yaml:"technical_data_dir"`
		ContractDataDir  string `yaml:"contract_data_dir"`
		RedispatchDir    string `yaml:"redispatch_dir"`
	} `yaml:"sources"`

	OutputDir string `yaml:"output_dir" default:"output"`

	Reconcile struct {
		// Rule is how in-interval measurement samples are reduced to one
		// representative value: arithmetic mean or last sample.
		Rule                  string `yaml:"rule" default:"mean" validate:"oneof=mean last"`
		IntervalMinutes       int    `yaml:"interval_minutes" default:"15" validate:"gt=0"`
		MinSamplesPerInterval int    `yaml:"min_samples_per_interval" default:"1" validate:"gte=1"`
	} `yaml:"reconcile"`

	Invoice struct {
		VATRate string `yaml:"vat_rate" default:"0.19"`
		// Contract fallbacks when an asset has no contract_data entry.
		WindPriceEURPerMWh  string `yaml:"wind_price_eur_per_mwh" default:"45"`
		WindFeeEURPerMWh    string `yaml:"wind_fee_eur_per_mwh" default:"2"`
		SolarPriceEURPerMWh string `yaml:"solar_price_eur_per_mwh" default:"50"`
		SolarFeeEURPerMWh   string `yaml:"solar_fee_eur_per_mwh" default:"2.5"`
	} `yaml:"invoice"`

	Report struct {
		DefaultMarketPriceEURPerMWh float64 `yaml:"default_market_price_eur_per_mwh" default:"50"`
		ImbalancePriceEURPerMWh     float64 `yaml:"imbalance_price_eur_per_mwh" default:"50"`
	} `yaml:"report"`

	API struct {
		Port int `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	} `yaml:"api"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("config %s invalid: %w", path, err)
	}
	return &c, nil
}

// Day returns the run date as midnight in the reporting timezone.
func (c *Config) Day() (time.Time, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load timezone %s: %w", c.Timezone, err)
	}
	day, err := time.ParseInLocation("2006-01-02", c.RunDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse run_date %s: %w", c.RunDate, err)
	}
	return day, nil
}

// Interval returns the reconciliation interval width.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Reconcile.IntervalMinutes) * time.Minute
}
