// Package report derives the daily performance report from the reconciled
// infeed: energy, revenue and forecast-quality metrics per asset and for the
// portfolio.
package report

import (
	"math"
	"sort"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/montanaflynn/stats"
)

type AssetPerformance struct {
	AssetID             string           `json:"asset_id"`
	AssetType           domain.AssetType `json:"asset_type"`
	CapacityMW          float64          `json:"capacity_mw"`
	TotalForecastMWh    float64          `json:"total_forecast_mwh"`
	TotalActualMWh      float64          `json:"total_actual_mwh"`
	RevenueEUR          float64          `json:"total_revenue_eur"`
	ImbalanceCostEUR    float64          `json:"imbalance_cost_eur"`
	NetRevenueEUR       float64          `json:"net_revenue_eur"`
	ForecastAccuracyPct float64          `json:"forecast_accuracy_pct"`
	CapacityFactorPct   float64          `json:"capacity_factor_pct"`
}

type PortfolioPerformance struct {
	TotalAssets           int     `json:"total_assets"`
	TotalCapacityMW       float64 `json:"total_capacity_mw"`
	TotalForecastMWh      float64 `json:"total_forecast_mwh"`
	TotalActualMWh        float64 `json:"total_actual_mwh"`
	AccuracyPct           float64 `json:"portfolio_accuracy_pct"`
	CapacityFactorPct     float64 `json:"portfolio_capacity_factor_pct"`
	TotalRevenueEUR       float64 `json:"total_revenue_eur"`
	TotalImbalanceCostEUR float64 `json:"total_imbalance_cost_eur"`
	NetRevenueEUR         float64 `json:"net_revenue_eur"`
	MarketPriceEURPerMWh  float64 `json:"avg_market_price"`
	RMSEKW                float64 `json:"rmse_kw"`
	MAEKW                 float64 `json:"mae_kw"`
	BiasKW                float64 `json:"bias_kw"`
}

type Builder struct {
	MarketPriceEURPerMWh    float64
	ImbalancePriceEURPerMWh float64
	// IntervalHours converts interval kW to MWh together with the /1000.
	IntervalHours float64
}

// Build computes per-asset and portfolio performance from aligned records.
// Absent forecast or best values count as zero energy here; the coverage
// story already lives in the reconciliation output.
func (b Builder) Build(records []domain.AlignedRecord, assets map[string]domain.AssetMaster) ([]AssetPerformance, PortfolioPerformance, error) {
	perAsset := map[string]*AssetPerformance{}
	deviations := []float64{}

	for _, rec := range records {
		ap := perAsset[rec.AssetID]
		if ap == nil {
			ap = &AssetPerformance{AssetID: rec.AssetID, AssetType: domain.AssetTypeFromID(rec.AssetID)}
			if master, ok := assets[rec.AssetID]; ok {
				ap.AssetType = master.Type
				ap.CapacityMW = master.CapacityKW / 1000
			}
			perAsset[rec.AssetID] = ap
		}

		var forecastKW, actualKW float64
		if rec.ForecastKW != nil {
			forecastKW = *rec.ForecastKW
		}
		if rec.BestKW != nil {
			actualKW = *rec.BestKW
		}
		forecastMWh := forecastKW / 1000 * b.IntervalHours
		actualMWh := actualKW / 1000 * b.IntervalHours

		ap.TotalForecastMWh += forecastMWh
		ap.TotalActualMWh += actualMWh
		ap.RevenueEUR += actualMWh * b.MarketPriceEURPerMWh
		ap.ImbalanceCostEUR += math.Abs(forecastMWh-actualMWh) * b.ImbalancePriceEURPerMWh

		if rec.DeviationKW != nil {
			deviations = append(deviations, *rec.DeviationKW)
		}
	}

	out := make([]AssetPerformance, 0, len(perAsset))
	portfolio := PortfolioPerformance{
		TotalAssets:          len(perAsset),
		MarketPriceEURPerMWh: b.MarketPriceEURPerMWh,
	}
	for _, ap := range perAsset {
		ap.NetRevenueEUR = ap.RevenueEUR - ap.ImbalanceCostEUR
		if ap.TotalForecastMWh > 0 {
			ap.ForecastAccuracyPct = (1 - math.Abs(ap.TotalForecastMWh-ap.TotalActualMWh)/ap.TotalForecastMWh) * 100
		}
		if ap.CapacityMW > 0 {
			ap.CapacityFactorPct = ap.TotalActualMWh / (ap.CapacityMW * 24) * 100
		}

		portfolio.TotalCapacityMW += ap.CapacityMW
		portfolio.TotalForecastMWh += ap.TotalForecastMWh
		portfolio.TotalActualMWh += ap.TotalActualMWh
		portfolio.TotalRevenueEUR += ap.RevenueEUR
		portfolio.TotalImbalanceCostEUR += ap.ImbalanceCostEUR

		out = append(out, *ap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })

	portfolio.NetRevenueEUR = portfolio.TotalRevenueEUR - portfolio.TotalImbalanceCostEUR
	if portfolio.TotalForecastMWh > 0 {
		portfolio.AccuracyPct = (1 - math.Abs(portfolio.TotalForecastMWh-portfolio.TotalActualMWh)/portfolio.TotalForecastMWh) * 100
	}
	if portfolio.TotalCapacityMW > 0 {
		portfolio.CapacityFactorPct = portfolio.TotalActualMWh / (portfolio.TotalCapacityMW * 24) * 100
	}

	if len(deviations) > 0 {
		if err := fillErrorStats(&portfolio, deviations); err != nil {
			return nil, PortfolioPerformance{}, err
		}
	}

	return out, portfolio, nil
}

func fillErrorStats(p *PortfolioPerformance, deviations []float64) error {
	squares := make([]float64, len(deviations))
	absolutes := make([]float64, len(deviations))
	for i, d := range deviations {
		squares[i] = d * d
		absolutes[i] = math.Abs(d)
	}

	meanSquare, err := stats.Mean(squares)
	if err != nil {
		return err
	}
	p.RMSEKW = math.Sqrt(meanSquare)

	if p.MAEKW, err = stats.Mean(absolutes); err != nil {
		return err
	}
	if p.BiasKW, err = stats.Mean(deviations); err != nil {
		return err
	}
	return nil
}
