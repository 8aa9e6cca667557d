// Package app wires the pipeline stages together and owns the per-asset
// error policy: a broken asset is logged and skipped, the run keeps going
// with reduced coverage.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/config"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/invoice"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/loader"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/logger"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/reconcile"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/report"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/trading"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/util"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/writer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PipelineHandler struct {
	Config *config.Config
	Loader loader.Handler
	Log    *zap.SugaredLogger
}

// Coverage records what the run had to leave out.
type Coverage struct {
	DroppedRecords  int
	NegativeDropped int
	DroppedTrades   int
	SkippedAssets   map[string]string
}

// RunResult holds everything a full run computed, in output order.
type RunResult struct {
	RunID                string
	RunDate              string
	AlignedRecords       []domain.AlignedRecord
	PortfolioRecords     []domain.PortfolioRecord
	BookMetrics          []trading.BookMetrics
	TradingPortfolio     trading.PortfolioMetrics
	HasTrades            bool
	Invoices             []domain.Invoice
	AssetPerformance     []report.AssetPerformance
	PortfolioPerformance report.PortfolioPerformance
	Coverage             Coverage
}

// Reconcile runs the loader and the core alignment for every asset found in
// either source, in asset order.
func (h PipelineHandler) Reconcile(ctx context.Context) ([]domain.AlignedRecord, []domain.PortfolioRecord, Coverage, error) {
	log := logger.FromContext(ctx)
	coverage := Coverage{SkippedAssets: map[string]string{}}

	forecasts, err := h.Loader.LoadForecasts(h.Config.Sources.ForecastsDir)
	if err != nil {
		return nil, nil, coverage, fmt.Errorf("failed to load forecasts: %w", err)
	}
	measurements, err := h.Loader.LoadMeasurements(h.Config.Sources.MeasurementsDir)
	if err != nil {
		return nil, nil, coverage, fmt.Errorf("failed to load measurements: %w", err)
	}

	coverage.DroppedRecords = forecasts.DroppedRecords + measurements.DroppedRecords
	coverage.NegativeDropped = measurements.NegativeDropped
	for assetID, loadErr := range forecasts.Failed {
		coverage.SkippedAssets[assetID] = loadErr.Error()
	}
	for assetID, loadErr := range measurements.Failed {
		coverage.SkippedAssets[assetID] = loadErr.Error()
	}

	assetIDs := map[string]bool{}
	for id := range forecasts.Series {
		assetIDs[id] = true
	}
	for id := range measurements.Series {
		assetIDs[id] = true
	}
	sorted := make([]string, 0, len(assetIDs))
	for id := range assetIDs {
		if _, skipped := coverage.SkippedAssets[id]; skipped {
			continue
		}
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	reconciler := reconcile.Reconciler{
		Interval:   h.Config.Interval(),
		Rule:       reconcile.Rule(h.Config.Reconcile.Rule),
		MinSamples: h.Config.Reconcile.MinSamplesPerInterval,
	}

	records := []domain.AlignedRecord{}
	for _, assetID := range sorted {
		forecast := forecasts.Series[assetID]
		forecast.AssetID = assetID
		measured := measurements.Series[assetID]
		measured.AssetID = assetID

		assetRecords, err := reconciler.Align(forecast, measured)
		if err != nil {
			var invalid *domain.InvalidSeriesError
			if errors.As(err, &invalid) {
				log.Warnw("skipping asset with invalid series", "asset", assetID, "error", err)
				coverage.SkippedAssets[assetID] = err.Error()
				continue
			}
			return nil, nil, coverage, fmt.Errorf("failed to align asset %s: %w", assetID, err)
		}
		records = append(records, assetRecords...)
	}

	portfolio, err := reconcile.AggregatePortfolio(records)
	if err != nil {
		return nil, nil, coverage, fmt.Errorf("failed to aggregate portfolio: %w", err)
	}

	log.Infow("reconciliation complete",
		"assets", len(sorted),
		"records", len(records),
		"intervals", len(portfolio),
		"dropped_records", coverage.DroppedRecords,
		"skipped_assets", len(coverage.SkippedAssets),
	)
	return records, portfolio, coverage, nil
}

// Trading loads the exchange export and computes book and portfolio metrics.
func (h PipelineHandler) Trading(ctx context.Context) ([]trading.BookMetrics, trading.PortfolioMetrics, int, error) {
	trades, dropped, err := h.Loader.LoadTrades(h.Config.Sources.TradesFile)
	if err != nil {
		return nil, trading.PortfolioMetrics{}, 0, fmt.Errorf("failed to load trades: %w", err)
	}
	books, portfolio := trading.ComputeMetrics(trades)
	h.Log.Infow("trading metrics complete", "trades", portfolio.TotalTrades, "books", len(books), "dropped_trades", dropped)
	return books, portfolio, dropped, nil
}

// Invoices settles every asset against its contract using the reconciled
// production values.
func (h PipelineHandler) Invoices(ctx context.Context, records []domain.AlignedRecord, day time.Time) ([]domain.Invoice, error) {
	defaults, err := h.contractDefaults()
	if err != nil {
		return nil, err
	}
	assets, err := h.Loader.LoadAssetMaster(h.Config.Sources.TechnicalDataDir, h.Config.Sources.ContractDataDir, defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset master data: %w", err)
	}
	redispatch, err := h.Loader.LoadRedispatch(h.Config.Sources.RedispatchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load redispatch data: %w", err)
	}

	vat, err := decimal.NewFromString(h.Config.Invoice.VATRate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vat_rate: %w", err)
	}
	calc := invoice.Calculator{
		VATRate:       vat,
		IntervalHours: decimal.NewFromFloat(h.Config.Interval().Hours()),
	}
	invoices := calc.BuildAll(assets, records, redispatch, day)
	h.Log.Infow("invoices complete", "invoices", len(invoices))
	return invoices, nil
}

// Run executes the whole pipeline for the configured day and writes every
// output table.
func (h PipelineHandler) Run(ctx context.Context) (*RunResult, error) {
	day, err := h.Config.Day()
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:   uuid.NewString(),
		RunDate: h.Config.RunDate,
	}

	records, portfolio, coverage, err := h.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	result.AlignedRecords = records
	result.PortfolioRecords = portfolio
	result.Coverage = coverage

	if h.Config.Sources.TradesFile != "" {
		books, tradingPortfolio, droppedTrades, err := h.Trading(ctx)
		if err != nil {
			return nil, err
		}
		result.BookMetrics = books
		result.TradingPortfolio = tradingPortfolio
		result.HasTrades = true
		result.Coverage.DroppedTrades = droppedTrades
	}

	if h.Config.Sources.TechnicalDataDir != "" {
		invoices, err := h.Invoices(ctx, records, day)
		if err != nil {
			return nil, err
		}
		result.Invoices = invoices
	}

	marketPrice := h.Config.Report.DefaultMarketPriceEURPerMWh
	if result.HasTrades && result.TradingPortfolio.TotalVolumeMW.IsPositive() {
		marketPrice = result.TradingPortfolio.VWAPEURPerMWh.InexactFloat64()
	}
	builder := report.Builder{
		MarketPriceEURPerMWh:    marketPrice,
		ImbalancePriceEURPerMWh: h.Config.Report.ImbalancePriceEURPerMWh,
		IntervalHours:           h.Config.Interval().Hours(),
	}
	assets := map[string]domain.AssetMaster{}
	if h.Config.Sources.TechnicalDataDir != "" {
		defaults, err := h.contractDefaults()
		if err != nil {
			return nil, err
		}
		assets, err = h.Loader.LoadAssetMaster(h.Config.Sources.TechnicalDataDir, h.Config.Sources.ContractDataDir, defaults)
		if err != nil {
			return nil, fmt.Errorf("failed to load asset master data: %w", err)
		}
	}
	assetPerf, portfolioPerf, err := builder.Build(records, assets)
	if err != nil {
		return nil, fmt.Errorf("failed to build performance report: %w", err)
	}
	result.AssetPerformance = assetPerf
	result.PortfolioPerformance = portfolioPerf

	if err := h.write(result); err != nil {
		return nil, err
	}

	h.Log.Infow("run complete", "run_id", result.RunID, "run_date", result.RunDate)
	return result, nil
}

func (h PipelineHandler) write(result *RunResult) error {
	w := writer.Writer{
		OutputDir: h.Config.OutputDir,
		RunDate:   h.Config.RunDate,
		Location:  util.ReportingLocation(h.Config.Timezone),
	}

	if _, err := w.WriteAlignedRecords(result.AlignedRecords); err != nil {
		return err
	}
	if _, err := w.WritePortfolioRecords(result.PortfolioRecords); err != nil {
		return err
	}
	if result.HasTrades {
		if _, err := w.WriteBookMetrics(result.BookMetrics); err != nil {
			return err
		}
		if _, err := w.WritePortfolioTradingMetrics(result.TradingPortfolio); err != nil {
			return err
		}
	}
	if len(result.Invoices) > 0 {
		if _, err := w.WriteInvoices(result.Invoices); err != nil {
			return err
		}
		if err := w.WriteInvoiceDocuments(result.Invoices); err != nil {
			return err
		}
	}
	if _, err := w.WriteAssetPerformance(result.AssetPerformance); err != nil {
		return err
	}
	if _, err := w.WritePortfolioPerformance(result.PortfolioPerformance); err != nil {
		return err
	}
	return nil
}

func (h PipelineHandler) contractDefaults() (loader.ContractDefaults, error) {
	parse := func(name, v string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		return d, nil
	}
	var (
		def loader.ContractDefaults
		err error
	)
	if def.WindPrice, err = parse("wind_price_eur_per_mwh", h.Config.Invoice.WindPriceEURPerMWh); err != nil {
		return def, err
	}
	if def.WindFee, err = parse("wind_fee_eur_per_mwh", h.Config.Invoice.WindFeeEURPerMWh); err != nil {
		return def, err
	}
	if def.SolarPrice, err = parse("solar_price_eur_per_mwh", h.Config.Invoice.SolarPriceEURPerMWh); err != nil {
		return def, err
	}
	if def.SolarFee, err = parse("solar_fee_eur_per_mwh", h.Config.Invoice.SolarFeeEURPerMWh); err != nil {
		return def, err
	}
	return def, nil
}
