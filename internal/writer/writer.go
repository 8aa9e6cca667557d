// Package writer serializes run results to the output directory: CSV tables
// for the record streams, JSON for the scalar metric blocks, PDF/XLSX for
// invoice documents.
package writer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/invoice"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/report"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/trading"
	"github.com/gocarina/gocsv"
)

type Writer struct {
	OutputDir string
	// RunDate tags every output file name, YYYY-MM-DD.
	RunDate  string
	Location *time.Location
}

func (w Writer) path(stem, ext string) string {
	return filepath.Join(w.OutputDir, fmt.Sprintf("%s_%s.%s", stem, w.RunDate, ext))
}

func (w Writer) loc() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

type alignedRow struct {
	AssetID       string `csv:"asset_id"`
	IntervalStart string `csv:"interval_start"`
	IntervalEnd   string `csv:"interval_end"`
	ForecastKW    string `csv:"forecast_kw"`
	MeasuredKW    string `csv:"measured_kw"`
	BestKW        string `csv:"best_of_infeed_kw"`
	DeviationKW   string `csv:"deviation_kw"`
	DeviationPct  string `csv:"deviation_pct"`
	SampleCount   int    `csv:"sample_count"`
	Source        string `csv:"source"`
}

// WriteAlignedRecords writes the asset-level reconciliation table. Null
// values become empty cells, never zeros.
func (w Writer) WriteAlignedRecords(records []domain.AlignedRecord) (string, error) {
	rows := make([]alignedRow, len(records))
	for i, rec := range records {
		rows[i] = alignedRow{
			AssetID:       rec.AssetID,
			IntervalStart: rec.IntervalStart.In(w.loc()).Format(time.RFC3339),
			IntervalEnd:   rec.IntervalEnd.In(w.loc()).Format(time.RFC3339),
			ForecastKW:    fmtNullable(rec.ForecastKW),
			MeasuredKW:    fmtNullable(rec.MeasuredKW),
			BestKW:        fmtNullable(rec.BestKW),
			DeviationKW:   fmtNullable(rec.DeviationKW),
			DeviationPct:  fmtNullable(rec.DeviationPct),
			SampleCount:   rec.SampleCount,
			Source:        string(rec.Source),
		}
	}
	return w.writeCSV("asset_best_of_infeed", &rows)
}

type portfolioRow struct {
	IntervalStart      string  `csv:"interval_start"`
	IntervalEnd        string  `csv:"interval_end"`
	ForecastKW         float64 `csv:"portfolio_forecast_kw"`
	MeasuredKW         float64 `csv:"portfolio_measured_kw"`
	BestKW             float64 `csv:"portfolio_best_of_infeed_kw"`
	DeviationKW        float64 `csv:"portfolio_deviation_kw"`
	ContributingAssets int     `csv:"assets_contributing"`
	NoDataAssets       int     `csv:"assets_no_data"`
}

func (w Writer) WritePortfolioRecords(records []domain.PortfolioRecord) (string, error) {
	rows := make([]portfolioRow, len(records))
	for i, rec := range records {
		rows[i] = portfolioRow{
			IntervalStart:      rec.IntervalStart.In(w.loc()).Format(time.RFC3339),
			IntervalEnd:        rec.IntervalEnd.In(w.loc()).Format(time.RFC3339),
			ForecastKW:         rec.ForecastKW,
			MeasuredKW:         rec.MeasuredKW,
			BestKW:             rec.BestKW,
			DeviationKW:        rec.DeviationKW,
			ContributingAssets: rec.ContributingAssets,
			NoDataAssets:       rec.NoDataAssets,
		}
	}
	return w.writeCSV("portfolio_best_of_infeed", &rows)
}

type bookMetricsRow struct {
	BookID        string `csv:"book_id"`
	RevenueEUR    string `csv:"revenue_eur"`
	NetVolumeMW   string `csv:"net_volume_mw"`
	TotalVolumeMW string `csv:"total_volume_mw"`
	NumTrades     int    `csv:"num_trades"`
	VWAPEURPerMWh string `csv:"vwap_eur_mwh"`
}

func (w Writer) WriteBookMetrics(books []trading.BookMetrics) (string, error) {
	rows := make([]bookMetricsRow, len(books))
	for i, bm := range books {
		rows[i] = bookMetricsRow{
			BookID:        bm.BookID,
			RevenueEUR:    bm.RevenueEUR.StringFixed(2),
			NetVolumeMW:   bm.NetVolumeMW.StringFixed(1),
			TotalVolumeMW: bm.TotalVolumeMW.StringFixed(1),
			NumTrades:     bm.NumTrades,
			VWAPEURPerMWh: bm.VWAPEURPerMWh.StringFixed(2),
		}
	}
	return w.writeCSV("asset_trading_metrics", &rows)
}

func (w Writer) WritePortfolioTradingMetrics(m trading.PortfolioMetrics) (string, error) {
	view := map[string]interface{}{
		"total_revenue_eur":    m.TotalRevenueEUR.StringFixed(2),
		"total_trades":         m.TotalTrades,
		"buy_trades":           m.BuyTrades,
		"sell_trades":          m.SellTrades,
		"net_traded_volume_mw": m.NetVolumeMW.StringFixed(1),
		"total_volume_mw":      m.TotalVolumeMW.StringFixed(1),
		"portfolio_vwap":       m.VWAPEURPerMWh.StringFixed(2),
	}
	return w.writeJSON("portfolio_trading_metrics", view)
}

type invoiceRow struct {
	InvoiceID           string `csv:"invoice_id"`
	AssetID             string `csv:"asset_id"`
	AssetType           string `csv:"asset_type"`
	InvoiceDate         string `csv:"invoice_date"`
	ProductionMWh       string `csv:"production_mwh"`
	BasePayoutEUR       string `csv:"base_payout"`
	FeesEUR             string `csv:"fees"`
	RedispatchPayoutEUR string `csv:"redispatch_payout"`
	TotalNetEUR         string `csv:"total_net"`
	VATEUR              string `csv:"vat"`
	TotalGrossEUR       string `csv:"total_gross"`
}

func (w Writer) WriteInvoices(invoices []domain.Invoice) (string, error) {
	rows := make([]invoiceRow, len(invoices))
	for i, inv := range invoices {
		rows[i] = invoiceRow{
			InvoiceID:           inv.InvoiceID,
			AssetID:             inv.AssetID,
			AssetType:           string(inv.AssetType),
			InvoiceDate:         inv.InvoiceDate.Format("2006-01-02"),
			ProductionMWh:       inv.ProductionMWh.StringFixed(3),
			BasePayoutEUR:       inv.BasePayoutEUR.StringFixed(2),
			FeesEUR:             inv.FeesEUR.StringFixed(2),
			RedispatchPayoutEUR: inv.RedispatchPayoutEUR.StringFixed(2),
			TotalNetEUR:         inv.TotalNetEUR.StringFixed(2),
			VATEUR:              inv.VATEUR.StringFixed(2),
			TotalGrossEUR:       inv.TotalGrossEUR.StringFixed(2),
		}
	}
	if _, err := w.writeJSON("invoices", invoices); err != nil {
		return "", err
	}
	return w.writeCSV("invoices", &rows)
}

// WriteInvoiceDocuments renders one PDF per invoice plus a single workbook.
func (w Writer) WriteInvoiceDocuments(invoices []domain.Invoice) error {
	if err := w.ensureDir(); err != nil {
		return err
	}
	for _, inv := range invoices {
		payload, err := invoice.BuildPDF(inv)
		if err != nil {
			return fmt.Errorf("failed to render invoice pdf for %s: %w", inv.AssetID, err)
		}
		path := filepath.Join(w.OutputDir, fmt.Sprintf("invoice_%s_%s.pdf", inv.AssetID, w.RunDate))
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	workbook, err := invoice.BuildXLSX(invoices)
	if err != nil {
		return fmt.Errorf("failed to render invoice workbook: %w", err)
	}
	return os.WriteFile(w.path("invoices", "xlsx"), workbook, 0o644)
}

type assetPerformanceRow struct {
	AssetID             string  `csv:"asset_id"`
	AssetType           string  `csv:"asset_type"`
	CapacityMW          float64 `csv:"capacity_mw"`
	TotalForecastMWh    float64 `csv:"total_forecast_mwh"`
	TotalActualMWh      float64 `csv:"total_actual_mwh"`
	TotalRevenueEUR     float64 `csv:"total_revenue_eur"`
	ImbalanceCostEUR    float64 `csv:"imbalance_cost_eur"`
	NetRevenueEUR       float64 `csv:"net_revenue_eur"`
	ForecastAccuracyPct float64 `csv:"forecast_accuracy_pct"`
	CapacityFactorPct   float64 `csv:"capacity_factor_pct"`
}

func (w Writer) WriteAssetPerformance(perf []report.AssetPerformance) (string, error) {
	rows := make([]assetPerformanceRow, len(perf))
	for i, ap := range perf {
		rows[i] = assetPerformanceRow{
			AssetID:             ap.AssetID,
			AssetType:           string(ap.AssetType),
			CapacityMW:          ap.CapacityMW,
			TotalForecastMWh:    round2(ap.TotalForecastMWh),
			TotalActualMWh:      round2(ap.TotalActualMWh),
			TotalRevenueEUR:     round2(ap.RevenueEUR),
			ImbalanceCostEUR:    round2(ap.ImbalanceCostEUR),
			NetRevenueEUR:       round2(ap.NetRevenueEUR),
			ForecastAccuracyPct: round1(ap.ForecastAccuracyPct),
			CapacityFactorPct:   round1(ap.CapacityFactorPct),
		}
	}
	return w.writeCSV("asset_performance", &rows)
}

func (w Writer) WritePortfolioPerformance(p report.PortfolioPerformance) (string, error) {
	view := map[string]interface{}{
		"total_assets":                  p.TotalAssets,
		"total_capacity_mw":             round2(p.TotalCapacityMW),
		"total_forecast_mwh":            round2(p.TotalForecastMWh),
		"total_actual_mwh":              round2(p.TotalActualMWh),
		"portfolio_accuracy_pct":        round1(p.AccuracyPct),
		"portfolio_capacity_factor_pct": round1(p.CapacityFactorPct),
		"total_revenue_eur":             round2(p.TotalRevenueEUR),
		"total_imbalance_cost_eur":      round2(p.TotalImbalanceCostEUR),
		"net_revenue_eur":               round2(p.NetRevenueEUR),
		"avg_market_price":              round2(p.MarketPriceEURPerMWh),
		"rmse_kw":                       round2(p.RMSEKW),
		"mae_kw":                        round2(p.MAEKW),
		"bias_kw":                       round2(p.BiasKW),
	}
	return w.writeJSON("portfolio_performance", view)
}

func (w Writer) writeCSV(stem string, rows interface{}) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	path := w.path(stem, "csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (w Writer) writeJSON(stem string, v interface{}) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	path := w.path(stem, "json")
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (w Writer) ensureDir() error {
	return os.MkdirAll(w.OutputDir, 0o755)
}

func fmtNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
