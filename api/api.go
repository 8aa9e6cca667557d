// Package api serves a completed run's results as JSON for the operations
// dashboard. Read-only; the pipeline itself never depends on it.
package api

import (
	"fmt"
	"net/http"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/app"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ApiHandler struct {
	Result *app.RunResult
	Log    *zap.SugaredLogger
}

func (m ApiHandler) StartApi(port int) error {
	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/health", m.health)
	router.GET("/reconciliation/assets", m.reconciliationAssets)
	router.GET("/reconciliation/portfolio", m.reconciliationPortfolio)
	router.GET("/trading/metrics", m.tradingMetrics)
	router.GET("/invoices", m.invoices)
	router.GET("/report/assets", m.reportAssets)
	router.GET("/report/portfolio", m.reportPortfolio)

	return router.Run(fmt.Sprintf(":%d", port))
}

func (m ApiHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"run_id":   m.Result.RunID,
		"run_date": m.Result.RunDate,
	})
}

func (m ApiHandler) reconciliationAssets(c *gin.Context) {
	records := m.Result.AlignedRecords
	if assetID := c.Query("asset_id"); assetID != "" {
		filtered := records[:0:0]
		for _, rec := range records {
			if rec.AssetID == assetID {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (m ApiHandler) reconciliationPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"records": m.Result.PortfolioRecords})
}

func (m ApiHandler) tradingMetrics(c *gin.Context) {
	if !m.Result.HasTrades {
		c.JSON(http.StatusNotFound, gin.H{"error": "no trades loaded for this run"})
		return
	}
	p := m.Result.TradingPortfolio
	books := make([]gin.H, 0, len(m.Result.BookMetrics))
	for _, bm := range m.Result.BookMetrics {
		books = append(books, gin.H{
			"book_id":         bm.BookID,
			"revenue_eur":     bm.RevenueEUR.StringFixed(2),
			"net_volume_mw":   bm.NetVolumeMW.StringFixed(1),
			"total_volume_mw": bm.TotalVolumeMW.StringFixed(1),
			"num_trades":      bm.NumTrades,
			"vwap_eur_mwh":    bm.VWAPEURPerMWh.StringFixed(2),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"portfolio": gin.H{
			"total_revenue_eur":    p.TotalRevenueEUR.StringFixed(2),
			"total_trades":         p.TotalTrades,
			"buy_trades":           p.BuyTrades,
			"sell_trades":          p.SellTrades,
			"net_traded_volume_mw": p.NetVolumeMW.StringFixed(1),
			"total_volume_mw":      p.TotalVolumeMW.StringFixed(1),
			"portfolio_vwap":       p.VWAPEURPerMWh.StringFixed(2),
		},
	})
}

func (m ApiHandler) invoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"invoices": m.Result.Invoices})
}

func (m ApiHandler) reportAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"assets": m.Result.AssetPerformance})
}

func (m ApiHandler) reportPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"portfolio": m.Result.PortfolioPerformance})
}
