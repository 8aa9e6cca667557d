// Package trading computes trading performance metrics from the private
// trades of the delivery day.
package trading

import (
	"sort"
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/shopspring/decimal"
)

type BookMetrics struct {
	BookID        string
	RevenueEUR    decimal.Decimal
	NetVolumeMW   decimal.Decimal
	TotalVolumeMW decimal.Decimal
	NumTrades     int
	VWAPEURPerMWh decimal.Decimal
}

type PortfolioMetrics struct {
	TotalRevenueEUR decimal.Decimal
	TotalTrades     int
	BuyTrades       int
	SellTrades      int
	NetVolumeMW     decimal.Decimal
	TotalVolumeMW   decimal.Decimal
	VWAPEURPerMWh   decimal.Decimal
	FirstDelivery   time.Time
	LastDelivery    time.Time
}

// ComputeMetrics aggregates revenue, volume and VWAP per book and for the
// whole portfolio. Sell volume counts positive, buy volume negative.
func ComputeMetrics(trades []domain.Trade) ([]BookMetrics, PortfolioMetrics) {
	byBook := map[string]*BookMetrics{}
	var (
		portfolio      PortfolioMetrics
		priceVolumeSum decimal.Decimal
	)

	for _, t := range trades {
		bm := byBook[t.BookID]
		if bm == nil {
			bm = &BookMetrics{BookID: t.BookID}
			byBook[t.BookID] = bm
		}

		revenue := t.RevenueEUR()
		bm.RevenueEUR = bm.RevenueEUR.Add(revenue)
		bm.NetVolumeMW = bm.NetVolumeMW.Add(t.SignedVolumeMW())
		bm.TotalVolumeMW = bm.TotalVolumeMW.Add(t.VolumeMW)
		bm.NumTrades++
		bm.VWAPEURPerMWh = bm.VWAPEURPerMWh.Add(t.PriceEURPerMWh.Mul(t.VolumeMW))

		portfolio.TotalRevenueEUR = portfolio.TotalRevenueEUR.Add(revenue)
		portfolio.NetVolumeMW = portfolio.NetVolumeMW.Add(t.SignedVolumeMW())
		portfolio.TotalVolumeMW = portfolio.TotalVolumeMW.Add(t.VolumeMW)
		portfolio.TotalTrades++
		if t.Side == domain.TradeSideBuy {
			portfolio.BuyTrades++
		} else {
			portfolio.SellTrades++
		}
		priceVolumeSum = priceVolumeSum.Add(t.PriceEURPerMWh.Mul(t.VolumeMW))

		if portfolio.FirstDelivery.IsZero() || t.DeliveryStart.Before(portfolio.FirstDelivery) {
			portfolio.FirstDelivery = t.DeliveryStart
		}
		if t.DeliveryEnd.After(portfolio.LastDelivery) {
			portfolio.LastDelivery = t.DeliveryEnd
		}
	}

	books := make([]BookMetrics, 0, len(byBook))
	for _, bm := range byBook {
		// The accumulator held sum(price*volume); divide out to the VWAP.
		if bm.TotalVolumeMW.IsPositive() {
			bm.VWAPEURPerMWh = bm.VWAPEURPerMWh.Div(bm.TotalVolumeMW)
		} else {
			bm.VWAPEURPerMWh = decimal.Zero
		}
		books = append(books, *bm)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].BookID < books[j].BookID })

	if portfolio.TotalVolumeMW.IsPositive() {
		portfolio.VWAPEURPerMWh = priceVolumeSum.Div(portfolio.TotalVolumeMW)
	}

	return books, portfolio
}
