package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Trade is one private execution from the exchange export. BookID groups
// trades for per-book metrics; the export does not attribute trades to
// assets, so the loader assigns books round-robin the way the upstream
// reporting tooling does.
type Trade struct {
	TradeID        string
	BookID         string
	Side           TradeSide
	VolumeMW       decimal.Decimal
	PriceEURPerMWh decimal.Decimal
	DeliveryStart  time.Time
	DeliveryEnd    time.Time
}

// SignedVolumeMW is positive for sells, negative for buys.
func (t Trade) SignedVolumeMW() decimal.Decimal {
	if t.Side == TradeSideBuy {
		return t.VolumeMW.Neg()
	}
	return t.VolumeMW
}

// RevenueEUR is volume x price, signed by trade side.
func (t Trade) RevenueEUR() decimal.Decimal {
	return t.SignedVolumeMW().Mul(t.PriceEURPerMWh)
}
