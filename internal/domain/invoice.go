package domain

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Invoice is the settlement for one asset's delivery day. All amounts are
// EUR with two decimal places, computed with decimal arithmetic and only
// converted to float at the serialization boundary.
type Invoice struct {
	InvoiceID           string          `json:"invoice_id"`
	AssetID             string          `json:"asset_id"`
	AssetType           AssetType       `json:"asset_type"`
	InvoiceDate         time.Time       `json:"invoice_date"`
	ProductionMWh       decimal.Decimal `json:"production_mwh"`
	BasePayoutEUR       decimal.Decimal `json:"base_payout"`
	FeesEUR             decimal.Decimal `json:"fees"`
	RedispatchPayoutEUR decimal.Decimal `json:"redispatch_payout"`
	TotalNetEUR         decimal.Decimal `json:"total_net"`
	VATEUR              decimal.Decimal `json:"vat"`
	TotalGrossEUR       decimal.Decimal `json:"total_gross"`
}

// NetAmount returns the net total as a currency amount for rendering.
func (inv Invoice) NetAmount() *money.Money {
	return eur(inv.TotalNetEUR)
}

// VATAmount returns the VAT share as a currency amount for rendering.
func (inv Invoice) VATAmount() *money.Money {
	return eur(inv.VATEUR)
}

// GrossAmount returns the gross total as a currency amount for rendering.
func (inv Invoice) GrossAmount() *money.Money {
	return eur(inv.TotalGrossEUR)
}

func eur(d decimal.Decimal) *money.Money {
	return money.New(d.Shift(2).Round(0).IntPart(), money.EUR)
}
