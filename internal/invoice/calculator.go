// Package invoice settles each asset's delivery day into a monthly-style
// invoice: production payout minus handling fees plus redispatch
// compensation, with VAT on the net amount.
package invoice

import (
	"sort"
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Calculator struct {
	VATRate decimal.Decimal
	// IntervalHours converts a kW interval value into energy; 0.25 for the
	// 15-minute grid.
	IntervalHours decimal.Decimal
}

// Build settles one asset. Only intervals with a non-null best value
// contribute production; redispatch compensation is paid on the forecast of
// the compensated interval, matching the DSO settlement rule.
func (c Calculator) Build(asset domain.AssetMaster, records []domain.AlignedRecord, redispatch []domain.RedispatchEvent, invoiceDate time.Time) domain.Invoice {
	production := decimal.Zero
	forecastByInterval := map[int64]float64{}
	for _, rec := range records {
		if rec.AssetID != asset.AssetID {
			continue
		}
		if rec.BestKW != nil {
			production = production.Add(decimal.NewFromFloat(*rec.BestKW))
		}
		if rec.ForecastKW != nil {
			forecastByInterval[rec.IntervalStart.UnixMilli()] = *rec.ForecastKW
		}
	}
	// kW summed over intervals -> MWh.
	productionMWh := production.Mul(c.IntervalHours).Div(decimal.NewFromInt(1000))

	basePayout := productionMWh.Mul(asset.PriceEURPerMWh)
	fees := productionMWh.Mul(asset.FeeEURPerMWh)

	redispatchPayout := decimal.Zero
	for _, ev := range redispatch {
		if ev.AssetID != asset.AssetID {
			continue
		}
		forecastKW, ok := forecastByInterval[ev.DeliveryStart.UnixMilli()]
		if !ok {
			continue
		}
		forecastMWh := decimal.NewFromFloat(forecastKW).Mul(c.IntervalHours).Div(decimal.NewFromInt(1000))
		redispatchPayout = redispatchPayout.Add(forecastMWh.Mul(ev.CompensationEURPerMWh))
	}

	totalNet := basePayout.Sub(fees).Add(redispatchPayout)
	vat := totalNet.Mul(c.VATRate)

	return domain.Invoice{
		InvoiceID:           uuid.NewString(),
		AssetID:             asset.AssetID,
		AssetType:           asset.Type,
		InvoiceDate:         invoiceDate,
		ProductionMWh:       productionMWh.Round(3),
		BasePayoutEUR:       basePayout.Round(2),
		FeesEUR:             fees.Round(2),
		RedispatchPayoutEUR: redispatchPayout.Round(2),
		TotalNetEUR:         totalNet.Round(2),
		VATEUR:              vat.Round(2),
		TotalGrossEUR:       totalNet.Add(vat).Round(2),
	}
}

// BuildAll settles every asset with master data, ordered by asset id.
func (c Calculator) BuildAll(assets map[string]domain.AssetMaster, records []domain.AlignedRecord, redispatch []domain.RedispatchEvent, invoiceDate time.Time) []domain.Invoice {
	ids := make([]string, 0, len(assets))
	for id := range assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	invoices := make([]domain.Invoice, 0, len(ids))
	for _, id := range ids {
		invoices = append(invoices, c.Build(assets[id], records, redispatch, invoiceDate))
	}
	return invoices
}
