package loader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// tradeRow mirrors the exchange private-trades export: semicolon separated,
// one human-readable title line above the header.
type tradeRow struct {
	TradeID       string  `csv:"TradeId"`
	Side          string  `csv:"Side"`
	VolumeMW      float64 `csv:"Volume"`
	PriceEUR      float64 `csv:"Price"`
	DeliveryStart string  `csv:"DeliveryStart"`
	DeliveryEnd   string  `csv:"DeliveryEnd"`
}

// tradeBooks is how many books trades are spread over when the export has no
// asset attribution, matching the upstream reporting convention.
const tradeBooks = 10

// LoadTrades reads the private-trades CSV export. Rows with an unknown side
// or unparsable delivery window are dropped and counted.
func (h Handler) LoadTrades(path string) ([]domain.Trade, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, &domain.DataNotFoundError{Source: path}
		}
		return nil, 0, fmt.Errorf("failed to open trades file %s: %w", path, err)
	}
	defer f.Close()

	// The export starts with a title line before the actual header.
	reader := bufio.NewReader(f)
	if _, err := reader.ReadString('\n'); err != nil {
		return nil, 0, fmt.Errorf("failed to read trades header from %s: %w", path, err)
	}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = ';'

	rows := []tradeRow{}
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		return nil, 0, fmt.Errorf("failed to parse trades file %s: %w", path, err)
	}

	trades := make([]domain.Trade, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		trade, err := row.toTrade(i)
		if err != nil {
			dropped++
			h.Log.Debugw("dropping trade row", "error", &domain.MalformedRecordError{Source: path, Index: i, Reason: err.Error()})
			continue
		}
		trades = append(trades, trade)
	}
	return trades, dropped, nil
}

func (r tradeRow) toTrade(index int) (domain.Trade, error) {
	var side domain.TradeSide
	switch strings.ToLower(r.Side) {
	case "buy":
		side = domain.TradeSideBuy
	case "sell":
		side = domain.TradeSideSell
	default:
		return domain.Trade{}, fmt.Errorf("unknown side %q", r.Side)
	}

	start, err := parseDeliveryTime(r.DeliveryStart)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("bad delivery start: %w", err)
	}
	end, err := parseDeliveryTime(r.DeliveryEnd)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("bad delivery end: %w", err)
	}

	return domain.Trade{
		TradeID:        r.TradeID,
		BookID:         fmt.Sprintf("A%02d", index%tradeBooks+1),
		Side:           side,
		VolumeMW:       decimal.NewFromFloat(r.VolumeMW),
		PriceEURPerMWh: decimal.NewFromFloat(r.PriceEUR),
		DeliveryStart:  start,
		DeliveryEnd:    end,
	}, nil
}

var deliveryTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseDeliveryTime(v string) (time.Time, error) {
	for _, layout := range deliveryTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", v)
}
