package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/shopspring/decimal"
)

// ContractDefaults supplies price and fee for assets missing a contract_data
// entry, keyed by technology.
type ContractDefaults struct {
	WindPrice  decimal.Decimal
	WindFee    decimal.Decimal
	SolarPrice decimal.Decimal
	SolarFee   decimal.Decimal
}

type technicalDocument struct {
	Assets []struct {
		AssetID             string `json:"asset_id"`
		TechnicalAttributes struct {
			CapacityKW float64 `json:"capacity_kw"`
		} `json:"technical_attributes"`
	} `json:"assets"`
}

type contractRecord struct {
	AssetID string   `json:"asset_id"`
	Price   *float64 `json:"price"`
	Fee     *float64 `json:"fee"`
}

// LoadAssetMaster merges technical data (capacities) with contract data
// (prices, fees). Contract entries override the per-technology defaults.
func (h Handler) LoadAssetMaster(technicalDir, contractDir string, def ContractDefaults) (map[string]domain.AssetMaster, error) {
	assets := map[string]domain.AssetMaster{}

	if err := eachJSONFile(technicalDir, func(path string, raw []byte) {
		var doc technicalDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			h.Log.Warnw("skipping unreadable technical data", "path", path, "error", err)
			return
		}
		for _, a := range doc.Assets {
			if a.AssetID == "" {
				continue
			}
			assetType := domain.AssetTypeFromID(a.AssetID)
			price, fee := def.WindPrice, def.WindFee
			if assetType == domain.AssetTypeSolar {
				price, fee = def.SolarPrice, def.SolarFee
			}
			assets[a.AssetID] = domain.AssetMaster{
				AssetID:        a.AssetID,
				Type:           assetType,
				CapacityKW:     a.TechnicalAttributes.CapacityKW,
				PriceEURPerMWh: price,
				FeeEURPerMWh:   fee,
			}
		}
	}); err != nil {
		return nil, err
	}

	if contractDir != "" {
		if err := eachJSONFile(contractDir, func(path string, raw []byte) {
			var records []contractRecord
			if err := json.Unmarshal(raw, &records); err != nil {
				h.Log.Warnw("skipping unreadable contract data", "path", path, "error", err)
				return
			}
			for _, rec := range records {
				asset, ok := assets[rec.AssetID]
				if !ok {
					continue
				}
				if rec.Price != nil {
					asset.PriceEURPerMWh = decimal.NewFromFloat(*rec.Price)
				}
				if rec.Fee != nil {
					asset.FeeEURPerMWh = decimal.NewFromFloat(*rec.Fee)
				}
				assets[rec.AssetID] = asset
			}
		}); err != nil {
			return nil, err
		}
	}

	return assets, nil
}

type redispatchRecord struct {
	AssetID           string  `json:"asset_id"`
	DeliveryStart     string  `json:"delivery_start"`
	CompensationPrice float64 `json:"compensation_price"`
}

// LoadRedispatch reads DSO curtailment compensation records. An empty dir
// path means the operator had no redispatch events for the run.
func (h Handler) LoadRedispatch(dir string) ([]domain.RedispatchEvent, error) {
	if dir == "" {
		return nil, nil
	}
	events := []domain.RedispatchEvent{}
	if err := eachJSONFile(dir, func(path string, raw []byte) {
		var records []redispatchRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			h.Log.Warnw("skipping unreadable redispatch data", "path", path, "error", err)
			return
		}
		for i, rec := range records {
			start, err := parseDeliveryTime(rec.DeliveryStart)
			if err != nil {
				h.Log.Debugw("dropping redispatch record", "error", &domain.MalformedRecordError{Source: path, Index: i, Reason: err.Error()})
				continue
			}
			events = append(events, domain.RedispatchEvent{
				AssetID:               rec.AssetID,
				DeliveryStart:         start,
				CompensationEURPerMWh: decimal.NewFromFloat(rec.CompensationPrice),
			})
		}
	}); err != nil {
		return nil, err
	}
	return events, nil
}

func eachJSONFile(dir string, fn func(path string, raw []byte)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &domain.DataNotFoundError{Source: dir}
		}
		return fmt.Errorf("failed to read dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		fn(path, raw)
	}
	return nil
}
