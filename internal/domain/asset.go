package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetTypeWind    AssetType = "wind"
	AssetTypeSolar   AssetType = "solar"
	AssetTypeUnknown AssetType = "unknown"
)

// AssetTypeFromID derives the technology from the id convention used in the
// VPP master data (WND/SOL markers inside the asset id).
func AssetTypeFromID(assetID string) AssetType {
	switch {
	case strings.Contains(assetID, "WND"):
		return AssetTypeWind
	case strings.Contains(assetID, "SOL"):
		return AssetTypeSolar
	default:
		return AssetTypeUnknown
	}
}

// AssetMaster combines technical and contract data for one asset.
type AssetMaster struct {
	AssetID        string
	Type           AssetType
	CapacityKW     float64
	PriceEURPerMWh decimal.Decimal
	FeeEURPerMWh   decimal.Decimal
}

// RedispatchEvent is a curtailment compensation entry from the distribution
// system operator, priced per MWh of forecast infeed.
type RedispatchEvent struct {
	AssetID               string
	DeliveryStart         time.Time
	CompensationEURPerMWh decimal.Decimal
}
