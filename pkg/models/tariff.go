package models

// TariffRecord is one row of the published tariff table.
// Rate is kept as text; the index builder drops rows whose rate is not a finite number.
type TariffRecord struct {
	Month          string `json:"month"`
	Provider       string `json:"provider"`
	City           string `json:"city"`
	TierDescriptor string `json:"tier_descriptor"`
	Rate           string `json:"rate"`
}
