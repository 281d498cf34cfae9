package models

import "encoding/json"

// MonthlyCostRow is the resolution result for one service point and one month.
// Nil values mean no tariff was found; they are never coerced to zero.
type MonthlyCostRow struct {
	Month          string   `json:"month"`
	CandidateRate  *float64 `json:"candidate_rate"`
	IncumbentRate  *float64 `json:"incumbent_rate"`
	ConsumptionKWh *float64 `json:"consumption_kwh"`
	CandidateCost  *float64 `json:"candidate_cost"`
	IncumbentCost  *float64 `json:"incumbent_cost"`
	UnitDelta      *float64 `json:"unit_delta"`
	MonthlySavings *float64 `json:"monthly_savings"`
}

// MarshalJSON emits currency figures rounded to 2 decimals; the in-memory row keeps full precision
func (r MonthlyCostRow) MarshalJSON() ([]byte, error) {
	type plain MonthlyCostRow
	out := plain{
		Month:          r.Month,
		CandidateRate:  Round2(r.CandidateRate),
		IncumbentRate:  Round2(r.IncumbentRate),
		ConsumptionKWh: r.ConsumptionKWh,
		CandidateCost:  Round2(r.CandidateCost),
		IncumbentCost:  Round2(r.IncumbentCost),
		UnitDelta:      Round2(r.UnitDelta),
		MonthlySavings: Round2(r.MonthlySavings),
	}
	return json.Marshal(out)
}

// ServicePointAnalysis holds the monthly rows of one service point plus the join keys used
type ServicePointAnalysis struct {
	ServicePointID string           `json:"service_point"`
	CityInput      string           `json:"city_input"`
	CityTariff     string           `json:"city_tariff"`
	TierCode       string           `json:"tier_code"`
	ProviderInput  string           `json:"provider_input"`
	ProviderTariff string           `json:"provider_tariff"`
	Months         []MonthlyCostRow `json:"months"`
}

// OpportunityAnalysis groups service point analyses under their opportunity
type OpportunityAnalysis struct {
	OpportunityID string                 `json:"opportunity"`
	Client        string                 `json:"client"`
	ServicePoints []ServicePointAnalysis `json:"service_points"`
}

// AuditRow records how a single (opportunity, service point, month) lookup was resolved
type AuditRow struct {
	OpportunityID     string   `json:"opportunity"`
	ServicePointID    string   `json:"service_point"`
	Month             string   `json:"month"`
	CityTariff        string   `json:"city_tariff"`
	CompositeTier     string   `json:"composite_tier"`
	SimpleTier        string   `json:"simple_tier"`
	CandidateStrategy string   `json:"candidate_strategy"`
	IncumbentStrategy string   `json:"incumbent_strategy"`
	TierVariant       string   `json:"tier_variant"` // composite, simple or empty
	ProviderInput     string   `json:"provider_input"`
	ProviderMapped    string   `json:"provider_mapped"`
	ProviderUsed      string   `json:"provider_used"`
	FallbackUsed      bool     `json:"fallback_used"`
	FallbackScore     *float64 `json:"fallback_score"`
	CandidateFound    bool     `json:"candidate_found"`
	IncumbentFound    bool     `json:"incumbent_found"`
}
