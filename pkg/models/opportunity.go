package models

// Opportunity is one commercial opportunity with its metered service points
type Opportunity struct {
	ID                string         `json:"opportunity"`
	Client            string         `json:"client"`
	ClientInvestment  float64        `json:"client_investment"`
	RateB             float64        `json:"rate_b"`
	Opex              float64        `json:"opex"`
	Capex             float64        `json:"capex"`
	TotalConsumption  float64        `json:"total_consumption"`
	TotalRenting      float64        `json:"total_renting"`
	City              string         `json:"city"`
	CandidateProvider string         `json:"candidate_provider,omitempty"`
	ServicePoints     []ServicePoint `json:"service_points"`
}

// ServicePoint is a single metered connection ("frontera") within an opportunity
type ServicePoint struct {
	ID             string   `json:"service_point"`
	Region         string   `json:"region"` // joins against the tariff city
	City           string   `json:"city"`
	TierDescriptor string   `json:"tier_descriptor,omitempty"`
	Ownership      string   `json:"ownership,omitempty"`
	TierCode       string   `json:"tier_code,omitempty"` // tier_1_user, tier_1 or empty
	ConsumptionKWh *float64 `json:"consumption_kwh"`
	Renting        float64  `json:"renting"`
	GridOperator   string   `json:"grid_operator,omitempty"`
	Provider       string   `json:"provider"`
}
