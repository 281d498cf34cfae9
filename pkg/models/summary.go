package models

import "encoding/json"

// OpportunitySummary is the per-opportunity monthly and annual cost report
type OpportunitySummary struct {
	OpportunityID    string              `json:"opportunity"`
	Client           string              `json:"client"`
	ClientInvestment float64             `json:"client_investment"`
	RateB            float64             `json:"rate_b"`
	Opex             float64             `json:"opex"`
	Capex            float64             `json:"capex"`
	TotalConsumption float64             `json:"total_consumption"`
	TotalRenting     float64             `json:"total_renting"`
	City             string              `json:"city"`
	IncumbentByMonth map[string]*float64 `json:"incumbent_cost_by_month"`
	CandidateByMonth map[string]*float64 `json:"candidate_cost_by_month"`
	TotalIncumbent   *float64            `json:"total_incumbent_cost"`
	TotalCandidate   *float64            `json:"total_candidate_cost"`
	Savings          *float64            `json:"savings"`
}

// MarshalJSON rounds every currency figure to 2 decimals
func (s OpportunitySummary) MarshalJSON() ([]byte, error) {
	type plain OpportunitySummary
	out := plain(s)
	out.IncumbentByMonth = roundMonths(s.IncumbentByMonth)
	out.CandidateByMonth = roundMonths(s.CandidateByMonth)
	out.TotalIncumbent = Round2(s.TotalIncumbent)
	out.TotalCandidate = Round2(s.TotalCandidate)
	out.Savings = Round2(s.Savings)
	return json.Marshal(out)
}

func roundMonths(in map[string]*float64) map[string]*float64 {
	out := make(map[string]*float64, len(in))
	for month, v := range in {
		out[month] = Round2(v)
	}
	return out
}
