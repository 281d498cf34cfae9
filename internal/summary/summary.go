// Package summary rolls monthly service point costs up to one report per opportunity.
package summary

import (
	"sort"

	"github.com/jgoulah/gridtariff/pkg/models"
)

// sum accumulates optional values. A sum that never saw a value stays nil.
type sum struct {
	v *float64
}

func (s *sum) add(v *float64) {
	if v == nil {
		return
	}
	if s.v == nil {
		s.v = new(float64)
	}
	*s.v += *v
}

// Aggregate builds one summary per opportunity seen in either opps or analyses,
// sorted by opportunity id. Header fields come from the matching entry of opps; an
// opportunity without one carries its id and client only. An opportunity with no
// analysis gets empty month maps and nil totals.
func Aggregate(opps []models.Opportunity, analyses []models.OpportunityAnalysis) []models.OpportunitySummary {
	headers := make(map[string]models.Opportunity, len(opps))
	for _, o := range opps {
		headers[o.ID] = o
	}

	type monthSums struct {
		incumbent map[string]*sum
		candidate map[string]*sum
	}
	byOpp := make(map[string]*monthSums)
	clients := make(map[string]string)
	var ids []string

	for _, a := range analyses {
		ms, ok := byOpp[a.OpportunityID]
		if !ok {
			ms = &monthSums{incumbent: map[string]*sum{}, candidate: map[string]*sum{}}
			byOpp[a.OpportunityID] = ms
			clients[a.OpportunityID] = a.Client
			ids = append(ids, a.OpportunityID)
		}
		for _, sp := range a.ServicePoints {
			for _, row := range sp.Months {
				if _, ok := ms.incumbent[row.Month]; !ok {
					ms.incumbent[row.Month] = &sum{}
					ms.candidate[row.Month] = &sum{}
				}
				ms.incumbent[row.Month].add(row.IncumbentCost)
				ms.candidate[row.Month].add(row.CandidateCost)
			}
		}
	}
	for _, o := range opps {
		if _, ok := byOpp[o.ID]; ok {
			continue
		}
		byOpp[o.ID] = &monthSums{incumbent: map[string]*sum{}, candidate: map[string]*sum{}}
		ids = append(ids, o.ID)
	}
	sort.Strings(ids)

	out := make([]models.OpportunitySummary, 0, len(ids))
	for _, id := range ids {
		s := header(id, clients[id], headers)
		ms := byOpp[id]

		var totalInc, totalCand sum
		s.IncumbentByMonth = make(map[string]*float64, len(ms.incumbent))
		s.CandidateByMonth = make(map[string]*float64, len(ms.candidate))
		for month, v := range ms.incumbent {
			s.IncumbentByMonth[month] = v.v
			totalInc.add(v.v)
		}
		for month, v := range ms.candidate {
			s.CandidateByMonth[month] = v.v
			totalCand.add(v.v)
		}
		s.TotalIncumbent = totalInc.v
		s.TotalCandidate = totalCand.v
		if s.TotalIncumbent != nil && s.TotalCandidate != nil {
			savings := *s.TotalIncumbent - *s.TotalCandidate
			s.Savings = &savings
		}
		out = append(out, s)
	}
	return out
}

func header(id, client string, headers map[string]models.Opportunity) models.OpportunitySummary {
	o, ok := headers[id]
	if !ok {
		return models.OpportunitySummary{OpportunityID: id, Client: client}
	}
	return models.OpportunitySummary{
		OpportunityID:    id,
		Client:           o.Client,
		ClientInvestment: o.ClientInvestment,
		RateB:            o.RateB,
		Opex:             o.Opex,
		Capex:            o.Capex,
		TotalConsumption: o.TotalConsumption,
		TotalRenting:     o.TotalRenting,
		City:             o.City,
	}
}

// Months returns the sorted union of months across summaries, used for column layouts
func Months(summaries []models.OpportunitySummary) []string {
	seen := make(map[string]struct{})
	for _, s := range summaries {
		for m := range s.IncumbentByMonth {
			seen[m] = struct{}{}
		}
		for m := range s.CandidateByMonth {
			seen[m] = struct{}{}
		}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}
