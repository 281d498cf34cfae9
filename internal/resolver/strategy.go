package resolver

import (
	"github.com/jgoulah/gridtariff/internal/matcher"
	"github.com/jgoulah/gridtariff/internal/tariff"
)

// Strategy is one step of the lookup policy. Fuzzy strategies replace the provider
// with the most similar provider available at the same (month, city, tier).
type Strategy struct {
	Name    string
	Variant tariff.Variant
	Fuzzy   bool
}

var (
	CompositeExact = Strategy{Name: "composite", Variant: tariff.Composite}
	SimpleExact    = Strategy{Name: "simple", Variant: tariff.Simple}
	CompositeFuzzy = Strategy{Name: "fuzzy-composite", Variant: tariff.Composite, Fuzzy: true}
	SimpleFuzzy    = Strategy{Name: "fuzzy-simple", Variant: tariff.Simple, Fuzzy: true}
)

// CandidatePolicy is used for the candidate provider, whose name is already canonical
var CandidatePolicy = []Strategy{CompositeExact, SimpleExact}

// IncumbentPolicy is used for the customer's current provider
var IncumbentPolicy = []Strategy{CompositeExact, SimpleExact, CompositeFuzzy, SimpleFuzzy}

// lookup holds the join keys of one service point for one month.
// tiers is indexed by tariff.Variant; an empty code means the variant is unavailable.
type lookup struct {
	month string
	city  string
	tiers [2]string
}

// Resolution is the outcome of running a policy for one provider
type Resolution struct {
	Rate     *float64
	Strategy Strategy
	Provider string   // provider key that produced the rate
	Score    *float64 // set when a fuzzy strategy produced the rate
}

// Found reports whether a rate was resolved
func (r Resolution) Found() bool {
	return r.Rate != nil
}

// run tries each strategy in order and returns the first hit
func run(ix *tariff.Index, policy []Strategy, l lookup, provider string) Resolution {
	for _, s := range policy {
		tier := l.tiers[s.Variant]
		if tier == "" {
			continue
		}
		key := tariff.Key{Month: l.month, City: l.city, Tier: tier, Provider: provider}

		if !s.Fuzzy {
			if rate, ok := ix.Rate(s.Variant, key); ok {
				return Resolution{Rate: &rate, Strategy: s, Provider: provider}
			}
			continue
		}

		best, score, ok := matcher.BestMatch(provider, ix.Providers(s.Variant, key.Bucket()))
		if !ok || !matcher.Accept(score) {
			continue
		}
		key.Provider = best
		if rate, ok := ix.Rate(s.Variant, key); ok {
			return Resolution{Rate: &rate, Strategy: s, Provider: best, Score: &score}
		}
	}
	return Resolution{}
}
