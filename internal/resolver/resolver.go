// Package resolver resolves candidate and incumbent unit rates for each service point
// and month, and derives costs, unit-rate delta and savings from them.
package resolver

import (
	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/gridtariff/internal/mapping"
	"github.com/jgoulah/gridtariff/internal/normalize"
	"github.com/jgoulah/gridtariff/internal/tariff"
	"github.com/jgoulah/gridtariff/pkg/models"
)

// Resolver reads from an immutable index; it is safe for concurrent use
type Resolver struct {
	index     *tariff.Index
	cities    mapping.Table
	providers mapping.Table
	candidate string
	workers   int
}

// Option configures a Resolver
type Option func(*Resolver)

// WithCityAliases sets the opportunity-city to tariff-city table
func WithCityAliases(t mapping.Table) Option {
	return func(r *Resolver) {
		if t != nil {
			r.cities = t
		}
	}
}

// WithProviderAliases sets the provider-name table
func WithProviderAliases(t mapping.Table) Option {
	return func(r *Resolver) {
		if t != nil {
			r.providers = t
		}
	}
}

// WithCandidateProvider sets the provider whose tariff is evaluated against the incumbent
func WithCandidateProvider(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.candidate = name
		}
	}
}

// WithWorkers sets how many service points Analyze resolves concurrently
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// New creates a resolver over ix. Without WithCandidateProvider no candidate rate
// can resolve.
func New(ix *tariff.Index, opts ...Option) *Resolver {
	r := &Resolver{
		index:     ix,
		cities:    mapping.Table{},
		providers: mapping.Table{},
		workers:   1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// pointKeys are the month-independent join keys of a service point
type pointKeys struct {
	cityInput     string
	city          string
	composite     string
	simple        string
	providerInput string
	provider      string
	candidate     string
}

func (r *Resolver) keysFor(sp models.ServicePoint) pointKeys {
	cityRaw := sp.Region
	if cityRaw == "" {
		cityRaw = sp.City
	}
	k := pointKeys{
		cityInput:     normalize.Text(cityRaw),
		city:          r.cities.Lookup(cityRaw),
		providerInput: normalize.Text(sp.Provider),
		provider:      r.providers.Lookup(sp.Provider),
		candidate:     r.providers.Lookup(r.candidate),
	}

	if sp.TierCode != "" {
		if t, ok := normalize.CompositeTier(sp.TierCode); ok {
			k.composite = t.Code()
		}
		if t, ok := normalize.SimpleTier(sp.TierCode); ok {
			k.simple = t.Code()
		}
	} else if t, ok := normalize.ServicePointTier(sp.Ownership, sp.TierDescriptor); ok {
		if t.IsComposite() {
			k.composite = t.Code()
		}
		k.simple = t.Simple().Code()
	}
	return k
}

// ResolveMonth resolves one service point for one month
func (r *Resolver) ResolveMonth(opportunityID string, sp models.ServicePoint, month string) (models.MonthlyCostRow, models.AuditRow) {
	return r.resolveMonth(opportunityID, sp, r.keysFor(sp), month)
}

func (r *Resolver) resolveMonth(opportunityID string, sp models.ServicePoint, k pointKeys, month string) (models.MonthlyCostRow, models.AuditRow) {
	l := lookup{month: month, city: k.city}
	l.tiers[tariff.Composite] = k.composite
	l.tiers[tariff.Simple] = k.simple

	cand := run(r.index, CandidatePolicy, l, k.candidate)
	inc := run(r.index, IncumbentPolicy, l, k.provider)

	row := models.MonthlyCostRow{
		Month:          month,
		CandidateRate:  cand.Rate,
		IncumbentRate:  inc.Rate,
		ConsumptionKWh: sp.ConsumptionKWh,
	}
	row.CandidateCost = product(sp.ConsumptionKWh, cand.Rate)
	row.IncumbentCost = product(sp.ConsumptionKWh, inc.Rate)
	row.UnitDelta = difference(inc.Rate, cand.Rate)
	row.MonthlySavings = difference(row.IncumbentCost, row.CandidateCost)

	audit := models.AuditRow{
		OpportunityID:  opportunityID,
		ServicePointID: sp.ID,
		Month:          month,
		CityTariff:     k.city,
		CompositeTier:  k.composite,
		SimpleTier:     k.simple,
		ProviderInput:  k.providerInput,
		ProviderMapped: k.provider,
		CandidateFound: cand.Found(),
		IncumbentFound: inc.Found(),
	}
	if cand.Found() {
		audit.CandidateStrategy = cand.Strategy.Name
	}
	if inc.Found() {
		audit.IncumbentStrategy = inc.Strategy.Name
		audit.TierVariant = inc.Strategy.Variant.String()
		audit.ProviderUsed = inc.Provider
		audit.FallbackUsed = inc.Strategy.Fuzzy
		audit.FallbackScore = inc.Score
	}
	return row, audit
}

// ResolveServicePoint resolves every month of the index for one service point
func (r *Resolver) ResolveServicePoint(opportunityID string, sp models.ServicePoint) (models.ServicePointAnalysis, []models.AuditRow) {
	k := r.keysFor(sp)
	months := r.index.Months()

	out := models.ServicePointAnalysis{
		ServicePointID: sp.ID,
		CityInput:      k.cityInput,
		CityTariff:     k.city,
		TierCode:       k.composite,
		ProviderInput:  k.providerInput,
		ProviderTariff: k.provider,
		Months:         make([]models.MonthlyCostRow, 0, len(months)),
	}
	if out.TierCode == "" {
		out.TierCode = k.simple
	}
	audits := make([]models.AuditRow, 0, len(months))
	for _, m := range months {
		row, audit := r.resolveMonth(opportunityID, sp, k, m)
		out.Months = append(out.Months, row)
		audits = append(audits, audit)
	}
	return out, audits
}

// Analyze resolves every service point of every opportunity. Output order follows the
// input order regardless of the number of workers.
func (r *Resolver) Analyze(opps []models.Opportunity) ([]models.OpportunityAnalysis, []models.AuditRow) {
	results := make([]models.OpportunityAnalysis, len(opps))
	audits := make([][][]models.AuditRow, len(opps))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, opp := range opps {
		results[i] = models.OpportunityAnalysis{
			OpportunityID: opp.ID,
			Client:        opp.Client,
			ServicePoints: make([]models.ServicePointAnalysis, len(opp.ServicePoints)),
		}
		audits[i] = make([][]models.AuditRow, len(opp.ServicePoints))
		for j, sp := range opp.ServicePoints {
			i, j, opp, sp := i, j, opp, sp // per-iteration copies (pre-Go 1.22 loop semantics)
			g.Go(func() error {
				results[i].ServicePoints[j], audits[i][j] = r.ResolveServicePoint(opp.ID, sp)
				return nil
			})
		}
	}
	_ = g.Wait()

	var flat []models.AuditRow
	for _, perOpp := range audits {
		for _, perPoint := range perOpp {
			flat = append(flat, perPoint...)
		}
	}
	return results, flat
}

func product(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a * *b
	return &v
}

func difference(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}
