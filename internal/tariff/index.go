// Package tariff builds the lookup structures the rate resolver consults: a composite-tier
// index, a simple-tier index, and the providers available per (month, city, tier).
package tariff

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jgoulah/gridtariff/internal/matcher"
	"github.com/jgoulah/gridtariff/internal/normalize"
	"github.com/jgoulah/gridtariff/pkg/models"
)

// Variant selects which of the two indexes a lookup uses
type Variant int

const (
	Composite Variant = iota
	Simple
)

func (v Variant) String() string {
	if v == Composite {
		return "composite"
	}
	return "simple"
}

// Key identifies a unit rate
type Key struct {
	Month    string
	City     string
	Tier     string
	Provider string
}

// BucketKey identifies the set of providers with a rate at (month, city, tier)
type BucketKey struct {
	Month string
	City  string
	Tier  string
}

// Bucket drops the provider from k
func (k Key) Bucket() BucketKey {
	return BucketKey{Month: k.Month, City: k.City, Tier: k.Tier}
}

// Stats counts what happened to the input records during Build
type Stats struct {
	Total       int
	OutOfRange  int
	InvalidRate int
	Indexed     int
	// Collisions counts index writes that replaced a different rate at the same key
	Collisions int
}

// Index is immutable after Build and safe for concurrent reads
type Index struct {
	rates     [2]map[Key]float64
	providers [2]map[BucketKey][]string
	months    []string
	stats     Stats
}

// Build filters records to rng, canonicalizes their join keys and indexes them.
// canonicalProviders are the provider names the opportunity side uses (alias-table
// values plus the candidate provider); tariff-side names are snapped onto them when
// similar enough. On duplicate keys the later record wins.
func Build(records []models.TariffRecord, rng MonthRange, canonicalProviders []string) *Index {
	ix := &Index{
		rates:     [2]map[Key]float64{make(map[Key]float64), make(map[Key]float64)},
		providers: [2]map[BucketKey][]string{make(map[BucketKey][]string), make(map[BucketKey][]string)},
	}
	targets := matcher.Targets(canonicalProviders)
	canonical := make(map[string]string)
	buckets := [2]map[BucketKey]map[string]struct{}{
		make(map[BucketKey]map[string]struct{}),
		make(map[BucketKey]map[string]struct{}),
	}
	months := make(map[string]struct{})

	for _, rec := range records {
		ix.stats.Total++

		month := MonthKey(rec.Month)
		if !rng.Contains(month) {
			ix.stats.OutOfRange++
			continue
		}
		rate, ok := parseRate(rec.Rate)
		if !ok {
			ix.stats.InvalidRate++
			continue
		}

		rawProvider := normalize.Text(rec.Provider)
		provider, seen := canonical[rawProvider]
		if !seen {
			provider = matcher.Canonicalize(rawProvider, targets)
			canonical[rawProvider] = provider
		}
		city := normalize.Text(rec.City)
		descriptor := strings.Join(strings.Fields(rec.TierDescriptor), " ")

		indexed := false
		if t, ok := normalize.CompositeTier(descriptor); ok {
			ix.put(Composite, Key{month, city, t.Code(), provider}, rate, buckets)
			indexed = true
		}
		if t, ok := normalize.SimpleTier(descriptor); ok {
			ix.put(Simple, Key{month, city, t.Code(), provider}, rate, buckets)
			indexed = true
		}
		if indexed {
			ix.stats.Indexed++
		}
		months[month] = struct{}{}
	}

	for v := range buckets {
		for k, set := range buckets[v] {
			list := make([]string, 0, len(set))
			for p := range set {
				list = append(list, p)
			}
			sort.Strings(list)
			ix.providers[v][k] = list
		}
	}
	for m := range months {
		ix.months = append(ix.months, m)
	}
	sort.Strings(ix.months)
	return ix
}

func (ix *Index) put(v Variant, k Key, rate float64, buckets [2]map[BucketKey]map[string]struct{}) {
	if prev, ok := ix.rates[v][k]; ok && prev != rate {
		ix.stats.Collisions++
	}
	ix.rates[v][k] = rate

	bk := k.Bucket()
	set, ok := buckets[v][bk]
	if !ok {
		set = make(map[string]struct{})
		buckets[v][bk] = set
	}
	set[k.Provider] = struct{}{}
}

func parseRate(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Rate looks up a unit rate
func (ix *Index) Rate(v Variant, k Key) (float64, bool) {
	rate, ok := ix.rates[v][k]
	return rate, ok
}

// Providers lists, sorted, the providers with a rate at k in the given index
func (ix *Index) Providers(v Variant, k BucketKey) []string {
	return ix.providers[v][k]
}

// Months returns the sorted months that survived filtering with a valid rate
func (ix *Index) Months() []string {
	return ix.months
}

// Stats returns the build counters
func (ix *Index) Stats() Stats {
	return ix.stats
}

// Len returns the number of keys in the given index
func (ix *Index) Len(v Variant) int {
	return len(ix.rates[v])
}
