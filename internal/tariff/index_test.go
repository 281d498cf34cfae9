package tariff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/gridtariff/internal/normalize"
	"github.com/jgoulah/gridtariff/pkg/models"
)

func rec(month, provider, city, tier, rate string) models.TariffRecord {
	return models.TariffRecord{Month: month, Provider: provider, City: city, TierDescriptor: tier, Rate: rate}
}

func TestBuildIndexesBothVariants(t *testing.T) {
	records := []models.TariffRecord{
		rec("2024-07", "Bia Energy S.A.S. E.S.P.", "Bogotá", "Nivel 1 Usuario", "150.5"),
		rec("2024-07", "VATIA", "BOGOTA", "Nivel 2", "701.2"),
	}
	ix := Build(records, MonthRange{"2024-07", "2024-07"}, []string{"BIA ENERGY"})

	rate, ok := ix.Rate(Composite, Key{"2024-07", "BOGOTA", "tier_1_user", "BIA ENERGY"})
	require.True(t, ok)
	assert.Equal(t, 150.5, rate)

	rate, ok = ix.Rate(Simple, Key{"2024-07", "BOGOTA", "tier_1", "BIA ENERGY"})
	require.True(t, ok)
	assert.Equal(t, 150.5, rate)

	_, ok = ix.Rate(Composite, Key{"2024-07", "BOGOTA", "tier_2_user", "VATIA"})
	assert.False(t, ok, "simple-only descriptor is absent from the composite index")

	rate, ok = ix.Rate(Simple, Key{"2024-07", "BOGOTA", "tier_2", "VATIA"})
	require.True(t, ok)
	assert.Equal(t, 701.2, rate)

	assert.Equal(t, 1, ix.Len(Composite))
	assert.Equal(t, 2, ix.Len(Simple))
	assert.Equal(t, []string{"2024-07"}, ix.Months())
}

func TestBuildRoundTrip(t *testing.T) {
	records := []models.TariffRecord{
		rec("2024-01", "CELSIA", "CALI", "NIVEL 1 OPERADOR", "600"),
		rec("2024-02", "CELSIA", "CALI", "NIVEL 1 OPERADOR", "610"),
		rec("2024-02", "ENEL", "BOGOTA", "NIVEL 3 COMPARTIDO", "520.75"),
		rec("2024-03", "EPM", "MEDELLIN", "NIVEL_2_USER", "480"),
	}
	ix := Build(records, MonthRange{"2024-01", "2024-03"}, nil)

	for _, r := range records {
		comp, ok := normalize.CompositeTier(r.TierDescriptor)
		require.True(t, ok)
		rate, ok := ix.Rate(Composite, Key{MonthKey(r.Month), r.City, comp.Code(), r.Provider})
		require.True(t, ok, "%+v", r)
		want, _ := parseRate(r.Rate)
		assert.Equal(t, want, rate)
	}
}

func TestBuildMonthRangeFilter(t *testing.T) {
	records := []models.TariffRecord{
		rec("2024-02", "ENEL", "BOGOTA", "Nivel 1", "1"),
		rec("2024-03-01", "ENEL", "BOGOTA", "Nivel 1", "2"),
		rec("2024-06", "ENEL", "BOGOTA", "Nivel 1", "3"),
		rec("2024-07", "ENEL", "BOGOTA", "Nivel 1", "4"),
	}
	ix := Build(records, MonthRange{"2024-03", "2024-06"}, nil)

	assert.Equal(t, []string{"2024-03", "2024-06"}, ix.Months())
	_, ok := ix.Rate(Simple, Key{"2024-02", "BOGOTA", "tier_1", "ENEL"})
	assert.False(t, ok)
	_, ok = ix.Rate(Simple, Key{"2024-07", "BOGOTA", "tier_1", "ENEL"})
	assert.False(t, ok)
	rate, ok := ix.Rate(Simple, Key{"2024-03", "BOGOTA", "tier_1", "ENEL"})
	assert.True(t, ok)
	assert.Equal(t, 2.0, rate)
	assert.Equal(t, 2, ix.Stats().OutOfRange)
}

func TestBuildDropsInvalidRates(t *testing.T) {
	records := []models.TariffRecord{
		rec("2024-07", "ENEL", "BOGOTA", "Nivel 1", ""),
		rec("2024-07", "ENEL", "BOGOTA", "Nivel 2", "n/a"),
		rec("2024-07", "ENEL", "BOGOTA", "Nivel 3", "NaN"),
		rec("2024-07", "ENEL", "BOGOTA", "Nivel 3", "+Inf"),
		rec("2024-07", "ENEL", "CALI", "Nivel 3", " 99.5 "),
	}
	ix := Build(records, MonthRange{"2024-01", "2024-12"}, nil)

	s := ix.Stats()
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 4, s.InvalidRate)
	assert.Equal(t, 1, s.Indexed)
	assert.Equal(t, 1, ix.Len(Simple))
}

func TestBuildLastWriteWins(t *testing.T) {
	records := []models.TariffRecord{
		rec("2024-07", "ENEL", "BOGOTA", "Nivel 1 usuario", "100"),
		rec("2024-07", "ENEL", "BOGOTA", "Nivel 1 usuario", "120"),
		rec("2024-07", "ENEL", "BOGOTA", "Nivel 1 usuario", "120"),
	}
	ix := Build(records, MonthRange{"2024-07", "2024-07"}, nil)

	rate, ok := ix.Rate(Composite, Key{"2024-07", "BOGOTA", "tier_1_user", "ENEL"})
	require.True(t, ok)
	assert.Equal(t, 120.0, rate)
	// one change in each index; the identical third write is not a collision
	assert.Equal(t, 2, ix.Stats().Collisions)
}

func TestBuildProviderBuckets(t *testing.T) {
	records := []models.TariffRecord{
		rec("2024-07", "VATIA", "BOGOTA", "Nivel 1 usuario", "1"),
		rec("2024-07", "ENEL", "BOGOTA", "Nivel 1 usuario", "2"),
		rec("2024-07", "CELSIA", "BOGOTA", "Nivel 1", "3"),
	}
	ix := Build(records, MonthRange{"2024-07", "2024-07"}, nil)

	assert.Equal(t, []string{"ENEL", "VATIA"}, ix.Providers(Composite, BucketKey{"2024-07", "BOGOTA", "tier_1_user"}))
	assert.Equal(t, []string{"CELSIA", "ENEL", "VATIA"}, ix.Providers(Simple, BucketKey{"2024-07", "BOGOTA", "tier_1"}))
	assert.Empty(t, ix.Providers(Simple, BucketKey{"2024-07", "CALI", "tier_1"}))
}

func TestBuildCanonicalizesProviders(t *testing.T) {
	records := []models.TariffRecord{
		rec("2024-07", "Enel Codensa S.A. E.S.P.", "BOGOTA", "Nivel 1", "1"),
		rec("2024-07", "CODENSA", "BOGOTA", "Nivel 2", "2"),
		rec("2024-07", "Empresa Desconocida", "BOGOTA", "Nivel 3", "3"),
	}
	ix := Build(records, MonthRange{"2024-07", "2024-07"}, []string{"enel codensa", "BIA ENERGY"})

	_, ok := ix.Rate(Simple, Key{"2024-07", "BOGOTA", "tier_1", "ENEL CODENSA"})
	assert.True(t, ok)
	_, ok = ix.Rate(Simple, Key{"2024-07", "BOGOTA", "tier_2", "ENEL CODENSA"})
	assert.True(t, ok, "CODENSA scores 0.5 against ENEL CODENSA")
	_, ok = ix.Rate(Simple, Key{"2024-07", "BOGOTA", "tier_3", "EMPRESA DESCONOCIDA"})
	assert.True(t, ok, "unmatched providers keep their normalized name")
}
