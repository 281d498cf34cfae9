package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/gridtariff/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTariffsReplace(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.ReplaceTariffs([]models.TariffRecord{
		{Month: "2024-01", Provider: "A", City: "X", TierDescriptor: "1", Rate: "10"},
		{Month: "2024-02", Provider: "B", City: "Y", TierDescriptor: "2", Rate: ""},
	}))
	require.NoError(t, db.ReplaceTariffs([]models.TariffRecord{
		{Month: "2024-03", Provider: "C", City: "Z", TierDescriptor: "3", Rate: "30"},
	}))

	got, err := db.ListTariffs()
	require.NoError(t, err)
	assert.Equal(t, []models.TariffRecord{
		{Month: "2024-03", Provider: "C", City: "Z", TierDescriptor: "3", Rate: "30"},
	}, got)
}

func TestReplaceOpportunities(t *testing.T) {
	db := openTestDB(t)

	opps := []models.Opportunity{
		{ID: "OPP-1", ServicePoints: []models.ServicePoint{
			{ID: "F-1", ConsumptionKWh: models.Float(10)},
			{ID: "F-2"},
		}},
		{ID: "OPP-2", ServicePoints: []models.ServicePoint{{ID: "F-3"}}},
	}
	require.NoError(t, db.ReplaceOpportunities(opps))
	require.NoError(t, db.ReplaceOpportunities(opps))

	n, points, err := db.CountOpportunities()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, points)
}

func TestSummariesPublishFlow(t *testing.T) {
	db := openTestDB(t)

	summaries := []models.OpportunitySummary{
		{OpportunityID: "OPP-1", TotalIncumbent: models.Float(100.123), IncumbentByMonth: map[string]*float64{"2024-01": nil}},
		{OpportunityID: "OPP-2"},
	}
	require.NoError(t, db.InsertSummaries("run-1", summaries))
	require.NoError(t, db.InsertSummaries("run-1", summaries))

	all, err := db.ListSummaries(0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	pending, err := db.ListUnpublishedSummaries(0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	first := pending[0]
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, "OPP-1", first.Summary.OpportunityID)
	require.NotNil(t, first.Summary.TotalIncumbent)
	assert.Equal(t, 100.12, *first.Summary.TotalIncumbent)
	assert.Nil(t, first.Summary.Savings)
	assert.Contains(t, first.Summary.IncumbentByMonth, "2024-01")
	assert.False(t, first.Published)

	require.NoError(t, db.MarkPublished(first.ID))

	pending, err = db.ListUnpublishedSummaries(0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "OPP-2", pending[0].Summary.OpportunityID)

	limited, err := db.ListSummaries(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
