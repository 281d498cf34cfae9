package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/gridtariff/pkg/models"
)

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	rows := []models.MonthlyCostRow{{
		Month:         "2024-07",
		CandidateRate: models.Float(150.004),
		CandidateCost: models.Float(150004.123),
	}}

	require.NoError(t, WriteJSON(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"month\": \"2024-07\"")

	var back []map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 1)
	assert.Equal(t, 150.0, back[0]["candidate_rate"])
	assert.Equal(t, 150004.12, back[0]["candidate_cost"])
	assert.Nil(t, back[0]["incumbent_rate"])
}

func TestWriteJSONKeepsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteJSON(path, map[string]string{"city": "Bogotá <D.C.>"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Bogotá <D.C.>")
}

func TestWriteSummaryWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	summaries := []models.OpportunitySummary{{
		OpportunityID:    "OPP-1",
		Client:           "Acme",
		IncumbentByMonth: map[string]*float64{"2024-07": models.Float(100.456), "2024-08": nil},
		CandidateByMonth: map[string]*float64{"2024-07": models.Float(80), "2024-08": models.Float(70)},
		TotalIncumbent:   models.Float(100.456),
		TotalCandidate:   models.Float(150),
	}}

	require.NoError(t, WriteSummaryWorkbook(path, summaries, []string{"2024-07", "2024-08"}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header := rows[0]
	assert.Equal(t, "Opportunity", header[0])
	assert.Equal(t, "Incumbent 2024-07", header[9])
	assert.Equal(t, "Incumbent 2024-08", header[10])
	assert.Equal(t, "Candidate 2024-07", header[11])
	assert.Equal(t, "Savings", header[len(header)-1])

	inc, err := f.GetCellValue(summarySheet, "J2")
	require.NoError(t, err)
	assert.Equal(t, "100.46", inc)

	blank, err := f.GetCellValue(summarySheet, "K2")
	require.NoError(t, err)
	assert.Empty(t, blank)

	savings, err := f.GetCellValue(summarySheet, "P2")
	require.NoError(t, err)
	assert.Empty(t, savings)
}
