package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/gridtariff/pkg/models"
)

const summarySheet = "Summary"

var headerColumns = []string{
	"Opportunity", "Client", "City", "Client Investment", "Rate B", "Opex", "Capex",
	"Total Consumption (kWh)", "Total Renting",
}

var totalColumns = []string{"Total Incumbent", "Total Candidate", "Savings"}

// WriteSummaryWorkbook writes one row per opportunity: header figures, incumbent cost per
// month, candidate cost per month and the three totals. Missing figures are left blank.
func WriteSummaryWorkbook(path string, summaries []models.OpportunitySummary, months []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	headers := append([]string{}, headerColumns...)
	for _, m := range months {
		headers = append(headers, "Incumbent "+m)
	}
	for _, m := range months {
		headers = append(headers, "Candidate "+m)
	}
	headers = append(headers, totalColumns...)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(summarySheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(summarySheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, s := range summaries {
		values := []any{
			s.OpportunityID, s.Client, s.City, s.ClientInvestment, s.RateB, s.Opex, s.Capex,
			s.TotalConsumption, s.TotalRenting,
		}
		for _, m := range months {
			values = append(values, cellValue(s.IncumbentByMonth[m]))
		}
		for _, m := range months {
			values = append(values, cellValue(s.CandidateByMonth[m]))
		}
		values = append(values, cellValue(s.TotalIncumbent), cellValue(s.TotalCandidate), cellValue(s.Savings))

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return fmt.Errorf("writing row for %s: %w", s.OpportunityID, err)
		}
	}

	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(summarySheet, col, col, 18)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// cellValue renders a rounded figure, or nil for a blank cell
func cellValue(v *float64) any {
	if r := models.Round2(v); r != nil {
		return *r
	}
	return nil
}
