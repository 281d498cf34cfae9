package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jgoulah/gridtariff/internal/normalize"
	"github.com/jgoulah/gridtariff/pkg/models"
)

// CRM export columns
const (
	colOpportunity = "Oportunidad"
	colClient      = "Cliente"
	colConsumption = "Calculadora Payback/kWh Promedio / Mes"
	colRegion      = "Calculadora Payback/Region"
	colOpex        = "Costo Total Opex Oportunity"
	colCapex       = "Costo Total Capex Oportunity"
	colRateB       = "Tarifa B"
	colRenting     = "Calculadora Payback/Modem & Medidor"
	colCIIU        = "Calculadora Payback/Ciiu"
	colAccount     = "Calculadora Payback/Número de Cuenta"
	colCity        = "Calculadora Payback/Ciudad"
	colTension     = "Calculadora Payback/Nivel Tension"
	colOwnership   = "Calculadora Payback/Propiedad de Equipos"
	colGridOp      = "Calculadora Payback/Operador de Red"
	colProvider    = "Calculadora Payback/Comercializador Actual"
)

var requiredOpportunityColumns = []string{
	colOpportunity, colClient, colConsumption, colRegion, colOpex, colCapex,
	colRateB, colRenting, colCIIU,
}

// Columns the export only fills on the first row of a block; blanks inherit the value above
var forwardFilled = []string{
	colOpportunity, colClient, colAccount, colCity, colCIIU, colRegion, colTension,
	colOwnership, colGridOp, colProvider, colRateB, colOpex, colCapex,
}

func opportunityHeaderKey(col string) string {
	return strings.Join(strings.Fields(col), " ")
}

// ParseOpportunityCSV turns the flat CRM export (one row per service point) into
// opportunities with nested service points, sorted by opportunity id. Rows that end up
// without an opportunity id are dropped.
func ParseOpportunityCSV(r io.Reader) ([]models.Opportunity, error) {
	t, err := readTable(r, opportunityHeaderKey)
	if err != nil {
		return nil, err
	}
	if missing := t.missing(requiredOpportunityColumns); len(missing) > 0 {
		return nil, &MissingColumnsError{Source: "opportunities", Columns: missing}
	}

	last := make(map[string]string, len(forwardFilled))
	groups := make(map[string][]map[string]string)
	for _, row := range t.rows {
		rec := make(map[string]string, len(t.header))
		for col := range t.header {
			rec[col] = clean(t.get(row, col))
		}
		for _, col := range forwardFilled {
			if rec[col] == "" {
				rec[col] = last[col]
			} else {
				last[col] = rec[col]
			}
		}
		id := rec[colOpportunity]
		if id == "" {
			continue
		}
		groups[id] = append(groups[id], rec)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.Opportunity, 0, len(ids))
	for _, id := range ids {
		out = append(out, buildOpportunity(id, groups[id]))
	}
	return out, nil
}

func buildOpportunity(id string, rows []map[string]string) models.Opportunity {
	opex := parseNumber(firstNonEmpty(rows, colOpex))
	capex := parseNumber(firstNonEmpty(rows, colCapex))
	opp := models.Opportunity{
		ID:               id,
		Client:           firstNonEmpty(rows, colClient),
		ClientInvestment: capex + opex,
		RateB:            parseNumber(firstNonEmpty(rows, colRateB)),
		Opex:             opex,
		Capex:            capex,
		City:             firstNonEmpty(rows, colCity),
		ServicePoints:    make([]models.ServicePoint, 0, len(rows)),
	}

	for _, rec := range rows {
		kwh := parseNumber(rec[colConsumption])
		renting := parseNumber(rec[colRenting])
		opp.TotalConsumption += kwh
		opp.TotalRenting += renting

		sp := models.ServicePoint{
			ID:             rec[colAccount],
			Region:         rec[colRegion],
			City:           rec[colCity],
			TierDescriptor: rec[colTension],
			Ownership:      rec[colOwnership],
			ConsumptionKWh: models.Float(kwh),
			Renting:        renting,
			GridOperator:   rec[colGridOp],
			Provider:       rec[colProvider],
		}
		if tier, ok := normalize.ServicePointTier(sp.Ownership, sp.TierDescriptor); ok {
			sp.TierCode = tier.Code()
		}
		opp.ServicePoints = append(opp.ServicePoints, sp)
	}
	return opp
}

func firstNonEmpty(rows []map[string]string, col string) string {
	for _, rec := range rows {
		if rec[col] != "" {
			return rec[col]
		}
	}
	return ""
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LoadOpportunityCSV parses a CRM export from disk
func LoadOpportunityCSV(path string) ([]models.Opportunity, error) {
	path = strings.Trim(strings.TrimSpace(path), `"'`)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening opportunities file: %w", err)
	}
	defer f.Close()

	opps, err := ParseOpportunityCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return opps, nil
}

// LoadOpportunities reads curated opportunities written by the curate command
func LoadOpportunities(path string) ([]models.Opportunity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading curated opportunities: %w", err)
	}
	var opps []models.Opportunity
	if err := json.Unmarshal(data, &opps); err != nil {
		return nil, fmt.Errorf("parsing curated opportunities: %w", err)
	}
	return opps, nil
}
