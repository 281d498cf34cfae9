package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Oportunidad,Cliente,Calculadora Payback/Número de Cuenta,Calculadora Payback/Ciudad," +
	"Calculadora Payback/Region,Calculadora Payback/Nivel Tension,Calculadora Payback/Propiedad de Equipos," +
	"Calculadora Payback/Operador de Red,Calculadora Payback/Comercializador Actual," +
	"Calculadora Payback/kWh Promedio / Mes,Calculadora Payback/Modem & Medidor," +
	"Costo Total Opex Oportunity,Costo Total Capex Oportunity,Tarifa B,Calculadora Payback/Ciiu\n"

func TestParseOpportunityCSV(t *testing.T) {
	data := header +
		`OPP-2,Acme  SAS,F-1,Bogotá,BOGOTA,Nivel 1,Usuario,ENEL,Enel Colombia,"1,000",50,"2,000","10,000",700,C1` + "\n" +
		`,,F-2,,,Nivel 2,Operador de red,,,500,n/a,,,,` + "\n" +
		`OPP-1,Beta,F-9,Cali,CALI,N/A,,EMCALI,Emcali,abc,0,0,0,0,C2` + "\n"

	opps, err := ParseOpportunityCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, opps, 2)

	assert.Equal(t, "OPP-1", opps[0].ID)
	require.Len(t, opps[0].ServicePoints, 1)
	beta := opps[0].ServicePoints[0]
	assert.Empty(t, beta.TierCode)
	require.NotNil(t, beta.ConsumptionKWh)
	assert.Zero(t, *beta.ConsumptionKWh)

	acme := opps[1]
	assert.Equal(t, "OPP-2", acme.ID)
	assert.Equal(t, "Acme SAS", acme.Client)
	assert.Equal(t, 12000.0, acme.ClientInvestment)
	assert.Equal(t, 2000.0, acme.Opex)
	assert.Equal(t, 10000.0, acme.Capex)
	assert.Equal(t, 700.0, acme.RateB)
	assert.Equal(t, 1500.0, acme.TotalConsumption)
	assert.Equal(t, 50.0, acme.TotalRenting)
	assert.Equal(t, "Bogotá", acme.City)

	require.Len(t, acme.ServicePoints, 2)
	first, second := acme.ServicePoints[0], acme.ServicePoints[1]
	assert.Equal(t, "F-1", first.ID)
	assert.Equal(t, "BOGOTA", first.Region)
	assert.Equal(t, "tier_1_user", first.TierCode)
	assert.Equal(t, "Enel Colombia", first.Provider)
	assert.Equal(t, 1000.0, *first.ConsumptionKWh)

	// identity columns carry over from the row above
	assert.Equal(t, "F-2", second.ID)
	assert.Equal(t, "BOGOTA", second.Region)
	assert.Equal(t, "Enel Colombia", second.Provider)
	assert.Equal(t, "ENEL", second.GridOperator)
	assert.Equal(t, "tier_2_operator", second.TierCode)
	assert.Zero(t, second.Renting)
}

func TestParseOpportunityCSVMissingColumns(t *testing.T) {
	_, err := ParseOpportunityCSV(strings.NewReader("Oportunidad,Cliente\nOPP-1,X\n"))
	require.Error(t, err)

	var mc *MissingColumnsError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "opportunities", mc.Source)
	assert.Contains(t, mc.Columns, "Tarifa B")
	assert.NotContains(t, mc.Columns, "Cliente")
}

func TestLoadOpportunities(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curated.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"opportunity":"OPP-1","service_points":[{"service_point":"F-1","consumption_kwh":null}]}]`), 0644))

	opps, err := LoadOpportunities(path)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	require.Len(t, opps[0].ServicePoints, 1)
	assert.Nil(t, opps[0].ServicePoints[0].ConsumptionKWh)

	_, err = LoadOpportunities(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
