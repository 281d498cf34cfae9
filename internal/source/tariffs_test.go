package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tariffCSV = "mes,provider,city,nivel_de_tension,tarifa\n" +
	"2024-07-01,BIA ENERGY,BOGOTA,Nivel 1 Propiedad Usuario,150.5\n" +
	"2024-07-01,ENEL,Bogotá,Nivel 2,\n" +
	",,,,\n"

func TestParseTariffCSV(t *testing.T) {
	records, err := ParseTariffCSV(strings.NewReader(tariffCSV))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2024-07-01", records[0].Month)
	assert.Equal(t, "BIA ENERGY", records[0].Provider)
	assert.Equal(t, "Nivel 1 Propiedad Usuario", records[0].TierDescriptor)
	assert.Equal(t, "150.5", records[0].Rate)
	assert.Equal(t, "Bogotá", records[1].City)
	assert.Empty(t, records[1].Rate)
}

func TestParseTariffCSVHeaderAliases(t *testing.T) {
	data := "\ufeffMonth,Comercializador,Ciudad,Nivel de Tensión,Rate\n2024-01,X,Y,1,2\n"
	records, err := ParseTariffCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-01", records[0].Month)
	assert.Equal(t, "1", records[0].TierDescriptor)
}

func TestParseTariffCSVMissingColumns(t *testing.T) {
	_, err := ParseTariffCSV(strings.NewReader("mes,provider\n2024-01,X\n"))
	require.Error(t, err)

	var mc *MissingColumnsError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "tariffs", mc.Source)
	assert.Equal(t, []string{"city", "tier_descriptor", "rate"}, mc.Columns)
}

func TestTariffClientFetch(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/lookup", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))

		var body map[string]int
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 15480, body["resource_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"csv_url": "` + srvURL + `/export.csv"}`))
	})
	mux.HandleFunc("/export.csv", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(tariffCSV))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	client := NewTariffClient(srv.URL+"/lookup", 15480, 5*time.Second)
	records, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestTariffClientPrefersIframeURL(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte(`{"url": "` + srvURL + `/wrong", "iframeUrl": "` + srvURL + `/right"}`))
		case "/right":
			_, _ = w.Write([]byte("ok"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	data, err := NewTariffClient(srv.URL, 1, 0).FetchCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestTariffClientErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewTariffClient(srv.URL, 1, time.Second).Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("no location", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"other": "x"}`))
		}))
		defer srv.Close()

		_, err := NewTariffClient(srv.URL, 1, time.Second).Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no CSV location")
	})
}
