package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "BIA ENERGY", cfg.GetCandidateProvider())
	assert.Equal(t, "outputs", cfg.GetOutputDir())
	assert.Equal(t, 1, cfg.GetWorkers())
	assert.Equal(t, 30*time.Second, cfg.GetTimeout())
	assert.Equal(t, "gridtariff", cfg.MQTT.GetTopicPrefix())
	assert.True(t, errors.Is(cfg.ValidateSource(), ErrSourceNotConfigured))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
tariff_source:
  endpoint: https://example.invalid/tariffs
  resource_id: 15480
  timeout_seconds: 5
candidate_provider: OTHER ENERGY
mappings:
  cities: maps/cities.json
workers: 4
mqtt:
  enabled: true
  broker: localhost:1883
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateSource())
	assert.Equal(t, 15480, cfg.TariffSource.ResourceID)
	assert.Equal(t, 5*time.Second, cfg.GetTimeout())
	assert.Equal(t, "OTHER ENERGY", cfg.GetCandidateProvider())
	assert.Equal(t, "maps/cities.json", cfg.Mappings.Cities)
	assert.Empty(t, cfg.Mappings.Providers)
	assert.Equal(t, 4, cfg.GetWorkers())
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "localhost:1883", cfg.MQTT.Broker)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1, 2"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := &Config{OutputDir: "out", MetricsFile: "metrics.prom"}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out", loaded.GetOutputDir())
	assert.Equal(t, "metrics.prom", loaded.MetricsFile)
}
