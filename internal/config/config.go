package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrSourceNotConfigured is returned when the tariff endpoint or resource id is missing
var ErrSourceNotConfigured = errors.New("tariff source not configured: set tariff_source.endpoint and tariff_source.resource_id")

const (
	defaultCandidateProvider = "BIA ENERGY"
	defaultOutputDir         = "outputs"
	defaultTimeout           = 30 * time.Second
	defaultTopicPrefix       = "gridtariff"
)

// Config holds the application configuration
type Config struct {
	TariffSource      TariffSourceConfig `yaml:"tariff_source"`
	CandidateProvider string             `yaml:"candidate_provider,omitempty"` // fallback: BIA ENERGY
	Mappings          MappingsConfig     `yaml:"mappings,omitempty"`
	OutputDir         string             `yaml:"output_dir,omitempty"` // fallback: outputs
	Workers           int                `yaml:"workers,omitempty"`
	MetricsFile       string             `yaml:"metrics_file,omitempty"` // node-exporter textfile
	MQTT              MQTTConfig         `yaml:"mqtt,omitempty"`
}

// TariffSourceConfig locates the published tariff table
type TariffSourceConfig struct {
	Endpoint       string `yaml:"endpoint"`
	ResourceID     int    `yaml:"resource_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// MappingsConfig holds alias table paths. Empty paths are searched for.
type MappingsConfig struct {
	Cities    string `yaml:"cities,omitempty"`
	Providers string `yaml:"providers,omitempty"`
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// ValidateSource reports ErrSourceNotConfigured unless endpoint and resource id are set
func (c *Config) ValidateSource() error {
	if c.TariffSource.Endpoint == "" || c.TariffSource.ResourceID <= 0 {
		return ErrSourceNotConfigured
	}
	return nil
}

// GetCandidateProvider returns the provider evaluated against incumbents
func (c *Config) GetCandidateProvider() string {
	if c.CandidateProvider == "" {
		return defaultCandidateProvider
	}
	return c.CandidateProvider
}

// GetOutputDir returns the directory output documents are written to
func (c *Config) GetOutputDir() string {
	if c.OutputDir == "" {
		return defaultOutputDir
	}
	return c.OutputDir
}

// GetWorkers returns the resolution parallelism with a default of 1
func (c *Config) GetWorkers() int {
	if c.Workers <= 0 {
		return 1
	}
	return c.Workers
}

// GetTimeout returns the tariff source HTTP timeout with a default of 30 seconds
func (c *Config) GetTimeout() time.Duration {
	if c.TariffSource.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.TariffSource.TimeoutSeconds) * time.Second
}

// GetTopicPrefix returns the MQTT topic prefix
func (c *MQTTConfig) GetTopicPrefix() string {
	if c.TopicPrefix == "" {
		return defaultTopicPrefix
	}
	return c.TopicPrefix
}
