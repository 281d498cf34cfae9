package main

import (
	"fmt"
	"os"

	"github.com/jgoulah/gridtariff/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Writes a config file with the default candidate provider, output directory and MQTT topic
prefix filled in. The tariff endpoint and resource id must be added by hand.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	defaults := &config.Config{}
	cfg := &config.Config{
		TariffSource: config.TariffSourceConfig{
			TimeoutSeconds: int(defaults.GetTimeout().Seconds()),
		},
		CandidateProvider: defaults.GetCandidateProvider(),
		OutputDir:         defaults.GetOutputDir(),
		Workers:           defaults.GetWorkers(),
		MQTT: config.MQTTConfig{
			TopicPrefix: defaults.MQTT.GetTopicPrefix(),
		},
	}

	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("✓ Config written: %s (set tariff_source.endpoint and tariff_source.resource_id)\n", path)
	return nil
}
