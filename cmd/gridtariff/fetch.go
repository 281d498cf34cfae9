package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/gridtariff/internal/source"
	"github.com/spf13/cobra"
)

var fetchOut string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the published tariff table",
	Long: `Requests the tariff table location from the configured endpoint, downloads the CSV and
replaces the tariffs stored in the local SQLite database.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "also save the raw CSV to this file")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Fetch started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateSource(); err != nil {
		return err
	}

	client := source.NewTariffClient(cfg.TariffSource.Endpoint, cfg.TariffSource.ResourceID, cfg.GetTimeout())
	fmt.Printf("Fetching tariff table (resource %d)...\n", cfg.TariffSource.ResourceID)
	data, err := client.FetchCSV(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching tariffs: %w", err)
	}

	records, err := source.ParseTariffCSV(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing tariffs: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No tariff records found")
		return nil
	}

	if fetchOut != "" {
		if err := os.WriteFile(fetchOut, data, 0644); err != nil {
			return fmt.Errorf("saving CSV: %w", err)
		}
		fmt.Printf("✓ Saved CSV (%s): %s\n", humanize.Bytes(uint64(len(data))), fetchOut)
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.ReplaceTariffs(records); err != nil {
		return fmt.Errorf("storing tariffs: %w", err)
	}

	fmt.Printf("✓ Stored %s tariff records\n", humanize.Comma(int64(len(records))))
	return nil
}
