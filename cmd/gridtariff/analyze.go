package main

import (
	"fmt"

	"github.com/jgoulah/gridtariff/internal/source"
	"github.com/spf13/cobra"
)

var (
	analyzeFrom          string
	analyzeTo            string
	analyzeOpportunities string
	analyzeTariffs       string
	analyzeFromDB        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Resolve candidate and incumbent tariffs per service point",
	Long: `Joins curated opportunities against the tariff table for every month in the range and
writes the per-service-point analysis plus a per-lookup audit trail.

Tariffs come from --tariffs, from the database (--from-db) or from the configured endpoint.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	addRangeFlags(analyzeCmd, &analyzeFrom, &analyzeTo)
	analyzeCmd.Flags().StringVar(&analyzeOpportunities, "opportunities", "", "curated opportunities (default is <output_dir>/"+curatedFile+")")
	addTariffFlags(analyzeCmd, &analyzeTariffs, &analyzeFromDB)
	rootCmd.AddCommand(analyzeCmd)
}

func addRangeFlags(cmd *cobra.Command, from, to *string) {
	cmd.Flags().StringVar(from, "from", "", "first month, YYYY-MM")
	cmd.Flags().StringVar(to, "to", "", "last month, YYYY-MM")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func addTariffFlags(cmd *cobra.Command, csvPath *string, fromDB *bool) {
	cmd.Flags().StringVar(csvPath, "tariffs", "", "read tariffs from this CSV instead of fetching")
	cmd.Flags().BoolVar(fromDB, "from-db", false, "read tariffs stored by 'fetch' instead of fetching")
	cmd.MarkFlagsMutuallyExclusive("tariffs", "from-db")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	rng, err := parseRange(analyzeFrom, analyzeTo)
	if err != nil {
		return err
	}

	path := analyzeOpportunities
	if path == "" {
		path = outputPath(cfg, curatedFile)
	}
	opps, err := source.LoadOpportunities(path)
	if err != nil {
		return err
	}

	records, err := loadTariffs(cmd.Context(), cfg, analyzeTariffs, analyzeFromDB)
	if err != nil {
		return err
	}

	res, err := runAnalysis(cfg, opps, records, rng)
	if err != nil {
		return err
	}
	return writeAnalysis(cfg, res)
}
