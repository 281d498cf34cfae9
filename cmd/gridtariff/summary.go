package main

import (
	"fmt"

	"github.com/jgoulah/gridtariff/internal/source"
	"github.com/spf13/cobra"
)

var (
	summaryOpportunities string
	summaryAnalysis      string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize monthly and annual costs per opportunity",
	Long: `Rolls the per-service-point analysis up to one report per opportunity, writes it as JSON
and as an XLSX workbook, and stores it in the database for publishing.

Costs are read back from the analysis document, which is rounded to cents, so totals
can differ by a few cents from those produced by "run".`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryOpportunities, "opportunities", "", "curated opportunities (default is <output_dir>/"+curatedFile+")")
	summaryCmd.Flags().StringVar(&summaryAnalysis, "analysis", "", "analysis document (default is <output_dir>/"+analysisFile+")")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	analysisPath := summaryAnalysis
	if analysisPath == "" {
		analysisPath = outputPath(cfg, analysisFile)
	}
	analyses, err := readAnalyses(analysisPath)
	if err != nil {
		return err
	}

	oppsPath := summaryOpportunities
	if oppsPath == "" {
		oppsPath = outputPath(cfg, curatedFile)
	}
	opps, err := source.LoadOpportunities(oppsPath)
	if err != nil {
		return err
	}

	_, err = summarize(cfg, opps, analyses)
	return err
}
