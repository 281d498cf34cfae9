package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/gridtariff/internal/source"
	"github.com/spf13/cobra"
)

var (
	runFrom    string
	runTo      string
	runTariffs string
	runFromDB  bool
	runPersist bool
)

var runCmd = &cobra.Command{
	Use:   "run [opportunities.csv]",
	Short: "Curate, analyze and summarize in one pass",
	Long: `Runs the whole pipeline: curates the CRM export, resolves tariffs for the month range and
writes the summary documents. A range given in reverse is swapped.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	addRangeFlags(runCmd, &runFrom, &runTo)
	addTariffFlags(runCmd, &runTariffs, &runFromDB)
	runCmd.Flags().BoolVar(&runPersist, "persist", false, "also store the curated opportunities in the database")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Run started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	rng, err := parseRange(runFrom, runTo)
	if err != nil {
		return err
	}
	fmt.Printf("Range: %s\n", rng)

	// Everything that can fail a precondition is read before the first file is written
	opps, err := source.LoadOpportunityCSV(args[0])
	if err != nil {
		return err
	}
	records, err := loadTariffs(cmd.Context(), cfg, runTariffs, runFromDB)
	if err != nil {
		return err
	}
	res, err := runAnalysis(cfg, opps, records, rng)
	if err != nil {
		return err
	}

	if err := writeCurated(outputPath(cfg, curatedFile), opps, runPersist); err != nil {
		return err
	}
	if err := writeAnalysis(cfg, res); err != nil {
		return err
	}
	if _, err := summarize(cfg, opps, res.analyses); err != nil {
		return err
	}

	fmt.Println("\n✓ Done")
	return nil
}
