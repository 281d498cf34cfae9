package main

import (
	"fmt"

	"github.com/jgoulah/gridtariff/internal/export"
	"github.com/jgoulah/gridtariff/internal/source"
	"github.com/jgoulah/gridtariff/pkg/models"
	"github.com/spf13/cobra"
)

var (
	curateOut     string
	curatePersist bool
)

var curateCmd = &cobra.Command{
	Use:   "curate [opportunities.csv]",
	Short: "Curate a CRM opportunity export",
	Long: `Reads the flat CRM export (one row per service point), forward-fills the identity
columns, groups rows by opportunity and writes the nested curated opportunities JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runCurate,
}

func init() {
	curateCmd.Flags().StringVarP(&curateOut, "out", "o", "", "output file (default is <output_dir>/"+curatedFile+")")
	curateCmd.Flags().BoolVar(&curatePersist, "persist", false, "also store the curated opportunities in the database")
	rootCmd.AddCommand(curateCmd)
}

func runCurate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	opps, err := source.LoadOpportunityCSV(args[0])
	if err != nil {
		return err
	}

	out := curateOut
	if out == "" {
		out = outputPath(cfg, curatedFile)
	}
	return writeCurated(out, opps, curatePersist)
}

func writeCurated(path string, opps []models.Opportunity, persist bool) error {
	if err := export.WriteJSON(path, opps); err != nil {
		return err
	}

	points := 0
	for _, o := range opps {
		points += len(o.ServicePoints)
	}
	fmt.Printf("✓ Curated %d opportunities (%d service points): %s\n", len(opps), points, path)

	if !persist {
		return nil
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.ReplaceOpportunities(opps); err != nil {
		return fmt.Errorf("storing opportunities: %w", err)
	}
	n, points, err := db.CountOpportunities()
	if err != nil {
		return err
	}
	fmt.Printf("✓ Stored %d opportunities (%d service points) in %s\n", n, points, getDBPath())
	return nil
}
