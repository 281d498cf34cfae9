package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listTariffs bool
	listLimit   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored summaries",
	Long:  `Displays the opportunity summaries stored in the database, newest first, or the stored tariff table with --tariffs.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listTariffs, "tariffs", false, "list stored tariffs instead of summaries")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "limit number of rows (0 = no limit)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if listTariffs {
		records, err := db.ListTariffs()
		if err != nil {
			return fmt.Errorf("listing tariffs: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No tariffs found")
			return nil
		}

		total := len(records)
		if listLimit > 0 && len(records) > listLimit {
			records = records[:listLimit]
		}

		fmt.Println(strings.Repeat("-", 86))
		fmt.Printf("%-10s  %-24s  %-16s  %-20s  %8s\n", "Month", "Provider", "City", "Tier", "Rate")
		fmt.Println(strings.Repeat("-", 86))
		for _, r := range records {
			fmt.Printf("%-10s  %-24s  %-16s  %-20s  %8s\n",
				r.Month, truncate(r.Provider, 24), truncate(r.City, 16), truncate(r.TierDescriptor, 20), r.Rate)
		}
		fmt.Println(strings.Repeat("-", 86))
		fmt.Printf("Total: %s records\n", humanize.Comma(int64(total)))
		return nil
	}

	records, err := db.ListSummaries(listLimit)
	if err != nil {
		return fmt.Errorf("listing summaries: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No summaries found")
		return nil
	}

	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-8s  %-16s  %-20s  %12s  %12s  %12s  %-14s  %s\n",
		"Run", "Opportunity", "Client", "Incumbent", "Candidate", "Savings", "Stored", "Pub")
	fmt.Println(strings.Repeat("-", 100))
	for _, r := range records {
		s := r.Summary
		published := ""
		if r.Published {
			published = "✓"
		}
		fmt.Printf("%-8s  %-16s  %-20s  %12s  %12s  %12s  %-14s  %s\n",
			truncate(r.RunID, 8), truncate(s.OpportunityID, 16), truncate(s.Client, 20),
			money(s.TotalIncumbent), money(s.TotalCandidate), money(s.Savings),
			humanize.Time(r.CreatedAt), published)
	}
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("Total: %d summaries\n", len(records))
	return nil
}
