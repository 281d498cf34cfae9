package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/gridtariff/internal/database"
	"github.com/jgoulah/gridtariff/internal/publisher"
	"github.com/spf13/cobra"
)

var (
	publishAll   bool
	publishLimit int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish opportunity summaries over MQTT",
	Long:  `Reads stored opportunity summaries from the database and publishes each one, retained, to <topic_prefix>/<opportunity>/summary.`,
	Args:  cobra.NoArgs,
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "Force republish all summaries (ignore published flag)")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of summaries to publish (0 = no limit)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not enabled in config")
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var records []database.SummaryRecord
	if publishAll {
		records, err = db.ListSummaries(publishLimit)
	} else {
		records, err = db.ListUnpublishedSummaries(publishLimit)
	}
	if err != nil {
		return fmt.Errorf("listing summaries: %w", err)
	}
	if len(records) == 0 {
		if publishAll {
			fmt.Println("No summaries found")
		} else {
			fmt.Println("No unpublished summaries found")
		}
		return nil
	}

	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	fmt.Printf("Publishing %d summaries...\n", len(records))
	published := 0
	for i, rec := range records {
		fmt.Printf("[%d/%d] Publishing %s... ", i+1, len(records), rec.Summary.OpportunityID)
		if err := pub.PublishSummary(rec.Summary); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			continue
		}

		if err := db.MarkPublished(rec.ID); err != nil {
			fmt.Printf("✓ (warning: failed to mark as published: %v)\n", err)
		} else {
			fmt.Printf("✓\n")
		}
		published++
	}

	fmt.Printf("\nSuccessfully published %d/%d summaries\n", published, len(records))
	return nil
}
