package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jgoulah/gridtariff/internal/config"
	"github.com/jgoulah/gridtariff/internal/export"
	"github.com/jgoulah/gridtariff/internal/mapping"
	"github.com/jgoulah/gridtariff/internal/metrics"
	"github.com/jgoulah/gridtariff/internal/resolver"
	"github.com/jgoulah/gridtariff/internal/source"
	"github.com/jgoulah/gridtariff/internal/summary"
	"github.com/jgoulah/gridtariff/internal/tariff"
	"github.com/jgoulah/gridtariff/pkg/models"
)

// Output documents, written under the configured output directory
const (
	curatedFile  = "opportunities_curated.json"
	analysisFile = "analysis_by_service_point.json"
	auditFile    = "tariff_lookup_audit.json"
	summaryFile  = "opportunity_summary.json"
	workbookFile = "opportunity_summary.xlsx"
)

func outputPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.GetOutputDir(), name)
}

// parseRange validates --from/--to and swaps them when given in reverse
func parseRange(from, to string) (tariff.MonthRange, error) {
	if from == "" || to == "" {
		return tariff.MonthRange{}, fmt.Errorf("--from and --to are required (YYYY-MM)")
	}
	rng, err := tariff.NewMonthRange(from, to)
	if err != nil {
		return tariff.MonthRange{}, err
	}
	if rng.Reversed() {
		log.Warn().Str("from", rng.Start).Str("to", rng.End).Msg("start month is after end month, swapping")
		rng = rng.Ordered()
	}
	return rng, nil
}

// loadTariffs reads tariffs from a CSV file, the database, or the configured endpoint
func loadTariffs(ctx context.Context, cfg *config.Config, csvPath string, fromDB bool) ([]models.TariffRecord, error) {
	switch {
	case csvPath != "":
		log.Debug().Str("path", csvPath).Msg("reading tariffs from file")
		return source.LoadTariffCSV(csvPath)

	case fromDB:
		db, err := openDB()
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		records, err := db.ListTariffs()
		if err != nil {
			return nil, fmt.Errorf("listing tariffs: %w", err)
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("no tariffs stored in %s (run 'gridtariff fetch' first)", getDBPath())
		}
		return records, nil

	default:
		if err := cfg.ValidateSource(); err != nil {
			return nil, err
		}
		client := source.NewTariffClient(cfg.TariffSource.Endpoint, cfg.TariffSource.ResourceID, cfg.GetTimeout())
		fmt.Printf("Fetching tariff table (resource %d)...\n", cfg.TariffSource.ResourceID)
		records, err := client.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching tariffs: %w", err)
		}
		return records, nil
	}
}

func loadMappings(cfg *config.Config) (cities, providers mapping.Table, err error) {
	cities, src, err := mapping.Load(cfg.Mappings.Cities, mapping.CitiesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading city aliases: %w", err)
	}
	logAliasTable("cities", src, cities)

	providers, src, err = mapping.Load(cfg.Mappings.Providers, mapping.ProvidersFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading provider aliases: %w", err)
	}
	logAliasTable("providers", src, providers)

	return cities, providers, nil
}

func logAliasTable(kind, src string, t mapping.Table) {
	if src == "" {
		log.Warn().Str("table", kind).Msg("no alias table found, names are joined as-is")
		return
	}
	log.Debug().Str("table", kind).Str("path", src).Int("entries", len(t)).Msg("loaded alias table")
}

type analysisResult struct {
	analyses []models.OpportunityAnalysis
	audit    []models.AuditRow
}

// runAnalysis builds the tariff index for rng and resolves every service point
func runAnalysis(cfg *config.Config, opps []models.Opportunity, records []models.TariffRecord, rng tariff.MonthRange) (*analysisResult, error) {
	cities, providers, err := loadMappings(cfg)
	if err != nil {
		return nil, err
	}

	candidate := cfg.GetCandidateProvider()
	ix := tariff.Build(records, rng, append(providers.Values(), candidate))

	stats := ix.Stats()
	log.Info().
		Str("range", rng.String()).
		Int("records", stats.Total).
		Int("indexed", stats.Indexed).
		Int("out_of_range", stats.OutOfRange).
		Int("invalid_rate", stats.InvalidRate).
		Int("composite_keys", ix.Len(tariff.Composite)).
		Int("simple_keys", ix.Len(tariff.Simple)).
		Msg("tariff index built")
	if stats.Collisions > 0 {
		log.Warn().Int("collisions", stats.Collisions).Msg("duplicate tariff keys with different rates, the later record wins")
	}
	if len(ix.Months()) == 0 {
		log.Warn().Str("range", rng.String()).Msg("no tariff months in range, every figure will be null")
	}

	r := resolver.New(ix,
		resolver.WithCityAliases(cities),
		resolver.WithProviderAliases(providers),
		resolver.WithCandidateProvider(candidate),
		resolver.WithWorkers(cfg.GetWorkers()),
	)
	analyses, audit := r.Analyze(opps)
	logAudit(audit)

	if cfg.MetricsFile != "" {
		rec := metrics.NewRecorder()
		rec.ObserveIndex(stats)
		rec.ObserveAudit(audit)
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn().Err(err).Msg("could not write metrics")
		}
	}

	return &analysisResult{analyses: analyses, audit: audit}, nil
}

func logAudit(rows []models.AuditRow) {
	var candidateMissing, incumbentMissing, fuzzy int
	for _, row := range rows {
		if !row.CandidateFound {
			candidateMissing++
		}
		if !row.IncumbentFound {
			incumbentMissing++
		}
		if row.FallbackUsed {
			fuzzy++
			log.Debug().
				Str("opportunity", row.OpportunityID).
				Str("service_point", row.ServicePointID).
				Str("month", row.Month).
				Str("provider", row.ProviderMapped).
				Str("matched", row.ProviderUsed).
				Float64("score", *row.FallbackScore).
				Msg("fuzzy provider match")
		}
	}
	log.Info().
		Int("lookups", len(rows)).
		Int("candidate_missing", candidateMissing).
		Int("incumbent_missing", incumbentMissing).
		Int("fuzzy_matches", fuzzy).
		Msg("resolution finished")
}

func writeAnalysis(cfg *config.Config, res *analysisResult) error {
	path := outputPath(cfg, analysisFile)
	if err := export.WriteJSON(path, res.analyses); err != nil {
		return err
	}
	fmt.Printf("✓ Analysis written: %s\n", path)

	path = outputPath(cfg, auditFile)
	if err := export.WriteJSON(path, res.audit); err != nil {
		return err
	}
	fmt.Printf("✓ Lookup audit written: %s (%d rows)\n", path, len(res.audit))
	return nil
}

// summarize aggregates analyses, writes the summary documents and stores them under a new run id
func summarize(cfg *config.Config, opps []models.Opportunity, analyses []models.OpportunityAnalysis) ([]models.OpportunitySummary, error) {
	summaries := summary.Aggregate(opps, analyses)

	path := outputPath(cfg, summaryFile)
	if err := export.WriteJSON(path, summaries); err != nil {
		return nil, err
	}
	fmt.Printf("✓ Summary written: %s\n", path)

	path = outputPath(cfg, workbookFile)
	if err := export.WriteSummaryWorkbook(path, summaries, summary.Months(summaries)); err != nil {
		return nil, err
	}
	fmt.Printf("✓ Workbook written: %s\n", path)

	db, err := openDB()
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	runID := uuid.NewString()
	if err := db.InsertSummaries(runID, summaries); err != nil {
		return nil, fmt.Errorf("storing summaries: %w", err)
	}
	log.Debug().Str("run_id", runID).Int("summaries", len(summaries)).Msg("summaries stored")

	printSummaries(summaries)
	return summaries, nil
}

func printSummaries(summaries []models.OpportunitySummary) {
	if len(summaries) == 0 {
		fmt.Println("No opportunities to summarize")
		return
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 78))
	fmt.Printf("%-16s  %-20s  %12s  %12s  %12s\n", "Opportunity", "Client", "Incumbent", "Candidate", "Savings")
	fmt.Println(strings.Repeat("-", 78))
	for _, s := range summaries {
		fmt.Printf("%-16s  %-20s  %12s  %12s  %12s\n",
			truncate(s.OpportunityID, 16), truncate(s.Client, 20),
			money(s.TotalIncumbent), money(s.TotalCandidate), money(s.Savings))
	}
	fmt.Println(strings.Repeat("-", 78))
}

// money renders a rounded figure with thousands separators, or "-" when absent
func money(v *float64) string {
	r := models.Round2(v)
	if r == nil {
		return "-"
	}
	return humanize.CommafWithDigits(*r, 2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func readAnalyses(path string) ([]models.OpportunityAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading analysis: %w", err)
	}
	var analyses []models.OpportunityAnalysis
	if err := json.Unmarshal(data, &analyses); err != nil {
		return nil, fmt.Errorf("parsing analysis %s: %w", path, err)
	}
	return analyses, nil
}
