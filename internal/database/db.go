package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jgoulah/gridtariff/pkg/models"
	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// SummaryRecord is a stored opportunity summary
type SummaryRecord struct {
	ID        int64
	RunID     string
	Summary   models.OpportunitySummary
	CreatedAt time.Time
	Published bool
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tariffs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		month TEXT NOT NULL,
		provider TEXT NOT NULL,
		city TEXT NOT NULL,
		tier_descriptor TEXT NOT NULL,
		rate TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tariffs_month ON tariffs(month);

	CREATE TABLE IF NOT EXISTS opportunities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		opportunity TEXT NOT NULL,
		client TEXT,
		city TEXT,
		client_investment REAL,
		rate_b REAL,
		service_point TEXT,
		region TEXT,
		service_point_city TEXT,
		tier_descriptor TEXT,
		ownership TEXT,
		tier_code TEXT,
		consumption_kwh REAL,
		renting REAL,
		grid_operator TEXT,
		provider TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_opportunities_opportunity ON opportunities(opportunity);

	CREATE TABLE IF NOT EXISTS summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		opportunity TEXT NOT NULL,
		document TEXT NOT NULL,
		created_at TEXT NOT NULL,
		published INTEGER DEFAULT 0,
		UNIQUE(run_id, opportunity)
	);
	CREATE INDEX IF NOT EXISTS idx_summaries_published ON summaries(published);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// ReplaceTariffs swaps the stored tariff table for records
func (db *DB) ReplaceTariffs(records []models.TariffRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tariffs`); err != nil {
		return fmt.Errorf("clearing tariffs: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO tariffs (month, provider, city, tier_descriptor, rate, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if _, err := stmt.Exec(r.Month, r.Provider, r.City, r.TierDescriptor, r.Rate, fetchedAt); err != nil {
			return fmt.Errorf("inserting tariff: %w", err)
		}
	}

	return tx.Commit()
}

// ListTariffs returns the stored tariff table in insertion order
func (db *DB) ListTariffs() ([]models.TariffRecord, error) {
	rows, err := db.conn.Query(`
	SELECT month, provider, city, tier_descriptor, rate
	FROM tariffs
	ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tariffs: %w", err)
	}
	defer rows.Close()

	var results []models.TariffRecord
	for rows.Next() {
		var r models.TariffRecord
		if err := rows.Scan(&r.Month, &r.Provider, &r.City, &r.TierDescriptor, &r.Rate); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// ReplaceOpportunities stores curated opportunities, one row per service point
func (db *DB) ReplaceOpportunities(opps []models.Opportunity) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM opportunities`); err != nil {
		return fmt.Errorf("clearing opportunities: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO opportunities (
		opportunity, client, city, client_investment, rate_b,
		service_point, region, service_point_city, tier_descriptor, ownership, tier_code,
		consumption_kwh, renting, grid_operator, provider, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	for _, o := range opps {
		for _, sp := range o.ServicePoints {
			var kwh sql.NullFloat64
			if sp.ConsumptionKWh != nil {
				kwh = sql.NullFloat64{Float64: *sp.ConsumptionKWh, Valid: true}
			}
			_, err := stmt.Exec(
				o.ID, o.Client, o.City, o.ClientInvestment, o.RateB,
				sp.ID, sp.Region, sp.City, sp.TierDescriptor, sp.Ownership, sp.TierCode,
				kwh, sp.Renting, sp.GridOperator, sp.Provider, createdAt,
			)
			if err != nil {
				return fmt.Errorf("inserting service point %s/%s: %w", o.ID, sp.ID, err)
			}
		}
	}

	return tx.Commit()
}

// CountOpportunities returns the number of distinct stored opportunities and service points
func (db *DB) CountOpportunities() (opportunities, servicePoints int, err error) {
	row := db.conn.QueryRow(`SELECT COUNT(DISTINCT opportunity), COUNT(*) FROM opportunities`)
	if err := row.Scan(&opportunities, &servicePoints); err != nil {
		return 0, 0, fmt.Errorf("counting opportunities: %w", err)
	}
	return opportunities, servicePoints, nil
}

// InsertSummaries stores the summaries of one run, ignoring ones already stored for it
func (db *DB) InsertSummaries(runID string, summaries []models.OpportunitySummary) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR IGNORE INTO summaries (run_id, opportunity, document, created_at)
	VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	for _, s := range summaries {
		doc, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding summary %s: %w", s.OpportunityID, err)
		}
		if _, err := stmt.Exec(runID, s.OpportunityID, string(doc), createdAt); err != nil {
			return fmt.Errorf("inserting summary: %w", err)
		}
	}

	return tx.Commit()
}

// ListSummaries retrieves stored summaries, newest first. limit <= 0 returns all.
func (db *DB) ListSummaries(limit int) ([]SummaryRecord, error) {
	return db.querySummaries(`
	SELECT id, run_id, document, created_at, published
	FROM summaries
	ORDER BY created_at DESC, id DESC
	`, limit)
}

// ListUnpublishedSummaries retrieves summaries not yet published, oldest first
func (db *DB) ListUnpublishedSummaries(limit int) ([]SummaryRecord, error) {
	return db.querySummaries(`
	SELECT id, run_id, document, created_at, published
	FROM summaries
	WHERE published = 0
	ORDER BY created_at, id
	`, limit)
}

func (db *DB) querySummaries(query string, limit int) ([]SummaryRecord, error) {
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	var results []SummaryRecord
	for rows.Next() {
		var rec SummaryRecord
		var doc, createdAt string
		var published int

		if err := rows.Scan(&rec.ID, &rec.RunID, &doc, &createdAt, &published); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(doc), &rec.Summary); err != nil {
			return nil, fmt.Errorf("decoding summary %d: %w", rec.ID, err)
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		rec.Published = published != 0

		results = append(results, rec)
	}

	return results, rows.Err()
}

// MarkPublished marks a summary as published
func (db *DB) MarkPublished(id int64) error {
	query := `UPDATE summaries SET published = 1 WHERE id = ?`
	_, err := db.conn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("marking summary as published: %w", err)
	}
	return nil
}
