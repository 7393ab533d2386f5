// Package database is the optional Postgres journal of import runs. It
// records what the pipeline did (per-run and per-line outcomes); the
// proxies themselves are persisted by the external collaborator, not here.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"proxy-importer/pkg/models"
)

type DB struct {
	*bun.DB
}

// Configured reports whether journaling is set up at all.
func Configured() bool {
	return viper.GetString("database.host") != ""
}

func NewDB() (*DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		viper.GetString("database.user"),
		viper.GetString("database.password"),
		viper.GetString("database.host"),
		viper.GetInt("database.port"),
		viper.GetString("database.dbname"),
		viper.GetString("database.sslmode"),
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	return &DB{db}, nil
}

// InitSchema creates the journal tables if they don't exist.
func (db *DB) InitSchema(ctx context.Context) error {
	_, err := db.NewCreateTable().
		Model((*models.ImportRun)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create import_runs table: %v", err)
	}

	_, err = db.NewCreateTable().
		Model((*models.ImportRecord)(nil)).
		IfNotExists().
		ForeignKey(`("run_id") REFERENCES import_runs ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create import_records table: %v", err)
	}

	return nil
}

func (db *DB) InsertRun(ctx context.Context, run *models.ImportRun) error {
	_, err := db.NewInsert().
		Model(run).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error inserting import run: %v", err)
	}
	return nil
}

// FinishRun writes the final counters and completion time for a run.
func (db *DB) FinishRun(ctx context.Context, run *models.ImportRun) error {
	run.FinishedAt = time.Now()

	_, err := db.NewUpdate().
		Model(run).
		Column("parsed_count", "invalid_count", "valid_count",
			"imported_count", "error_count", "finished_at").
		Where("id = ?", run.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error finishing import run: %v", err)
	}
	return nil
}

func (db *DB) InsertRecords(ctx context.Context, records []models.ImportRecord) error {
	if len(records) == 0 {
		return nil
	}

	_, err := db.NewInsert().
		Model(&records).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error inserting import records: %v", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	var runs []models.ImportRun
	err := db.NewSelect().
		Model(&runs).
		Order("started_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting recent runs: %v", err)
	}
	return runs, nil
}

// RunSummary aggregates the per-line outcomes of one run.
type RunSummary struct {
	Total             int
	ParseFailures     int
	Validated         int
	Valid             int
	Invalid           int
	AvgResponseTimeMs int64
	ByType            map[string]int
}

// SummarizeRecords computes the aggregate view of a run's journal rows.
func SummarizeRecords(records []models.ImportRecord) RunSummary {
	summary := RunSummary{
		Total:  len(records),
		ByType: make(map[string]int),
	}

	var totalResponseMs int64
	var timed int64
	for _, rec := range records {
		if !rec.ParseOK {
			summary.ParseFailures++
			continue
		}
		if rec.Type != "" {
			summary.ByType[rec.Type]++
		}
		if !rec.Validated {
			continue
		}
		summary.Validated++
		if rec.IsValid {
			summary.Valid++
			totalResponseMs += rec.ResponseTimeMs
			timed++
		} else {
			summary.Invalid++
		}
	}
	if timed > 0 {
		summary.AvgResponseTimeMs = totalResponseMs / timed
	}
	return summary
}

// RunStats returns the aggregate statistics for one run.
func (db *DB) RunStats(ctx context.Context, runID string) (RunSummary, error) {
	records, err := db.RunRecords(ctx, runID)
	if err != nil {
		return RunSummary{}, err
	}
	return SummarizeRecords(records), nil
}

// RunRecords returns the per-line journal of one run, in input order.
func (db *DB) RunRecords(ctx context.Context, runID string) ([]models.ImportRecord, error) {
	var records []models.ImportRecord
	err := db.NewSelect().
		Model(&records).
		Where("run_id = ?", runID).
		Order("source_line ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting run records: %v", err)
	}
	return records, nil
}
