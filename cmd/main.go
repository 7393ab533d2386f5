package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"proxy-importer/pkg/batch"
	"proxy-importer/pkg/database"
	"proxy-importer/pkg/ipinfo"
	"proxy-importer/pkg/models"
	"proxy-importer/pkg/parser"
	"proxy-importer/pkg/probe"
	"proxy-importer/pkg/submit"
	"proxy-importer/pkg/validator"
)

var (
	debugFlag bool
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "proxy-importer",
	Short: "A tool for importing, classifying and validating proxy lists",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var logLevel slog.Level
		if debugFlag {
			logLevel = slog.LevelDebug
		} else {
			logLevel = slog.LevelInfo
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		slog.SetDefault(logger)
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse and classify a proxy list without validating it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, err := parseFile(args[0])
		if err != nil {
			logger.Error("Error parsing input", "error", err)
			os.Exit(1)
		}

		parsed := 0
		for _, rec := range records {
			if !rec.Valid {
				fmt.Printf("line %d: %s: %s\n", rec.SourceLine, rec.Raw, rec.Error)
				continue
			}
			parsed++
			fmt.Printf("line %d: %s://%s:%s type=%s", rec.SourceLine, rec.Protocol, rec.Host, rec.Port, rec.Type)
			if rec.Provider != "" {
				fmt.Printf(" provider=%s", rec.Provider)
			}
			fmt.Println()
		}
		fmt.Printf("%d of %d parsed\n", parsed, len(records))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Parse a proxy list and validate each proxy against the probe",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, err := parseFile(args[0])
		if err != nil {
			logger.Error("Error parsing input", "error", err)
			os.Exit(1)
		}

		runner := newRunner()
		results := runner.Run(context.Background(), records, printProgress)

		valid, invalid := tallyResults(results)
		fmt.Printf("%d valid / %d invalid\n", valid, invalid)
		if runner.Ready(records) {
			fmt.Println("batch is ready for submission")
		} else {
			fmt.Println("batch is not ready for submission")
		}
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Run the full pipeline: parse, classify, validate and submit",
	Long: `Run the full ingestion pipeline over a proxy list file.
Submission only happens when every parsed proxy validated successfully;
a single invalid or unvalidated proxy blocks the batch.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, err := parseFile(args[0])
		if err != nil {
			logger.Error("Error parsing input", "error", err)
			os.Exit(1)
		}

		run := beginRun(args[0], records)

		runner := newRunner()
		results := runner.Run(context.Background(), records, printProgress)

		valid, invalid := tallyResults(results)
		fmt.Printf("%d valid / %d invalid\n", valid, invalid)

		if !runner.Ready(records) {
			finishRun(run, records, results, models.BatchOutcome{})
			logger.Error("Batch is not ready for submission; fix or remove failing proxies and re-run")
			os.Exit(1)
		}

		client := submit.NewClient(
			viper.GetString("api.base_url"),
			time.Duration(viper.GetInt("api.timeout_sec"))*time.Second,
			viper.GetInt("api.retry_max"),
			logger,
		)
		outcome, err := client.SubmitBatch(context.Background(), validRecords(records))
		if err != nil {
			logger.Error("Batch submission failed", "error", err)
		}
		fmt.Printf("imported %d, errors %d\n", outcome.Imported, outcome.Errors)

		finishRun(run, records, results, outcome)
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs [count]",
	Short: "List recent import runs from the journal",
	Args:  cobra.RangeArgs(0, 1),
	Run: func(cmd *cobra.Command, args []string) {
		limit := 10
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				logger.Error("Invalid count value", "error", err)
				os.Exit(1)
			}
			limit = n
		}

		if !database.Configured() {
			logger.Error("No journal database configured")
			os.Exit(1)
		}

		db, err := initDB()
		if err != nil {
			logger.Error("Error initializing database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		runs, err := db.RecentRuns(context.Background(), limit)
		if err != nil {
			logger.Error("Error listing runs", "error", err)
			os.Exit(1)
		}

		for _, r := range runs {
			fmt.Printf("%s  %s  lines=%d parsed=%d valid=%d imported=%d errors=%d\n",
				r.StartedAt.Format(time.RFC3339), r.Source,
				r.TotalLines, r.ParsedCount, r.ValidCount, r.ImportedCount, r.ErrorCount)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [id]",
	Short: "Show the per-line outcomes and aggregate stats of one import run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !database.Configured() {
			logger.Error("No journal database configured")
			os.Exit(1)
		}

		db, err := initDB()
		if err != nil {
			logger.Error("Error initializing database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		records, err := db.RunRecords(context.Background(), args[0])
		if err != nil {
			logger.Error("Error loading run records", "error", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			logger.Error("No records found for run", "id", args[0])
			os.Exit(1)
		}

		for _, rec := range records {
			if !rec.ParseOK {
				fmt.Printf("line %d: %s: %s\n", rec.SourceLine, rec.Raw, rec.ParseError)
				continue
			}
			status := "not validated"
			if rec.Validated {
				if rec.IsValid {
					status = fmt.Sprintf("valid (%dms)", rec.ResponseTimeMs)
				} else {
					status = "invalid: " + rec.ValidationError
				}
			}
			fmt.Printf("line %d: %s://%s:%s %s\n", rec.SourceLine, rec.Protocol, rec.Host, rec.Port, status)
		}

		summary := database.SummarizeRecords(records)
		fmt.Printf("%d lines, %d parse failures, %d valid / %d invalid",
			summary.Total, summary.ParseFailures, summary.Valid, summary.Invalid)
		if summary.Valid > 0 {
			fmt.Printf(", avg %dms", summary.AvgResponseTimeMs)
		}
		fmt.Println()
		for proxyType, count := range summary.ByType {
			fmt.Printf("  %s: %d\n", proxyType, count)
		}
	},
}

func parseFile(path string) ([]models.ParsedProxyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return parser.ParseBulk(string(data))
}

func newRunner() *batch.Runner {
	checker := probe.NewChecker(
		ipinfo.Endpoint(viper.GetString("probe.url"), viper.GetString("ipinfo.token")),
		time.Duration(viper.GetInt("probe.timeout_sec"))*time.Second,
		logger,
	)
	return batch.NewRunner(validator.New(checker, logger), logger)
}

func printProgress(processed, total int, id models.Identity, result models.ValidationResult) {
	status := "ok"
	if !result.IsValid {
		status = "failed: " + result.Error
	}
	fmt.Printf("[%d/%d] %s:%s %s\n", processed, total, id.Host, id.Port, status)
}

func validRecords(records []models.ParsedProxyRecord) []models.ParsedProxyRecord {
	out := make([]models.ParsedProxyRecord, 0, len(records))
	for _, rec := range records {
		if rec.Valid {
			out = append(out, rec)
		}
	}
	return out
}

func tallyResults(results map[models.Identity]models.ValidationResult) (valid, invalid int) {
	for _, res := range results {
		if res.IsValid {
			valid++
		} else {
			invalid++
		}
	}
	return valid, invalid
}

// beginRun opens a journal entry for this pass when the journal is
// configured. A nil run means journaling is off.
func beginRun(source string, records []models.ParsedProxyRecord) *models.ImportRun {
	if !database.Configured() {
		logger.Debug("No journal database configured, skipping run journal")
		return nil
	}

	db, err := initDB()
	if err != nil {
		logger.Warn("Journal unavailable, continuing without it", "error", err)
		return nil
	}
	defer db.Close()

	run := &models.ImportRun{
		ID:         uuid.NewString(),
		Source:     source,
		TotalLines: len(records),
		StartedAt:  time.Now(),
	}
	for _, rec := range records {
		if rec.Valid {
			run.ParsedCount++
		} else {
			run.InvalidCount++
		}
	}

	if err := db.InsertRun(context.Background(), run); err != nil {
		logger.Warn("Failed to journal run start", "error", err)
		return nil
	}
	return run
}

// finishRun writes the per-record journal rows and the final counters.
func finishRun(run *models.ImportRun, records []models.ParsedProxyRecord,
	results map[models.Identity]models.ValidationResult, outcome models.BatchOutcome) {
	if run == nil {
		return
	}

	db, err := initDB()
	if err != nil {
		logger.Warn("Journal unavailable, run left unfinished", "error", err)
		return
	}
	defer db.Close()

	rows := make([]models.ImportRecord, 0, len(records))
	for _, rec := range records {
		row := models.ImportRecord{
			RunID:      run.ID,
			SourceLine: rec.SourceLine,
			Raw:        rec.Raw,
			Host:       rec.Host,
			Port:       rec.Port,
			Protocol:   string(rec.Protocol),
			Username:   rec.Username,
			Type:       string(rec.Type),
			Provider:   rec.Provider,
			ParseOK:    rec.Valid,
			ParseError: rec.Error,
		}
		if res, ok := results[rec.Identity()]; ok && rec.Valid {
			row.Validated = true
			row.IsValid = res.IsValid
			row.ResponseTimeMs = res.ResponseTimeMs
			row.IPDetected = res.IPDetected
			row.Country = res.Country
			row.ValidationError = res.Error
			if res.IsValid {
				run.ValidCount++
			}
		}
		rows = append(rows, row)
	}

	run.ImportedCount = outcome.Imported
	run.ErrorCount = outcome.Errors

	if err := db.InsertRecords(context.Background(), rows); err != nil {
		logger.Warn("Failed to journal run records", "error", err)
	}
	if err := db.FinishRun(context.Background(), run); err != nil {
		logger.Warn("Failed to journal run completion", "error", err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(runCmd)
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("../")
	viper.AddConfigPath("$HOME/.proxy-importer")
	viper.AddConfigPath("/etc/proxy-importer/")

	viper.SetDefault("probe.url", "https://ipinfo.io/json")
	viper.SetDefault("probe.timeout_sec", 10)
	viper.SetDefault("api.base_url", "http://localhost:3000")
	viper.SetDefault("api.timeout_sec", 30)
	viper.SetDefault("api.retry_max", 0)
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

func initDB() (*database.DB, error) {
	db, err := database.NewDB()
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %v", err)
	}

	err = db.InitSchema(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}

	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
