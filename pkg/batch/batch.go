// Package batch drives sequential validation of a parsed proxy batch and
// computes the submission-readiness gate.
package batch

import (
	"context"
	"log/slog"

	"proxy-importer/pkg/models"
	"proxy-importer/pkg/validator"
)

// ProgressFunc receives a notification after each record is validated.
// processed only ever increases, in input order.
type ProgressFunc func(processed, total int, id models.Identity, result models.ValidationResult)

// Runner validates records one at a time, keeping exactly one probe in
// flight. Results are keyed by composite identity, so duplicate records
// share a single entry. The runner is not safe for concurrent use; state
// only changes between probe calls.
type Runner struct {
	validator *validator.Validator
	logger    *slog.Logger

	results   map[models.Identity]models.ValidationResult
	processed int
	total     int
}

func NewRunner(v *validator.Validator, logger *slog.Logger) *Runner {
	return &Runner{
		validator: v,
		logger:    logger,
		results:   make(map[models.Identity]models.ValidationResult),
	}
}

// Run validates every record with Valid=true, in input order, awaiting
// each probe to completion before starting the next. Per-record failures
// are stored as results and never stop the loop. There is no cancellation
// of a pass in progress: the loop runs to completion regardless of the
// caller (a known limitation carried over from the original design).
// Re-running validation is a new caller-initiated pass; no retries happen
// here.
func (r *Runner) Run(ctx context.Context, records []models.ParsedProxyRecord, onProgress ProgressFunc) map[models.Identity]models.ValidationResult {
	valid := make([]models.ParsedProxyRecord, 0, len(records))
	for _, rec := range records {
		if rec.Valid {
			valid = append(valid, rec)
		}
	}

	r.results = make(map[models.Identity]models.ValidationResult, len(valid))
	r.processed = 0
	r.total = len(valid)

	for _, rec := range valid {
		result := r.validator.Validate(ctx, rec)
		id := rec.Identity()
		r.results[id] = result
		r.processed++

		r.logger.Debug("record validated",
			"host", rec.Host,
			"port", rec.Port,
			"isValid", result.IsValid,
			"processed", r.processed,
			"total", r.total)

		if onProgress != nil {
			onProgress(r.processed, r.total, id, result)
		}
	}

	return r.results
}

// Results returns the identity-keyed result map of the last pass.
func (r *Runner) Results() map[models.Identity]models.ValidationResult {
	return r.results
}

// Processed returns how many records the last pass has validated so far.
func (r *Runner) Processed() int {
	return r.processed
}

// Total returns the number of valid records in the last pass.
func (r *Runner) Total() int {
	return r.total
}

// Ready is the submission-readiness gate: every parsed-valid record must
// have a stored result, and every stored result must be valid. A single
// unvalidated or invalid record blocks the batch.
func (r *Runner) Ready(records []models.ParsedProxyRecord) bool {
	for _, rec := range records {
		if !rec.Valid {
			continue
		}
		result, ok := r.results[rec.Identity()]
		if !ok || !result.IsValid {
			return false
		}
	}
	for _, result := range r.results {
		if !result.IsValid {
			return false
		}
	}
	return true
}
