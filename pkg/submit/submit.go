// Package submit sends a validated proxy batch to the persistence
// collaborator's batch-create endpoint and normalizes its response shapes
// into a canonical BatchOutcome.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"proxy-importer/pkg/models"
)

type Client struct {
	http    *retryablehttp.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient builds a submission client for the collaborator API at
// baseURL. retryMax of zero disables retries, which keeps the fail-closed
// accounting below observable instead of masking flaky transports.
func NewClient(baseURL string, timeout time.Duration, retryMax int, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	return &Client{
		http:    rc,
		baseURL: baseURL,
		logger:  logger,
	}
}

// proxySpec is the reduced record shape the batch-create operation accepts.
type proxySpec struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Protocol string `json:"protocol"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// batchCreateResponse tolerates both response shapes the collaborator has
// been observed to produce: counts at the top level, or nested under data.
type batchCreateResponse struct {
	Imported *int `json:"imported"`
	Errors   *int `json:"errors"`
	Data     *struct {
		Imported *int `json:"imported"`
		Errors   *int `json:"errors"`
	} `json:"data"`
}

// SubmitBatch performs the single batch-create call. The outcome settles
// exactly once: on a recognized response the collaborator's counts are
// returned as-is; an unrecognized 2xx body yields {0, 0}; a failure of the
// call itself fails closed to {0, len(records)} together with the error
// for logging. Nothing propagates past this boundary as a raw transport
// failure.
func (c *Client) SubmitBatch(ctx context.Context, records []models.ParsedProxyRecord) (models.BatchOutcome, error) {
	specs := make([]proxySpec, 0, len(records))
	for _, rec := range records {
		specs = append(specs, proxySpec{
			Host:     rec.Host,
			Port:     rec.Port,
			Protocol: string(rec.Protocol),
			Username: rec.Username,
			Password: rec.Password,
		})
	}

	payload, err := json.Marshal(map[string]any{"proxies": specs})
	if err != nil {
		return failClosed(len(records)), fmt.Errorf("encoding batch payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/proxies/batch", bytes.NewReader(payload))
	if err != nil {
		return failClosed(len(records)), fmt.Errorf("building batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("batch create call failed",
			"count", len(records),
			"error", err)
		return failClosed(len(records)), fmt.Errorf("batch create call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failClosed(len(records)), fmt.Errorf("reading batch response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("batch create rejected",
			"status", resp.StatusCode,
			"count", len(records))
		return failClosed(len(records)), fmt.Errorf("batch create returned status %d", resp.StatusCode)
	}

	return normalizeOutcome(body), nil
}

// failClosed counts the entire batch as failed.
func failClosed(n int) models.BatchOutcome {
	return models.BatchOutcome{Imported: 0, Errors: n}
}

// normalizeOutcome maps the heterogeneous response body to the canonical
// shape. Top-level counts win over nested ones; an unrecognized body is
// treated as zero imports and zero errors.
func normalizeOutcome(body []byte) models.BatchOutcome {
	var parsed batchCreateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.BatchOutcome{}
	}

	if parsed.Imported != nil || parsed.Errors != nil {
		return models.BatchOutcome{
			Imported: intOrZero(parsed.Imported),
			Errors:   intOrZero(parsed.Errors),
		}
	}
	if parsed.Data != nil && (parsed.Data.Imported != nil || parsed.Data.Errors != nil) {
		return models.BatchOutcome{
			Imported: intOrZero(parsed.Data.Imported),
			Errors:   intOrZero(parsed.Data.Errors),
		}
	}
	return models.BatchOutcome{}
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
