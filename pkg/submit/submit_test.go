package submit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"proxy-importer/pkg/models"
)

func testBatch(n int) []models.ParsedProxyRecord {
	records := make([]models.ParsedProxyRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, models.ParsedProxyRecord{
			Host:     "10.0.0.1",
			Port:     "8080",
			Protocol: models.ProtocolHTTP,
			Username: "bob",
			Password: "secret",
			Valid:    true,
		})
	}
	return records
}

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, 0, slog.Default())
}

func TestSubmitBatchNormalization(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.BatchOutcome
	}{
		{
			name: "top level counts",
			body: `{"imported":5,"errors":2}`,
			want: models.BatchOutcome{Imported: 5, Errors: 2},
		},
		{
			name: "counts nested under data",
			body: `{"data":{"imported":5,"errors":2}}`,
			want: models.BatchOutcome{Imported: 5, Errors: 2},
		},
		{
			name: "top level wins over nested",
			body: `{"imported":3,"errors":0,"data":{"imported":9,"errors":9}}`,
			want: models.BatchOutcome{Imported: 3, Errors: 0},
		},
		{
			name: "unrecognized shape",
			body: `{"status":"ok"}`,
			want: models.BatchOutcome{},
		},
		{
			name: "not JSON at all",
			body: `<html>hello</html>`,
			want: models.BatchOutcome{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			got, err := newTestClient(server.URL).SubmitBatch(context.Background(), testBatch(7))
			if err != nil {
				t.Fatalf("SubmitBatch() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("SubmitBatch() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSubmitBatchPayload(t *testing.T) {
	var received struct {
		Proxies []map[string]string `json:"proxies"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/proxies/batch" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("payload not JSON: %v", err)
		}
		w.Write([]byte(`{"imported":1,"errors":0}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).SubmitBatch(context.Background(), testBatch(1))
	if err != nil {
		t.Fatalf("SubmitBatch() error = %v", err)
	}

	if len(received.Proxies) != 1 {
		t.Fatalf("got %d proxies in payload, want 1", len(received.Proxies))
	}
	p := received.Proxies[0]
	if p["host"] != "10.0.0.1" || p["port"] != "8080" || p["protocol"] != "http" ||
		p["username"] != "bob" || p["password"] != "secret" {
		t.Errorf("payload record = %v", p)
	}
}

func TestSubmitBatchFailsClosed(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // connection refused from here on

		got, err := newTestClient(server.URL).SubmitBatch(context.Background(), testBatch(4))
		if err == nil {
			t.Error("expected an error for logging")
		}
		want := models.BatchOutcome{Imported: 0, Errors: 4}
		if got != want {
			t.Errorf("SubmitBatch() = %+v, want fail-closed %+v", got, want)
		}
	})

	t.Run("server error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		got, err := newTestClient(server.URL).SubmitBatch(context.Background(), testBatch(3))
		if err == nil {
			t.Error("expected an error for logging")
		}
		want := models.BatchOutcome{Imported: 0, Errors: 3}
		if got != want {
			t.Errorf("SubmitBatch() = %+v, want fail-closed %+v", got, want)
		}
	})
}
