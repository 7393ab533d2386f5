package ipinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		token string
		want  string
	}{
		{"no token", "https://ipinfo.io/json", "", "https://ipinfo.io/json"},
		{"with token", "https://ipinfo.io/json", "abc123", "https://ipinfo.io/json?token=abc123"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Endpoint(tc.base, tc.token); got != tc.want {
				t.Errorf("Endpoint() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.9","city":"Amsterdam","country":"NL","org":"AS64496 Example"}`))
	}))
	defer server.Close()

	info, err := Lookup(context.Background(), server.Client(), server.URL)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if info.IP != "203.0.113.9" || info.Country != "NL" || info.City != "Amsterdam" {
		t.Errorf("Lookup() = %+v", info)
	}
}

func TestLookupNonJSONBodyIsSoft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	info, err := Lookup(context.Background(), server.Client(), server.URL)
	if err != nil {
		t.Fatalf("non-JSON body should not be an error, got %v", err)
	}
	if info != (Response{}) {
		t.Errorf("expected empty metadata, got %+v", info)
	}
}

func TestLookupErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := Lookup(context.Background(), server.Client(), server.URL); err == nil {
		t.Fatal("expected an error for a non-2xx status")
	}
}
