package classifier

import (
	"testing"

	"proxy-importer/pkg/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		host           string
		port           string
		username       string
		wantType       models.ProxyType
		wantProvider   string
		wantConfidence float64
	}{
		{
			name:           "provider specific type tier",
			host:           "x.dc.smartproxy.com",
			wantType:       models.TypeDatacenter,
			wantProvider:   "smartproxy",
			wantConfidence: 0.9,
		},
		{
			name:           "provider type from username",
			host:           "gate.smartproxy.com",
			username:       "sp-resi-user123",
			wantType:       models.TypeResidential,
			wantProvider:   "smartproxy",
			wantConfidence: 0.9,
		},
		{
			name:           "provider with generic type keyword",
			host:           "mobile-pool.geonode.com",
			wantType:       models.TypeMobile,
			wantProvider:   "geonode",
			wantConfidence: 0.7,
		},
		{
			name:           "provider only",
			host:           "p.webshare.io",
			wantType:       models.TypeUnknown,
			wantProvider:   "webshare",
			wantConfidence: 0.6,
		},
		{
			name:           "provider kept through port heuristic",
			host:           "p.webshare.io",
			port:           "8080",
			wantType:       models.TypeDatacenter,
			wantProvider:   "webshare",
			wantConfidence: 0.3,
		},
		{
			name:           "generic residential keyword",
			host:           "residential-gw.example.net",
			wantType:       models.TypeResidential,
			wantConfidence: 0.5,
		},
		{
			name:           "generic mobile keyword from username",
			host:           "198.51.100.4",
			username:       "customer-4g-session",
			wantType:       models.TypeMobile,
			wantConfidence: 0.5,
		},
		{
			name:           "port heuristic datacenter",
			host:           "203.0.113.7",
			port:           "3128",
			wantType:       models.TypeDatacenter,
			wantConfidence: 0.3,
		},
		{
			name:           "port heuristic residential",
			host:           "203.0.113.7",
			port:           "9000",
			wantType:       models.TypeResidential,
			wantConfidence: 0.3,
		},
		{
			name:           "nothing matches",
			host:           "203.0.113.7",
			port:           "12345",
			wantType:       models.TypeUnknown,
			wantConfidence: 0,
		},
		{
			name:           "no port no match",
			host:           "203.0.113.7",
			wantType:       models.TypeUnknown,
			wantConfidence: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.host, tc.port, tc.username)
			if got.Type != tc.wantType {
				t.Errorf("Classify(%q) Type = %s, want %s", tc.host, got.Type, tc.wantType)
			}
			if got.Provider != tc.wantProvider {
				t.Errorf("Classify(%q) Provider = %q, want %q", tc.host, got.Provider, tc.wantProvider)
			}
			if got.Confidence != tc.wantConfidence {
				t.Errorf("Classify(%q) Confidence = %v, want %v", tc.host, got.Confidence, tc.wantConfidence)
			}
		})
	}
}

// The provider table is an ordered decision list: the first matching
// signature wins even when a later one would also match.
func TestClassifyProviderPrecedence(t *testing.T) {
	got := Classify("brightdata.smartproxy.com", "", "")
	if got.Provider != "brightdata" {
		t.Errorf("Provider = %q, want first-declared %q", got.Provider, "brightdata")
	}
}

func TestClassifyIsPure(t *testing.T) {
	first := Classify("x.dc.smartproxy.com", "8080", "")
	for i := 0; i < 3; i++ {
		if got := Classify("x.dc.smartproxy.com", "8080", ""); got != first {
			t.Fatalf("Classify not deterministic: %+v vs %+v", got, first)
		}
	}
}
