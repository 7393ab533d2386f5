// Package ipinfo looks up metadata for the egress IP observed through a
// proxy. The lookup is performed with a caller-supplied HTTP client so it
// routes through the transport under test.
package ipinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type Response struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Org      string `json:"org"`
	Timezone string `json:"timezone"`
}

// Endpoint builds the lookup URL, attaching the API token when one is
// configured.
func Endpoint(base, token string) string {
	if token == "" {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// Lookup fetches endpoint via client and decodes the ipinfo body. A
// non-2xx status is an error. A body that is not ipinfo JSON is not: the
// probe target may legitimately return something else, in which case the
// metadata is simply absent.
func Lookup(ctx context.Context, client *http.Client, endpoint string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, fmt.Errorf("building lookup request: %w", err)
	}
	req.Header.Set("User-Agent", "proxy-importer/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading lookup response: %w", err)
	}

	var info Response
	if err := json.Unmarshal(body, &info); err != nil {
		return Response{}, nil
	}
	return info, nil
}
