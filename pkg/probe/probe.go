// Package probe is the default connectivity-probe collaborator: it fetches
// a known target URL through the proxy under test and reports success,
// latency and the observed egress IP.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Jigsaw-Code/outline-sdk/transport"
	"github.com/Jigsaw-Code/outline-sdk/x/configurl"
	"h12.io/socks"

	"proxy-importer/pkg/ipinfo"
	"proxy-importer/pkg/models"
	"proxy-importer/pkg/parser"
	"proxy-importer/pkg/validator"
)

type Checker struct {
	targetURL string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewChecker builds a probe against targetURL (normally an ipinfo
// endpoint, see ipinfo.Endpoint).
func NewChecker(targetURL string, timeout time.Duration, logger *slog.Logger) *Checker {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Checker{
		targetURL: targetURL,
		timeout:   timeout,
		logger:    logger,
	}
}

// Probe implements validator.Prober. A transport that cannot be
// constructed at all is a call failure (returned as an error); a fetch
// that fails through a working transport is a probe result with
// Success=false and the reason in Message.
func (c *Checker) Probe(ctx context.Context, req validator.ProbeRequest) (validator.ProbeReply, error) {
	client, err := c.httpClient(req)
	if err != nil {
		return validator.ProbeReply{}, err
	}

	start := time.Now()
	info, err := ipinfo.Lookup(ctx, client, c.targetURL)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		c.logger.Debug("probe fetch failed",
			"host", req.Host,
			"port", req.Port,
			"protocol", req.Protocol,
			"error", err)
		return validator.ProbeReply{
			Success:        false,
			Message:        err.Error(),
			ResponseTimeMs: elapsed,
		}, nil
	}

	return validator.ProbeReply{
		Success:        true,
		ResponseTimeMs: elapsed,
		IP:             info.IP,
		Country:        info.Country,
	}, nil
}

// httpClient builds a client whose transport routes through the proxy in
// req. Each protocol needs its own dialing strategy: HTTP proxies are
// handled by net/http itself, SOCKS5 by the outline-sdk stream dialer,
// SOCKS4 by the h12.io dialer (neither stdlib nor outline-sdk speak it).
func (c *Checker) httpClient(req validator.ProbeRequest) (*http.Client, error) {
	port := req.Port
	if port == "" {
		port = parser.DefaultPort(req.Protocol)
	}
	addr := net.JoinHostPort(req.Host, port)

	switch req.Protocol {
	case models.ProtocolHTTP, models.ProtocolHTTPS:
		proxyURL := &url.URL{
			Scheme: string(req.Protocol),
			Host:   addr,
		}
		if req.Username != "" {
			proxyURL.User = url.UserPassword(req.Username, req.Password)
		}
		return &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
			Timeout:   c.timeout,
		}, nil

	case models.ProtocolSOCKS5:
		cfg := socksConfig("socks5", addr, req.Username, req.Password)
		var dialer transport.StreamDialer
		dialer, err := configurl.NewDefaultConfigToDialer().NewStreamDialer(cfg)
		if err != nil {
			return nil, fmt.Errorf("could not create dialer: %w", err)
		}
		dialContext := func(ctx context.Context, network, address string) (net.Conn, error) {
			if !strings.HasPrefix(network, "tcp") {
				return nil, fmt.Errorf("protocol not supported: %v", network)
			}
			return dialer.DialStream(ctx, address)
		}
		return &http.Client{
			Transport: &http.Transport{DialContext: dialContext},
			Timeout:   c.timeout,
		}, nil

	case models.ProtocolSOCKS4:
		dial := socks.Dial(socksConfig("socks4", addr, req.Username, "") +
			fmt.Sprintf("?timeout=%s", c.timeout))
		dialContext := func(ctx context.Context, network, address string) (net.Conn, error) {
			return dial(network, address)
		}
		return &http.Client{
			Transport: &http.Transport{DialContext: dialContext},
			Timeout:   c.timeout,
		}, nil
	}

	return nil, fmt.Errorf("unsupported protocol: %s", req.Protocol)
}

// socksConfig builds a scheme://[user[:pass]@]addr transport string.
// SOCKS4 has no password, only a user id.
func socksConfig(scheme, addr, username, password string) string {
	u := &url.URL{
		Scheme: scheme,
		Host:   addr,
	}
	if username != "" {
		if password != "" {
			u.User = url.UserPassword(username, password)
		} else {
			u.User = url.User(username)
		}
	}
	return u.String()
}
