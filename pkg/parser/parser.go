// Package parser turns free-form pasted proxy text into ParsedProxyRecords.
package parser

import (
	"errors"
	"net/url"
	"strings"

	"proxy-importer/pkg/classifier"
	"proxy-importer/pkg/models"
)

// ErrNoProxies is returned by ParseBulk when the input contains zero
// non-blank lines. It is a pipeline-level condition, distinct from the
// per-line parse failures carried on the records themselves.
var ErrNoProxies = errors.New("no proxies found")

// errBadFormat is the per-line failure reason for unrecognized input.
var errBadFormat = errors.New("could not parse proxy format")

// bareHostPort is the port assumed for a bare host with no port token.
// This is deliberately not the scheme default table below: the bare form
// predates protocol knowledge and 8080 is the common proxy listen port.
const bareHostPort = "8080"

var schemeDefaultPorts = map[models.Protocol]string{
	models.ProtocolHTTP:   "80",
	models.ProtocolHTTPS:  "443",
	models.ProtocolSOCKS4: "1080",
	models.ProtocolSOCKS5: "1080",
}

// DefaultPort returns the conventional port for a known protocol. It is
// used when building probe transports, not by the parsing grammars.
func DefaultPort(p models.Protocol) string {
	if port, ok := schemeDefaultPorts[p]; ok {
		return port
	}
	return bareHostPort
}

// ParseSpec parses one trimmed, non-empty proxy specification string.
// Grammars are tried in fixed priority order; the first match wins:
//
//  1. scheme://[user[:pass]@]host:port  (scheme: http, https, socks4, socks5)
//  2. user:pass@host:port               (protocol defaults to http)
//  3. host:port:user:pass               (protocol defaults to http)
//  4. host:port, or a bare host         (http; bare host gets port 8080)
//
// SourceLine is left for the caller to fill in.
func ParseSpec(line string) (models.ParsedProxyRecord, error) {
	for _, grammar := range grammars {
		if rec, ok := grammar(line); ok {
			rec.Valid = true
			rec.Raw = line
			return rec, nil
		}
	}
	return models.ParsedProxyRecord{}, errBadFormat
}

type grammarFunc func(line string) (models.ParsedProxyRecord, bool)

var grammars = []grammarFunc{
	parseURIForm,
	parseAuthAtForm,
	parseColonAuthForm,
	parseHostPortForm,
}

// parseURIForm handles scheme://[user[:pass]@]host:port. The port is
// mandatory here; a scheme URL without one falls through to failure.
func parseURIForm(line string) (models.ParsedProxyRecord, bool) {
	if !strings.Contains(line, "://") {
		return models.ParsedProxyRecord{}, false
	}
	u, err := url.Parse(line)
	if err != nil {
		return models.ParsedProxyRecord{}, false
	}
	proto := models.Protocol(strings.ToLower(u.Scheme))
	if !models.KnownProtocol(proto) {
		return models.ParsedProxyRecord{}, false
	}
	host := u.Hostname()
	port := u.Port()
	if host == "" || port == "" {
		return models.ParsedProxyRecord{}, false
	}
	rec := models.ParsedProxyRecord{
		Host:     host,
		Port:     port,
		Protocol: proto,
	}
	if u.User != nil {
		rec.Username = u.User.Username()
		rec.Password, _ = u.User.Password()
	}
	return rec, true
}

// parseAuthAtForm handles user:pass@host:port. Slashes only appear in the
// URI form; rejecting them here keeps a scheme URL that failed grammar 1
// (say, a missing port) from being misread as host:port tokens.
func parseAuthAtForm(line string) (models.ParsedProxyRecord, bool) {
	if strings.Contains(line, "/") {
		return models.ParsedProxyRecord{}, false
	}
	at := strings.LastIndex(line, "@")
	if at < 0 {
		return models.ParsedProxyRecord{}, false
	}
	auth, hostport := line[:at], line[at+1:]

	user, pass, found := strings.Cut(auth, ":")
	if !found || user == "" {
		return models.ParsedProxyRecord{}, false
	}
	host, port, found := strings.Cut(hostport, ":")
	if !found || host == "" || port == "" || strings.Contains(port, ":") {
		return models.ParsedProxyRecord{}, false
	}
	return models.ParsedProxyRecord{
		Host:     host,
		Port:     port,
		Protocol: models.ProtocolHTTP,
		Username: user,
		Password: pass,
	}, true
}

// parseColonAuthForm handles host:port:user:pass, the provider export
// format: exactly four colon-delimited tokens and no "@".
func parseColonAuthForm(line string) (models.ParsedProxyRecord, bool) {
	if strings.Contains(line, "@") || strings.Contains(line, "/") {
		return models.ParsedProxyRecord{}, false
	}
	tokens := strings.Split(line, ":")
	if len(tokens) != 4 {
		return models.ParsedProxyRecord{}, false
	}
	for _, tok := range tokens[:2] {
		if tok == "" {
			return models.ParsedProxyRecord{}, false
		}
	}
	return models.ParsedProxyRecord{
		Host:     tokens[0],
		Port:     tokens[1],
		Protocol: models.ProtocolHTTP,
		Username: tokens[2],
		Password: tokens[3],
	}, true
}

// parseHostPortForm handles host:port, and a bare host with no port token
// at all, which gets the literal 8080 default.
func parseHostPortForm(line string) (models.ParsedProxyRecord, bool) {
	if strings.Contains(line, "@") || strings.ContainsAny(line, "/ \t") {
		return models.ParsedProxyRecord{}, false
	}
	tokens := strings.Split(line, ":")
	switch len(tokens) {
	case 1:
		if tokens[0] == "" {
			return models.ParsedProxyRecord{}, false
		}
		return models.ParsedProxyRecord{
			Host:     tokens[0],
			Port:     bareHostPort,
			Protocol: models.ProtocolHTTP,
		}, true
	case 2:
		if tokens[0] == "" || tokens[1] == "" {
			return models.ParsedProxyRecord{}, false
		}
		return models.ParsedProxyRecord{
			Host:     tokens[0],
			Port:     tokens[1],
			Protocol: models.ProtocolHTTP,
		}, true
	}
	return models.ParsedProxyRecord{}, false
}

// ParseBulk splits raw multi-line text, parses every non-blank line and
// enriches successful parses with classification. Line numbers are 1-based
// over the original input positions. Failed lines become invalid records;
// they never abort the pass. The returned slice has exactly one entry per
// non-blank line, in input order.
func ParseBulk(text string) ([]models.ParsedProxyRecord, error) {
	lines := strings.Split(text, "\n")
	records := make([]models.ParsedProxyRecord, 0, len(lines))

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		rec, err := ParseSpec(line)
		if err != nil {
			records = append(records, models.ParsedProxyRecord{
				Valid:      false,
				Error:      err.Error(),
				SourceLine: i + 1,
				Raw:        line,
			})
			continue
		}
		rec.SourceLine = i + 1

		cls := classifier.Classify(rec.Host, rec.Port, rec.Username)
		rec.Type = cls.Type
		rec.Provider = cls.Provider

		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrNoProxies
	}
	return records, nil
}
