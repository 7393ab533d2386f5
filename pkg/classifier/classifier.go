package classifier

import (
	"regexp"

	"proxy-importer/pkg/models"
)

// typeRule maps a pattern, checked against the host or the username, to a
// proxy type.
type typeRule struct {
	pattern *regexp.Regexp
	result  models.ProxyType
}

// providerRule recognizes a provider by a hostname signature. Sub-rules,
// when present, pin down the network type within that provider's naming
// scheme and take precedence over the generic keyword table.
type providerRule struct {
	name    string
	pattern *regexp.Regexp
	subType []typeRule
}

// Table order is precedence order. Do not reorder entries: the first
// matching provider wins, and within a provider the first matching
// sub-rule wins.
var providerRules = []providerRule{
	{
		name:    "brightdata",
		pattern: regexp.MustCompile(`(?i)(brightdata|luminati)`),
		subType: []typeRule{
			{regexp.MustCompile(`(?i)\bdc\b|dc\.`), models.TypeDatacenter},
			{regexp.MustCompile(`(?i)zproxy|res\.`), models.TypeResidential},
			{regexp.MustCompile(`(?i)mobile`), models.TypeMobile},
		},
	},
	{
		name:    "smartproxy",
		pattern: regexp.MustCompile(`(?i)smartproxy`),
		subType: []typeRule{
			{regexp.MustCompile(`(?i)\bdc\b|dc\.`), models.TypeDatacenter},
			{regexp.MustCompile(`(?i)\brp\b|resi`), models.TypeResidential},
			{regexp.MustCompile(`(?i)mobile`), models.TypeMobile},
		},
	},
	{
		name:    "oxylabs",
		pattern: regexp.MustCompile(`(?i)oxylabs`),
		subType: []typeRule{
			{regexp.MustCompile(`(?i)\bdc\b|dc\.`), models.TypeDatacenter},
			{regexp.MustCompile(`(?i)\bpr\b|resi`), models.TypeResidential},
			{regexp.MustCompile(`(?i)mobile`), models.TypeMobile},
		},
	},
	{
		name:    "soax",
		pattern: regexp.MustCompile(`(?i)soax`),
		subType: []typeRule{
			{regexp.MustCompile(`(?i)mobile`), models.TypeMobile},
			{regexp.MustCompile(`(?i)wifi|resi`), models.TypeResidential},
		},
	},
	{
		name:    "proxyrack",
		pattern: regexp.MustCompile(`(?i)proxyrack`),
		subType: []typeRule{
			{regexp.MustCompile(`(?i)\bdc\b|dc\.`), models.TypeDatacenter},
			{regexp.MustCompile(`(?i)resi|private`), models.TypeResidential},
		},
	},
	{
		name:    "webshare",
		pattern: regexp.MustCompile(`(?i)webshare`),
	},
	{
		name:    "iproyal",
		pattern: regexp.MustCompile(`(?i)iproyal`),
		subType: []typeRule{
			{regexp.MustCompile(`(?i)resi|royal`), models.TypeResidential},
		},
	},
	{
		name:    "packetstream",
		pattern: regexp.MustCompile(`(?i)packetstream`),
		subType: []typeRule{
			{regexp.MustCompile(`(?i)resi|ps\.`), models.TypeResidential},
		},
	},
	{
		name:    "geonode",
		pattern: regexp.MustCompile(`(?i)geonode`),
	},
	{
		name:    "stormproxies",
		pattern: regexp.MustCompile(`(?i)stormprox`),
	},
}

// Generic keyword patterns, checked against the host or the username when
// no provider-specific sub-rule settled the type.
var genericTypeRules = []typeRule{
	{regexp.MustCompile(`(?i)datacenter|\bdc\b|dc\.|static|hosting|server`), models.TypeDatacenter},
	{regexp.MustCompile(`(?i)residential|resi`), models.TypeResidential},
	{regexp.MustCompile(`(?i)mobile|\blte\b|\b[345]g\b|cellular`), models.TypeMobile},
}

// Last-resort port hints. 3128/8080/8888/3129 are the classic squid and
// datacenter gateway ports; 9000/9001 are common residential gateways.
var portTypeHints = map[string]models.ProxyType{
	"3128": models.TypeDatacenter,
	"8080": models.TypeDatacenter,
	"8888": models.TypeDatacenter,
	"3129": models.TypeDatacenter,
	"9000": models.TypeResidential,
	"9001": models.TypeResidential,
}

const (
	confidenceProviderType = 0.9
	confidenceProviderOnly = 0.6
	confidenceGeneric      = 0.5
	confidencePortHint     = 0.3
)

// confidenceProviderGeneric applies when the provider is known but the
// type came from the generic keyword table.
const confidenceProviderGeneric = 0.7

// Classify runs the decision list over (host, port, username). Port and
// username may be empty. The function is pure and safe for concurrent use.
func Classify(host, port, username string) models.ClassificationResult {
	res := models.ClassificationResult{Type: models.TypeUnknown}

	for _, pr := range providerRules {
		if !pr.pattern.MatchString(host) {
			continue
		}
		res.Provider = pr.name
		res.Confidence = confidenceProviderOnly
		res.Details = "provider signature: " + pr.name
		for _, sub := range pr.subType {
			if matchHostOrUser(sub.pattern, host, username) {
				res.Type = sub.result
				res.Confidence = confidenceProviderType
				res.Details = "provider type pattern: " + pr.name
				return res
			}
		}
		break
	}

	for _, tr := range genericTypeRules {
		if matchHostOrUser(tr.pattern, host, username) {
			res.Type = tr.result
			if res.Provider != "" {
				res.Confidence = confidenceProviderGeneric
			} else {
				res.Confidence = confidenceGeneric
			}
			res.Details = "generic keyword pattern"
			return res
		}
	}

	if port != "" {
		if hinted, ok := portTypeHints[port]; ok {
			res.Type = hinted
			res.Confidence = confidencePortHint
			res.Details = "port heuristic: " + port
			return res
		}
	}

	return res
}

func matchHostOrUser(p *regexp.Regexp, host, username string) bool {
	if p.MatchString(host) {
		return true
	}
	return username != "" && p.MatchString(username)
}
