package models

// Protocol is the wire protocol spoken to a proxy.
type Protocol string

const (
	ProtocolHTTP   Protocol = "http"
	ProtocolHTTPS  Protocol = "https"
	ProtocolSOCKS4 Protocol = "socks4"
	ProtocolSOCKS5 Protocol = "socks5"
)

// KnownProtocol reports whether p is one of the supported protocol values.
func KnownProtocol(p Protocol) bool {
	switch p {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolSOCKS4, ProtocolSOCKS5:
		return true
	}
	return false
}

// ProxyType is the network classification of a proxy.
type ProxyType string

const (
	TypeDatacenter  ProxyType = "datacenter"
	TypeResidential ProxyType = "residential"
	TypeMobile      ProxyType = "mobile"
	TypeUnknown     ProxyType = "unknown"
)

// ParsedProxyRecord is one proxy specification extracted from pasted text.
// Exactly one record exists per non-blank input line, in input order.
// Lines that fail to parse keep Raw and SourceLine with Valid=false.
type ParsedProxyRecord struct {
	Host       string    `json:"host"`
	Port       string    `json:"port"`
	Protocol   Protocol  `json:"protocol"`
	Username   string    `json:"username,omitempty"`
	Password   string    `json:"password,omitempty"`
	Type       ProxyType `json:"type,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Valid      bool      `json:"valid"`
	Error      string    `json:"error,omitempty"`
	SourceLine int       `json:"sourceLine"`
	Raw        string    `json:"raw"`
}

// Identity is the composite key for validation results. Two records with
// the same identity describe the same proxy and share one result.
type Identity struct {
	Host     string
	Port     string
	Username string
	Password string
}

// Identity returns the composite validation key for the record.
func (r *ParsedProxyRecord) Identity() Identity {
	return Identity{
		Host:     r.Host,
		Port:     r.Port,
		Username: r.Username,
		Password: r.Password,
	}
}

// ClassificationResult is the outcome of the type/provider heuristic.
// It is attached to a ParsedProxyRecord and never persisted on its own.
type ClassificationResult struct {
	Type       ProxyType `json:"type"`
	Confidence float64   `json:"confidence"`
	Provider   string    `json:"provider,omitempty"`
	Details    string    `json:"details,omitempty"`
}

// ValidationResult is the canonical outcome of one connectivity probe.
type ValidationResult struct {
	IsValid        bool   `json:"isValid"`
	ResponseTimeMs int64  `json:"responseTime,omitempty"`
	IPDetected     string `json:"ipDetected,omitempty"`
	Country        string `json:"country,omitempty"`
	Error          string `json:"error,omitempty"`
}

// BatchOutcome is the settled result of one batch submission.
type BatchOutcome struct {
	Imported int `json:"imported"`
	Errors   int `json:"errors"`
}
