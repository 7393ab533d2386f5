// Package validator normalizes connectivity-probe calls into canonical
// ValidationResults. The probe itself is an external collaborator behind
// the Prober interface; this package never lets its failures escape as
// errors.
package validator

import (
	"context"
	"log/slog"

	"proxy-importer/pkg/models"
)

// ProbeRequest identifies the proxy to check.
type ProbeRequest struct {
	Host     string
	Port     string
	Protocol models.Protocol
	Username string
	Password string
}

// ProbeReply is what the connectivity collaborator reports back. Message
// is meaningful when Success is false; IP and Country are best-effort
// observations of the egress seen through the proxy.
type ProbeReply struct {
	Success        bool
	Message        string
	ResponseTimeMs int64
	IP             string
	Country        string
}

// Prober is the external connectivity-probe collaborator.
type Prober interface {
	Probe(ctx context.Context, req ProbeRequest) (ProbeReply, error)
}

type Validator struct {
	prober Prober
	logger *slog.Logger
}

func New(prober Prober, logger *slog.Logger) *Validator {
	return &Validator{
		prober: prober,
		logger: logger,
	}
}

// Validate checks one parsed record against the probe collaborator. All
// failure paths resolve to a ValidationResult; this method never returns
// an error. A failed collaborator call maps to IsValid=false with the
// failure description, a completed probe maps Success/Message directly.
func (v *Validator) Validate(ctx context.Context, rec models.ParsedProxyRecord) models.ValidationResult {
	reply, err := v.prober.Probe(ctx, ProbeRequest{
		Host:     rec.Host,
		Port:     rec.Port,
		Protocol: rec.Protocol,
		Username: rec.Username,
		Password: rec.Password,
	})
	if err != nil {
		v.logger.Debug("probe call failed",
			"host", rec.Host,
			"port", rec.Port,
			"error", err)
		return models.ValidationResult{
			IsValid: false,
			Error:   err.Error(),
		}
	}

	result := models.ValidationResult{
		IsValid:        reply.Success,
		ResponseTimeMs: reply.ResponseTimeMs,
		IPDetected:     reply.IP,
		Country:        reply.Country,
	}
	if !reply.Success {
		result.Error = reply.Message
	}
	return result
}
