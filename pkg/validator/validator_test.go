package validator

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"proxy-importer/pkg/models"
)

type fakeProber struct {
	reply ProbeReply
	err   error
	calls []ProbeRequest
}

func (f *fakeProber) Probe(ctx context.Context, req ProbeRequest) (ProbeReply, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

func testRecord() models.ParsedProxyRecord {
	return models.ParsedProxyRecord{
		Host:     "1.2.3.4",
		Port:     "8080",
		Protocol: models.ProtocolHTTP,
		Username: "bob",
		Password: "secret",
		Valid:    true,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		reply     ProbeReply
		err       error
		wantValid bool
		wantError string
	}{
		{
			name:      "probe success",
			reply:     ProbeReply{Success: true, ResponseTimeMs: 42, IP: "5.6.7.8", Country: "DE"},
			wantValid: true,
		},
		{
			name:      "probe reports failure",
			reply:     ProbeReply{Success: false, Message: "connection refused"},
			wantValid: false,
			wantError: "connection refused",
		},
		{
			name:      "probe call fails",
			err:       errors.New("dialer exploded"),
			wantValid: false,
			wantError: "dialer exploded",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prober := &fakeProber{reply: tc.reply, err: tc.err}
			v := New(prober, slog.Default())

			got := v.Validate(context.Background(), testRecord())

			if got.IsValid != tc.wantValid {
				t.Errorf("IsValid = %v, want %v", got.IsValid, tc.wantValid)
			}
			if got.Error != tc.wantError {
				t.Errorf("Error = %q, want %q", got.Error, tc.wantError)
			}
			if tc.err == nil && tc.reply.Success {
				if got.ResponseTimeMs != tc.reply.ResponseTimeMs ||
					got.IPDetected != tc.reply.IP || got.Country != tc.reply.Country {
					t.Errorf("observations not carried over: %+v", got)
				}
				if got.Error != "" {
					t.Errorf("successful result should have no error, got %q", got.Error)
				}
			}
		})
	}
}

func TestValidatePassesIdentityToProber(t *testing.T) {
	prober := &fakeProber{reply: ProbeReply{Success: true}}
	v := New(prober, slog.Default())

	v.Validate(context.Background(), testRecord())

	if len(prober.calls) != 1 {
		t.Fatalf("prober called %d times, want 1", len(prober.calls))
	}
	call := prober.calls[0]
	want := ProbeRequest{Host: "1.2.3.4", Port: "8080", Protocol: models.ProtocolHTTP, Username: "bob", Password: "secret"}
	if call != want {
		t.Errorf("probe request = %+v, want %+v", call, want)
	}
}
