package provider

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       Config
		wantName  string
		wantReady bool
		wantWarn  bool
	}{
		{
			name:      "default is logging",
			cfg:       Config{},
			wantName:  LoggingProviderName,
			wantReady: true,
		},
		{
			name: "twilio with credentials",
			cfg: Config{
				Name:   "Twilio",
				Twilio: TwilioConfig{AccountSID: "AC1", AuthToken: "t", FromNumber: "+1"},
			},
			wantName:  TwilioProviderName,
			wantReady: true,
		},
		{
			name:      "fast2sms without key is not ready",
			cfg:       Config{Name: "fast2sms"},
			wantName:  Fast2SMSProviderName,
			wantReady: false,
			wantWarn:  true,
		},
		{
			name:      "unknown falls back",
			cfg:       Config{Name: "carrier-pigeon"},
			wantName:  LoggingProviderName,
			wantReady: true,
			wantWarn:  true,
		},
		{
			name:      "bad endpoint falls back",
			cfg:       Config{Name: "fast2sms", Fast2SMS: Fast2SMSConfig{APIKey: "k", Endpoint: "::"}},
			wantName:  LoggingProviderName,
			wantReady: true,
			wantWarn:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.WarnLevel)
			p := NewFromConfig(tt.cfg, zap.New(core))

			if p.Name() != tt.wantName {
				t.Fatalf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
			if p.Ready() != tt.wantReady {
				t.Fatalf("Ready() = %v, want %v", p.Ready(), tt.wantReady)
			}
			if gotWarn := logs.Len() > 0; gotWarn != tt.wantWarn {
				t.Fatalf("warned = %v, want %v", gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestNewFromConfigInheritsCountryCode(t *testing.T) {
	t.Parallel()

	p := NewFromConfig(Config{Name: "twilio", DefaultCountryCode: "+44"}, nil)
	normalizer, ok := p.(Normalizer)
	if !ok {
		t.Fatalf("provider %T does not normalize numbers", p)
	}

	got, ok := normalizer.NormalizeNumber("7946095812")
	if !ok || got != "+447946095812" {
		t.Fatalf("NormalizeNumber() = %q, %v, want +447946095812, true", got, ok)
	}
}
