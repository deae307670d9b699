package provider

import (
	"strings"

	"go.uber.org/zap"
)

// Config selects and configures the outbound SMS backend.
type Config struct {
	Name               string
	DefaultCountryCode string
	Twilio             TwilioConfig
	Fast2SMS           Fast2SMSConfig
}

// NewFromConfig builds the configured provider. Unknown names and providers
// that fail to construct fall back to the logging provider; a provider that is
// built but missing credentials is returned as-is and reported not ready.
func NewFromConfig(cfg Config, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Name))

	var (
		selected Provider
		err      error
	)
	switch name {
	case TwilioProviderName:
		twilioCfg := cfg.Twilio
		if strings.TrimSpace(twilioCfg.DefaultCountryCode) == "" {
			twilioCfg.DefaultCountryCode = cfg.DefaultCountryCode
		}
		selected, err = NewTwilioProvider(twilioCfg, logger)
	case Fast2SMSProviderName:
		selected, err = NewFast2SMSProvider(cfg.Fast2SMS, logger)
	case LoggingProviderName, "":
		return NewLoggingProvider(logger)
	default:
		logger.Warn("unknown sms provider, falling back to logging provider", zap.String("provider", cfg.Name))
		return NewLoggingProvider(logger)
	}

	if err != nil {
		logger.Warn("sms provider construction failed, falling back to logging provider",
			zap.String("provider", name),
			zap.Error(err),
		)
		return NewLoggingProvider(logger)
	}

	if !selected.Ready() {
		logger.Warn("sms provider is missing credentials; sends will be skipped", zap.String("provider", name))
	}

	return selected
}
