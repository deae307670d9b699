package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/kursadbilgin/donor-dispatch/internal/observability"
	"github.com/kursadbilgin/donor-dispatch/internal/provider"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RedisURL    string `env:"REDIS_URL"`
	APIPort     int    `env:"API_PORT,default=8080"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	LogFormat   string `env:"LOG_FORMAT,default=json"`

	ShutdownTimeoutSec         int `env:"SHUTDOWN_TIMEOUT_SEC,default=15"`
	PriorityRefreshIntervalMin int `env:"PRIORITY_REFRESH_INTERVAL_MIN,default=60"`

	SMSEnabled            bool   `env:"SMS_ENABLED,default=true"`
	SMSProvider           string `env:"SMS_PROVIDER,default=log"`
	SMSDefaultCountryCode string `env:"SMS_DEFAULT_COUNTRY_CODE,default=+91"`
	SMSBatchTimeoutSec    int    `env:"SMS_BATCH_TIMEOUT_SEC,default=60"`
	SMSMaxRecipients      int    `env:"SMS_MAX_RECIPIENTS,default=200"`
	SMSRateLimitPerSec    int    `env:"SMS_RATE_LIMIT_PER_SEC,default=10"`

	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `env:"TWILIO_FROM_NUMBER"`
	TwilioBaseURL    string `env:"TWILIO_BASE_URL,default=https://api.twilio.com"`

	Fast2SMSAPIKey          string `env:"FAST2SMS_API_KEY"`
	Fast2SMSSenderID        string `env:"FAST2SMS_SENDER_ID,default=FSTSMS"`
	Fast2SMSRoute           string `env:"FAST2SMS_ROUTE,default=v3"`
	Fast2SMSURL             string `env:"FAST2SMS_URL,default=https://www.fast2sms.com/dev/bulkV2"`
	Fast2SMSCountryPrefixes string `env:"FAST2SMS_COUNTRY_PREFIXES,default=91"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("DATABASE_DSN must not be blank")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.APIPort)
	}
	if c.SMSBatchTimeoutSec <= 0 {
		return fmt.Errorf("SMS_BATCH_TIMEOUT_SEC must be positive, got %d", c.SMSBatchTimeoutSec)
	}
	if c.SMSMaxRecipients <= 0 {
		return fmt.Errorf("SMS_MAX_RECIPIENTS must be positive, got %d", c.SMSMaxRecipients)
	}
	if c.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SEC must be positive, got %d", c.ShutdownTimeoutSec)
	}
	if c.PriorityRefreshIntervalMin < 0 {
		return fmt.Errorf("PRIORITY_REFRESH_INTERVAL_MIN must not be negative, got %d", c.PriorityRefreshIntervalMin)
	}
	if c.SMSRateLimitPerSec < 0 {
		return fmt.Errorf("SMS_RATE_LIMIT_PER_SEC must not be negative, got %d", c.SMSRateLimitPerSec)
	}
	return nil
}

func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.SMSBatchTimeoutSec) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// PriorityRefreshInterval is zero when periodic refresh is disabled.
func (c *Config) PriorityRefreshInterval() time.Duration {
	return time.Duration(c.PriorityRefreshIntervalMin) * time.Minute
}

func (c *Config) LoggerOptions() observability.LoggerOptions {
	return observability.LoggerOptions{Level: c.LogLevel, Format: c.LogFormat}
}

// ProviderConfig maps the SMS settings onto the provider factory input.
func (c *Config) ProviderConfig() provider.Config {
	return provider.Config{
		Name:               c.SMSProvider,
		DefaultCountryCode: c.SMSDefaultCountryCode,
		Twilio: provider.TwilioConfig{
			AccountSID:         c.TwilioAccountSID,
			AuthToken:          c.TwilioAuthToken,
			FromNumber:         c.TwilioFromNumber,
			DefaultCountryCode: c.SMSDefaultCountryCode,
			BaseURL:            c.TwilioBaseURL,
		},
		Fast2SMS: provider.Fast2SMSConfig{
			APIKey:          c.Fast2SMSAPIKey,
			SenderID:        c.Fast2SMSSenderID,
			Route:           c.Fast2SMSRoute,
			Endpoint:        c.Fast2SMSURL,
			CountryPrefixes: splitList(c.Fast2SMSCountryPrefixes),
		},
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
