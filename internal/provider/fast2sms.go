package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	Fast2SMSProviderName     = "fast2sms"
	DefaultFast2SMSEndpoint  = "https://www.fast2sms.com/dev/bulkV2"
	defaultFast2SMSSenderID  = "FSTSMS"
	defaultFast2SMSRoute     = "v3"
	defaultFast2SMSLanguage  = "english"
	fast2SMSBatchLimit       = 200
	defaultFast2SMSTimeout   = 15 * time.Second
	defaultFast2SMSCountryCC = "91"
)

type Fast2SMSConfig struct {
	APIKey          string
	SenderID        string
	Route           string
	Endpoint        string
	CountryPrefixes []string
}

// Fast2SMSProvider submits a whole batch of domestic 10-digit numbers in one
// request. The batch succeeds or fails as a unit.
type Fast2SMSProvider struct {
	client *resty.Client
	cfg    Fast2SMSConfig
	logger *zap.Logger
}

func NewFast2SMSProvider(cfg Fast2SMSConfig, logger *zap.Logger) (*Fast2SMSProvider, error) {
	client := resty.New()
	client.SetTimeout(defaultFast2SMSTimeout)
	client.SetRetryCount(0)

	return NewFast2SMSProviderWithClient(cfg, client, logger)
}

func NewFast2SMSProviderWithClient(cfg Fast2SMSConfig, client *resty.Client, logger *zap.Logger) (*Fast2SMSProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.SenderID = strings.TrimSpace(cfg.SenderID)
	if cfg.SenderID == "" {
		cfg.SenderID = defaultFast2SMSSenderID
	}
	cfg.Route = strings.TrimSpace(cfg.Route)
	if cfg.Route == "" {
		cfg.Route = defaultFast2SMSRoute
	}
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultFast2SMSEndpoint
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid fast2sms endpoint: %w", err)
	}
	if len(cfg.CountryPrefixes) == 0 {
		cfg.CountryPrefixes = []string{defaultFast2SMSCountryCC}
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultFast2SMSTimeout)
	}
	client.SetRetryCount(0)

	return &Fast2SMSProvider{
		client: client,
		cfg:    cfg,
		logger: logger.With(zap.String("provider", Fast2SMSProviderName)),
	}, nil
}

func (p *Fast2SMSProvider) Name() string    { return Fast2SMSProviderName }
func (p *Fast2SMSProvider) BatchLimit() int { return fast2SMSBatchLimit }

func (p *Fast2SMSProvider) Ready() bool {
	return p != nil && p.cfg.APIKey != ""
}

func (p *Fast2SMSProvider) NormalizeNumber(raw string) (string, bool) {
	return normalizeDomestic(raw, p.cfg.CountryPrefixes)
}

func (p *Fast2SMSProvider) SendBatch(ctx context.Context, numbers []string, message string) ([]string, error) {
	if !p.Ready() {
		return nil, ErrNotReady
	}

	normalized := make([]string, 0, len(numbers))
	seen := make(map[string]struct{}, len(numbers))
	for _, raw := range numbers {
		number, ok := p.NormalizeNumber(raw)
		if !ok {
			continue
		}
		if _, dup := seen[number]; dup {
			continue
		}
		seen[number] = struct{}{}
		normalized = append(normalized, number)
	}
	if len(normalized) == 0 {
		return []string{}, nil
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("authorization", p.cfg.APIKey).
		SetHeader("accept", "application/json").
		SetFormData(map[string]string{
			"sender_id": p.cfg.SenderID,
			"message":   message,
			"language":  defaultFast2SMSLanguage,
			"route":     p.cfg.Route,
			"numbers":   strings.Join(normalized, ","),
		}).
		Post(p.cfg.Endpoint)
	if err != nil {
		return nil, &ProviderError{
			Provider:  Fast2SMSProviderName,
			Message:   "bulk request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, &ProviderError{
			Provider:   Fast2SMSProviderName,
			StatusCode: statusCode,
			Message:    providerErrorMessage(statusCode, strings.TrimSpace(response.String())),
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	p.logger.Info("bulk sms accepted", zap.Int("recipients", len(normalized)))
	return normalized, nil
}
