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
	TwilioProviderName       = "twilio"
	DefaultTwilioBaseURL     = "https://api.twilio.com"
	twilioBatchLimit         = 50
	defaultTwilioTimeout     = 10 * time.Second
	defaultTwilioCountryCode = "+91"
)

type TwilioConfig struct {
	AccountSID         string
	AuthToken          string
	FromNumber         string
	DefaultCountryCode string
	BaseURL            string
}

type twilioMessageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// TwilioProvider sends one REST call per recipient to international (+E.164)
// numbers. A failed recipient is logged and skipped; the rest of the batch
// still goes out.
type TwilioProvider struct {
	client *resty.Client
	cfg    TwilioConfig
	logger *zap.Logger
}

func NewTwilioProvider(cfg TwilioConfig, logger *zap.Logger) (*TwilioProvider, error) {
	client := resty.New()
	client.SetTimeout(defaultTwilioTimeout)
	client.SetRetryCount(0)

	return NewTwilioProviderWithClient(cfg, client, logger)
}

func NewTwilioProviderWithClient(cfg TwilioConfig, client *resty.Client, logger *zap.Logger) (*TwilioProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.AccountSID = strings.TrimSpace(cfg.AccountSID)
	cfg.AuthToken = strings.TrimSpace(cfg.AuthToken)
	cfg.FromNumber = strings.TrimSpace(cfg.FromNumber)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTwilioBaseURL
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid twilio base url: %w", err)
	}
	if strings.TrimSpace(cfg.DefaultCountryCode) == "" {
		cfg.DefaultCountryCode = defaultTwilioCountryCode
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultTwilioTimeout)
	}
	client.SetRetryCount(0)

	return &TwilioProvider{
		client: client,
		cfg:    cfg,
		logger: logger.With(zap.String("provider", TwilioProviderName)),
	}, nil
}

func (p *TwilioProvider) Name() string    { return TwilioProviderName }
func (p *TwilioProvider) BatchLimit() int { return twilioBatchLimit }

func (p *TwilioProvider) Ready() bool {
	return p != nil && p.cfg.AccountSID != "" && p.cfg.AuthToken != "" && p.cfg.FromNumber != ""
}

func (p *TwilioProvider) NormalizeNumber(raw string) (string, bool) {
	return normalizeInternational(raw, p.cfg.DefaultCountryCode)
}

func (p *TwilioProvider) SendBatch(ctx context.Context, numbers []string, message string) ([]string, error) {
	if !p.Ready() {
		return nil, ErrNotReady
	}

	sent := make([]string, 0, len(numbers))
	seen := make(map[string]struct{}, len(numbers))
	for _, raw := range numbers {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		to, ok := p.NormalizeNumber(raw)
		if !ok {
			continue
		}
		if _, dup := seen[to]; dup {
			continue
		}
		seen[to] = struct{}{}

		if err := p.sendOne(ctx, to, message); err != nil {
			p.logger.Warn("sms send to recipient failed",
				zap.String("to", maskNumber(to)),
				zap.Error(err),
			)
			continue
		}
		sent = append(sent, to)
	}

	return sent, nil
}

func (p *TwilioProvider) sendOne(ctx context.Context, to string, message string) error {
	var body twilioMessageResponse

	response, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.cfg.AccountSID, p.cfg.AuthToken).
		SetHeader("Accept", "application/json").
		SetFormData(map[string]string{
			"To":   to,
			"From": p.cfg.FromNumber,
			"Body": message,
		}).
		SetResult(&body).
		Post(p.messagesURL())
	if err != nil {
		return &ProviderError{
			Provider:  TwilioProviderName,
			Message:   "provider request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		p.logger.Debug("sms accepted",
			zap.String("to", maskNumber(to)),
			zap.String("messageSid", body.SID),
			zap.String("status", body.Status),
		)
		return nil
	}

	return &ProviderError{
		Provider:   TwilioProviderName,
		StatusCode: statusCode,
		Message:    providerErrorMessage(statusCode, strings.TrimSpace(response.String())),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func (p *TwilioProvider) messagesURL() string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.cfg.BaseURL, url.PathEscape(p.cfg.AccountSID))
}
