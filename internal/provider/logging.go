package provider

import (
	"context"

	"go.uber.org/zap"
)

const (
	LoggingProviderName       = "log"
	loggingProviderBatchLimit = 200
	loggingPreviewCount       = 5
)

// LoggingProvider records intended sends without delivering anything. It is
// used when no SMS backend is configured.
type LoggingProvider struct {
	logger *zap.Logger
}

func NewLoggingProvider(logger *zap.Logger) *LoggingProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{logger: logger}
}

func (p *LoggingProvider) Name() string    { return LoggingProviderName }
func (p *LoggingProvider) Ready() bool     { return true }
func (p *LoggingProvider) BatchLimit() int { return loggingProviderBatchLimit }

func (p *LoggingProvider) SendBatch(_ context.Context, numbers []string, message string) ([]string, error) {
	preview := make([]string, 0, min(len(numbers), loggingPreviewCount))
	for _, number := range numbers[:cap(preview)] {
		preview = append(preview, maskNumber(number))
	}

	p.logger.Info("sms send skipped by logging provider",
		zap.Int("recipients", len(numbers)),
		zap.Strings("preview", preview),
		zap.Int("messageLength", len([]rune(message))),
	)

	sent := make([]string, len(numbers))
	copy(sent, numbers)
	return sent, nil
}
