package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/kursadbilgin/donor-dispatch/internal/domain"
	"github.com/kursadbilgin/donor-dispatch/internal/observability"
	"github.com/kursadbilgin/donor-dispatch/internal/provider"
	"github.com/kursadbilgin/donor-dispatch/internal/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchTimeout = 60 * time.Second
	maxDispatchWorkers  = 4

	batchOutcomeSent        = "sent"
	batchOutcomeFailed      = "failed"
	batchOutcomeTimeout     = "timeout"
	batchOutcomeCanceled    = "canceled"
	batchOutcomeRateLimited = "rate_limited"
)

// BulkDispatcher fans one message out to many recipients through the
// configured provider. Each call owns its worker pool; nothing is shared
// between calls apart from the provider and the rate limiter.
type BulkDispatcher struct {
	provider     provider.Provider
	rateLimiter  ratelimit.RateLimiter
	enabled      bool
	batchTimeout time.Duration
	logger       *zap.Logger
	metrics      *observability.Metrics
	numCPU       func() int
	now          func() time.Time
}

func NewBulkDispatcher(
	p provider.Provider,
	rateLimiter ratelimit.RateLimiter,
	enabled bool,
	batchTimeout time.Duration,
	logger *zap.Logger,
) (*BulkDispatcher, error) {
	if p == nil {
		return nil, fmt.Errorf("sms provider is required")
	}
	if batchTimeout <= 0 {
		batchTimeout = DefaultBatchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BulkDispatcher{
		provider:     p,
		rateLimiter:  rateLimiter,
		enabled:      enabled,
		batchTimeout: batchTimeout,
		logger:       logger,
		numCPU:       runtime.NumCPU,
		now:          time.Now,
	}, nil
}

func (d *BulkDispatcher) SetMetrics(metrics *observability.Metrics) {
	d.metrics = metrics
}

func (d *BulkDispatcher) Provider() provider.Provider {
	return d.provider
}

// SendBulk sends message to every distinct recipient and returns the numbers
// the provider confirmed, deduplicated, in batch order. Batch failures and
// timeouts are logged and counted but never returned; a blank message and a
// canceled ctx are the only errors.
func (d *BulkDispatcher) SendBulk(ctx context.Context, rawRecipients []string, message string) ([]string, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message must not be empty", domain.ErrValidation)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := observability.WithContextLogger(d.logger, ctx).With(zap.String("provider", d.provider.Name()))

	if !d.enabled {
		logger.Warn("sms dispatch disabled, skipping send", zap.Int("recipients", len(rawRecipients)))
		return []string{}, nil
	}
	if !d.provider.Ready() {
		logger.Warn("sms provider not ready, skipping send", zap.Int("recipients", len(rawRecipients)))
		return []string{}, nil
	}

	recipients := dedupeRecipients(rawRecipients)
	if len(recipients) == 0 {
		return []string{}, nil
	}

	batches := partition(recipients, max(1, d.provider.BatchLimit()))
	results := make([][]string, len(batches))

	var g errgroup.Group
	g.SetLimit(d.workerCount(len(batches)))
	for i, batch := range batches {
		g.Go(func() error {
			results[i] = d.sendBatch(ctx, logger.With(zap.Int("batch", i), zap.Int("batchSize", len(batch))), batch, message)
			return nil
		})
	}
	_ = g.Wait()

	sent := mergeResults(results)
	logger.Info("bulk sms dispatch finished",
		zap.Int("recipients", len(recipients)),
		zap.Int("batches", len(batches)),
		zap.Int("sent", len(sent)),
	)

	if err := ctx.Err(); err != nil {
		return sent, err
	}
	return sent, nil
}

type batchResult struct {
	sent []string
	err  error
}

func (d *BulkDispatcher) sendBatch(ctx context.Context, logger *zap.Logger, batch []string, message string) []string {
	name := d.provider.Name()

	if ctx.Err() != nil {
		d.metrics.IncBatch(name, batchOutcomeCanceled)
		return nil
	}

	batchCtx, cancel := context.WithTimeout(ctx, d.batchTimeout)
	defer cancel()

	d.metrics.IncDispatchInFlight(name)
	defer d.metrics.DecDispatchInFlight(name)

	start := d.now()
	defer func() {
		d.metrics.ObserveBatchDuration(name, d.now().Sub(start))
	}()

	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(batchCtx, name); err != nil {
			logger.Warn("sms batch rate limit wait failed", zap.Error(err))
			d.metrics.IncBatch(name, batchOutcomeRateLimited)
			return nil
		}
	}

	done := make(chan batchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- batchResult{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()

		sent, err := d.provider.SendBatch(batchCtx, batch, message)
		done <- batchResult{sent: sent, err: err}
	}()

	select {
	case <-batchCtx.Done():
		outcome := batchOutcomeTimeout
		if errors.Is(batchCtx.Err(), context.Canceled) {
			outcome = batchOutcomeCanceled
		}
		logger.Warn("sms batch abandoned",
			zap.String("outcome", outcome),
			zap.Duration("timeout", d.batchTimeout),
			zap.Error(batchCtx.Err()),
		)
		d.metrics.IncBatch(name, outcome)
		return nil
	case res := <-done:
		if res.err != nil {
			logger.Error("sms batch failed",
				zap.Bool("transient", provider.IsTransient(res.err)),
				zap.Error(res.err),
			)
			d.metrics.IncBatch(name, batchOutcomeFailed)
			return nil
		}

		d.metrics.IncBatch(name, batchOutcomeSent)
		d.metrics.AddRecipientsSent(name, len(res.sent))
		logger.Debug("sms batch sent", zap.Int("sent", len(res.sent)))
		return res.sent
	}
}

func (d *BulkDispatcher) workerCount(batches int) int {
	workers := min(maxDispatchWorkers, max(1, d.numCPU()/2))
	return max(1, min(workers, batches))
}

// dedupeRecipients trims, drops blanks and removes exact duplicates, keeping
// first-seen order. Comparison is case-sensitive.
func dedupeRecipients(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		trimmed := strings.TrimSpace(r)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func partition(items []string, size int) [][]string {
	batches := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

func mergeResults(results [][]string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, batch := range results {
		for _, number := range batch {
			if _, ok := seen[number]; ok {
				continue
			}
			seen[number] = struct{}{}
			merged = append(merged, number)
		}
	}
	return merged
}
