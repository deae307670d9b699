package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultPriorityRefreshInterval = time.Hour

type priorityScoreRefresher interface {
	RefreshPriorityScores(ctx context.Context) (int, error)
}

// PriorityRefresher periodically recomputes donor eligibility and priority so
// ranking reflects donation intervals that elapsed since the last write.
type PriorityRefresher struct {
	refresher priorityScoreRefresher
	logger    *zap.Logger
	interval  time.Duration
}

func NewPriorityRefresher(refresher priorityScoreRefresher, interval time.Duration, logger *zap.Logger) (*PriorityRefresher, error) {
	if refresher == nil {
		return nil, fmt.Errorf("priority refresher target is required")
	}
	if interval <= 0 {
		interval = defaultPriorityRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PriorityRefresher{
		refresher: refresher,
		logger:    logger,
		interval:  interval,
	}, nil
}

func (r *PriorityRefresher) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := r.refresh(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("initial priority refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error("priority refresh failed", zap.Error(err))
			}
		}
	}
}

func (r *PriorityRefresher) refresh(ctx context.Context) error {
	updated, err := r.refresher.RefreshPriorityScores(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh priority scores (updated %d): %w", updated, err)
	}
	return nil
}
