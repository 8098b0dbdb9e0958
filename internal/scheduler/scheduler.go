// Package scheduler runs the periodic refresh loop.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/internradar/internradar/internal/aggregator"
	"github.com/internradar/internradar/internal/model"
)

// Refresher runs one refresh cycle. Satisfied by aggregator.Aggregator.
type Refresher interface {
	RefreshNow(ctx context.Context) aggregator.Outcome
}

// Scheduler owns the main loop: one immediate refresh, then ticks. A cycle
// that accepts nothing is retried on the shorter degraded interval instead of
// waiting a full refresh period, but never immediately.
type Scheduler struct {
	agg      Refresher
	interval time.Duration
	degraded time.Duration
	onNew    func(ctx context.Context, postings []model.Posting)
	logger   *slog.Logger
}

// New creates a scheduler. onNew, if non-nil, is called after each cycle that
// surfaced postings not present in the prior snapshot (instant alerts).
func New(agg Refresher, interval, degraded time.Duration, onNew func(context.Context, []model.Posting), logger *slog.Logger) *Scheduler {
	return &Scheduler{
		agg:      agg,
		interval: interval,
		degraded: degraded,
		onNew:    onNew,
		logger:   logger,
	}
}

// Run starts the refresh loop. It runs one immediate cycle, then waits for the
// interval chosen by the previous outcome. Returns nil when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting refresh scheduler",
		"interval", s.interval.String(),
		"degraded_interval", s.degraded.String(),
	)

	wait := s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down refresh scheduler")
			return nil
		case <-time.After(wait):
			wait = s.runOnce(ctx)
		}
	}
}

// runOnce runs one cycle and returns the wait before the next.
func (s *Scheduler) runOnce(ctx context.Context) time.Duration {
	if ctx.Err() != nil {
		return s.interval
	}

	outcome := s.agg.RefreshNow(ctx)

	if len(outcome.New) > 0 && s.onNew != nil {
		s.onNew(ctx, outcome.New)
	}

	if !outcome.Replaced {
		s.logger.Warn("refresh cycle yielded nothing, backing off on degraded interval",
			"next_attempt_in", s.degraded.String(),
		)
		return s.degraded
	}
	return s.interval
}
