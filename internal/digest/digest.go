// Package digest runs the daily digest on a cron schedule.
package digest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/internradar/internradar/internal/model"
)

// PostingSource yields the current accepted postings.
type PostingSource interface {
	GetPostings(ctx context.Context) []model.Posting
}

// DigestSender fans a digest out to subscribers.
type DigestSender interface {
	SendDigest(ctx context.Context, postings []model.Posting) (int, error)
}

// Cron triggers the daily digest on a cron spec like "0 8 * * *".
type Cron struct {
	cron    *cron.Cron
	source  PostingSource
	sender  DigestSender
	spec    string
	logger  *slog.Logger
	baseCtx context.Context
}

// New returns a digest cron for the given schedule spec.
func New(source PostingSource, sender DigestSender, spec string, logger *slog.Logger) *Cron {
	return &Cron{
		cron:    cron.New(),
		source:  source,
		sender:  sender,
		spec:    spec,
		logger:  logger,
		baseCtx: context.Background(),
	}
}

// Start registers the digest job and starts the scheduler.
func (c *Cron) Start() error {
	if _, err := c.cron.AddFunc(c.spec, c.runDigest); err != nil {
		return fmt.Errorf("registering digest schedule %q: %w", c.spec, err)
	}
	c.cron.Start()
	c.logger.Info("digest schedule started", "spec", c.spec)
	return nil
}

// Stop stops the scheduler, waiting for a running digest to finish.
func (c *Cron) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	c.logger.Info("digest schedule stopped")
}

// RunNow sends a digest immediately, outside the schedule.
func (c *Cron) RunNow(ctx context.Context) (int, error) {
	postings := c.source.GetPostings(ctx)
	if len(postings) == 0 {
		c.logger.Info("digest skipped, no postings")
		return 0, nil
	}
	return c.sender.SendDigest(ctx, postings)
}

func (c *Cron) runDigest() {
	sent, err := c.RunNow(c.baseCtx)
	if err != nil {
		c.logger.Error("digest delivery failed", "error", err)
		return
	}
	c.logger.Info("digest delivered", "subscribers", sent)
}
