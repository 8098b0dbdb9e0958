// Package aggregator owns the full refresh cycle: fetch pages, normalize,
// classify, deduplicate, and swap the cached snapshot.
package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/internradar/internradar/internal/filter"
	"github.com/internradar/internradar/internal/model"
	"github.com/internradar/internradar/internal/provider"
)

// Reviewed pairs one normalized posting with its filter result. Used for
// observability (fetch stats, the audit view), never persisted.
type Reviewed struct {
	Posting model.Posting
	Result  filter.Result
}

// Outcome summarizes one refresh cycle.
type Outcome struct {
	Accepted []model.Posting // deduplicated accepted set, fetch order
	New      []model.Posting // accepted postings absent from the prior snapshot
	Stats    filter.Stats
	Replaced bool // whether the snapshot was swapped
}

// Config bounds one aggregator instance.
type Config struct {
	Offsets          []int         // page offsets fetched per cycle, in order
	RefreshInterval  time.Duration // snapshot considered stale after this
	DegradedInterval time.Duration // retry interval while the snapshot is empty
}

// Aggregator drives the pipeline and exclusively owns the snapshot. Readers
// always observe either the fully-prior or the fully-new snapshot.
type Aggregator struct {
	fetcher    model.PageFetcher
	classifier *filter.Classifier
	cfg        Config
	logger     *slog.Logger

	normalize func(model.RawListing, int, time.Time) (model.Posting, error)
	now       func() time.Time

	refreshMu sync.Mutex // serializes refresh cycles (single writer)

	mu          sync.RWMutex // guards snap and lastAttempt
	snap        model.Snapshot
	lastAttempt time.Time
}

// New creates an aggregator. Zero config fields get working defaults.
func New(fetcher model.PageFetcher, classifier *filter.Classifier, cfg Config, logger *slog.Logger) *Aggregator {
	if len(cfg.Offsets) == 0 {
		cfg.Offsets = []int{0}
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 24 * time.Hour
	}
	if cfg.DegradedInterval <= 0 {
		cfg.DegradedInterval = time.Hour
	}
	return &Aggregator{
		fetcher:    fetcher,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
		normalize:  provider.Normalize,
		now:        time.Now,
	}
}

// GetPostings returns the cached accepted postings, refreshing synchronously
// first when the snapshot is stale or has never been populated. The returned
// slice is shared and must be treated as read-only.
func (a *Aggregator) GetPostings(ctx context.Context) []model.Posting {
	a.mu.RLock()
	refresh := a.needsRefresh(a.now())
	postings := a.snap.Postings
	a.mu.RUnlock()

	if !refresh {
		return postings
	}

	a.RefreshNow(ctx)

	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap.Postings
}

// Lookup resolves one posting by id from the current snapshot.
func (a *Aggregator) Lookup(id string) (model.Posting, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, p := range a.snap.Postings {
		if p.ID == id {
			return p, true
		}
	}
	return model.Posting{}, false
}

// Snapshot returns the current snapshot. Postings are shared and read-only.
func (a *Aggregator) Snapshot() model.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// RefreshNow forces one unconditional refresh cycle. A cycle that accepts zero
// postings (provider outage, everything filtered) leaves the previous snapshot
// untouched but still counts as an attempt, so consumers do not spin-retry.
func (a *Aggregator) RefreshNow(ctx context.Context) Outcome {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	reviewed, stats := a.runCycle(ctx)
	accepted := dedupe(reviewed)
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastAttempt = now

	if len(accepted) == 0 {
		a.logger.Warn("refresh cycle accepted no postings, retaining previous snapshot",
			"processed", stats.Processed,
			"rejected", stats.Rejected(),
			"cached", len(a.snap.Postings),
			"cached_fetched_at", a.snap.FetchedAt,
		)
		return Outcome{Stats: stats}
	}

	prior := make(map[string]struct{}, len(a.snap.Postings))
	for _, p := range a.snap.Postings {
		prior[p.ID] = struct{}{}
	}
	var fresh []model.Posting
	for _, p := range accepted {
		if _, ok := prior[p.ID]; !ok {
			fresh = append(fresh, p)
		}
	}

	a.snap = model.Snapshot{Postings: accepted, FetchedAt: now}

	a.logger.Info("snapshot replaced",
		"processed", stats.Processed,
		"accepted", stats.Accepted,
		"rejected_exclusion", stats.ExcludedKeyword,
		"rejected_not_internship", stats.NotInternship,
		"rejected_no_cs", stats.NoCSKeyword,
		"deduplicated", len(accepted),
		"new", len(fresh),
	)

	return Outcome{Accepted: accepted, New: fresh, Stats: stats, Replaced: true}
}

// ReviewCycle runs one fetch-and-classify cycle without touching the snapshot.
// Used by the audit view and one-shot CLI runs to inspect every decision.
func (a *Aggregator) ReviewCycle(ctx context.Context) ([]Reviewed, filter.Stats) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()
	return a.runCycle(ctx)
}

// runCycle fetches every configured page offset sequentially. A failed page
// contributes zero listings; a malformed record is skipped. Neither aborts the
// cycle.
func (a *Aggregator) runCycle(ctx context.Context) ([]Reviewed, filter.Stats) {
	now := a.now()
	var reviewed []Reviewed
	var stats filter.Stats

	for _, offset := range a.cfg.Offsets {
		if ctx.Err() != nil {
			break
		}

		listings, err := a.fetcher.FetchPage(ctx, offset)
		if err != nil {
			a.logger.Warn("page fetch failed, treating as empty",
				"offset", offset,
				"error", err,
			)
			continue
		}

		for i, raw := range listings {
			posting, err := a.normalize(raw, offset+i, now)
			if err != nil {
				a.logger.Warn("skipping malformed record",
					"offset", offset,
					"index", i,
					"error", err,
				)
				continue
			}
			result := a.classifier.Classify(posting)
			stats.Record(result.Decision)
			reviewed = append(reviewed, Reviewed{Posting: posting, Result: result})
		}
	}

	return reviewed, stats
}

// needsRefresh reports whether GetPostings should trigger a cycle. Callers hold
// at least a read lock.
func (a *Aggregator) needsRefresh(now time.Time) bool {
	if a.lastAttempt.IsZero() {
		return true
	}
	if now.Sub(a.lastAttempt) >= a.cfg.RefreshInterval {
		return true
	}
	// Empty snapshot retries on the shorter degraded interval rather than on
	// every request.
	if len(a.snap.Postings) == 0 && now.Sub(a.lastAttempt) >= a.cfg.DegradedInterval {
		return true
	}
	return false
}

// dedupe keeps the first occurrence of each accepted posting id, preserving
// fetch order.
func dedupe(reviewed []Reviewed) []model.Posting {
	seen := make(map[string]struct{})
	var out []model.Posting
	for _, r := range reviewed {
		if r.Result.Decision != filter.Accepted {
			continue
		}
		if _, ok := seen[r.Posting.ID]; ok {
			continue
		}
		seen[r.Posting.ID] = struct{}{}
		out = append(out, r.Posting)
	}
	return out
}
