package aggregator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/internradar/internradar/internal/filter"
	"github.com/internradar/internradar/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClassifier() *filter.Classifier {
	return filter.NewClassifier(filter.Vocabularies{
		Exclude:    []string{"accounting", "marketing"},
		Internship: []string{"intern"},
		CS:         []string{"software", "engineer", "data"},
	})
}

// pageFetcher serves canned listings per offset.
type pageFetcher struct {
	pages map[int][]model.RawListing
	errs  map[int]error
	calls int
}

func (f *pageFetcher) FetchPage(_ context.Context, offset int) ([]model.RawListing, error) {
	f.calls++
	if err, ok := f.errs[offset]; ok {
		return nil, err
	}
	return f.pages[offset], nil
}

func listing(id, title string) model.RawListing {
	return model.RawListing{
		"id":               id,
		"title":            title,
		"organization":     "Acme",
		"description_text": "software engineering work",
	}
}

func newTestAggregator(f model.PageFetcher, cfg Config) *Aggregator {
	a := New(f, testClassifier(), cfg, discardLogger())
	return a
}

func TestRefreshNow_DedupFirstSeenWins(t *testing.T) {
	// Both pages carry id 42 with different titles; page 0 wins.
	f := &pageFetcher{pages: map[int][]model.RawListing{
		0:  {listing("42", "Software Intern (first)"), listing("7", "Data Intern")},
		10: {listing("42", "Software Intern (second)"), listing("9", "Engineering Intern")},
	}}
	a := newTestAggregator(f, Config{Offsets: []int{0, 10}})

	out := a.RefreshNow(context.Background())
	if !out.Replaced {
		t.Fatal("expected snapshot replacement")
	}
	if len(out.Accepted) != 3 {
		t.Fatalf("expected 3 deduplicated postings, got %d", len(out.Accepted))
	}
	if out.Accepted[0].ID != "42" || out.Accepted[0].Title != "Software Intern (first)" {
		t.Errorf("first occurrence should win, got %+v", out.Accepted[0])
	}
	// Order is first-seen across pages.
	if out.Accepted[1].ID != "7" || out.Accepted[2].ID != "9" {
		t.Errorf("unexpected order: %v, %v", out.Accepted[1].ID, out.Accepted[2].ID)
	}
}

func TestRefreshNow_EmptyCycleRetainsSnapshot(t *testing.T) {
	f := &pageFetcher{pages: map[int][]model.RawListing{
		0: {listing("1", "Software Intern")},
	}}
	a := newTestAggregator(f, Config{Offsets: []int{0}})

	first := a.RefreshNow(context.Background())
	if len(first.Accepted) != 1 {
		t.Fatalf("seed refresh accepted %d", len(first.Accepted))
	}
	firstSnap := a.Snapshot()

	// Provider outage: every page fails.
	f.errs = map[int]error{0: errors.New("connection refused")}
	second := a.RefreshNow(context.Background())
	if second.Replaced {
		t.Fatal("empty cycle must not replace the snapshot")
	}

	snap := a.Snapshot()
	if len(snap.Postings) != 1 || snap.Postings[0].ID != "1" {
		t.Fatalf("cached postings changed: %+v", snap.Postings)
	}
	if !snap.FetchedAt.Equal(firstSnap.FetchedAt) {
		t.Error("snapshot FetchedAt should be untouched by an empty cycle")
	}
}

func TestRefreshNow_PageFailureDegradesToEmpty(t *testing.T) {
	f := &pageFetcher{
		pages: map[int][]model.RawListing{10: {listing("2", "Data Intern")}},
		errs:  map[int]error{0: errors.New("timeout")},
	}
	a := newTestAggregator(f, Config{Offsets: []int{0, 10}})

	out := a.RefreshNow(context.Background())
	if len(out.Accepted) != 1 || out.Accepted[0].ID != "2" {
		t.Fatalf("expected surviving page to be used, got %+v", out.Accepted)
	}
}

func TestRefreshNow_MalformedRecordSkipped(t *testing.T) {
	f := &pageFetcher{pages: map[int][]model.RawListing{
		0: {nil, listing("3", "Software Intern")},
	}}
	a := newTestAggregator(f, Config{Offsets: []int{0}})

	out := a.RefreshNow(context.Background())
	if len(out.Accepted) != 1 || out.Accepted[0].ID != "3" {
		t.Fatalf("malformed record should be skipped, got %+v", out.Accepted)
	}
	if out.Stats.Processed != 1 {
		t.Errorf("Processed = %d, want 1 (malformed records are not classified)", out.Stats.Processed)
	}
}

func TestRefreshNow_ReportsNewPostings(t *testing.T) {
	f := &pageFetcher{pages: map[int][]model.RawListing{
		0: {listing("1", "Software Intern")},
	}}
	a := newTestAggregator(f, Config{Offsets: []int{0}})
	a.RefreshNow(context.Background())

	f.pages[0] = []model.RawListing{listing("1", "Software Intern"), listing("2", "Data Intern")}
	out := a.RefreshNow(context.Background())
	if len(out.New) != 1 || out.New[0].ID != "2" {
		t.Fatalf("expected only posting 2 to be new, got %+v", out.New)
	}
}

func TestGetPostings_RefreshesWhenNeverPopulated(t *testing.T) {
	f := &pageFetcher{pages: map[int][]model.RawListing{
		0: {listing("1", "Software Intern")},
	}}
	a := newTestAggregator(f, Config{Offsets: []int{0}})

	postings := a.GetPostings(context.Background())
	if len(postings) != 1 {
		t.Fatalf("expected lazy refresh to populate cache, got %d postings", len(postings))
	}
	if f.calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", f.calls)
	}

	// Fresh cache: no second fetch.
	a.GetPostings(context.Background())
	if f.calls != 1 {
		t.Fatalf("fresh cache must not refetch, calls = %d", f.calls)
	}
}

func TestGetPostings_NoSpinRetryAfterFailedCycle(t *testing.T) {
	f := &pageFetcher{errs: map[int]error{0: errors.New("down")}}
	a := newTestAggregator(f, Config{Offsets: []int{0}})

	a.GetPostings(context.Background())
	a.GetPostings(context.Background())
	a.GetPostings(context.Background())
	if f.calls != 1 {
		t.Fatalf("failed cycle should not spin-retry, calls = %d", f.calls)
	}
}

func TestGetPostings_RefreshesWhenStale(t *testing.T) {
	f := &pageFetcher{pages: map[int][]model.RawListing{
		0: {listing("1", "Software Intern")},
	}}
	a := newTestAggregator(f, Config{Offsets: []int{0}, RefreshInterval: 24 * time.Hour})

	current := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return current }

	a.GetPostings(context.Background())
	if f.calls != 1 {
		t.Fatalf("calls = %d", f.calls)
	}

	current = current.Add(25 * time.Hour)
	a.GetPostings(context.Background())
	if f.calls != 2 {
		t.Fatalf("stale cache should refetch, calls = %d", f.calls)
	}
}

func TestGetPostings_DegradedRetryWhileEmpty(t *testing.T) {
	f := &pageFetcher{errs: map[int]error{0: errors.New("down")}}
	a := newTestAggregator(f, Config{
		Offsets:          []int{0},
		RefreshInterval:  24 * time.Hour,
		DegradedInterval: time.Hour,
	})

	current := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return current }

	a.GetPostings(context.Background())
	current = current.Add(61 * time.Minute)
	a.GetPostings(context.Background())
	if f.calls != 2 {
		t.Fatalf("empty cache should retry on degraded interval, calls = %d", f.calls)
	}
}

func TestLookup(t *testing.T) {
	f := &pageFetcher{pages: map[int][]model.RawListing{
		0: {listing("77", "Software Intern")},
	}}
	a := newTestAggregator(f, Config{Offsets: []int{0}})
	a.RefreshNow(context.Background())

	p, ok := a.Lookup("77")
	if !ok || p.ID != "77" {
		t.Fatalf("Lookup(77) = %+v, %v", p, ok)
	}
	if _, ok := a.Lookup("missing"); ok {
		t.Fatal("Lookup should miss for unknown id")
	}
}
