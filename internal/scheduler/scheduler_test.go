package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/internradar/internradar/internal/aggregator"
	"github.com/internradar/internradar/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRefresher struct {
	calls    atomic.Int32
	outcomes []aggregator.Outcome
}

func (f *fakeRefresher) RefreshNow(context.Context) aggregator.Outcome {
	n := int(f.calls.Add(1)) - 1
	if n < len(f.outcomes) {
		return f.outcomes[n]
	}
	return aggregator.Outcome{Replaced: true}
}

func TestRun_ImmediateFirstCycle(t *testing.T) {
	f := &fakeRefresher{}
	s := New(f, time.Hour, time.Hour, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for f.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected an immediate first cycle")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestRun_DegradedIntervalAfterEmptyCycle(t *testing.T) {
	// First cycle empty: the scheduler should wait the short degraded interval
	// and run again rather than wait the full hour.
	f := &fakeRefresher{outcomes: []aggregator.Outcome{{Replaced: false}}}
	s := New(f, time.Hour, 10*time.Millisecond, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	deadline := time.After(time.Second)
	for f.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected degraded retry, calls = %d", f.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRunOnce_AlertsOnNewPostings(t *testing.T) {
	fresh := []model.Posting{{ID: "1"}, {ID: "2"}}
	f := &fakeRefresher{outcomes: []aggregator.Outcome{{Replaced: true, New: fresh}}}

	var got []model.Posting
	s := New(f, time.Hour, time.Hour, func(_ context.Context, ps []model.Posting) {
		got = ps
	}, discardLogger())

	s.runOnce(context.Background())
	if len(got) != 2 {
		t.Fatalf("expected alert callback with 2 postings, got %d", len(got))
	}
}
