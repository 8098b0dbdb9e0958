package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/internradar/internradar/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFetcher calls a function on each invocation, tracking call count.
type mockFetcher struct {
	calls int
	fn    func(attempt int) ([]model.RawListing, error)
}

func (m *mockFetcher) FetchPage(_ context.Context, _ int) ([]model.RawListing, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestFetchPage_SucceedsOnFirstAttempt(t *testing.T) {
	listings := []model.RawListing{{"id": "1"}}
	mock := &mockFetcher{fn: func(_ int) ([]model.RawListing, error) {
		return listings, nil
	}}

	rf := NewFetcher(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchPage(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected listings: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestFetchPage_RetriesOn5xx(t *testing.T) {
	mock := &mockFetcher{fn: func(attempt int) ([]model.RawListing, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return []model.RawListing{{"id": "1"}}, nil
	}}

	rf := NewFetcher(mock, 2, time.Millisecond, discardLogger())
	got, err := rf.FetchPage(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected listings: %v", got)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestFetchPage_NoRetryOn4xx(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.RawListing, error) {
		return nil, &model.HTTPError{StatusCode: 403, Err: errors.New("bad key")}
	}}

	rf := NewFetcher(mock, 3, time.Millisecond, discardLogger())
	_, err := rf.FetchPage(context.Background(), 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retries), got %d", mock.calls)
	}
}

func TestFetchPage_ExhaustsRetries(t *testing.T) {
	wantErr := &model.HTTPError{StatusCode: 500}
	mock := &mockFetcher{fn: func(_ int) ([]model.RawListing, error) {
		return nil, wantErr
	}}

	rf := NewFetcher(mock, 2, time.Millisecond, discardLogger())
	_, err := rf.FetchPage(context.Background(), 0)
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 500 {
		t.Fatalf("expected final HTTPError 500, got %v", err)
	}
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.calls)
	}
}

func TestFetchPage_ContextCancelledDuringBackoff(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) ([]model.RawListing, error) {
		return nil, &model.HTTPError{StatusCode: 500}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rf := NewFetcher(mock, 2, time.Hour, discardLogger())
	_, err := rf.FetchPage(ctx, 0)
	if err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestFetchPage_RetryAfterTakesPrecedence(t *testing.T) {
	f := NewFetcher(nil, 2, time.Hour, discardLogger())
	err := &model.HTTPError{StatusCode: 429, RetryAfter: 25 * time.Millisecond}
	if got := f.backoffDelay(1, err); got != 25*time.Millisecond {
		t.Fatalf("backoffDelay = %v, want Retry-After value", got)
	}
}
