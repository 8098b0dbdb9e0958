package model

import (
	"context"
	"time"
)

// RawListing is one unprocessed provider record. Field presence and types vary
// between listings, so it stays a loose map until normalization.
type RawListing map[string]any

// Posting is the canonical representation of one internship listing.
type Posting struct {
	ID          string `json:"id"` // unique per provider, dedup key
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Salary      string `json:"salary"`
	JobType     string `json:"job_type"`
	Remote      bool   `json:"remote"`
	PostedDate  string `json:"posted_date"` // calendar date, YYYY-MM-DD
	SourceURL   string `json:"source_url"`
	Source      string `json:"source"`
}

// Snapshot is the current cached set of accepted postings plus the time of the
// fetch cycle that produced it. It is replaced wholesale, never merged.
type Snapshot struct {
	Postings  []Posting
	FetchedAt time.Time
}

// PageFetcher retrieves one page of raw listings from the provider.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset int) ([]RawListing, error)
}
