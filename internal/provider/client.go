// Package provider fetches raw internship listings from the external
// job-search API and normalizes them into the canonical posting model.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/internradar/internradar/internal/model"
)

const (
	// Source is the provider name stamped on every normalized posting.
	Source = "internships-api"

	searchPath = "/active-jb-7d"
)

// wrapperKeys are the recognized single-key envelope names for the listing
// array. The provider has shipped all of them at one point or another.
var wrapperKeys = []string{"results", "data", "jobs", "items"}

// Client issues paginated search requests against the internships API.
type Client struct {
	host           string
	apiKey         string
	titleFilter    string
	locationFilter string
	httpClient     *http.Client
}

// NewClient creates a provider client. The httpClient should carry a bounded
// timeout; every page request runs under it.
func NewClient(host, apiKey, titleFilter, locationFilter string, httpClient *http.Client) *Client {
	return &Client{
		host:           host,
		apiKey:         apiKey,
		titleFilter:    titleFilter,
		locationFilter: locationFilter,
		httpClient:     httpClient,
	}
}

// FetchPage performs one request at the given page offset and returns the raw
// listings it contains. Transport failures, non-2xx statuses, and unrecognized
// payload shapes are returned as errors; the caller decides how to degrade.
func (c *Client) FetchPage(ctx context.Context, offset int) ([]model.RawListing, error) {
	q := url.Values{}
	q.Set("title_filter", c.titleFilter)
	q.Set("location_filter", c.locationFilter)
	q.Set("description_type", "text")
	q.Set("offset", strconv.Itoa(offset))

	reqURL := fmt.Sprintf("https://%s%s?%s", c.host, searchPath, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch offset %d: %w", offset, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch offset %d: %w", offset, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch offset %d: read body: %w", offset, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("fetch offset %d", offset),
		}
	}

	listings, err := decodeListings(body)
	if err != nil {
		return nil, fmt.Errorf("fetch offset %d: %w", offset, err)
	}
	return listings, nil
}

// decodeListings tolerates the provider's three response shapes: a bare array
// of records, or a wrapper object holding the array under a recognized key.
func decodeListings(body []byte) ([]model.RawListing, error) {
	var bare []model.RawListing
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("unexpected payload shape: %w", err)
	}
	for _, key := range wrapperKeys {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		var listings []model.RawListing
		if err := json.Unmarshal(raw, &listings); err != nil {
			return nil, fmt.Errorf("unexpected payload shape under %q: %w", key, err)
		}
		return listings, nil
	}
	return nil, fmt.Errorf("unexpected payload shape: no listing array found")
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
