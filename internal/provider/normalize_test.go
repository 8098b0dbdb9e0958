package provider

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/internradar/internradar/internal/model"
)

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func TestNormalize_AllDefaults(t *testing.T) {
	// A record missing every optional field still normalizes cleanly.
	raw := model.RawListing{"ignored": nil}

	p, err := Normalize(raw, 2, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.ID != "internships-api-2" {
		t.Errorf("ID = %q, want positional fallback", p.ID)
	}
	if p.Title != "Internship Position 3" {
		t.Errorf("Title = %q, want %q", p.Title, "Internship Position 3")
	}
	if p.Company != "Unknown Company" {
		t.Errorf("Company = %q", p.Company)
	}
	if p.Location != "Location TBD" {
		t.Errorf("Location = %q", p.Location)
	}
	if p.Description != "No description available" {
		t.Errorf("Description = %q", p.Description)
	}
	if p.Salary != "Competitive" {
		t.Errorf("Salary = %q", p.Salary)
	}
	if p.JobType != "Internship" {
		t.Errorf("JobType = %q", p.JobType)
	}
	if p.Remote {
		t.Error("Remote should default to false")
	}
	if p.PostedDate != "2026-03-14" {
		t.Errorf("PostedDate = %q, want current date", p.PostedDate)
	}
	if p.Source != Source {
		t.Errorf("Source = %q", p.Source)
	}
}

func TestNormalize_FullRecord(t *testing.T) {
	raw := model.RawListing{
		"id":                "887766",
		"title":             "Software Engineering Intern",
		"organization":      "Acme",
		"locations_derived": []any{"Remote", "San Francisco, CA"},
		"description_text":  "Build Go services with our platform team.",
		"employment_type":   []any{"INTERN"},
		"remote_derived":    true,
		"date_posted":       "2026-03-01T08:30:00Z",
		"url":               "https://example.com/jobs/887766",
	}

	p, err := Normalize(raw, 0, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "887766" || p.Title != "Software Engineering Intern" || p.Company != "Acme" {
		t.Errorf("unexpected posting: %+v", p)
	}
	if p.Location != "Remote" {
		t.Errorf("Location = %q, want first derived location", p.Location)
	}
	if p.JobType != "Internship" {
		t.Errorf("JobType = %q, want Internship for INTERN marker", p.JobType)
	}
	if !p.Remote {
		t.Error("Remote = false, want true")
	}
	if p.PostedDate != "2026-03-01" {
		t.Errorf("PostedDate = %q, want time-of-day dropped", p.PostedDate)
	}
	if p.Salary != "Competitive" {
		t.Errorf("Salary = %q, want sentinel when absent", p.Salary)
	}
}

func TestNormalize_NumericID(t *testing.T) {
	p, err := Normalize(model.RawListing{"id": float64(42)}, 0, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "42" {
		t.Errorf("ID = %q, want stringified %q", p.ID, "42")
	}
}

func TestNormalize_EmptyRecord(t *testing.T) {
	if _, err := Normalize(model.RawListing{}, 0, testNow); err == nil {
		t.Fatal("expected error for empty record")
	}
	if _, err := Normalize(nil, 0, testNow); err == nil {
		t.Fatal("expected error for nil record")
	}
}

func TestNormalize_DescriptionFallbacks(t *testing.T) {
	p, _ := Normalize(model.RawListing{
		"id":                       "1",
		"organization_description": "We make rockets.",
	}, 0, testNow)
	if p.Description != "We make rockets." {
		t.Errorf("Description = %q, want org-level fallback", p.Description)
	}

	long := make([]byte, 800)
	for i := range long {
		long[i] = 'x'
	}
	p, _ = Normalize(model.RawListing{"id": "2", "description_text": string(long)}, 0, testNow)
	if len(p.Description) != maxDescriptionLen+len(truncationMarker) {
		t.Errorf("Description length = %d, want %d", len(p.Description), maxDescriptionLen+len(truncationMarker))
	}
	if p.Description[len(p.Description)-3:] != truncationMarker {
		t.Errorf("truncated description missing marker")
	}
}

func TestNormalize_TruncationKeepsValidUTF8(t *testing.T) {
	// A multi-byte rune sitting exactly at the cap must not be split into a
	// dangling lead byte.
	atBoundary := strings.Repeat("x", maxDescriptionLen-1) + "é"
	p, _ := Normalize(model.RawListing{"id": "1", "description_text": atBoundary}, 0, testNow)
	if p.Description != atBoundary {
		t.Errorf("description of %d runes should not be truncated", maxDescriptionLen)
	}

	overBoundary := strings.Repeat("x", maxDescriptionLen-1) + "ééé"
	p, _ = Normalize(model.RawListing{"id": "2", "description_text": overBoundary}, 0, testNow)
	if !utf8.ValidString(p.Description) {
		t.Fatalf("truncated description is not valid UTF-8: %q", p.Description[len(p.Description)-8:])
	}
	want := strings.Repeat("x", maxDescriptionLen-1) + "é" + truncationMarker
	if p.Description != want {
		t.Errorf("Description tail = %q, want rune-boundary cut", p.Description[len(p.Description)-8:])
	}
}

func TestFormatSalary(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{
			name: "min and max with unit",
			raw:  map[string]any{"value": map[string]any{"minValue": float64(25), "maxValue": float64(30), "unitText": "HOUR"}},
			want: "$25-30/hour",
		},
		{
			name: "min only",
			raw:  map[string]any{"value": map[string]any{"minValue": float64(55000), "unitText": "YEAR"}},
			want: "$55000/year",
		},
		{
			name: "flat shape without value wrapper",
			raw:  map[string]any{"minValue": float64(20), "maxValue": float64(24), "unitText": "HOUR"},
			want: "$20-24/hour",
		},
		{
			name: "missing unit",
			raw:  map[string]any{"value": map[string]any{"minValue": float64(25)}},
			want: "Competitive",
		},
		{
			name: "absent",
			raw:  nil,
			want: "Competitive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSalary(tt.raw); got != tt.want {
				t.Errorf("formatSalary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJobType(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"intern marker", []any{"INTERN"}, "Internship"},
		{"internship marker among others", []any{"FULL_TIME", "INTERNSHIP"}, "Internship"},
		{"first type title-cased", []any{"FULL_TIME"}, "Full_Time"},
		{"empty list", []any{}, "Internship"},
		{"absent", nil, "Internship"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jobType(tt.raw); got != tt.want {
				t.Errorf("jobType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-02-10T09:00:00Z", "2026-02-10"},
		{"2026-02-10", "2026-02-10"},
		{"Posted Today", "2026-03-14"},
		{"", "2026-03-14"},
	}
	for _, tt := range tests {
		if got := dateOnly(tt.in, testNow); got != tt.want {
			t.Errorf("dateOnly(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
