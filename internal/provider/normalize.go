package provider

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/internradar/internradar/internal/model"
)

// Description text is capped so digests and API payloads stay bounded.
const (
	maxDescriptionLen = 500
	truncationMarker  = "..."
)

// ErrEmptyRecord is returned for records with nothing to normalize. The caller
// skips such records; they never abort a batch.
var ErrEmptyRecord = errors.New("empty provider record")

// Normalize maps one raw provider record into a canonical Posting. index is the
// record's position in the batch, used for positional defaults. now supplies
// the posted-date fallback.
func Normalize(raw model.RawListing, index int, now time.Time) (model.Posting, error) {
	if len(raw) == 0 {
		return model.Posting{}, ErrEmptyRecord
	}

	p := model.Posting{
		ID:       stringify(raw["id"], fmt.Sprintf("%s-%d", Source, index)),
		Title:    stringOr(raw["title"], fmt.Sprintf("Internship Position %d", index+1)),
		Company:  stringOr(raw["organization"], "Unknown Company"),
		Location: firstString(raw["locations_derived"], "Location TBD"),
		Salary:   formatSalary(raw["salary_raw"]),
		JobType:  jobType(raw["employment_type"]),
		Remote:   boolField(raw["remote_derived"]),
		Source:   Source,
	}

	desc := stringOr(raw["description_text"], "")
	if desc == "" {
		desc = stringOr(raw["organization_description"], "")
	}
	if desc == "" {
		desc = "No description available"
	}
	p.Description = truncate(desc)

	p.PostedDate = dateOnly(stringOr(raw["date_posted"], ""), now)
	p.SourceURL = stringOr(raw["url"], "")

	return p, nil
}

// truncate caps s at maxDescriptionLen characters plus a marker. The cut is
// on rune boundaries so multi-byte text stays valid UTF-8.
func truncate(s string) string {
	if len(s) <= maxDescriptionLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxDescriptionLen {
		return s
	}
	return string(runes[:maxDescriptionLen]) + truncationMarker
}

// formatSalary renders a structured salary as "$MIN-MAX/unit", "$MIN/unit", or
// the "Competitive" sentinel when no usable range is present. The provider
// nests the range under "value" (schema.org MonetaryAmount) but has also
// shipped it flat.
func formatSalary(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return "Competitive"
	}
	if inner, ok := m["value"].(map[string]any); ok {
		m = inner
	}

	min, minOK := number(m["minValue"])
	unit := strings.ToLower(stringOr(m["unitText"], ""))
	if !minOK || unit == "" {
		return "Competitive"
	}

	if max, maxOK := number(m["maxValue"]); maxOK {
		return fmt.Sprintf("$%s-%s/%s", formatNumber(min), formatNumber(max), unit)
	}
	return fmt.Sprintf("$%s/%s", formatNumber(min), unit)
}

// jobType returns "Internship" when the employment-type list carries an intern
// marker, the first listed type title-cased otherwise, and "Internship" when
// the list is empty or absent.
func jobType(v any) string {
	types := stringList(v)
	for _, t := range types {
		if strings.Contains(strings.ToLower(t), "intern") {
			return "Internship"
		}
	}
	if len(types) > 0 {
		return titleCase(types[0])
	}
	return "Internship"
}

// dateOnly keeps the date portion of a provider timestamp, dropping any
// time-of-day component. Unparseable or absent values fall back to now.
func dateOnly(s string, now time.Time) string {
	if s == "" {
		return now.Format("2006-01-02")
	}
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return now.Format("2006-01-02")
	}
	return s
}

// stringOr returns v if it is a non-empty string, fallback otherwise.
func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// stringify renders string or numeric ids; anything else gets the fallback.
func stringify(v any, fallback string) string {
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return fallback
}

// firstString returns the first non-empty string in a provider list value.
func firstString(v any, fallback string) string {
	for _, s := range stringList(v) {
		if s != "" {
			return s
		}
	}
	return fallback
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func boolField(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// titleCase lower-cases s and capitalizes the first letter of each
// separator-delimited segment ("FULL_TIME" becomes "Full_Time").
func titleCase(s string) string {
	b := []byte(strings.ToLower(s))
	up := true
	for i, c := range b {
		if up && 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
		up = c == '_' || c == '-' || c == ' '
	}
	return string(b)
}
