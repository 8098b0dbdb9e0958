// Package filter classifies normalized postings as genuine CS internships or noise.
package filter

import (
	"strings"

	"github.com/internradar/internradar/internal/model"
)

// Decision is the terminal classification outcome for one posting.
type Decision string

const (
	Accepted            Decision = "accepted"
	RejectedExclusion   Decision = "rejected_exclusion_keyword"
	RejectedNotIntern   Decision = "rejected_not_internship"
	RejectedNoCSKeyword Decision = "rejected_no_cs_keyword"
)

// Result pairs a decision with the keyword that produced it. Keyword is the
// matched exclusion term on rejection at stage one, the matched internship or
// CS term on acceptance paths, and empty when no vocabulary term matched.
type Result struct {
	Decision Decision
	Keyword  string
}

// Vocabularies holds the three keyword lists, one per stage. They are config
// data so they can be tuned without touching the classifier.
type Vocabularies struct {
	Exclude    []string // stage 1: rejected outright on a title match
	Internship []string // stage 2: at least one must appear in title or description
	CS         []string // stage 3: at least one must appear in title + description
}

// Classifier applies the three-stage keyword pipeline. Stages run in a fixed
// order and short-circuit at the first rejection:
//
//  1. exclusion      — title only, to avoid false positives from boilerplate
//     company-description text
//  2. internship signal — title or description
//  3. CS inclusion   — title and description combined
//
// Matching is case-insensitive substring, like the rest of the pipeline.
type Classifier struct {
	exclude    []string
	internship []string
	cs         []string
}

// NewClassifier builds a classifier from the given vocabularies. Keywords are
// lower-cased once here so Classify does no per-call normalization of them.
func NewClassifier(vocab Vocabularies) *Classifier {
	return &Classifier{
		exclude:    lowerAll(vocab.Exclude),
		internship: lowerAll(vocab.Internship),
		cs:         lowerAll(vocab.CS),
	}
}

// Classify returns the decision for one posting. It is a pure function of the
// posting's title and description: calling it twice yields the same result.
func (c *Classifier) Classify(p model.Posting) Result {
	title := strings.ToLower(p.Title)
	description := strings.ToLower(p.Description)

	if kw, ok := matchAny(title, c.exclude); ok {
		return Result{Decision: RejectedExclusion, Keyword: kw}
	}

	kw, ok := matchAny(title, c.internship)
	if !ok {
		kw, ok = matchAny(description, c.internship)
	}
	if !ok {
		return Result{Decision: RejectedNotIntern}
	}
	internKw := kw

	combined := title + " " + description
	if _, ok := matchAny(combined, c.cs); !ok {
		return Result{Decision: RejectedNoCSKeyword}
	}

	return Result{Decision: Accepted, Keyword: internKw}
}

// Stats accumulates per-run classification counters. Observability only,
// never persisted.
type Stats struct {
	Processed       int
	Accepted        int
	ExcludedKeyword int
	NotInternship   int
	NoCSKeyword     int
}

// Record counts one decision. Exactly one counter beyond Processed moves per call.
func (s *Stats) Record(d Decision) {
	s.Processed++
	switch d {
	case Accepted:
		s.Accepted++
	case RejectedExclusion:
		s.ExcludedKeyword++
	case RejectedNotIntern:
		s.NotInternship++
	case RejectedNoCSKeyword:
		s.NoCSKeyword++
	}
}

// Rejected returns the total number of rejected postings.
func (s Stats) Rejected() int {
	return s.ExcludedKeyword + s.NotInternship + s.NoCSKeyword
}

func matchAny(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

func lowerAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, strings.ToLower(strings.TrimSpace(kw)))
	}
	return out
}
