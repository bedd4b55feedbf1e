// Package evidence decides which required evidentiary artifacts are present
// in a claim package. A requirement is satisfied as soon as any single
// source (the combined document text or one image's OCR text) supplies it.
package evidence

import (
	"strings"
)

// defaultMinCorners is how many distinct corner viewpoints satisfy FourCorners.
const defaultMinCorners = 2

// Detector evaluates the requirement table. It is pure and safe for
// concurrent use.
type Detector struct {
	rules       []Rule
	corners     []CornerRule
	minCorners  int
	required    []Requirement
	confirmable []Requirement
}

// Option configures a Detector.
type Option func(*Detector)

// WithExtraKeywords appends synonyms to a requirement's matcher list. They are
// evaluated after the built-in matchers.
func WithExtraKeywords(extra map[Requirement][]string) Option {
	return func(d *Detector) {
		for i, rule := range d.rules {
			if phrases := extra[rule.Requirement]; len(phrases) > 0 {
				d.rules[i].Matchers = append(d.rules[i].Matchers, Keywords(phrases...))
			}
		}
	}
}

// WithMinCorners overrides how many distinct corners satisfy FourCorners.
func WithMinCorners(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.minCorners = n
		}
	}
}

func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		rules:       DefaultRules(),
		corners:     DefaultCornerRules(),
		minCorners:  defaultMinCorners,
		required:    Required,
		confirmable: Confirmations,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Report is the outcome of one detection pass.
type Report struct {
	// Missing lists unsatisfied required items in canonical order.
	Missing []Requirement `json:"missing"`
	// Confirmed lists the confirmation documents that were found.
	Confirmed []Requirement `json:"confirmed"`
	// Corners lists the distinct corner viewpoints seen across all sources.
	Corners []Corner `json:"corners"`
}

// Detect returns the evidence report for a package. Each requirement is
// evaluated exactly once over all sources.
func (d *Detector) Detect(combinedText string, imageTexts []string) Report {
	sources := make([]string, 0, len(imageTexts)+1)
	if strings.TrimSpace(combinedText) != "" {
		sources = append(sources, combinedText)
	}
	for _, t := range imageTexts {
		if strings.TrimSpace(t) != "" {
			sources = append(sources, t)
		}
	}

	satisfied := make(map[Requirement]bool, len(d.rules)+1)
	for _, rule := range d.rules {
		for _, src := range sources {
			if rule.satisfiedBy(src) {
				satisfied[rule.Requirement] = true
				break
			}
		}
	}

	corners := d.cornersSeen(sources)
	if len(corners) >= d.minCorners {
		satisfied[FourCorners] = true
	}

	report := Report{Corners: corners}
	for _, req := range d.required {
		if !satisfied[req] {
			report.Missing = append(report.Missing, req)
		}
	}
	for _, req := range d.confirmable {
		if satisfied[req] {
			report.Confirmed = append(report.Confirmed, req)
		}
	}
	return report
}

// cornersSeen counts distinct corners across every source together, so two
// photos each showing one corner satisfy the pair threshold.
func (d *Detector) cornersSeen(sources []string) []Corner {
	var seen []Corner
	for _, cr := range d.corners {
		for _, src := range sources {
			if cr.Matcher.Match(src) {
				seen = append(seen, cr.Corner)
				break
			}
		}
	}
	return seen
}

// IsMissing reports whether req is among the missing requirements.
func (r Report) IsMissing(req Requirement) bool {
	for _, m := range r.Missing {
		if m == req {
			return true
		}
	}
	return false
}

// Hints renders the report as the evidence hint lines handed to the narrative
// collaborator, e.g. "MISSING PHOTOS: odometer, vin".
func (r Report) Hints() string {
	var lines []string
	if len(r.Missing) > 0 {
		lines = append(lines, "MISSING PHOTOS: "+joinLabels(r.Missing))
	}
	if len(r.Confirmed) > 0 {
		lines = append(lines, "CONFIRMED DOCUMENTS: "+joinLabels(r.Confirmed))
	}
	return strings.Join(lines, "\n")
}

// MissingLabels returns the human-readable names of missing requirements.
func (r Report) MissingLabels() []string {
	out := make([]string, len(r.Missing))
	for i, m := range r.Missing {
		out[i] = m.Label()
	}
	return out
}

func joinLabels(reqs []Requirement) string {
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = r.Label()
	}
	return strings.Join(names, ", ")
}
