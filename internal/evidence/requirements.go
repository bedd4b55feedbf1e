package evidence

import (
	"regexp"
	"strings"
)

// Requirement is a category of visual or documentary proof.
type Requirement string

const (
	FourCorners       Requirement = "four_corners"
	Odometer          Requirement = "odometer"
	VIN               Requirement = "vin"
	LicensePlate      Requirement = "license_plate"
	AdvisorReport     Requirement = "advisor_report"
	ValuationDocument Requirement = "valuation_document"
)

// Required lists the compliance requirements in reporting order.
var Required = []Requirement{FourCorners, Odometer, VIN, LicensePlate}

// Confirmations are detected like requirements but only reported as hints.
var Confirmations = []Requirement{AdvisorReport, ValuationDocument}

var labels = map[Requirement]string{
	FourCorners:       "four corners",
	Odometer:          "odometer",
	VIN:               "vin",
	LicensePlate:      "license plate",
	AdvisorReport:     "advisor report",
	ValuationDocument: "valuation document",
}

// Label is the human-readable name used in hints and reports.
func (r Requirement) Label() string {
	if l, ok := labels[r]; ok {
		return l
	}
	return string(r)
}

// Matcher decides whether a text supplies evidence.
type Matcher interface {
	Match(text string) bool
}

// keywords matches any phrase, case-insensitively, on word boundaries.
type keywords struct {
	re *regexp.Regexp
}

func Keywords(phrases ...string) Matcher {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(p))
	}
	return keywords{re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

func (k keywords) Match(text string) bool {
	return k.re.MatchString(text)
}

// pattern matches a regular expression, optionally validating each hit.
type pattern struct {
	re    *regexp.Regexp
	valid func(string) bool
}

func Pattern(expr string, valid func(string) bool) Matcher {
	return pattern{re: regexp.MustCompile(expr), valid: valid}
}

func (p pattern) Match(text string) bool {
	if p.valid == nil {
		return p.re.MatchString(text)
	}
	for _, hit := range p.re.FindAllString(text, -1) {
		if p.valid(hit) {
			return true
		}
	}
	return false
}

// Rule is one row of the requirement table: its candidate matchers are
// evaluated in priority order and the first hit satisfies the requirement.
type Rule struct {
	Requirement Requirement
	Matchers    []Matcher
}

func (r Rule) satisfiedBy(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, m := range r.Matchers {
		if m.Match(text) {
			return true
		}
	}
	return false
}

// Corner is one of the four viewpoints of the four-corner photo set.
type Corner string

const (
	FrontLeft  Corner = "front_left"
	FrontRight Corner = "front_right"
	RearLeft   Corner = "rear_left"
	RearRight  Corner = "rear_right"
)

// CornerRule maps a corner to its synonyms.
type CornerRule struct {
	Corner  Corner
	Matcher Matcher
}

// VINPattern is the 17-character VIN alphabet: digits and capitals except I, O and Q.
var VINPattern = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)

// IsVIN reports whether s is a plausible VIN: the restricted alphabet and
// at least one letter and one digit, so long pure numbers are not taken as VINs.
func IsVIN(s string) bool {
	if !VINPattern.MatchString(s) || len(s) != 17 {
		return false
	}
	return strings.ContainsAny(s, "0123456789") && strings.ContainsAny(s, "ABCDEFGHJKLMNPRSTUVWXYZ")
}

// DefaultRules is the canonical requirement table.
func DefaultRules() []Rule {
	return []Rule{
		{Requirement: Odometer, Matchers: []Matcher{
			Keywords("odometer", "odo reading", "mileage", "miles on vehicle"),
			Pattern(`(?i)\b\d{1,3}(?:[,.]\d{3})+\s*(?:miles?|mi|km|kms|kilomet(?:er|re)s?)\b`, nil),
			Pattern(`(?i)\b\d{2,7}\s*(?:miles?|mi|km|kms|kilomet(?:er|re)s?)\b`, nil),
		}},
		{Requirement: VIN, Matchers: []Matcher{
			Pattern(`\b[A-HJ-NPR-Z0-9]{17}\b`, IsVIN),
			Keywords("vin plate", "vin sticker", "vin label", "vehicle identification number", "vin photo"),
		}},
		{Requirement: LicensePlate, Matchers: []Matcher{
			Keywords("license plate", "licence plate", "plate number", "registration plate", "tag number", "number plate"),
			Pattern(`\b[A-Z]{2,3}[- ]?\d{3,4}\b`, nil),
		}},
		{Requirement: AdvisorReport, Matchers: []Matcher{
			Keywords("advisor report", "adviser report", "claim advisor", "appraisal report", "adjuster report"),
		}},
		{Requirement: ValuationDocument, Matchers: []Matcher{
			Keywords("valuation report", "market valuation", "actual cash value", "acv", "total loss valuation", "ccc one", "kelley blue book", "nada guides", "jd power"),
		}},
	}
}

// DefaultCornerRules is the canonical four-corner synonym table.
func DefaultCornerRules() []CornerRule {
	return []CornerRule{
		{Corner: FrontLeft, Matcher: Keywords("front left", "front-left", "left front", "left-front", "driver front", "front driver side", "lf corner")},
		{Corner: FrontRight, Matcher: Keywords("front right", "front-right", "right front", "right-front", "passenger front", "front passenger side", "rf corner")},
		{Corner: RearLeft, Matcher: Keywords("rear left", "rear-left", "left rear", "left-rear", "back left", "driver rear", "lr corner")},
		{Corner: RearRight, Matcher: Keywords("rear right", "rear-right", "right rear", "right-rear", "back right", "passenger rear", "rr corner")},
	}
}
