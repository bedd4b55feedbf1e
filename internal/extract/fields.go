package extract

import (
	"regexp"
	"strconv"
	"strings"

	"claimaudit/internal/evidence"
)

// Field names reported in an assessment.
const (
	FieldClaimNumber     = "Claim Number"
	FieldVIN             = "VIN"
	FieldYear            = "Year"
	FieldMake            = "Make"
	FieldModel           = "Model"
	FieldMileage         = "Mileage"
	FieldComplianceScore = "Compliance Score"
)

// FieldSpec is one row of the field table. Labels are tried in priority
// order; the first label producing a valid value wins. Validate may
// normalize the value. Fallback is the field's domain grammar, searched over
// the whole text when no labeled capture validates.
type FieldSpec struct {
	Name     string
	Labels   []string
	Validate func(string) (string, bool)
	Fallback *regexp.Regexp
}

var (
	yearRe       = regexp.MustCompile(`\b(19[5-9]\d|20\d{2})\b`)
	mileageRe    = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+\b|\b\d{1,7}\b`)
	percentRe    = regexp.MustCompile(`\b(\d{1,3}(?:\.\d+)?)\s*%`)
	outOf100Re   = regexp.MustCompile(`\b(\d{1,3}(?:\.\d+)?)\s*/\s*100\b`)
	bareScoreRe  = regexp.MustCompile(`^(\d{1,3}(?:\.\d+)?)$`)
	complianceRe = regexp.MustCompile(`(?i)compliance[^\d\r\n]{0,40}(\d{1,3}(?:\.\d+)?)\s*%`)
	claimRe      = regexp.MustCompile(`(?i)\b[A-Z]{0,4}-?\d[\dA-Z\-]{3,}\b`)
)

func validVIN(s string) (string, bool) {
	for _, hit := range evidence.VINPattern.FindAllString(strings.ToUpper(s), -1) {
		if evidence.IsVIN(hit) {
			return hit, true
		}
	}
	return "", false
}

func validYear(s string) (string, bool) {
	m := yearRe.FindString(s)
	return m, m != ""
}

func validMileage(s string) (string, bool) {
	m := mileageRe.FindString(s)
	return m, m != ""
}

// validPercent accepts "N%", "N/100" or a value that is only a number.
// Other digits in a compliance line (issue counts, "4 of 5") are not scores.
func validPercent(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, re := range []*regexp.Regexp{percentRe, outOf100Re, bareScoreRe} {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v > 100 {
			return "", false
		}
		return m[1] + "%", true
	}
	return "", false
}

func validClaim(s string) (string, bool) {
	m := claimRe.FindString(s)
	return strings.ToUpper(m), m != ""
}

func nonEmpty(s string) (string, bool) {
	return s, s != "" && !strings.EqualFold(s, NotAvailable)
}

// DefaultFields is the canonical field table.
func DefaultFields() []FieldSpec {
	return []FieldSpec{
		{Name: FieldClaimNumber, Labels: []string{"Claim Number", "Claim No", "Claim ID", "Claim"}, Validate: validClaim},
		{Name: FieldVIN, Labels: []string{"VIN", "Vehicle Identification Number"}, Validate: validVIN, Fallback: evidence.VINPattern},
		{Name: FieldYear, Labels: []string{"Vehicle Year", "Model Year", "Year"}, Validate: validYear},
		{Name: FieldMake, Labels: []string{"Make", "Vehicle Make"}, Validate: nonEmpty},
		{Name: FieldModel, Labels: []string{"Model", "Vehicle Model"}, Validate: nonEmpty},
		{Name: FieldMileage, Labels: []string{"Mileage", "Odometer", "Odometer Reading"}, Validate: validMileage},
		{Name: FieldComplianceScore, Labels: []string{"Compliance Score", "Overall Compliance", "Compliance"}, Validate: validPercent, Fallback: complianceRe},
	}
}

// Fields maps field names to extracted values.
type Fields map[string]string

// Get returns the value for name, or NotAvailable.
func (f Fields) Get(name string) string {
	if v, ok := f[name]; ok && v != "" {
		return v
	}
	return NotAvailable
}

// Year returns the extracted vehicle model year.
func (f Fields) Year() (int, bool) {
	y, err := strconv.Atoi(f.Get(FieldYear))
	return y, err == nil
}

// Extractor applies a field table to narrative text. It holds no state
// besides the table and is safe for concurrent use.
type Extractor struct {
	fields []FieldSpec
}

// NewExtractor returns an Extractor over fields, or DefaultFields when none
// are given.
func NewExtractor(fields ...FieldSpec) *Extractor {
	if len(fields) == 0 {
		fields = DefaultFields()
	}
	return &Extractor{fields: fields}
}

// ExtractAll returns a value for every field in the table.
func (e *Extractor) ExtractAll(text string) Fields {
	out := make(Fields, len(e.fields))
	for _, spec := range e.fields {
		out[spec.Name] = e.extractField(spec, text)
	}
	return out
}

func (e *Extractor) extractField(spec FieldSpec, text string) string {
	for _, label := range spec.Labels {
		ranked := plurality(captures(label, text))
		if spec.Validate == nil {
			if len(ranked) > 0 {
				return ranked[0]
			}
			continue
		}
		// the plurality value wins unless the domain grammar rejects it,
		// in which case the next most frequent valid capture is used
		for _, v := range ranked {
			if norm, ok := spec.Validate(v); ok {
				return norm
			}
		}
	}
	if spec.Fallback != nil {
		for _, m := range spec.Fallback.FindAllStringSubmatch(text, -1) {
			candidate := m[0]
			if len(m) > 1 {
				candidate = m[1]
			}
			if spec.Validate == nil {
				return candidate
			}
			if norm, ok := spec.Validate(candidate); ok {
				return norm
			}
		}
	}
	return NotAvailable
}
