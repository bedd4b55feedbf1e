package reconcile

import (
	"regexp"
	"strconv"
	"strings"
)

// LaborCategory is one of the labor kinds whose rate satisfies the labor rule.
type LaborCategory struct {
	Name     string
	Keywords []string
}

// DefaultLaborCategories is the fixed category list.
func DefaultLaborCategories() []LaborCategory {
	return []LaborCategory{
		{Name: "body", Keywords: []string{"body", "sheet metal"}},
		{Name: "paint", Keywords: []string{"paint", "refinish"}},
		{Name: "mechanical", Keywords: []string{"mechanical", "mech"}},
		{Name: "structural", Keywords: []string{"structural", "frame"}},
	}
}

var (
	laborWordRe   = regexp.MustCompile(`(?i)\b(?:labor|labour|rate|hourly)\b|per\s+hour|/\s*h(?:ou)?r\b`)
	rateShapeRe   = regexp.MustCompile(`(?i)\$\s*\d|\d(?:\.\d+)?\s*(?:/\s*h(?:ou)?r\b|per\s+hour\b|hourly\b)|\b(?:rate|hourly)\s*[:\-#=]*\s*\$?\s*\d`)
	taxFigureRe   = regexp.MustCompile(`(?i)\b(?:sales\s+)?tax(?:es)?\b[^\r\n\d$]{0,30}(?:\$\s*\d[\d,]*(?:\.\d{1,2})?|\d+(?:\.\d+)?\s*%|\d[\d,]*\.\d{2})|\d+(?:\.\d+)?\s*%\s*(?:sales\s+)?tax\b`)
	taxMentionRe  = regexp.MustCompile(`(?i)\btax(?:es)?\b`)
	mandateRe     = regexp.MustCompile(`(?i)\b(?:must|shall|required?|requires|mandatory|disclos\w*|itemi[sz]\w*|include[sd]?|show(?:n|s)?|list(?:ed)?)\b`)
	aftermarketRe = regexp.MustCompile(`(?i)\b(?:after[- ]?market|non[- ]?oem|alternative\s+parts?|alt\.?\s+parts?|a/m|lkq|capa(?:[- ]certified)?|quality\s+replacement\s+parts?|reconditioned)\b`)
	yearLabelRe   = regexp.MustCompile(`(?i)\b(?:model\s+year|vehicle\s+year|year)\s*[:\-#=]?\s*(19[5-9]\d|20\d{2})\b`)
	yearMakeRe    = regexp.MustCompile(`\b(19[5-9]\d|20\d{2})\s+(?:[A-Z][a-zA-Z]+|[A-Z]{2,})\b`)
	sentenceRe    = regexp.MustCompile(`[^.!?\r\n]+`)
)

// LaborRateFound reports whether any category has a rate line: a line naming
// the category and a labor/rate word with a rate-shaped figure (a currency
// amount, a figure per hour, or a figure after "rate"). Labor hours alone
// ("Body Labor: 3.2 hrs") are not a rate.
func LaborRateFound(text string, categories []LaborCategory) bool {
	matchers := make([]*regexp.Regexp, 0, len(categories))
	for _, c := range categories {
		quoted := make([]string, len(c.Keywords))
		for i, k := range c.Keywords {
			quoted[i] = regexp.QuoteMeta(k)
		}
		matchers = append(matchers, regexp.MustCompile(`(?i)\b(?:`+strings.Join(quoted, "|")+`)\b`))
	}
	for _, line := range strings.Split(text, "\n") {
		if !laborWordRe.MatchString(line) || !rateShapeRe.MatchString(line) {
			continue
		}
		for _, m := range matchers {
			if m.MatchString(line) {
				return true
			}
		}
	}
	return false
}

// TaxRequired reports whether the policy mandates tax disclosure: some
// sentence mentions tax together with a mandate word.
func TaxRequired(policy string) bool {
	for _, sentence := range sentenceRe.FindAllString(policy, -1) {
		if taxMentionRe.MatchString(sentence) && mandateRe.MatchString(sentence) {
			return true
		}
	}
	return false
}

// TaxFound reports whether the text discloses a tax rate or amount.
func TaxFound(text string) bool {
	return taxFigureRe.MatchString(text)
}

// AftermarketParts reports whether the text references alternative parts.
func AftermarketParts(text string) bool {
	return aftermarketRe.MatchString(text)
}

// DetectVehicleYear finds a model year in the text, preferring labeled
// years over a "2024 Honda" style mention. It returns 0 when none is found.
func DetectVehicleYear(text string) int {
	for _, re := range []*regexp.Regexp{yearLabelRe, yearMakeRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if y, err := strconv.Atoi(m[1]); err == nil {
				return y
			}
		}
	}
	return 0
}
