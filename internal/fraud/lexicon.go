package fraud

import (
	"regexp"
	"slices"
	"strings"
)

// lexicon matches a list of terms, where a trailing "*" marks a stem.
type lexicon struct {
	terms []string
	res   []*regexp.Regexp
}

func newLexicon(terms []string) lexicon {
	lx := lexicon{}
	for _, t := range terms {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" || t == "*" {
			continue
		}
		expr := regexp.QuoteMeta(strings.TrimSuffix(t, "*"))
		if strings.HasSuffix(t, "*") {
			expr += `\w*`
		}
		lx.terms = append(lx.terms, strings.TrimSuffix(t, "*"))
		lx.res = append(lx.res, regexp.MustCompile(`(?i)\b`+expr+`\b`))
	}
	return lx
}

// distinctHits returns the entries found in text, in lexicon order.
func (lx lexicon) distinctHits(text string) []string {
	var hits []string
	for i, re := range lx.res {
		if re.MatchString(text) {
			hits = append(hits, lx.terms[i])
		}
	}
	return hits
}

// negationGap is how many preceding words are searched for a negation.
const negationGap = 3

var (
	wordRe    = regexp.MustCompile(`[a-z']+`)
	negations = map[string]bool{"no": true, "not": true, "without": true, "none": true, "never": true, "nor": true}
)

// unnegatedHits is distinctHits for narrative prose: a hit preceded within
// three words by a negation ("no duplicate photos", "not suspicious") is
// ignored.
func (lx lexicon) unnegatedHits(text string) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	found := make(map[int]bool)
	for i, w := range words {
		for j, re := range lx.res {
			if found[j] || !re.MatchString(w) {
				continue
			}
			if negatedAt(words, i) {
				continue
			}
			found[j] = true
		}
	}
	var hits []string
	for j := range lx.res {
		if found[j] {
			hits = append(hits, lx.terms[j])
		}
	}
	return hits
}

func negatedAt(words []string, i int) bool {
	for k := i - 1; k >= 0 && k >= i-negationGap; k-- {
		if negations[words[k]] {
			return true
		}
	}
	return false
}

var (
	// labeledClaimRe captures the value after a claim-number label.
	labeledClaimRe = regexp.MustCompile(`(?i)\bclaim\s*(?:number\b|num\b|no\b\.?|#|id\b)\s*[:#\-=]?\s*#?\s*([A-Z0-9][A-Z0-9\-/]{3,})`)
	// shapedClaimRe finds unlabeled claim identifiers such as CLM-104233.
	shapedClaimRe = regexp.MustCompile(`(?i)\bCLM[- ]?\d{4,}\b`)
	nonAlnumRe    = regexp.MustCompile(`[^A-Z0-9]`)
)

// normalizeClaimNumber folds a claim identifier to a comparison key:
// uppercase alphanumerics with any CLM prefix removed.
func normalizeClaimNumber(s string) string {
	key := nonAlnumRe.ReplaceAllString(strings.ToUpper(s), "")
	key = strings.TrimPrefix(key, "CLM")
	if !strings.ContainsAny(key, "0123456789") || len(key) < 4 {
		return ""
	}
	return key
}

// claimNumbers returns the distinct claim-number keys in text, in order of
// first appearance.
func claimNumbers(text string) []string {
	type hit struct {
		pos int
		key string
	}
	var hits []hit
	for _, m := range labeledClaimRe.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{pos: m[2], key: normalizeClaimNumber(text[m[2]:m[3]])})
	}
	for _, m := range shapedClaimRe.FindAllStringIndex(text, -1) {
		hits = append(hits, hit{pos: m[0], key: normalizeClaimNumber(text[m[0]:m[1]])})
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return a.pos - b.pos })
	seen := make(map[string]bool)
	var keys []string
	for _, h := range hits {
		if h.key == "" || seen[h.key] {
			continue
		}
		seen[h.key] = true
		keys = append(keys, h.key)
	}
	return keys
}
