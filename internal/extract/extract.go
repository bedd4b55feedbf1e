// Package extract pulls labeled fields out of the free-form narrative
// returned by the narrative collaborator. Extraction never fails: a label
// that cannot be found yields NotAvailable.
package extract

import (
	"regexp"
	"slices"
	"strings"
)

// NotAvailable is returned for labels that have no usable value.
const NotAvailable = "N/A"

// trimSet is stripped from both ends of a captured value.
const trimSet = " \t*_`\"'"

// labelPattern matches `label <sep> value` where sep is one of : - # = and
// markdown emphasis may wrap the label ("**VIN:** ...").
func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)(?:^|[^\w])[*_]*` + regexp.QuoteMeta(label) + `[*_]*[ \t]*[:\-#=]+[*_]*[ \t]*([^\r\n]*)`)
}

// captures returns every non-empty value following label, in text order.
func captures(label, text string) []string {
	if strings.TrimSpace(label) == "" {
		return nil
	}
	var out []string
	for _, m := range labelPattern(label).FindAllStringSubmatch(text, -1) {
		if v := strings.Trim(m[1], trimSet); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// plurality orders distinct values by descending frequency, ties broken by
// first occurrence.
func plurality(values []string) []string {
	counts := make(map[string]int, len(values))
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	slices.SortStableFunc(order, func(a, b string) int { return counts[b] - counts[a] })
	return order
}

// Extract returns the most frequent value captured after label, or
// NotAvailable when the label never appears with a value.
func Extract(label, text string) string {
	ranked := plurality(captures(label, text))
	if len(ranked) == 0 {
		return NotAvailable
	}
	return ranked[0]
}
