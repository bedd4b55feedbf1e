// Package strings holds small slice-of-string helpers.
package strings

import (
	"strings"
)

// Clean trims every value, drops empties and keeps the first occurrence of
// each value in order. With fold set, values are lowercased before comparison
// and returned lowercased.
func Clean(values []string, fold bool) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
