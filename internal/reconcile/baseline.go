package reconcile

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultBaseline is used when the self-reported score cannot be parsed.
const DefaultBaseline = 100

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseBaseline reads a self-reported compliance percentage such as "85%",
// "85.5 %" or "Compliance Score: 85%". The value is rounded and clamped to
// [0,100]. When nothing numeric can be read it returns DefaultBaseline and
// defaulted=true.
func ParseBaseline(raw string) (score int, defaulted bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "N/A") {
		return DefaultBaseline, true
	}
	m := numberRe.FindString(raw)
	if m == "" {
		return DefaultBaseline, true
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return DefaultBaseline, true
	}
	return clamp(int(v + 0.5)), false
}

func clamp(v int) int {
	return min(max(v, 0), 100)
}
