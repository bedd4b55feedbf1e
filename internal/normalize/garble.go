package normalize

import (
	"strings"
	"unicode"
)

const (
	// minAlphaRatio below which text is considered noise regardless of runs.
	minAlphaRatio = 0.30
	// a run of this many consecutive digits/punctuation needs mostly-letter
	// surroundings (ratio >= maxRunAlphaRatio) to be accepted.
	maxNonAlphaRun   = 20
	maxRunAlphaRatio = 0.50
)

// LooksGarbled reports whether text is dominated by digits, punctuation or
// replacement characters, the typical shape of a broken text layer or a bad
// OCR pass. Whitespace is ignored; empty text is not garbled.
func LooksGarbled(text string) bool {
	var letters, others, run, longest int
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			run = 0
		case unicode.IsLetter(r):
			letters++
			run = 0
		default:
			others++
			run++
			if run > longest {
				longest = run
			}
		}
	}
	total := letters + others
	if total == 0 {
		return false
	}
	ratio := float64(letters) / float64(total)
	return ratio < minAlphaRatio || (longest >= maxNonAlphaRun && ratio < maxRunAlphaRatio)
}

// usable reports whether text is worth keeping as evidence.
func usable(text string) bool {
	return strings.TrimSpace(text) != "" && !LooksGarbled(text)
}
