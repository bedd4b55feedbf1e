// Package fraud computes an independent fraud-risk score for a claim package
// from a fixed set of weighted signals. Scoring is deterministic: the same
// package and clock always produce the same score, signals and issues.
package fraud

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ImageInput is one uploaded photo.
type ImageInput struct {
	Name string
	Data []byte
}

// Input is everything one scoring pass looks at.
type Input struct {
	CombinedText string
	Images       []ImageInput
	// ReferenceClaim is the claim number the package was filed under; empty
	// disables the reference comparison.
	ReferenceClaim string
	// Now anchors the capture-year window.
	Now time.Time
}

// ImageFingerprint is the perceptual hash of one readable image.
type ImageFingerprint struct {
	Name string `json:"name"`
	Hash uint64 `json:"hash"`
}

// Hex renders the hash the way it is stored and displayed.
func (f ImageFingerprint) Hex() string {
	return fmt.Sprintf("%016x", f.Hash)
}

// Assessment is the scorer's output.
type Assessment struct {
	Score   int      `json:"score"`
	Risk    Risk     `json:"risk"`
	Signals []Signal `json:"signals"`
	// Issues are the per-image and per-term findings in human-readable form.
	Issues       []string           `json:"issues"`
	Fingerprints []ImageFingerprint `json:"-"`
}

// Flags returns the kinds of the weighted signals that fired.
func (a Assessment) Flags() []string {
	var out []string
	for _, s := range a.Signals {
		if s.Weight > 0 {
			out = append(out, string(s.Kind))
		}
	}
	return out
}

// Scorer evaluates the canonical fraud signals. It is safe for concurrent use.
type Scorer struct {
	cfg         Config
	terms       lexicon
	hedges      lexicon
	fingerprint Fingerprinter
	capture     CaptureTimeReader
	logger      *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

func WithConfig(cfg Config) Option {
	return func(s *Scorer) {
		s.cfg = cfg
	}
}

func WithFingerprinter(f Fingerprinter) Option {
	return func(s *Scorer) {
		if f != nil {
			s.fingerprint = f
		}
	}
}

func WithCaptureTimeReader(r CaptureTimeReader) Option {
	return func(s *Scorer) {
		if r != nil {
			s.capture = r
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) {
		s.logger = logger
	}
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		cfg:         DefaultConfig(),
		fingerprint: PerceptualHasher{},
		capture:     EXIFReader{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.terms = newLexicon(s.cfg.SuspiciousTerms)
	s.hedges = newLexicon(s.cfg.NarrativeHedges)
	return s
}

// Score runs every package-level signal. The narrative self-flag needs the
// collaborator's output and is applied later with ApplyNarrative.
func (s *Scorer) Score(in Input) Assessment {
	var a Assessment
	s.scoreImages(in, &a)
	s.scoreTerms(in.CombinedText, &a)
	s.scoreClaimNumbers(in.CombinedText, in.ReferenceClaim, &a)
	s.finish(&a)
	return a
}

// ApplyNarrative adds the narrative self-flag to a finished assessment and
// recomputes its score and label. The input assessment is not modified.
func (s *Scorer) ApplyNarrative(a Assessment, narrative string) Assessment {
	hits := s.hedges.unnegatedHits(narrative)
	if len(hits) == 0 {
		return a
	}
	out := Assessment{
		Signals:      append([]Signal(nil), a.Signals...),
		Issues:       append([]string(nil), a.Issues...),
		Fingerprints: a.Fingerprints,
	}
	weight := s.cfg.Weights.NarrativeFlagSingle
	if len(hits) > 1 {
		weight = s.cfg.Weights.NarrativeFlagMultiple
	}
	out.Signals = append(out.Signals, Signal{
		Kind:        SignalNarrativeFlag,
		Weight:      weight,
		Description: "Narrative review raised: " + strings.Join(hits, ", "),
	})
	s.finish(&out)
	return out
}

func (s *Scorer) scoreImages(in Input, a *Assessment) {
	seen := make(map[uint64]string, len(in.Images))
	var duplicates []string
	irregular := 0
	minYear, maxYear := in.Now.Year()-s.cfg.CaptureYearWindow, in.Now.Year()

	for _, img := range in.Images {
		hash, err := s.fingerprint.Fingerprint(img.Data)
		if err != nil {
			s.logger.Warn("fraud check could not read image", "image", img.Name, "error", err)
			a.Issues = append(a.Issues, "Unreadable image: "+img.Name)
			a.Signals = append(a.Signals, Signal{
				Kind:        SignalUnreadableImage,
				Description: "Unreadable image: " + img.Name,
			})
			continue
		}
		a.Fingerprints = append(a.Fingerprints, ImageFingerprint{Name: img.Name, Hash: hash})
		if first, ok := seen[hash]; ok {
			duplicates = append(duplicates, img.Name)
			a.Issues = append(a.Issues, "Duplicate photo detected: "+img.Name)
			s.logger.Debug("duplicate photo", "image", img.Name, "original", first)
		} else {
			seen[hash] = img.Name
		}

		taken, err := s.capture.CaptureTime(img.Data)
		switch {
		case errors.Is(err, ErrNoCaptureTime) || (err == nil && taken.IsZero()):
			irregular++
			a.Issues = append(a.Issues, "Missing EXIF data: "+img.Name)
		case err != nil:
			irregular++
			a.Issues = append(a.Issues, "EXIF read error: "+img.Name)
		case in.Now.IsZero():
			// no clock, no window check
		case taken.Year() < minYear || taken.Year() > maxYear:
			irregular++
			a.Issues = append(a.Issues, fmt.Sprintf("Suspicious timestamp in %s: %s", img.Name, taken.Format("2006:01:02 15:04:05")))
		}
	}

	if len(duplicates) > 0 {
		a.Signals = append(a.Signals, Signal{
			Kind:        SignalDuplicatePhoto,
			Weight:      s.cfg.Weights.DuplicatePhoto,
			Description: "Duplicate photo detected: " + strings.Join(duplicates, ", "),
		})
	}
	if irregular >= s.cfg.MetadataMinImages {
		a.Signals = append(a.Signals, Signal{
			Kind:        SignalMetadata,
			Weight:      s.cfg.Weights.MetadataIrregularity,
			Description: fmt.Sprintf("%d images lack a capture timestamp or fall outside %d-%d", irregular, minYear, maxYear),
		})
	}
}

func (s *Scorer) scoreTerms(text string, a *Assessment) {
	hits := s.terms.distinctHits(text)
	if len(hits) == 0 {
		return
	}
	weight := s.cfg.Weights.SuspiciousTermSingle
	if len(hits) > 1 {
		weight = s.cfg.Weights.SuspiciousTermMultiple
	}
	a.Signals = append(a.Signals, Signal{
		Kind:        SignalSuspiciousTerm,
		Weight:      weight,
		Description: "Suspicious terms in documents: " + strings.Join(hits, ", "),
	})
}

func (s *Scorer) scoreClaimNumbers(text, reference string, a *Assessment) {
	keys := claimNumbers(text)
	ref := normalizeClaimNumber(reference)

	weight := 0
	var reasons []string
	if len(keys) > 1 {
		weight = s.cfg.Weights.ClaimNumberConflict
		reasons = append(reasons, fmt.Sprintf("%d different claim numbers in documents", len(keys)))
	}
	if ref != "" {
		for _, k := range keys {
			if k != ref {
				weight = max(weight, s.cfg.Weights.ClaimReferenceMismatch)
				reasons = append(reasons, "claim number "+k+" does not match file "+reference)
				break
			}
		}
	}
	if weight == 0 {
		return
	}
	a.Signals = append(a.Signals, Signal{
		Kind:        SignalClaimMismatch,
		Weight:      weight,
		Description: strings.Join(reasons, "; "),
	})
}

// finish sums the weights, clamps to [0,100] and assigns the label.
func (s *Scorer) finish(a *Assessment) {
	total := 0
	for _, sig := range a.Signals {
		total += sig.Weight
	}
	a.Score = min(max(total, 0), 100)
	a.Risk = s.cfg.RiskFor(a.Score)
}
