// Package rulebook holds the tunable scoring tables: fraud weights and
// lexicons, reconciliation points, evidence synonyms and client rules. The
// defaults are the canonical rule set; a YAML file may override any part.
package rulebook

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"claimaudit/internal/evidence"
	"claimaudit/internal/fraud"
	"claimaudit/internal/reconcile"
	pstrings "claimaudit/pkg/platform/strings"
)

type Fraud struct {
	Weights           fraud.Weights `yaml:"weights"`
	SuspiciousTerms   []string      `yaml:"suspicious_terms"`
	NarrativeHedges   []string      `yaml:"narrative_hedges"`
	CaptureYearWindow int           `yaml:"capture_year_window"`
	MetadataMinImages int           `yaml:"metadata_min_images"`
	ModerateThreshold int           `yaml:"moderate_threshold"`
	HighThreshold     int           `yaml:"high_threshold"`
}

type LaborCategory struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type Reconcile struct {
	EvidencePoints      int             `yaml:"evidence_points"`
	LaborPoints         int             `yaml:"labor_points"`
	TaxPoints           int             `yaml:"tax_points"`
	PartsPoints         int             `yaml:"parts_points"`
	PartsRecentYears    int             `yaml:"parts_recent_years"`
	ConsistencyOverride bool            `yaml:"consistency_override"`
	LaborCategories     []LaborCategory `yaml:"labor_categories"`
}

type Evidence struct {
	MinCorners    int                 `yaml:"min_corners"`
	ExtraKeywords map[string][]string `yaml:"extra_keywords"`
}

// Rulebook is the full set of tunables.
type Rulebook struct {
	Fraud       Fraud                  `yaml:"fraud"`
	Reconcile   Reconcile              `yaml:"reconcile"`
	Evidence    Evidence               `yaml:"evidence"`
	ClientRules []reconcile.ClientRule `yaml:"client_rules"`
}

// Default returns the canonical rulebook.
func Default() *Rulebook {
	fc := fraud.DefaultConfig()
	rc := reconcile.DefaultConfig()
	cats := make([]LaborCategory, len(rc.LaborCategories))
	for i, c := range rc.LaborCategories {
		cats[i] = LaborCategory{Name: c.Name, Keywords: c.Keywords}
	}
	return &Rulebook{
		Fraud: Fraud{
			Weights:           fc.Weights,
			SuspiciousTerms:   fc.SuspiciousTerms,
			NarrativeHedges:   fc.NarrativeHedges,
			CaptureYearWindow: fc.CaptureYearWindow,
			MetadataMinImages: fc.MetadataMinImages,
			ModerateThreshold: fc.ModerateThreshold,
			HighThreshold:     fc.HighThreshold,
		},
		Reconcile: Reconcile{
			EvidencePoints:      rc.EvidencePoints,
			LaborPoints:         rc.LaborPoints,
			TaxPoints:           rc.TaxPoints,
			PartsPoints:         rc.PartsPoints,
			PartsRecentYears:    rc.PartsRecentYears,
			ConsistencyOverride: rc.ConsistencyOverride,
			LaborCategories:     cats,
		},
		Evidence: Evidence{MinCorners: 2},
	}
}

// Parse overlays YAML onto the defaults; keys absent from data keep their
// default values.
func Parse(data []byte) (*Rulebook, error) {
	rb := Default()
	if err := yaml.Unmarshal(data, rb); err != nil {
		return nil, fmt.Errorf("parse rulebook: %w", err)
	}
	rb.cleanLexicons()
	if err := rb.Validate(); err != nil {
		return nil, err
	}
	return rb, nil
}

// cleanLexicons folds and dedupes every keyword list read from YAML.
func (rb *Rulebook) cleanLexicons() {
	rb.Fraud.SuspiciousTerms = pstrings.Clean(rb.Fraud.SuspiciousTerms, true)
	rb.Fraud.NarrativeHedges = pstrings.Clean(rb.Fraud.NarrativeHedges, true)
	for i := range rb.Reconcile.LaborCategories {
		rb.Reconcile.LaborCategories[i].Keywords = pstrings.Clean(rb.Reconcile.LaborCategories[i].Keywords, true)
	}
	for req, words := range rb.Evidence.ExtraKeywords {
		rb.Evidence.ExtraKeywords[req] = pstrings.Clean(words, true)
	}
}

// Load reads a rulebook file. An empty path returns the defaults.
func Load(path string) (*Rulebook, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulebook: %w", err)
	}
	return Parse(data)
}

// Validate rejects rulebooks that would produce out-of-contract scores.
func (rb *Rulebook) Validate() error {
	var errs []error
	w := rb.Fraud.Weights
	for name, v := range map[string]int{
		"duplicate_photo":          w.DuplicatePhoto,
		"metadata_irregularity":    w.MetadataIrregularity,
		"suspicious_term_single":   w.SuspiciousTermSingle,
		"suspicious_term_multiple": w.SuspiciousTermMultiple,
		"claim_number_conflict":    w.ClaimNumberConflict,
		"claim_reference_mismatch": w.ClaimReferenceMismatch,
		"narrative_flag_single":    w.NarrativeFlagSingle,
		"narrative_flag_multiple":  w.NarrativeFlagMultiple,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("fraud weight %s must be within 0-100, got %d", name, v))
		}
	}
	if rb.Fraud.ModerateThreshold <= 0 || rb.Fraud.HighThreshold <= rb.Fraud.ModerateThreshold || rb.Fraud.HighThreshold > 100 {
		errs = append(errs, fmt.Errorf("fraud thresholds must satisfy 0 < moderate < high <= 100, got %d/%d",
			rb.Fraud.ModerateThreshold, rb.Fraud.HighThreshold))
	}
	if rb.Fraud.CaptureYearWindow < 0 {
		errs = append(errs, errors.New("capture_year_window must not be negative"))
	}
	r := rb.Reconcile
	if r.EvidencePoints < 0 || r.LaborPoints < 0 || r.TaxPoints < 0 || r.PartsPoints < 0 {
		errs = append(errs, errors.New("reconcile points must not be negative"))
	}
	if r.PartsRecentYears < 0 {
		errs = append(errs, errors.New("parts_recent_years must not be negative"))
	}
	for _, c := range r.LaborCategories {
		if c.Name == "" || len(c.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("labor category %q needs a name and keywords", c.Name))
		}
	}
	known := make(map[evidence.Requirement]bool)
	for _, req := range append(append([]evidence.Requirement{}, evidence.Required...), evidence.Confirmations...) {
		known[req] = true
	}
	for req := range rb.Evidence.ExtraKeywords {
		if !known[evidence.Requirement(req)] || evidence.Requirement(req) == evidence.FourCorners {
			errs = append(errs, fmt.Errorf("extra_keywords: unknown requirement %q", req))
		}
	}
	if err := reconcile.ValidateClientRules(rb.ClientRules); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FraudConfig converts the fraud section for the scorer.
func (rb *Rulebook) FraudConfig() fraud.Config {
	f := rb.Fraud
	return fraud.Config{
		Weights:           f.Weights,
		SuspiciousTerms:   f.SuspiciousTerms,
		NarrativeHedges:   f.NarrativeHedges,
		CaptureYearWindow: f.CaptureYearWindow,
		MetadataMinImages: max(f.MetadataMinImages, 1),
		ModerateThreshold: f.ModerateThreshold,
		HighThreshold:     f.HighThreshold,
	}
}

// ReconcileConfig converts the reconcile section and client rules.
func (rb *Rulebook) ReconcileConfig() reconcile.Config {
	r := rb.Reconcile
	cats := make([]reconcile.LaborCategory, len(r.LaborCategories))
	for i, c := range r.LaborCategories {
		cats[i] = reconcile.LaborCategory{Name: c.Name, Keywords: c.Keywords}
	}
	return reconcile.Config{
		EvidencePoints:      r.EvidencePoints,
		LaborPoints:         r.LaborPoints,
		TaxPoints:           r.TaxPoints,
		PartsPoints:         r.PartsPoints,
		LaborCategories:     cats,
		PartsRecentYears:    r.PartsRecentYears,
		ConsistencyOverride: r.ConsistencyOverride,
		ClientRules:         rb.ClientRules,
	}
}

// DetectorOptions converts the evidence section.
func (rb *Rulebook) DetectorOptions() []evidence.Option {
	extra := make(map[evidence.Requirement][]string, len(rb.Evidence.ExtraKeywords))
	for req, words := range rb.Evidence.ExtraKeywords {
		extra[evidence.Requirement(req)] = words
	}
	return []evidence.Option{
		evidence.WithMinCorners(rb.Evidence.MinCorners),
		evidence.WithExtraKeywords(extra),
	}
}
